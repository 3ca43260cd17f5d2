package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadops-cli/internal/board"
	"github.com/sells-group/leadops-cli/internal/discovery"
	"github.com/sells-group/leadops-cli/internal/fetcher"
	anthropicpkg "github.com/sells-group/leadops-cli/pkg/anthropic"
)

var discoverAudit bool

var discoverCmd = &cobra.Command{
	Use:   "discover <candidates.json>",
	Short: "Ingest a candidate batch onto the board",
	Long:  "Parses a JSON array of raw candidates, normalizes them into scored scan-phase leads, and appends them to the board. With --audit, a Claude pass over each candidate's homepage refines the estimate-derived sub-scores.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		batchID := uuid.NewString()
		log := zap.L().With(zap.String("batch_id", batchID))

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrap(err, "read candidate file")
		}

		result, err := discovery.ParseBatch(data)
		if err != nil {
			return err
		}
		for _, rej := range result.Rejected {
			log.Warn("candidate rejected",
				zap.Int("index", rej.Index),
				zap.String("name", rej.Name),
				zap.String("reason", rej.Reason),
			)
		}

		env, err := initBoard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		inserted := env.Board.InsertMany(ctx, result.Leads)
		log.Info("batch ingested",
			zap.Int("accepted", len(inserted)),
			zap.Int("rejected", len(result.Rejected)),
		)

		if discoverAudit && len(inserted) > 0 {
			if cfg.Anthropic.Key == "" {
				return eris.New("--audit requires LEADOPS_ANTHROPIC_KEY")
			}

			ai := anthropicpkg.NewClient(cfg.Anthropic.Key)
			auditor := discovery.NewAuditor(ai, cfg.Anthropic.HaikuModel, fetcher.New(cfg.Discovery.FetchRatePerSec))

			audits, err := auditor.AuditBatch(ctx, inserted)
			if err != nil {
				return eris.Wrap(err, "audit batch")
			}

			for _, res := range audits {
				patch := board.Patch{
					Visual:     &res.SubScores.Visual,
					Social:     &res.SubScores.Social,
					Ticket:     &res.SubScores.Ticket,
					Reach:      &res.SubScores.Reach,
					Confidence: &res.Confidence,
				}
				if _, err := env.Board.UpdateLead(ctx, res.LeadID, patch); err != nil {
					log.Warn("audit merge failed", zap.Int64("lead_id", res.LeadID), zap.Error(err))
				}
			}
		}

		fmt.Printf("Ingested %d leads (%d rejected), board now holds %d.\n",
			len(inserted), len(result.Rejected), env.Board.Len())
		return nil
	},
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverAudit, "audit", false, "refine sub-scores with a Claude homepage audit")
	rootCmd.AddCommand(discoverCmd)
}
