package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadops-cli/internal/heat"
	"github.com/sells-group/leadops-cli/internal/model"
)

var listPhase string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List board leads in priority order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initBoard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		leads := env.Board.List()
		if listPhase != "" {
			phase := model.Phase(listPhase)
			if !phase.Valid() {
				return eris.Errorf("unknown phase: %s", listPhase)
			}
			filtered := leads[:0]
			for _, l := range leads {
				if l.Phase == phase {
					filtered = append(filtered, l)
				}
			}
			leads = filtered
		}

		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "Board is empty.")
			return nil
		}

		formatLeadList(os.Stdout, leads, time.Now())
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listPhase, "phase", "", "filter by phase (SCAN, SCORE, STRATEGIZE, SEND, CLOSE)")
	rootCmd.AddCommand(listCmd)
}

// formatLeadList writes a tabular board view to out, classifying heat
// against now.
func formatLeadList(out io.Writer, leads []model.Lead, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tPHASE\tSTATUS\tGRADE\tTOTAL\tHEAT\tIN_PHASE")

	for i := range leads {
		l := leads[i]
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			l.ID,
			l.Name,
			l.Phase,
			l.Status,
			l.Diagnostics.Grade,
			l.Diagnostics.Total,
			heat.Classify(&l, now),
			formatAge(now.Sub(l.PhaseChangedAt)),
		)
	}
	_ = w.Flush()
}

// formatAge renders a duration as a compact day/hour string.
func formatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if days > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dh", hours)
}
