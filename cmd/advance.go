package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadops-cli/internal/model"
)

// parseLeadID converts a command argument into a lead id.
func parseLeadID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, eris.Errorf("invalid lead id: %s", arg)
	}
	return id, nil
}

var advanceCmd = &cobra.Command{
	Use:   "advance <lead-id>",
	Short: "Move a lead to its next phase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseLeadID(args[0])
		if err != nil {
			return err
		}

		env, err := initBoard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Board.Advance(ctx, id)
		if err != nil {
			return err
		}

		fmt.Printf("Lead %d (%s) is now in %s.\n", lead.ID, lead.Name, lead.Phase)
		return nil
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign <lead-id> <phase>",
	Short: "Move a lead to a specific phase",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseLeadID(args[0])
		if err != nil {
			return err
		}
		phase := model.Phase(args[1])
		if !phase.Valid() {
			return eris.Errorf("unknown phase: %s", args[1])
		}

		env, err := initBoard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Board.AssignPhase(ctx, id, phase)
		if err != nil {
			return err
		}

		fmt.Printf("Lead %d (%s) is now in %s.\n", lead.ID, lead.Name, lead.Phase)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(assignCmd)
}
