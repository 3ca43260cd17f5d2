package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder <source-id> <target-id>",
	Short: "Move a lead to sit directly before another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sourceID, err := parseLeadID(args[0])
		if err != nil {
			return err
		}
		targetID, err := parseLeadID(args[1])
		if err != nil {
			return err
		}

		env, err := initBoard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Board.Reorder(ctx, sourceID, targetID); err != nil {
			return err
		}

		fmt.Printf("Lead %d now sits before lead %d.\n", sourceID, targetID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reorderCmd)
}
