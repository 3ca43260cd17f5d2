package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var outcomeCmd = &cobra.Command{
	Use:   "outcome",
	Short: "Record a lead's final outcome",
	Long:  "Commands for closing out a lead as won or lost. Closed leads keep their history but reject further lifecycle changes.",
}

// -- outcome won --

var outcomeWonCmd = &cobra.Command{
	Use:   "won <lead-id> <deal-value>",
	Short: "Mark a lead as won with its deal value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseLeadID(args[0])
		if err != nil {
			return err
		}
		dealValue, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Errorf("invalid deal value: %s", args[1])
		}

		env, err := initBoard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Board.RecordWon(ctx, id, dealValue)
		if err != nil {
			return err
		}

		fmt.Printf("Lead %d (%s) won at $%.2f.\n", lead.ID, lead.Name, lead.DealValue)
		return nil
	},
}

// -- outcome lost --

var outcomeLostCmd = &cobra.Command{
	Use:   "lost <lead-id> <reason...>",
	Short: "Mark a lead as lost with a reason",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseLeadID(args[0])
		if err != nil {
			return err
		}
		reason := strings.Join(args[1:], " ")

		env, err := initBoard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Board.RecordLost(ctx, id, reason)
		if err != nil {
			return err
		}

		fmt.Printf("Lead %d (%s) lost: %s\n", lead.ID, lead.Name, lead.LostReason)
		return nil
	},
}

func init() {
	outcomeCmd.AddCommand(outcomeWonCmd)
	outcomeCmd.AddCommand(outcomeLostCmd)
	rootCmd.AddCommand(outcomeCmd)
}
