package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadops-cli/internal/board"
)

var noteTags []string

var noteCmd = &cobra.Command{
	Use:   "note <lead-id> [text...]",
	Short: "Annotate a lead with notes or tags",
	Long:  "Replaces the lead's notes with the given text and/or sets its tags. Annotation stays allowed after a won/lost outcome.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseLeadID(args[0])
		if err != nil {
			return err
		}

		var patch board.Patch
		if len(args) > 1 {
			text := strings.Join(args[1:], " ")
			patch.Notes = &text
		}
		if cmd.Flags().Changed("tag") {
			tags := append([]string(nil), noteTags...)
			patch.Tags = &tags
		}
		if patch.Notes == nil && patch.Tags == nil {
			return fmt.Errorf("nothing to annotate: give note text or --tag")
		}

		env, err := initBoard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		lead, err := env.Board.UpdateLead(ctx, id, patch)
		if err != nil {
			return err
		}

		fmt.Printf("Lead %d (%s) annotated.\n", lead.ID, lead.Name)
		return nil
	},
}

func init() {
	noteCmd.Flags().StringSliceVar(&noteTags, "tag", nil, "set the lead's tags (repeatable, replaces existing tags)")
	rootCmd.AddCommand(noteCmd)
}
