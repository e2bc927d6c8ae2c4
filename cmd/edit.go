package cmd

import (
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/sync"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:     "edit <court-id>",
	Aliases: []string{"update"},
	Short:   "Edit an existing court",
	Long: `Edit a court. Only the fields given as flags change; without field flags an
interactive form is shown. The court keeps its id.

Examples:
  courts edit 12 --baskets 4
  courts edit 12 --image new-picture.jpg
  courts edit 12 -i`,
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := models.ParseID(args[0])
		if err != nil {
			return reportError(cmd, err)
		}

		a, err := openApp(cmd)
		if err != nil {
			return reportError(cmd, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := checkOutcome(cmd, a.orch.Drive(ctx, sync.FetchCourt{ID: id})); err != nil {
			return err
		}
		if err := checkOutcome(cmd, a.orch.Drive(ctx, sync.EditCourt{ID: id})); err != nil {
			return err
		}
		if err := fillDraft(cmd, a); err != nil {
			return reportError(cmd, err)
		}
		return saveDraft(cmd, a)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
	registerCourtFlags(editCmd)
}
