package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/output"
	"github.com/marcus/courts/internal/sync"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <court-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a court from the service",
	Long: `Delete a court. Asks for confirmation unless --yes is given.

Deleting a court that no longer exists on the service is reported but is not
an error.`,
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
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			label := fmt.Sprintf("#%d", id)
			if out := a.orch.Drive(ctx, sync.FetchCourt{ID: id}); out.OK() && out.Court != nil {
				label = output.CourtOneLiner(*out.Court)
			}
			confirm := huh.NewConfirm().
				Title("Delete court " + label + "?").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&yes)
			if err := huh.NewForm(huh.NewGroup(confirm)).WithTheme(huh.ThemeDracula()).RunWithContext(ctx); err != nil {
				return reportError(cmd, err)
			}
		}
		if !yes {
			fmt.Println("Cancelled")
			return nil
		}
		if err := checkOutcome(cmd, a.orch.Drive(ctx, sync.ConfirmDelete{ID: id})); err != nil {
			return err
		}

		out := a.orch.Drive(ctx, sync.Delete{ID: id})
		switch out.Status {
		case sync.StatusAlreadyGone:
			if jsonOutput(cmd) {
				return output.JSON(map[string]interface{}{"id": id, "status": out.Status.String()})
			}
			output.Warning("court #%d was already gone", id)
			return nil
		case sync.StatusOK:
			if jsonOutput(cmd) {
				return output.JSON(map[string]interface{}{"id": id, "status": "deleted"})
			}
			fmt.Printf("DELETED #%d\n", id)
			return nil
		}
		return checkOutcome(cmd, out)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
