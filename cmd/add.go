package cmd

import (
	"github.com/marcus/courts/internal/sync"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:     "add",
	Aliases: []string{"new", "create"},
	Short:   "Add a court",
	Long: `Add a court to the service.

Coordinates start at the current position when one is configured. Without
field flags an interactive form is shown.

A court can be saved once it has a name, a terrain, at least one basket and
coordinates inside the service area.

Examples:
  courts add
  courts add --name "Valpurinpuisto school" --district Meilahti \
    --lat 60.193734 --lon 24.898878 --baskets 2 --terrain Asphalt
  courts add --here --name "Park" --baskets 1 --terrain Concrete --image park.jpg`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return reportError(cmd, err)
		}
		defer a.Close()

		if err := checkOutcome(cmd, a.orch.Drive(cmd.Context(), sync.NewDraft{})); err != nil {
			return err
		}
		if err := fillDraft(cmd, a); err != nil {
			return reportError(cmd, err)
		}
		return saveDraft(cmd, a)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	registerCourtFlags(addCmd)
}
