package cmd

import (
	"fmt"

	"github.com/marcus/courts/internal/courtclient"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/output"
	"github.com/marcus/courts/internal/sync"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <court-id>",
	Aliases: []string{"view", "get"},
	Short:   "Display full details of a court",
	Long: `Display full details of a court, including its description and map link.

Examples:
  courts show 12
  courts show 12 --address      # Also resolve the street address`,
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
		out := a.orch.Drive(ctx, sync.FetchCourt{ID: id})
		cached := false
		if out.Status == sync.StatusFailed && courtclient.IsTransport(out.Err) {
			// fall back to the cached copy
			if restored := a.orch.Drive(ctx, sync.RestoreCache{}); restored.Status != sync.StatusFailed {
				if sel := a.orch.Drive(ctx, sync.SelectCourt{ID: id}); sel.OK() {
					out, cached = sel, true
				}
			}
		}
		if err := checkOutcome(cmd, out); err != nil {
			return err
		}
		court := *out.Court

		var addr *models.GeoAddress
		if want, _ := cmd.Flags().GetBool("address"); want {
			if coord, ok := court.Coordinate(); ok {
				resolved, err := a.geocoder.Reverse(ctx, coord)
				if err != nil {
					a.log.Debug("reverse geocode", "id", id, "err", err)
				}
				addr = &resolved
			}
		}

		if jsonOutput(cmd) {
			result := map[string]interface{}{"court": court}
			if addr != nil {
				result["address"] = addr
			}
			if u := court.MapURL(); u != "" {
				result["map_url"] = u
			}
			return output.JSON(result)
		}

		if cached {
			output.Warning("%s", a.cacheNote())
		}
		fmt.Print(output.FormatCourtLong(court, addr))
		if addr != nil && addr.IsUnknown() {
			fmt.Println("Address: unknown")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("address", false, "Resolve the street address of the court")
}
