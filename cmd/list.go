package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/courts/internal/courtset"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/output"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list [query]",
	Aliases: []string{"ls"},
	Short:   "List courts, optionally fuzzy-filtered",
	Long: `List every court known to the service.

A query fuzzy-matches against name, district and terrain. When the service
cannot be reached the locally cached list is shown instead.

Examples:
  courts list
  courts list meilahti
  courts list --terrain Asphalt --free`,
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return reportError(cmd, err)
		}
		defer a.Close()

		out, cached := a.loadCourts(cmd.Context())
		if err := checkOutcome(cmd, out); err != nil {
			return err
		}

		courts := out.View.Courts
		if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
			courts = courtset.FilterCourts(courts, q)
		}
		courts = applyListFilters(cmd, courts)

		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(courts) > limit {
			courts = courts[:limit]
		}

		if jsonOutput(cmd) {
			if courts == nil {
				courts = []models.Court{}
			}
			return output.JSON(courts)
		}

		if cached {
			output.Warning("%s", a.cacheNote())
		}
		if len(courts) == 0 {
			fmt.Println("No courts found")
			return nil
		}

		long, _ := cmd.Flags().GetBool("long")
		for _, c := range courts {
			if long {
				fmt.Println(output.FormatCourtLong(c, nil))
				continue
			}
			fmt.Println(output.FormatCourtShort(c))
		}
		return nil
	},
}

// applyListFilters narrows courts by the --terrain/--district/--indoor/--free flags
func applyListFilters(cmd *cobra.Command, courts []models.Court) []models.Court {
	terrain, _ := cmd.Flags().GetString("terrain")
	district, _ := cmd.Flags().GetString("district")
	indoor, _ := cmd.Flags().GetBool("indoor")
	free, _ := cmd.Flags().GetBool("free")

	var out []models.Court
	for _, c := range courts {
		if terrain != "" && !strings.EqualFold(c.Terrain, terrain) {
			continue
		}
		if district != "" && !strings.EqualFold(c.District, district) {
			continue
		}
		if indoor && !c.IsClosedCourt {
			continue
		}
		if free && c.IsPaid {
			continue
		}
		out = append(out, c)
	}
	return out
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("terrain", "", "Only courts with this terrain")
	listCmd.Flags().String("district", "", "Only courts in this district")
	listCmd.Flags().Bool("indoor", false, "Only closed (indoor) courts")
	listCmd.Flags().Bool("free", false, "Only free courts")
	listCmd.Flags().Int("limit", 0, "Maximum number of courts to show")
	listCmd.Flags().BoolP("long", "l", false, "Show full details")
}
