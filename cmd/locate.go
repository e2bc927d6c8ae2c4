package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcus/courts/internal/geo"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/output"
	"github.com/spf13/cobra"
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Show the current position and its address",
	Long: `Show the configured position (location.lat/location.lon or COURTS_LAT/COURTS_LON)
and the address it resolves to. With --watch the position feed keeps running
and prints every sample that moved at least location.min_distance metres.`,
	GroupID: "location",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return reportError(cmd, err)
		}
		locator := newLocator(cfg)
		geocoder := newGeocoder(cfg)
		ctx := cmd.Context()

		report := func(pos models.Position) {
			addr, err := geocoder.Reverse(ctx, pos.Coordinate)
			if err != nil {
				addr = models.GeoAddress{}
			}
			if jsonOutput(cmd) {
				output.JSON(map[string]interface{}{"position": pos, "address": addr})
				return
			}
			fmt.Printf("%s  %s\n", pos.Coordinate.String(), addr.String())
		}

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			tracker := &geo.Tracker{
				Locator:     locator,
				Interval:    cfg.LocationInterval(),
				MinDistance: cfg.LocationMinDistance(),
			}
			err := tracker.Run(ctx, report)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		pos, err := locator.Locate(ctx)
		if err != nil {
			return reportError(cmd, fmt.Errorf("%w (set location.lat and location.lon)", err))
		}
		report(pos)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(locateCmd)
	locateCmd.Flags().BoolP("watch", "w", false, "Keep polling the position feed")
}
