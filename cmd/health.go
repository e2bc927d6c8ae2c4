package cmd

import (
	"fmt"
	"time"

	"github.com/marcus/courts/internal/courtclient"
	"github.com/marcus/courts/internal/output"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Aliases: []string{"ping"},
	Short:   "Check that the courts service is reachable",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return reportError(cmd, err)
		}
		base := serverURL(cmd, cfg)
		client := courtclient.New(base, cfg.Timeout())

		start := time.Now()
		if err := client.HealthCheck(cmd.Context()); err != nil {
			return reportError(cmd, fmt.Errorf("%s: %w", base, err))
		}
		elapsed := time.Since(start).Round(time.Millisecond)

		if jsonOutput(cmd) {
			return output.JSON(map[string]interface{}{"url": base, "ok": true, "latency_ms": elapsed.Milliseconds()})
		}
		output.Success("%s is up (%s)", base, elapsed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
