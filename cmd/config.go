package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/courts/internal/config"
	"github.com/marcus/courts/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage courts configuration",
	GroupID: "system",
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value (empty value clears it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]

		cfg, err := config.Load()
		if err != nil {
			return reportError(cmd, fmt.Errorf("load config: %w", err))
		}
		if err := cfg.Set(key, val); err != nil {
			return reportError(cmd, err)
		}
		if err := config.Save(cfg); err != nil {
			return reportError(cmd, fmt.Errorf("save config: %w", err))
		}

		fmt.Printf("%s = %s\n", key, val)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a config value as stored in the config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return reportError(cmd, fmt.Errorf("load config: %w", err))
		}
		val, err := cfg.Get(args[0])
		if err != nil {
			return reportError(cmd, err)
		}
		fmt.Println(val)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show effective settings after environment overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return reportError(cmd, fmt.Errorf("load config: %w", err))
		}

		dataDir, err := cfg.DataDir()
		if err != nil {
			dataDir = "error: " + err.Error()
		}
		position := ""
		if coord, ok := cfg.FixedPosition(); ok {
			position = coord.String()
		}
		geocoder := cfg.GeocoderURL()
		if geocoder == "" {
			geocoder = "off"
		}

		settings := []struct {
			Key, Value string
		}{
			{"server.url", cfg.ServerURL()},
			{"server.timeout", cfg.Timeout().String()},
			{"data_dir", dataDir},
			{"location", position},
			{"location.interval", cfg.LocationInterval().String()},
			{"location.min_distance", fmt.Sprintf("%gm", cfg.LocationMinDistance())},
			{"geocoder.url", geocoder},
			{"log_level", strings.ToLower(cfg.LogLevel().String())},
		}

		if jsonOutput(cmd) {
			result := make(map[string]string, len(settings))
			for _, s := range settings {
				result[s.Key] = s.Value
			}
			return output.JSON(result)
		}
		for _, s := range settings {
			fmt.Printf("%-22s %s\n", s.Key, s.Value)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)

	configCmd.Long = "Manage courts configuration.\n\nKeys: " + strings.Join(config.Keys(), ", ")
}
