package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/courts/internal/config"
	"github.com/marcus/courts/internal/geo"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/pkg/browser"
	"github.com/spf13/cobra"
)

const browseLogFile = "browse.log"

var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"ui", "tui"},
	Short:   "Interactive court browser",
	Long: `Launch the interactive court browser. The list starts from the local cache
and refreshes from the service in the background.

Key bindings:
  j/k, ↑/↓   Move the cursor
  Enter      Court details
  /          Filter by name, district or terrain
  n          New court
  e          Edit the selected court
  d          Delete the selected court
  x          Export the court set as JSON
  r          Reload
  ?          Toggle help
  q          Quit

Log output goes to browse.log in the data directory.`,
	GroupID: "core",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return reportError(cmd, err)
		}
		dataDir, err := cfg.DataDir()
		if err != nil {
			return reportError(cmd, err)
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return reportError(cmd, err)
		}
		logFile, err := tea.LogToFile(filepath.Join(dataDir, browseLogFile), "")
		if err != nil {
			return reportError(cmd, fmt.Errorf("open log file: %w", err))
		}
		defer logFile.Close()
		logSink = logFile
		defer func() { logSink = os.Stderr }()

		a, err := openApp(cmd)
		if err != nil {
			return reportError(cmd, err)
		}
		defer a.Close()

		exportDir, _ := cmd.Flags().GetString("export-dir")
		if exportDir == "" {
			exportDir = dataDir
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		model := browser.NewModel(ctx, browser.Options{
			Orchestrator: a.orch,
			ExportDir:    exportDir,
			Version:      rootCmd.Version,
		})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

		tracker := &geo.Tracker{
			Locator:     a.locator,
			Interval:    a.cfg.LocationInterval(),
			MinDistance: a.cfg.LocationMinDistance(),
			Logger:      a.log,
		}
		go tracker.Run(ctx, func(pos models.Position) {
			p.Send(browser.PositionMsg(pos))
		})

		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("error running browser: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseCmd.Flags().String("export-dir", "", "Directory for exports (default: data directory)")
}
