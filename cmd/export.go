package cmd

import (
	"fmt"

	"github.com/marcus/courts/internal/export"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/output"
	"github.com/marcus/courts/internal/sync"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Write the court list to JSON/basketcourts.json",
	Long: `Write the current court list to <dir>/JSON/basketcourts.json, replacing any
previous export. dir defaults to the data directory. Works offline from the
cached list.`,
	GroupID: "files",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return reportError(cmd, err)
		}
		defer a.Close()

		dir := a.db.DataDir()
		if len(args) == 1 {
			dir = args[0]
		}

		ctx := cmd.Context()
		loaded, cached := a.loadCourts(ctx)
		if err := checkOutcome(cmd, loaded); err != nil {
			return err
		}

		previous, err := export.ReadCourtSet(dir)
		if err != nil {
			a.log.Debug("read previous export", "err", err)
		}

		out := a.orch.Drive(ctx, sync.Export{Dir: dir})
		if err := checkOutcome(cmd, out); err != nil {
			return err
		}

		added, removed := diffIDs(previous, out.View.Courts)
		if jsonOutput(cmd) {
			return output.JSON(map[string]interface{}{
				"path":    out.Path,
				"courts":  len(out.View.Courts),
				"added":   added,
				"removed": removed,
				"cached":  cached,
			})
		}
		if cached {
			output.Warning("%s", a.cacheNote())
		}
		output.Success("Exported %d courts to %s", len(out.View.Courts), out.Path)
		if previous != nil {
			fmt.Printf("  %d new, %d removed since the last export\n", len(added), len(removed))
		}
		return nil
	},
}

// diffIDs lists ids present only in next (added) and only in prev (removed)
func diffIDs(prev, next []models.Court) (added, removed []int) {
	before := make(map[int]bool, len(prev))
	for _, c := range prev {
		before[c.IDValue()] = true
	}
	after := make(map[int]bool, len(next))
	for _, c := range next {
		id := c.IDValue()
		after[id] = true
		if !before[id] {
			added = append(added, id)
		}
	}
	for _, c := range prev {
		if id := c.IDValue(); !after[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
