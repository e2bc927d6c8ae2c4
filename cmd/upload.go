package cmd

import (
	"github.com/marcus/courts/internal/output"
	"github.com/marcus/courts/internal/sync"
	"github.com/spf13/cobra"
)

var uploadImageCmd = &cobra.Command{
	Use:   "upload-image <path|->",
	Short: "Upload a standalone picture",
	Long: `Upload a picture without attaching it to a court. "-" reads the picture
from stdin.

Examples:
  courts upload-image court.jpg
  cat court.jpg | courts upload-image -`,
	GroupID: "files",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return reportError(cmd, err)
		}
		defer a.Close()

		ref, err := a.stageImage(args[0])
		if err != nil {
			return reportError(cmd, err)
		}
		out := a.orch.Drive(cmd.Context(), sync.UploadImage{Ref: ref})
		if err := checkOutcome(cmd, out); err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]interface{}{"uploaded": args[0]})
		}
		output.Success("Uploaded %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadImageCmd)
}
