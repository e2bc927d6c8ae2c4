package cmd

import (
	"errors"

	"github.com/marcus/courts/internal/courtclient"
	"github.com/marcus/courts/internal/images"
	"github.com/marcus/courts/internal/output"
	"github.com/marcus/courts/internal/session"
	"github.com/marcus/courts/internal/sync"
	"github.com/spf13/cobra"
)

// errorCode maps an error to the code used in --json error output
func errorCode(err error) string {
	var statusErr *courtclient.StatusError
	switch {
	case errors.Is(err, courtclient.ErrNotFound), errors.Is(err, sync.ErrUnknownCourt):
		return output.ErrCodeNotFound
	case errors.Is(err, session.ErrValidation), errors.Is(err, session.ErrUnknownTerrain),
		errors.Is(err, session.ErrNotEditable), errors.Is(err, courtclient.ErrBadRequest),
		errors.Is(err, sync.ErrNoCourt):
		return output.ErrCodeInvalidInput
	case errors.Is(err, sync.ErrConfirmationRequired):
		return output.ErrCodeConfirmationRequired
	case errors.Is(err, images.ErrImageRead):
		return output.ErrCodeImageRead
	case courtclient.IsTransport(err):
		return output.ErrCodeNetwork
	case errors.As(err, &statusErr):
		return output.ErrCodeServer
	}
	return output.ErrCodeInvalidInput
}

// reportError prints err in the format selected by --json and returns it so
// cobra exits non-zero
func reportError(cmd *cobra.Command, err error) error {
	if jsonOutput(cmd) {
		output.JSONError(errorCode(err), err.Error())
	} else {
		output.Error("%v", err)
	}
	return err
}

// checkOutcome turns a failed outcome into a reported error
func checkOutcome(cmd *cobra.Command, out sync.Outcome) error {
	if out.Status != sync.StatusFailed {
		return nil
	}
	return reportError(cmd, out.Err)
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
