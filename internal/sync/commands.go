package sync

import (
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/session"
)

// Command is a request handled by the orchestrator owner.
type Command interface {
	commandName() string
}

// LoadCourts fetches the full court list and replaces the court set
type LoadCourts struct{}

// RestoreCache fills an empty court set from the local store
type RestoreCache struct{}

// SelectCourt marks a court from the set as active. ID 0 clears the selection.
type SelectCourt struct{ ID int }

// FetchCourt downloads one court and selects it. The court set is left as
// it is; only a full list load replaces it.
type FetchCourt struct{ ID int }

// NewDraft starts a blank draft seeded from the last known position
type NewDraft struct{}

// EditCourt starts editing a court from the set
type EditCourt struct{ ID int }

// Edit applies a field change to the draft
type Edit struct{ Cmd session.Command }

// UseCurrentLocation copies the last known position into the draft
type UseCurrentLocation struct{}

// Save uploads the draft
type Save struct{}

// ConfirmDelete raises the delete confirmation flag for one court. A zero
// ID targets the court being edited, then the selection. The next Delete
// consumes the flag.
type ConfirmDelete struct{ ID int }

// CancelDelete lowers the delete confirmation flag
type CancelDelete struct{}

// Delete removes a court on the server. ID 0 targets the court being edited,
// then the selected court. The confirmation flag must be raised first.
type Delete struct{ ID int }

// UploadImage sends a standalone image to the service
type UploadImage struct{ Ref string }

// Export writes the court set as JSON under Dir
type Export struct{ Dir string }

// UpdatePosition records a device position sample
type UpdatePosition struct{ Position models.Position }

// Discard drops the current draft
type Discard struct{}

func (LoadCourts) commandName() string         { return "load_courts" }
func (RestoreCache) commandName() string       { return "restore_cache" }
func (SelectCourt) commandName() string        { return "select_court" }
func (FetchCourt) commandName() string         { return "fetch_court" }
func (NewDraft) commandName() string           { return "new_draft" }
func (EditCourt) commandName() string          { return "edit_court" }
func (Edit) commandName() string               { return "edit" }
func (UseCurrentLocation) commandName() string { return "use_current_location" }
func (Save) commandName() string               { return "save" }
func (ConfirmDelete) commandName() string      { return "confirm_delete" }
func (CancelDelete) commandName() string       { return "cancel_delete" }
func (Delete) commandName() string             { return "delete" }
func (UploadImage) commandName() string        { return "upload_image" }
func (Export) commandName() string             { return "export" }
func (UpdatePosition) commandName() string     { return "update_position" }
func (Discard) commandName() string            { return "discard" }
