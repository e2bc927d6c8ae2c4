// Package session holds the edit session for the add/edit court flow: the
// draft court, the chosen image, the save-gate and the delete confirmation.
//
// A Session is a plain state container. It never performs I/O; operations
// that need the network return a request value (GeocodeRequest, SaveRequest)
// and the caller reports the result back through ApplyGeocode or FinishSave.
// Requests are tagged with the session generation so results that arrive
// after a reset or a coordinate change are dropped.
package session

import (
	"errors"
	"fmt"

	"github.com/marcus/courts/internal/models"
)

var (
	ErrNotEditable    = errors.New("no court is being edited")
	ErrValidation     = errors.New("court is not ready to save")
	ErrSaveInFlight   = errors.New("a save is already in progress")
	ErrUnknownTerrain = errors.New("unknown terrain")
	ErrNoDeleteTarget = errors.New("delete confirmation needs a court id")
)

// Service area bounds and basket limits enforced by the save-gate.
const (
	MinLatitude  = 60.1
	MaxLatitude  = 60.35
	MinLongitude = 24.6
	MaxLongitude = 25.15

	MinBaskets = 1
	MaxBaskets = 19
)

// DefaultDegrees is used for draft coordinates when no position is known.
const DefaultDegrees = "0.0"

// Phase is the lifecycle position of a session
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseDrafting
	PhaseSaving
	PhaseSaved
	PhaseSaveFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseDrafting:
		return "drafting"
	case PhaseSaving:
		return "saving"
	case PhaseSaved:
		return "saved"
	case PhaseSaveFailed:
		return "save_failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// SaveMode selects the upload path for a save
type SaveMode int

const (
	SaveJSON SaveMode = iota
	SaveWithImage
)

func (m SaveMode) String() string {
	if m == SaveWithImage {
		return "json+image"
	}
	return "json"
}

// GeocodeRequest asks for the address of Coordinate on behalf of the draft
// that was current at Generation.
type GeocodeRequest struct {
	Generation uint64
	Coordinate models.Coordinate
}

// SaveRequest is a snapshot of the draft handed to the upload path.
type SaveRequest struct {
	Generation uint64
	Court      models.Court
	ImageRef   string
	Mode       SaveMode
}

// Effect lists follow-up work a state change asks for.
type Effect struct {
	Geocode *GeocodeRequest
}

// State is a read-only copy of a session.
type State struct {
	Phase         Phase
	Generation    uint64
	Draft         models.Court
	ImageRef      string
	SaveEnabled   bool
	ConfirmDelete bool
	DeleteTarget  int
	Address       models.GeoAddress
	LastErr       error
}

// Editing reports whether field edits are accepted
func (s State) Editing() bool {
	return s.Phase == PhaseDrafting || s.Phase == PhaseSaveFailed
}

// Session is the mutable edit session. It is not safe for concurrent use;
// the owner serializes every call.
type Session struct {
	st State
}

// New returns an empty session
func New() *Session {
	return &Session{}
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	st := s.st
	st.Draft = st.Draft.Clone()
	return st
}

// Phase returns the current phase
func (s *Session) Phase() Phase {
	return s.st.Phase
}

// Generation returns the tag attached to requests issued now
func (s *Session) Generation() uint64 {
	return s.st.Generation
}

// Begin starts a new draft. Coordinates default to seed when a position is
// known.
func (s *Session) Begin(seed *models.Position) Effect {
	draft := models.Court{Latitude: DefaultDegrees, Longitude: DefaultDegrees}
	if seed != nil {
		draft.Latitude = models.FormatDegrees(seed.Lat)
		draft.Longitude = models.FormatDegrees(seed.Lon)
	}
	s.reset(PhaseDrafting, draft)
	if seed == nil {
		return Effect{}
	}
	return s.geocodeEffect()
}

// BeginEdit starts editing a stored court. The id is kept for the lifetime of
// the session.
func (s *Session) BeginEdit(court models.Court) Effect {
	s.reset(PhaseDrafting, court.Clone())
	return s.geocodeEffect()
}

// Discard drops the draft. Results of requests issued before the discard are
// ignored.
func (s *Session) Discard() {
	s.reset(PhaseEmpty, models.Court{})
}

func (s *Session) reset(phase Phase, draft models.Court) {
	s.st = State{
		Phase:      phase,
		Generation: s.st.Generation + 1,
		Draft:      draft,
	}
	s.recompute()
}

// TakeDelete consumes the delete confirmation and reports whether it was
// raised for id. The flag is lowered in every phase, so one confirmation
// allows at most one delete attempt.
func (s *Session) TakeDelete(id int) bool {
	ok := s.st.ConfirmDelete && s.st.DeleteTarget == id
	s.st.ConfirmDelete = false
	s.st.DeleteTarget = 0
	return ok
}

// Apply runs a single edit command against the draft.
func (s *Session) Apply(cmd Command) (Effect, error) {
	switch cmd.(type) {
	case RequestDelete, CancelDelete:
		if s.st.Phase == PhaseSaving {
			return Effect{}, ErrSaveInFlight
		}
	default:
		if s.st.Phase == PhaseSaving {
			return Effect{}, ErrSaveInFlight
		}
		if !s.st.Editing() {
			return Effect{}, ErrNotEditable
		}
	}

	eff, err := cmd.apply(s)
	if err != nil {
		return Effect{}, err
	}
	if s.st.Phase == PhaseSaveFailed {
		s.st.Phase = PhaseDrafting
	}
	s.recompute()
	return eff, nil
}

// BeginSave moves the session to Saving and returns what to upload. A draft
// that fails the save-gate never leaves the session.
func (s *Session) BeginSave() (SaveRequest, error) {
	switch {
	case s.st.Phase == PhaseSaving:
		return SaveRequest{}, ErrSaveInFlight
	case !s.st.Editing():
		return SaveRequest{}, ErrNotEditable
	}
	s.recompute()
	if !s.st.SaveEnabled {
		return SaveRequest{}, ErrValidation
	}

	req := SaveRequest{
		Generation: s.st.Generation,
		Court:      s.st.Draft.Clone(),
		ImageRef:   s.st.ImageRef,
		Mode:       SaveJSON,
	}
	if req.ImageRef != "" {
		req.Mode = SaveWithImage
	}
	s.st.Phase = PhaseSaving
	s.st.LastErr = nil
	return req, nil
}

// FinishSave records the result of a save. Success resets the session to a
// fresh draft seeded from seed; failure keeps every field for a retry.
// applied is false when the result belongs to an older session.
func (s *Session) FinishSave(generation uint64, err error, seed *models.Position) (applied bool, eff Effect) {
	if generation != s.st.Generation || s.st.Phase != PhaseSaving {
		return false, Effect{}
	}
	if err != nil {
		s.st.Phase = PhaseSaveFailed
		s.st.LastErr = err
		return true, Effect{}
	}
	s.st.Phase = PhaseSaved
	return true, s.Begin(seed)
}

// ApplyGeocode stores a reverse-geocode result if it still describes the
// current draft coordinates. A failed lookup clears the address.
func (s *Session) ApplyGeocode(req GeocodeRequest, addr models.GeoAddress, err error) bool {
	if req.Generation != s.st.Generation {
		return false
	}
	coord, ok := s.st.Draft.Coordinate()
	if !ok || coord != req.Coordinate {
		return false
	}
	if err != nil {
		s.st.Address = models.GeoAddress{}
		return true
	}
	s.st.Address = addr
	return true
}

func (s *Session) recompute() {
	s.st.SaveEnabled = s.st.Editing() && CanSave(s.st.Draft)
}

// geocodeEffect asks for an address when the draft coordinates parse and
// clears the address otherwise.
func (s *Session) geocodeEffect() Effect {
	coord, ok := s.st.Draft.Coordinate()
	if !ok {
		s.st.Address = models.GeoAddress{}
		return Effect{}
	}
	return Effect{Geocode: &GeocodeRequest{Generation: s.st.Generation, Coordinate: coord}}
}

// CanSave is the save-gate: a name, coordinates inside the service area, at
// least one basket and a terrain.
func CanSave(c models.Court) bool {
	if c.Name == "" || c.Terrain == "" || c.NumberOfBaskets < MinBaskets {
		return false
	}
	coord, ok := c.Coordinate()
	if !ok {
		return false
	}
	return coord.Lat >= MinLatitude && coord.Lat <= MaxLatitude &&
		coord.Lon >= MinLongitude && coord.Lon <= MaxLongitude
}

// AdjustBaskets applies delta to count. Results outside [MinBaskets,
// MaxBaskets] reset the count to 0 instead of clamping.
func AdjustBaskets(count, delta int) int {
	n := count + delta
	if n < MinBaskets || n > MaxBaskets {
		return 0
	}
	return n
}
