// Package sync sequences remote court operations and folds their results
// back into the edit session and the court set.
//
// An Orchestrator has exactly one owner goroutine that mutates its state.
// Commands enter through Handle (or Submit/Do when Run is the owner) and
// produce a Step: an Outcome plus Tasks to run in the background. A Task
// performs the blocking work and returns a Result, which the owner hands back
// to Apply. Results that no longer describe the current session are dropped.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcus/courts/internal/courtset"
	"github.com/marcus/courts/internal/geo"
	"github.com/marcus/courts/internal/images"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/session"
)

var (
	ErrConfirmationRequired = errors.New("delete requires confirmation")
	ErrUnknownCourt         = errors.New("court is not in the court set")
	ErrNoCourt              = errors.New("no court selected")
	ErrStopped              = errors.New("orchestrator stopped")
)

// Repository is the remote court service. *courtclient.Client implements it.
type Repository interface {
	ListAll(ctx context.Context) ([]models.Court, error)
	Get(ctx context.Context, id int) (*models.Court, error)
	Create(ctx context.Context, court models.Court) error
	CreateWithImage(ctx context.Context, court models.Court, image []byte, name string) error
	UploadImage(ctx context.Context, image []byte, name string) error
	Delete(ctx context.Context, id int) error
}

// Status classifies an Outcome
type Status int

const (
	StatusOK Status = iota
	StatusFailed
	// StatusAlreadyGone: a delete found no such court on the server
	StatusAlreadyGone
	// StatusSaved: the draft was stored and the session reset
	StatusSaved
	// StatusDiscarded: the result arrived after the session moved on
	StatusDiscarded
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	case StatusAlreadyGone:
		return "already_gone"
	case StatusSaved:
		return "saved"
	case StatusDiscarded:
		return "discarded"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome reports how a command ended. View is the state right after it.
type Outcome struct {
	Status Status
	Err    error
	Court  *models.Court
	Path   string
	View   View
}

// OK reports whether the command had its intended effect
func (o Outcome) OK() bool {
	return o.Status == StatusOK || o.Status == StatusSaved
}

// View is a read-only copy of orchestrator state
type View struct {
	Session  session.State
	Courts   []models.Court
	Selected *models.Court
	Position *models.Position
}

// Options configures an Orchestrator. Repository is required.
type Options struct {
	Repository Repository
	Geocoder   geo.Geocoder
	Images     images.Resolver
	Store      courtset.Store
	Logger     *slog.Logger
}

// Orchestrator owns the edit session, the court set and the last known
// position. Only the owner goroutine may call Handle, Apply or View.
type Orchestrator struct {
	repo     Repository
	geocoder geo.Geocoder
	images   images.Resolver
	store    courtset.Store
	log      *slog.Logger

	sess     *session.Session
	courts   *courtset.Set
	selected int
	// detail is the last court fetched by id. It is shown when selected but
	// never merged into the court set.
	detail   *models.Court
	position *models.Position

	loadSeq    uint64
	appliedSeq uint64

	requests chan request
	results  chan finished
	done     chan struct{}
}

// New creates an orchestrator with an empty session and court set.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		repo:     opts.Repository,
		geocoder: opts.Geocoder,
		images:   opts.Images,
		store:    opts.Store,
		log:      opts.Logger,
		sess:     session.New(),
		courts:   courtset.New(nil),
		requests: make(chan request),
		results:  make(chan finished),
		done:     make(chan struct{}),
	}
	if o.geocoder == nil {
		o.geocoder = geo.NoopGeocoder{}
	}
	if o.images == nil {
		o.images = images.FileResolver{}
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return o
}

// View returns a snapshot of the current state
func (o *Orchestrator) View() View {
	v := View{
		Session: o.sess.Snapshot(),
		Courts:  o.courts.Sorted(),
	}
	if c, ok := o.lookup(o.selected); ok {
		v.Selected = &c
	}
	if o.position != nil {
		p := *o.position
		v.Position = &p
	}
	return v
}

// lookup finds a court by id in the fetched detail, then in the court set
func (o *Orchestrator) lookup(id int) (models.Court, bool) {
	if id == 0 {
		return models.Court{}, false
	}
	if o.detail != nil && o.detail.IDValue() == id {
		return o.detail.Clone(), true
	}
	return o.courts.Get(id)
}

func (o *Orchestrator) dropDetail(id int) {
	if o.detail != nil && o.detail.IDValue() == id {
		o.detail = nil
	}
}

func okOutcome() Outcome {
	return Outcome{Status: StatusOK}
}

func failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}
