package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcus/courts/internal/courtclient"
	"github.com/marcus/courts/internal/export"
	"github.com/marcus/courts/internal/geo"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/session"
)

// Task is blocking work started by a command. Run may be called from any
// goroutine; it never touches orchestrator state.
type Task struct {
	Name    string
	primary bool
	run     func(ctx context.Context) Result
}

// Run performs the work and returns the Result to hand to Apply
func (t Task) Run(ctx context.Context) Result {
	return t.run(ctx)
}

// Primary reports whether the outcome of the command that started the task
// waits for this task's Result
func (t Task) Primary() bool {
	return t.primary
}

// Result carries a finished task back to the owner.
type Result struct {
	Task    string
	primary bool
	apply   func(o *Orchestrator) Step
}

// Primary reports whether Apply of this result completes a command
func (r Result) Primary() bool {
	return r.primary
}

// Step is what the owner gets back from Handle or Apply.
type Step struct {
	Outcome Outcome
	Tasks   []Task
}

// Pending reports whether the Outcome is provisional and the final one will
// come from Apply of a primary task's Result
func (s Step) Pending() bool {
	for _, t := range s.Tasks {
		if t.primary {
			return true
		}
	}
	return false
}

func (o *Orchestrator) finish(step Step) Step {
	step.Outcome.View = o.View()
	return step
}

func fail(err error) Step {
	return Step{Outcome: failed(err)}
}

// Handle runs cmd on the owner goroutine.
func (o *Orchestrator) Handle(cmd Command) Step {
	o.log.Debug("command", "cmd", cmd.commandName())
	return o.finish(o.handle(cmd))
}

// Apply folds a task Result back into state on the owner goroutine.
func (o *Orchestrator) Apply(r Result) Step {
	if r.apply == nil {
		return o.finish(Step{Outcome: okOutcome()})
	}
	return o.finish(r.apply(o))
}

func (o *Orchestrator) handle(cmd Command) Step {
	switch c := cmd.(type) {
	case LoadCourts:
		return Step{Outcome: okOutcome(), Tasks: []Task{o.loadTask(true)}}

	case RestoreCache:
		if o.store == nil {
			return Step{Outcome: okOutcome()}
		}
		return Step{Outcome: okOutcome(), Tasks: []Task{o.restoreTask()}}

	case SelectCourt:
		if c.ID == 0 {
			o.selected = 0
			return Step{Outcome: okOutcome()}
		}
		court, found := o.lookup(c.ID)
		if !found {
			return fail(fmt.Errorf("%w: #%d", ErrUnknownCourt, c.ID))
		}
		o.selected = c.ID
		return Step{Outcome: Outcome{Status: StatusOK, Court: &court}}

	case FetchCourt:
		return Step{Outcome: okOutcome(), Tasks: []Task{o.fetchTask(c.ID)}}

	case NewDraft:
		eff := o.sess.Begin(o.position)
		return o.withEffect(okOutcome(), eff)

	case EditCourt:
		court, found := o.lookup(c.ID)
		if !found {
			return fail(fmt.Errorf("%w: #%d", ErrUnknownCourt, c.ID))
		}
		o.selected = c.ID
		eff := o.sess.BeginEdit(court)
		return o.withEffect(Outcome{Status: StatusOK, Court: &court}, eff)

	case Edit:
		if c.Cmd == nil {
			return fail(errors.New("empty edit"))
		}
		eff, err := o.sess.Apply(c.Cmd)
		if err != nil {
			return fail(err)
		}
		return o.withEffect(okOutcome(), eff)

	case UseCurrentLocation:
		if o.position == nil {
			return fail(geo.ErrNoPosition)
		}
		eff, err := o.sess.Apply(session.UseCoordinate{Coordinate: o.position.Coordinate})
		if err != nil {
			return fail(err)
		}
		return o.withEffect(okOutcome(), eff)

	case Save:
		req, err := o.sess.BeginSave()
		if err != nil {
			return fail(err)
		}
		return Step{Outcome: okOutcome(), Tasks: []Task{o.saveTask(req)}}

	case ConfirmDelete:
		id := o.deleteTarget(c.ID)
		if id == 0 {
			return fail(ErrNoCourt)
		}
		if _, err := o.sess.Apply(session.RequestDelete{ID: id}); err != nil {
			return fail(err)
		}
		return Step{Outcome: okOutcome()}

	case CancelDelete:
		if _, err := o.sess.Apply(session.CancelDelete{}); err != nil {
			return fail(err)
		}
		return Step{Outcome: okOutcome()}

	case Delete:
		id := o.deleteTarget(c.ID)
		if id == 0 {
			return fail(ErrNoCourt)
		}
		if !o.sess.TakeDelete(id) {
			return fail(fmt.Errorf("%w: #%d", ErrConfirmationRequired, id))
		}
		return Step{Outcome: okOutcome(), Tasks: []Task{o.deleteTask(id)}}

	case UploadImage:
		return Step{Outcome: okOutcome(), Tasks: []Task{o.uploadTask(c.Ref)}}

	case Export:
		return Step{Outcome: okOutcome(), Tasks: []Task{o.exportTask(c.Dir, o.courts.Sorted())}}

	case UpdatePosition:
		p := c.Position
		o.position = &p
		return Step{Outcome: okOutcome()}

	case Discard:
		o.sess.Discard()
		return Step{Outcome: okOutcome()}
	}
	return fail(fmt.Errorf("unknown command %T", cmd))
}

// deleteTarget resolves the court a delete refers to: the explicit id, then
// the court being edited, then the selection
func (o *Orchestrator) deleteTarget(id int) int {
	if id != 0 {
		return id
	}
	if id = o.sess.Snapshot().Draft.IDValue(); id != 0 {
		return id
	}
	return o.selected
}

// withEffect turns session effects into follow-up tasks
func (o *Orchestrator) withEffect(out Outcome, eff session.Effect) Step {
	step := Step{Outcome: out}
	if eff.Geocode != nil {
		step.Tasks = append(step.Tasks, o.geocodeTask(*eff.Geocode))
	}
	return step
}

func (o *Orchestrator) loadTask(primary bool) Task {
	o.loadSeq++
	seq := o.loadSeq
	repo := o.repo
	return Task{Name: "load_courts", primary: primary, run: func(ctx context.Context) Result {
		courts, err := repo.ListAll(ctx)
		return Result{Task: "load_courts", primary: primary, apply: func(o *Orchestrator) Step {
			return o.applyLoad(seq, courts, err)
		}}
	}}
}

func (o *Orchestrator) applyLoad(seq uint64, courts []models.Court, err error) Step {
	if seq < o.appliedSeq {
		o.log.Debug("discard stale court list", "seq", seq, "applied", o.appliedSeq, "err", err)
		return Step{Outcome: Outcome{Status: StatusDiscarded, Err: err}}
	}
	if err != nil {
		o.log.Warn("load courts", "err", err)
		return fail(fmt.Errorf("load courts: %w", err))
	}
	o.appliedSeq = seq
	o.courts.Replace(courts)
	o.detail = nil
	if _, found := o.courts.Get(o.selected); !found {
		o.selected = 0
	}
	o.log.Debug("court set replaced", "count", o.courts.Len())

	step := Step{Outcome: okOutcome()}
	if o.store != nil {
		snapshot := o.courts.Sorted()
		step.Tasks = append(step.Tasks, o.storeTask("cache_replace", func(s storeWriter) error {
			return s.ReplaceCourts(snapshot)
		}))
	}
	return step
}

func (o *Orchestrator) restoreTask() Task {
	store := o.store
	return Task{Name: "restore_cache", primary: true, run: func(ctx context.Context) Result {
		courts, err := store.LoadCourts()
		return Result{Task: "restore_cache", primary: true, apply: func(o *Orchestrator) Step {
			if err != nil {
				return fail(fmt.Errorf("read court cache: %w", err))
			}
			if o.appliedSeq > 0 || o.courts.Len() > 0 {
				return Step{Outcome: Outcome{Status: StatusDiscarded}}
			}
			o.courts.Replace(courts)
			return Step{Outcome: okOutcome()}
		}}
	}}
}

func (o *Orchestrator) fetchTask(id int) Task {
	repo := o.repo
	return Task{Name: "fetch_court", primary: true, run: func(ctx context.Context) Result {
		court, err := repo.Get(ctx, id)
		return Result{Task: "fetch_court", primary: true, apply: func(o *Orchestrator) Step {
			if errors.Is(err, courtclient.ErrNotFound) {
				o.dropDetail(id)
				if o.selected == id {
					o.selected = 0
				}
				return fail(fmt.Errorf("court #%d: %w", id, err))
			}
			if err != nil {
				return fail(fmt.Errorf("fetch court #%d: %w", id, err))
			}
			if court == nil {
				return fail(fmt.Errorf("fetch court #%d: empty response", id))
			}
			if court.ID == nil {
				court.ID = models.IntID(id)
			}
			detail := court.Clone()
			o.detail = &detail
			o.selected = detail.IDValue()
			c := court.Clone()
			return Step{Outcome: Outcome{Status: StatusOK, Court: &c}}
		}}
	}}
}

func (o *Orchestrator) geocodeTask(req session.GeocodeRequest) Task {
	geocoder := o.geocoder
	return Task{Name: "geocode", run: func(ctx context.Context) Result {
		addr, err := geocoder.Reverse(ctx, req.Coordinate)
		return Result{Task: "geocode", apply: func(o *Orchestrator) Step {
			if !o.sess.ApplyGeocode(req, addr, err) {
				o.log.Debug("discard stale address", "coord", req.Coordinate.String(), "generation", req.Generation)
				return Step{Outcome: Outcome{Status: StatusDiscarded}}
			}
			if err != nil {
				o.log.Debug("geocode", "coord", req.Coordinate.String(), "err", err)
				return fail(err)
			}
			return Step{Outcome: okOutcome()}
		}}
	}}
}

func (o *Orchestrator) saveTask(req session.SaveRequest) Task {
	repo, resolver := o.repo, o.images
	return Task{Name: "save", primary: true, run: func(ctx context.Context) Result {
		var err error
		if req.Mode == session.SaveWithImage {
			var data []byte
			var name string
			data, name, err = resolver.Resolve(req.ImageRef)
			if err == nil {
				err = repo.CreateWithImage(ctx, req.Court, data, name)
			}
		} else {
			err = repo.Create(ctx, req.Court)
		}
		return Result{Task: "save", primary: true, apply: func(o *Orchestrator) Step {
			return o.applySave(req, err)
		}}
	}}
}

func (o *Orchestrator) applySave(req session.SaveRequest, err error) Step {
	applied, eff := o.sess.FinishSave(req.Generation, err, o.position)
	if !applied {
		o.log.Debug("discard stale save result", "generation", req.Generation, "err", err)
		return Step{Outcome: Outcome{Status: StatusDiscarded, Err: err}}
	}
	if err != nil {
		o.log.Warn("save court", "mode", req.Mode.String(), "err", err)
		return fail(fmt.Errorf("save court: %w", err))
	}
	o.log.Info("court saved", "name", req.Court.Name, "mode", req.Mode.String())
	saved := req.Court.Clone()
	step := o.withEffect(Outcome{Status: StatusSaved, Court: &saved}, eff)
	step.Tasks = append(step.Tasks, o.loadTask(false))
	return step
}

func (o *Orchestrator) deleteTask(id int) Task {
	repo := o.repo
	return Task{Name: "delete", primary: true, run: func(ctx context.Context) Result {
		err := repo.Delete(ctx, id)
		return Result{Task: "delete", primary: true, apply: func(o *Orchestrator) Step {
			return o.applyDelete(id, err)
		}}
	}}
}

func (o *Orchestrator) applyDelete(id int, err error) Step {
	if err != nil && !errors.Is(err, courtclient.ErrNotFound) {
		o.log.Warn("delete court", "id", id, "err", err)
		return fail(fmt.Errorf("delete court #%d: %w", id, err))
	}

	o.dropDetail(id)
	if o.selected == id {
		o.selected = 0
	}
	if errors.Is(err, courtclient.ErrNotFound) {
		o.log.Info("court already gone", "id", id)
		return Step{Outcome: Outcome{Status: StatusAlreadyGone, Err: err}}
	}

	o.courts.Evict(id)
	if st := o.sess.Snapshot(); st.Draft.IDValue() == id && st.Phase != session.PhaseSaving {
		o.sess.Discard()
	}

	step := Step{Outcome: okOutcome()}
	if o.store != nil {
		step.Tasks = append(step.Tasks, o.storeTask("cache_delete", func(s storeWriter) error {
			return s.DeleteCourt(id)
		}))
	}
	return step
}

func (o *Orchestrator) uploadTask(ref string) Task {
	repo, resolver := o.repo, o.images
	return Task{Name: "upload_image", primary: true, run: func(ctx context.Context) Result {
		data, name, err := resolver.Resolve(ref)
		if err == nil {
			err = repo.UploadImage(ctx, data, name)
		}
		return Result{Task: "upload_image", primary: true, apply: func(o *Orchestrator) Step {
			if err != nil {
				return fail(fmt.Errorf("upload image: %w", err))
			}
			return Step{Outcome: okOutcome()}
		}}
	}}
}

func (o *Orchestrator) exportTask(dir string, courts []models.Court) Task {
	return Task{Name: "export", primary: true, run: func(ctx context.Context) Result {
		path, err := export.WriteCourtSet(dir, courts)
		return Result{Task: "export", primary: true, apply: func(o *Orchestrator) Step {
			if err != nil {
				return fail(fmt.Errorf("export courts: %w", err))
			}
			return Step{Outcome: Outcome{Status: StatusOK, Path: path}}
		}}
	}}
}

// storeWriter is the write half of courtset.Store
type storeWriter interface {
	ReplaceCourts(courts []models.Court) error
	DeleteCourt(id int) error
}

func (o *Orchestrator) storeTask(name string, write func(storeWriter) error) Task {
	store := o.store
	return Task{Name: name, run: func(ctx context.Context) Result {
		err := write(store)
		return Result{Task: name, apply: func(o *Orchestrator) Step {
			if err != nil {
				o.log.Warn("court cache", "op", name, "err", err)
				return fail(err)
			}
			return Step{Outcome: okOutcome()}
		}}
	}}
}
