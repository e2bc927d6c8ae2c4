package sync

import (
	"context"
	"errors"
	"os"
	"reflect"
	gosync "sync"
	"testing"
	"time"

	"github.com/marcus/courts/internal/courtclient"
	"github.com/marcus/courts/internal/geo"
	"github.com/marcus/courts/internal/images"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/session"
)

type createCall struct {
	court     models.Court
	image     []byte
	imageName string
}

type fakeRepo struct {
	mu        gosync.Mutex
	courts    []models.Court
	listErr   error
	getErr    error
	createErr error
	deleteErr error
	lists     int
	creates   []createCall
	uploads   []createCall
	deletes   []int
}

func (f *fakeRepo) ListAll(ctx context.Context) ([]models.Court, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Court, len(f.courts))
	for i, c := range f.courts {
		out[i] = c.Clone()
	}
	return out, nil
}

func (f *fakeRepo) Get(ctx context.Context, id int) (*models.Court, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, c := range f.courts {
		if c.IDValue() == id {
			cc := c.Clone()
			return &cc, nil
		}
	}
	return nil, courtclient.ErrNotFound
}

func (f *fakeRepo) Create(ctx context.Context, court models.Court) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, createCall{court: court})
	return f.createErr
}

func (f *fakeRepo) CreateWithImage(ctx context.Context, court models.Court, image []byte, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, createCall{court: court, image: image, imageName: name})
	return f.createErr
}

func (f *fakeRepo) UploadImage(ctx context.Context, image []byte, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, createCall{image: image, imageName: name})
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return f.deleteErr
}

type fakeStore struct {
	mu       gosync.Mutex
	courts   []models.Court
	replaced int
	deleted  []int
}

func (s *fakeStore) LoadCourts() ([]models.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.courts, nil
}

func (s *fakeStore) ReplaceCourts(courts []models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courts = courts
	s.replaced++
	return nil
}

func (s *fakeStore) DeleteCourt(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func court(id int, name string) models.Court {
	return models.Court{
		ID:              models.IntID(id),
		Name:            name,
		Latitude:        "60.2",
		Longitude:       "24.9",
		NumberOfBaskets: 2,
		Terrain:         "Wood",
	}
}

func ids(courts []models.Court) []int {
	out := []int{}
	for _, c := range courts {
		out = append(out, c.IDValue())
	}
	return out
}

func fillValidDraft(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx := context.Background()
	if out := o.Drive(ctx, NewDraft{}); !out.OK() {
		t.Fatalf("NewDraft: %v", out.Err)
	}
	for _, c := range []session.Command{
		session.SetName{Name: "Kallio court"},
		session.SetLatitude{Latitude: "60.2"},
		session.SetLongitude{Longitude: "24.9"},
		session.AdjustBasketCount{Delta: 2},
		session.SetTerrain{Terrain: "Wood"},
	} {
		if out := o.Drive(ctx, Edit{Cmd: c}); out.Status == StatusFailed && !errors.Is(out.Err, geo.ErrGeocodeUnavailable) {
			t.Fatalf("edit %T: %v", c, out.Err)
		}
	}
	if !o.View().Session.SaveEnabled {
		t.Fatalf("draft not saveable: %+v", o.View().Session.Draft)
	}
}

func TestLoadCourtsReplacesSet(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a"), court(2, "b"), court(3, "c")}}
	store := &fakeStore{}
	o := New(Options{Repository: repo, Store: store})
	ctx := context.Background()

	if out := o.Drive(ctx, LoadCourts{}); !out.OK() {
		t.Fatalf("first load: %v", out.Err)
	}

	repo.courts = []models.Court{court(2, "b"), court(4, "d")}
	out := o.Drive(ctx, LoadCourts{})
	if !out.OK() {
		t.Fatalf("second load: %v", out.Err)
	}
	if got := ids(out.View.Courts); !reflect.DeepEqual(got, []int{2, 4}) {
		t.Errorf("court set = %v, want [2 4]", got)
	}
	if store.replaced != 2 || len(store.courts) != 2 {
		t.Errorf("cache replaced %d times with %d courts", store.replaced, len(store.courts))
	}
}

func TestLoadFailureKeepsSet(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()
	o.Drive(ctx, LoadCourts{})

	repo.listErr = &courtclient.TransportError{Op: "list", Err: errors.New("connection refused")}
	out := o.Drive(ctx, LoadCourts{})
	if out.Status != StatusFailed || !courtclient.IsTransport(out.Err) {
		t.Fatalf("outcome = %v, %v", out.Status, out.Err)
	}
	if got := ids(out.View.Courts); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("court set = %v, want [1]", got)
	}
}

func TestStaleCourtListDiscarded(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "old")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()

	first := o.Handle(LoadCourts{})
	oldRes := first.Tasks[0].Run(ctx)

	repo.courts = []models.Court{court(2, "new")}
	second := o.Handle(LoadCourts{})
	o.Apply(second.Tasks[0].Run(ctx))

	step := o.Apply(oldRes)
	if step.Outcome.Status != StatusDiscarded {
		t.Errorf("status = %v, want discarded", step.Outcome.Status)
	}
	if got := ids(o.View().Courts); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("court set = %v, want [2]", got)
	}
}

func TestStaleFailedLoadDiscarded(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("offline")}
	o := New(Options{Repository: repo})
	ctx := context.Background()

	first := o.Handle(LoadCourts{})
	oldRes := first.Tasks[0].Run(ctx)

	repo.listErr = nil
	repo.courts = []models.Court{court(1, "a")}
	second := o.Handle(LoadCourts{})
	o.Apply(second.Tasks[0].Run(ctx))

	step := o.Apply(oldRes)
	if step.Outcome.Status != StatusDiscarded {
		t.Errorf("status = %v, want discarded", step.Outcome.Status)
	}
	if got := ids(o.View().Courts); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("court set = %v, want [1]", got)
	}
}

func TestSaveDispatch(t *testing.T) {
	tests := []struct {
		name      string
		imageRef  string
		wantImage bool
	}{
		{"json only", "", false},
		{"with image", "pics/court.jpg", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			o := New(Options{
				Repository: repo,
				Images:     images.MapResolver{"pics/court.jpg": []byte("jpeg")},
			})
			fillValidDraft(t, o)
			if tt.imageRef != "" {
				o.Drive(context.Background(), Edit{Cmd: session.SetImage{Ref: tt.imageRef}})
			}

			out := o.Drive(context.Background(), Save{})
			if out.Status != StatusSaved {
				t.Fatalf("status = %v, err = %v", out.Status, out.Err)
			}
			if len(repo.creates) != 1 {
				t.Fatalf("creates = %d, want 1", len(repo.creates))
			}
			call := repo.creates[0]
			if call.court.Name != "Kallio court" || call.court.ID != nil {
				t.Errorf("uploaded court = %+v", call.court)
			}
			if tt.wantImage && (string(call.image) != "jpeg" || call.imageName != "court.jpg") {
				t.Errorf("image = %q %q", call.image, call.imageName)
			}
			if !tt.wantImage && call.image != nil {
				t.Errorf("json save carried an image")
			}

			st := out.View.Session
			if st.Phase != session.PhaseDrafting || st.Draft.Name != "" || st.ImageRef != "" {
				t.Errorf("session not reset after save: %+v", st)
			}
			if repo.lists != 1 {
				t.Errorf("court set reloaded %d times, want 1", repo.lists)
			}
		})
	}
}

func TestSaveSeedsNextDraftFromPosition(t *testing.T) {
	o := New(Options{Repository: &fakeRepo{}})
	ctx := context.Background()
	o.Drive(ctx, UpdatePosition{Position: models.Position{Coordinate: models.Coordinate{Lat: 60.17, Lon: 24.94}}})
	fillValidDraft(t, o)

	out := o.Drive(ctx, Save{})
	if out.Status != StatusSaved {
		t.Fatalf("save: %v %v", out.Status, out.Err)
	}
	d := out.View.Session.Draft
	if d.Latitude != "60.17" || d.Longitude != "24.94" {
		t.Errorf("next draft at %s,%s", d.Latitude, d.Longitude)
	}
}

func TestSaveValidationNeverReachesNetwork(t *testing.T) {
	repo := &fakeRepo{}
	o := New(Options{Repository: repo})
	ctx := context.Background()
	o.Drive(ctx, NewDraft{})
	o.Drive(ctx, Edit{Cmd: session.SetName{Name: "Far away"}})

	out := o.Drive(ctx, Save{})
	if !errors.Is(out.Err, session.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", out.Err)
	}
	if len(repo.creates) != 0 {
		t.Error("invalid draft reached the repository")
	}
}

func TestSaveFailureKeepsDraft(t *testing.T) {
	t.Run("image read", func(t *testing.T) {
		repo := &fakeRepo{}
		o := New(Options{Repository: repo, Images: images.MapResolver{}})
		fillValidDraft(t, o)
		o.Drive(context.Background(), Edit{Cmd: session.SetImage{Ref: "missing.jpg"}})

		out := o.Drive(context.Background(), Save{})
		if !errors.Is(out.Err, images.ErrImageRead) {
			t.Fatalf("err = %v, want ErrImageRead", out.Err)
		}
		st := out.View.Session
		if st.Phase != session.PhaseSaveFailed || st.Draft.Name != "Kallio court" || st.ImageRef != "missing.jpg" {
			t.Errorf("state after failure = %+v", st)
		}
		if len(repo.creates) != 0 {
			t.Error("upload attempted without image bytes")
		}
	})

	t.Run("server rejects", func(t *testing.T) {
		repo := &fakeRepo{createErr: courtclient.ErrBadRequest}
		o := New(Options{Repository: repo})
		fillValidDraft(t, o)

		out := o.Drive(context.Background(), Save{})
		if !errors.Is(out.Err, courtclient.ErrBadRequest) {
			t.Fatalf("err = %v", out.Err)
		}
		if out.View.Session.Phase != session.PhaseSaveFailed {
			t.Errorf("phase = %v", out.View.Session.Phase)
		}

		repo.createErr = nil
		if out := o.Drive(context.Background(), Save{}); out.Status != StatusSaved {
			t.Errorf("retry = %v %v", out.Status, out.Err)
		}
	})
}

func TestStaleSaveDiscarded(t *testing.T) {
	repo := &fakeRepo{}
	o := New(Options{Repository: repo})
	fillValidDraft(t, o)

	step := o.Handle(Save{})
	if !step.Pending() {
		t.Fatal("save should wait for its upload")
	}
	res := step.Tasks[0].Run(context.Background())

	o.Handle(Discard{})
	got := o.Apply(res)
	if got.Outcome.Status != StatusDiscarded {
		t.Errorf("status = %v, want discarded", got.Outcome.Status)
	}
	if got.Outcome.View.Session.Phase != session.PhaseEmpty {
		t.Errorf("phase = %v, want empty", got.Outcome.View.Session.Phase)
	}
	if len(got.Tasks) != 0 {
		t.Errorf("stale save started follow-ups: %d", len(got.Tasks))
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()
	o.Drive(ctx, LoadCourts{})

	out := o.Drive(ctx, Delete{ID: 1})
	if !errors.Is(out.Err, ErrConfirmationRequired) {
		t.Fatalf("err = %v", out.Err)
	}
	if len(repo.deletes) != 0 {
		t.Error("unconfirmed delete reached the repository")
	}

	o.Drive(ctx, ConfirmDelete{ID: 1})
	o.Drive(ctx, CancelDelete{})
	if out := o.Drive(ctx, Delete{ID: 1}); !errors.Is(out.Err, ErrConfirmationRequired) {
		t.Errorf("after cancel err = %v", out.Err)
	}
	if out := o.Drive(ctx, ConfirmDelete{}); !errors.Is(out.Err, ErrNoCourt) {
		t.Errorf("confirm without target err = %v", out.Err)
	}
}

func TestDeleteConfirmationBoundToCourt(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a"), court(2, "b")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()
	o.Drive(ctx, LoadCourts{})

	o.Drive(ctx, ConfirmDelete{ID: 1})
	out := o.Drive(ctx, Delete{ID: 2})
	if !errors.Is(out.Err, ErrConfirmationRequired) {
		t.Fatalf("delete of other court err = %v", out.Err)
	}
	if out := o.Drive(ctx, Delete{ID: 1}); !errors.Is(out.Err, ErrConfirmationRequired) {
		t.Errorf("mismatched attempt should consume the confirmation, err = %v", out.Err)
	}
	if len(repo.deletes) != 0 {
		t.Errorf("deletes = %v, want none", repo.deletes)
	}
}

func TestFailedDeleteConsumesConfirmation(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a"), court(2, "b")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()
	o.Drive(ctx, LoadCourts{})

	repo.deleteErr = &courtclient.StatusError{Code: 500, Message: "boom"}
	o.Drive(ctx, ConfirmDelete{ID: 1})
	if out := o.Drive(ctx, Delete{ID: 1}); out.Status != StatusFailed {
		t.Fatalf("status = %v", out.Status)
	}
	if o.View().Session.ConfirmDelete {
		t.Error("confirmation still raised after a failed delete")
	}

	repo.deleteErr = nil
	for _, id := range []int{2, 1} {
		if out := o.Drive(ctx, Delete{ID: id}); !errors.Is(out.Err, ErrConfirmationRequired) {
			t.Errorf("Delete{%d} without new confirmation err = %v", id, out.Err)
		}
	}
	if !reflect.DeepEqual(repo.deletes, []int{1}) {
		t.Errorf("deletes = %v, want [1]", repo.deletes)
	}
	if got := ids(o.View().Courts); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("court set = %v", got)
	}
}

func TestDeleteEvictsCourt(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a"), court(2, "b")}}
	store := &fakeStore{}
	o := New(Options{Repository: repo, Store: store})
	ctx := context.Background()
	o.Drive(ctx, LoadCourts{})
	o.Drive(ctx, SelectCourt{ID: 1})

	o.Drive(ctx, ConfirmDelete{})
	out := o.Drive(ctx, Delete{})
	if out.Status != StatusOK {
		t.Fatalf("status = %v, err = %v", out.Status, out.Err)
	}
	if !reflect.DeepEqual(repo.deletes, []int{1}) {
		t.Errorf("deleted %v, want [1] (selected court)", repo.deletes)
	}
	if got := ids(out.View.Courts); !reflect.DeepEqual(got, []int{2}) {
		t.Errorf("court set = %v", got)
	}
	if out.View.Selected != nil || out.View.Session.ConfirmDelete {
		t.Errorf("selection %v, confirm flag %v", out.View.Selected, out.View.Session.ConfirmDelete)
	}
	if !reflect.DeepEqual(store.deleted, []int{1}) {
		t.Errorf("cache deletes = %v", store.deleted)
	}
}

func TestDeleteMissingIsAlreadyGone(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a"), court(2, "b")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()
	o.Drive(ctx, LoadCourts{})

	repo.deleteErr = courtclient.ErrNotFound
	o.Drive(ctx, ConfirmDelete{ID: 2})
	out := o.Drive(ctx, Delete{ID: 2})
	if out.Status != StatusAlreadyGone {
		t.Fatalf("status = %v, err = %v", out.Status, out.Err)
	}
	if got := ids(out.View.Courts); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("court set = %v, want unchanged [1 2]", got)
	}
	if out.View.Session.ConfirmDelete {
		t.Error("confirmation flag left raised")
	}
}

func TestDeleteFailureKeepsCourt(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()
	o.Drive(ctx, LoadCourts{})

	repo.deleteErr = &courtclient.StatusError{Code: 500, Message: "boom"}
	o.Drive(ctx, ConfirmDelete{ID: 1})
	out := o.Drive(ctx, Delete{ID: 1})
	if out.Status != StatusFailed {
		t.Fatalf("status = %v", out.Status)
	}
	if len(out.View.Courts) != 1 {
		t.Errorf("court removed after failed delete")
	}
}

func TestGeocode(t *testing.T) {
	here := models.Coordinate{Lat: 60.193734, Lon: 24.898878}
	gc := geo.StaticGeocoder{here.String(): {Locality: "Helsinki", StreetName: "Valpurintie"}}
	o := New(Options{Repository: &fakeRepo{}, Geocoder: gc})
	ctx := context.Background()

	o.Drive(ctx, UpdatePosition{Position: models.Position{Coordinate: here}})
	out := o.Drive(ctx, NewDraft{})
	if out.View.Session.Address.Locality != "Helsinki" {
		t.Fatalf("address = %+v", out.View.Session.Address)
	}

	// Unknown coordinate: address becomes unknown, draft untouched
	out = o.Drive(ctx, Edit{Cmd: session.SetLatitude{Latitude: "60.25"}})
	if !out.View.Session.Address.IsUnknown() {
		t.Errorf("address = %+v, want unknown", out.View.Session.Address)
	}
	if d := out.View.Session.Draft; d.Latitude != "60.25" || d.Longitude != "24.898878" {
		t.Errorf("draft coords = %s,%s", d.Latitude, d.Longitude)
	}
}

func TestStaleGeocodeDiscarded(t *testing.T) {
	first := models.Coordinate{Lat: 60.2, Lon: 24.9}
	gc := geo.StaticGeocoder{first.String(): {Locality: "Old"}}
	o := New(Options{Repository: &fakeRepo{}, Geocoder: gc})
	ctx := context.Background()
	o.Drive(ctx, NewDraft{})

	o.Handle(Edit{Cmd: session.SetLongitude{Longitude: "24.9"}})
	step := o.Handle(Edit{Cmd: session.SetLatitude{Latitude: "60.2"}})
	oldRes := step.Tasks[0].Run(ctx)

	o.Handle(Edit{Cmd: session.SetLatitude{Latitude: "60.3"}})
	got := o.Apply(oldRes)
	if got.Outcome.Status != StatusDiscarded {
		t.Errorf("status = %v, want discarded", got.Outcome.Status)
	}
	if !got.Outcome.View.Session.Address.IsUnknown() {
		t.Errorf("stale address applied: %+v", got.Outcome.View.Session.Address)
	}
}

func TestUseCurrentLocation(t *testing.T) {
	o := New(Options{Repository: &fakeRepo{}})
	ctx := context.Background()
	o.Drive(ctx, NewDraft{})

	if out := o.Drive(ctx, UseCurrentLocation{}); !errors.Is(out.Err, geo.ErrNoPosition) {
		t.Errorf("without position err = %v", out.Err)
	}

	o.Drive(ctx, UpdatePosition{Position: models.Position{Coordinate: models.Coordinate{Lat: 60.21, Lon: 24.95}}})
	o.Drive(ctx, UseCurrentLocation{})
	if d := o.View().Session.Draft; d.Latitude != "60.21" || d.Longitude != "24.95" {
		t.Errorf("draft coords = %s,%s", d.Latitude, d.Longitude)
	}
}

func TestEditCourtKeepsID(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(7, "Brahe")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()
	o.Drive(ctx, LoadCourts{})

	if out := o.Drive(ctx, EditCourt{ID: 99}); !errors.Is(out.Err, ErrUnknownCourt) {
		t.Errorf("unknown court err = %v", out.Err)
	}
	if out := o.Drive(ctx, EditCourt{ID: 7}); !out.OK() {
		t.Fatalf("EditCourt: %v", out.Err)
	}
	o.Drive(ctx, Edit{Cmd: session.SetName{Name: "Brahenkenttä"}})
	if out := o.Drive(ctx, Save{}); out.Status != StatusSaved {
		t.Fatalf("save: %v %v", out.Status, out.Err)
	}
	if got := repo.creates[0].court; got.IDValue() != 7 || got.Name != "Brahenkenttä" {
		t.Errorf("upsert = %+v", got)
	}
}

func TestFetchCourt(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(3, "c")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()

	out := o.Drive(ctx, FetchCourt{ID: 3})
	if !out.OK() || out.Court == nil || out.Court.Name != "c" {
		t.Fatalf("fetch = %+v", out)
	}
	if out.View.Selected == nil || out.View.Selected.IDValue() != 3 {
		t.Errorf("selected = %v", out.View.Selected)
	}
	if out := o.Drive(ctx, EditCourt{ID: 3}); !out.OK() || out.View.Session.Draft.IDValue() != 3 {
		t.Errorf("edit fetched court: %v", out.Err)
	}

	out = o.Drive(ctx, FetchCourt{ID: 4})
	if !errors.Is(out.Err, courtclient.ErrNotFound) {
		t.Errorf("missing err = %v", out.Err)
	}
}

func TestFetchCourtLeavesSetAlone(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a"), court(2, "b")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()
	o.Drive(ctx, LoadCourts{})

	repo.courts = []models.Court{court(1, "a"), court(2, "renamed"), court(3, "c")}
	for _, id := range []int{3, 2} {
		out := o.Drive(ctx, FetchCourt{ID: id})
		if !out.OK() {
			t.Fatalf("fetch #%d: %v", id, out.Err)
		}
		if got := ids(out.View.Courts); !reflect.DeepEqual(got, []int{1, 2}) {
			t.Errorf("after fetch #%d court set = %v, want [1 2]", id, got)
		}
	}
	if c, _ := o.courts.Get(2); c.Name != "b" {
		t.Errorf("set entry #2 = %q, want unchanged", c.Name)
	}
	if sel := o.View().Selected; sel == nil || sel.Name != "renamed" {
		t.Errorf("selected = %v, want fetched copy", sel)
	}

	repo.courts = []models.Court{court(1, "a")}
	out := o.Drive(ctx, FetchCourt{ID: 2})
	if !errors.Is(out.Err, courtclient.ErrNotFound) {
		t.Fatalf("err = %v", out.Err)
	}
	if got := ids(out.View.Courts); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("court set = %v, want [1 2] until the next load", got)
	}
	if out.View.Selected != nil {
		t.Errorf("selected = %v, want none", out.View.Selected)
	}
}

func TestUploadImage(t *testing.T) {
	repo := &fakeRepo{}
	o := New(Options{Repository: repo, Images: images.MapResolver{"a.jpg": []byte("img")}})
	ctx := context.Background()

	if out := o.Drive(ctx, UploadImage{Ref: "a.jpg"}); !out.OK() {
		t.Fatalf("upload: %v", out.Err)
	}
	if len(repo.uploads) != 1 || repo.uploads[0].imageName != "a.jpg" {
		t.Errorf("uploads = %+v", repo.uploads)
	}
	if out := o.Drive(ctx, UploadImage{Ref: "b.jpg"}); !errors.Is(out.Err, images.ErrImageRead) {
		t.Errorf("missing image err = %v", out.Err)
	}
}

func TestExport(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a")}}
	o := New(Options{Repository: repo})
	ctx := context.Background()
	o.Drive(ctx, LoadCourts{})

	out := o.Drive(ctx, Export{Dir: t.TempDir()})
	if !out.OK() || out.Path == "" {
		t.Fatalf("export = %v %v", out.Status, out.Err)
	}
	if _, err := os.Stat(out.Path); err != nil {
		t.Errorf("export file: %v", err)
	}
}

func TestRestoreCache(t *testing.T) {
	store := &fakeStore{courts: []models.Court{court(5, "cached")}}
	repo := &fakeRepo{listErr: errors.New("offline")}
	o := New(Options{Repository: repo, Store: store})
	ctx := context.Background()

	if out := o.Drive(ctx, RestoreCache{}); !out.OK() {
		t.Fatalf("restore: %v", out.Err)
	}
	if got := ids(o.View().Courts); !reflect.DeepEqual(got, []int{5}) {
		t.Fatalf("court set = %v", got)
	}

	repo.listErr = nil
	repo.courts = []models.Court{court(6, "fresh")}
	o.Drive(ctx, LoadCourts{})
	if out := o.Drive(ctx, RestoreCache{}); out.Status != StatusDiscarded {
		t.Errorf("restore over fresh data = %v", out.Status)
	}
	if got := ids(o.View().Courts); !reflect.DeepEqual(got, []int{6}) {
		t.Errorf("court set = %v", got)
	}
}

func TestRunDo(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{court(1, "a"), court(2, "b")}}
	o := New(Options{Repository: repo})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- o.Run(ctx) }()

	out := o.Do(ctx, LoadCourts{})
	if !out.OK() || len(out.View.Courts) != 2 {
		t.Fatalf("load via Do = %v %v", out.Status, out.Err)
	}

	if err := o.Submit(ctx, UpdatePosition{Position: models.Position{Coordinate: models.Coordinate{Lat: 60.2, Lon: 24.9}}}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	fillViaDo := []Command{
		NewDraft{},
		Edit{Cmd: session.SetName{Name: "Owner loop"}},
		Edit{Cmd: session.AdjustBasketCount{Delta: 1}},
		Edit{Cmd: session.SetTerrain{Terrain: "PVC"}},
	}
	for _, c := range fillViaDo {
		if out := o.Do(ctx, c); out.Status == StatusFailed {
			t.Fatalf("%T: %v", c, out.Err)
		}
	}
	if out := o.Do(ctx, Save{}); out.Status != StatusSaved {
		t.Fatalf("save via Do = %v %v", out.Status, out.Err)
	}

	cancel()
	select {
	case err := <-stopped:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if out := o.Do(context.Background(), LoadCourts{}); !errors.Is(out.Err, ErrStopped) {
		t.Errorf("Do after stop = %v", out.Err)
	}
}
