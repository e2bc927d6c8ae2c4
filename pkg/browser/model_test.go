package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/courts/internal/courtclient"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/session"
	"github.com/marcus/courts/internal/sync"
)

type fakeRepo struct {
	mu      gosync.Mutex
	courts  []models.Court
	listErr error
	created []models.Court
	deleted []int
}

func (f *fakeRepo) ListAll(ctx context.Context) ([]models.Court, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	f.created = append(f.created, court)
	return nil
}

func (f *fakeRepo) CreateWithImage(ctx context.Context, court models.Court, image []byte, name string) error {
	return f.Create(ctx, court)
}

func (f *fakeRepo) UploadImage(ctx context.Context, image []byte, name string) error {
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	for i, c := range f.courts {
		if c.IDValue() == id {
			f.courts = append(f.courts[:i], f.courts[i+1:]...)
			return nil
		}
	}
	return courtclient.ErrNotFound
}

type memStore struct {
	courts []models.Court
}

func (s *memStore) LoadCourts() ([]models.Court, error)       { return s.courts, nil }
func (s *memStore) ReplaceCourts(courts []models.Court) error { s.courts = courts; return nil }
func (s *memStore) DeleteCourt(id int) error                  { return nil }

func testCourt(id int, name, district string) models.Court {
	return models.Court{
		ID:              models.IntID(id),
		Name:            name,
		District:        district,
		Latitude:        "60.2",
		Longitude:       "24.9",
		NumberOfBaskets: 2,
		Terrain:         "Wood",
	}
}

func newTestModel(t *testing.T, repo *fakeRepo, store *memStore) Model {
	t.Helper()
	opts := sync.Options{Repository: repo}
	if store != nil {
		opts.Store = store
	}
	m := NewModel(context.Background(), Options{
		Orchestrator: sync.New(opts),
		ExportDir:    t.TempDir(),
	})
	m.Width, m.Height = 100, 30
	return m
}

// drain runs cmd and feeds every task result back into the model until no
// work is left. Messages other than task results are dropped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg, ok := runCmd(next)
		if !ok {
			continue
		}
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case taskDoneMsg:
			updated, more := m.Update(msg)
			m = updated.(Model)
			queue = append(queue, more)
		}
	}
	return m
}

// runCmd gives up on commands that block, such as cursor blink ticks
func runCmd(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

func keyPress(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, cmd := m.Update(msg)
		m = drain(t, updated.(Model), cmd)
	}
	return m
}

func TestInitLoadsCourts(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{testCourt(1, "Kallio", "Kallio"), testCourt(2, "Vallila", "Vallila")}}
	m := newTestModel(t, repo, nil)
	m = drain(t, m, m.Init())

	if len(m.view.Courts) != 2 {
		t.Fatalf("courts = %d, want 2", len(m.view.Courts))
	}
	if m.status != "2 courts" {
		t.Errorf("status = %q", m.status)
	}
	if !strings.Contains(m.View(), "Vallila") {
		t.Error("list view missing court name")
	}
}

func TestInitFallsBackToCache(t *testing.T) {
	repo := &fakeRepo{listErr: &courtclient.TransportError{Op: "list", Err: errors.New("connection refused")}}
	store := &memStore{courts: []models.Court{testCourt(5, "Cached", "Pasila")}}
	m := newTestModel(t, repo, store)
	m = drain(t, m, m.Init())

	if len(m.view.Courts) != 1 || m.view.Courts[0].IDValue() != 5 {
		t.Fatalf("courts = %+v, want cached #5", m.view.Courts)
	}
	if m.statusLevel != levelWarning || !strings.HasPrefix(m.status, "offline") {
		t.Errorf("status = %q (level %d)", m.status, m.statusLevel)
	}
}

func TestCursorAndFilter(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{
		testCourt(1, "Kallio", "Kallio"),
		testCourt(2, "Vallila", "Vallila"),
		testCourt(3, "Herttoniemi", "Herttoniemi"),
	}}
	m := newTestModel(t, repo, nil)
	m = drain(t, m, m.Init())

	m = keyPress(t, m, "j", "j", "j")
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", m.cursor)
	}
	m = keyPress(t, m, "k")
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}

	m = keyPress(t, m, "/", "v", "a", "l")
	if m.mode != modeFilter {
		t.Fatalf("mode = %d, want filter", m.mode)
	}
	if m.filterQuery != "val" {
		t.Errorf("filter = %q", m.filterQuery)
	}
	visible := m.visible()
	if len(visible) != 1 || visible[0].Name != "Vallila" {
		t.Errorf("visible = %+v", visible)
	}

	m = keyPress(t, m, "enter")
	if m.mode != modeList || m.filterQuery != "val" {
		t.Errorf("after apply: mode %d filter %q", m.mode, m.filterQuery)
	}
	m = keyPress(t, m, "esc")
	if m.filterQuery != "" || len(m.visible()) != 3 {
		t.Errorf("filter not cleared: %q", m.filterQuery)
	}
}

func TestOpenDetail(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{testCourt(1, "Kallio", "Kallio")}}
	m := newTestModel(t, repo, nil)
	m = drain(t, m, m.Init())

	m = keyPress(t, m, "enter")
	if m.mode != modeDetail || m.detailID != 1 {
		t.Fatalf("mode %d detail %d", m.mode, m.detailID)
	}
	if m.view.Selected == nil || m.view.Selected.IDValue() != 1 {
		t.Errorf("selected = %+v", m.view.Selected)
	}
	m = keyPress(t, m, "esc")
	if m.mode != modeList || m.detailID != 0 {
		t.Errorf("back: mode %d detail %d", m.mode, m.detailID)
	}
}

func TestDeleteConfirmed(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{testCourt(1, "Kallio", "Kallio"), testCourt(2, "Vallila", "Vallila")}}
	m := newTestModel(t, repo, nil)
	m = drain(t, m, m.Init())

	m = keyPress(t, m, "d")
	if m.mode != modeConfirm || m.deleteID != 1 {
		t.Fatalf("mode %d deleteID %d", m.mode, m.deleteID)
	}
	if !m.view.Session.ConfirmDelete {
		t.Error("confirm flag not raised")
	}
	if !strings.Contains(m.View(), "Delete #1") {
		t.Error("confirm box missing")
	}

	m = keyPress(t, m, "y")
	if len(repo.deleted) != 1 || repo.deleted[0] != 1 {
		t.Fatalf("deleted = %v", repo.deleted)
	}
	if len(m.view.Courts) != 1 || m.view.Courts[0].IDValue() != 2 {
		t.Errorf("courts = %+v", m.view.Courts)
	}
	if m.status != "deleted #1" {
		t.Errorf("status = %q", m.status)
	}
	if m.view.Session.ConfirmDelete {
		t.Error("confirm flag still set")
	}
}

func TestDeleteAlreadyGone(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{testCourt(1, "Kallio", "Kallio")}}
	m := newTestModel(t, repo, nil)
	m = drain(t, m, m.Init())

	repo.courts = nil
	m = keyPress(t, m, "d", "y")
	if m.statusLevel != levelWarning || !strings.Contains(m.status, "already gone") {
		t.Errorf("status = %q", m.status)
	}
	if len(m.view.Courts) != 1 {
		t.Errorf("court set changed: %+v", m.view.Courts)
	}
}

func TestDeleteCancelled(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{testCourt(1, "Kallio", "Kallio")}}
	m := newTestModel(t, repo, nil)
	m = drain(t, m, m.Init())

	m = keyPress(t, m, "d", "n")
	if m.mode != modeList || m.view.Session.ConfirmDelete {
		t.Errorf("mode %d confirm %v", m.mode, m.view.Session.ConfirmDelete)
	}
	if len(repo.deleted) != 0 {
		t.Errorf("deleted = %v", repo.deleted)
	}
}

func TestNewCourtSubmit(t *testing.T) {
	repo := &fakeRepo{}
	m := newTestModel(t, repo, nil)
	m = drain(t, m, m.Init())

	m = keyPress(t, m, "n")
	if m.mode != modeForm || m.form == nil {
		t.Fatalf("mode = %d, want form", m.mode)
	}
	if m.form.Mode != FormModeCreate {
		t.Errorf("form mode = %s", m.form.Mode)
	}

	m.form.Name = "Kumpula"
	m.form.Latitude = "60.21"
	m.form.Longitude = "24.96"
	m.form.Baskets = 2
	m.form.Terrain = "Asphalt"

	updated, cmd := m.submitForm()
	m = drain(t, updated.(Model), cmd)

	if len(repo.created) != 1 {
		t.Fatalf("created = %d, want 1", len(repo.created))
	}
	got := repo.created[0]
	if got.Name != "Kumpula" || got.NumberOfBaskets != 2 || got.Terrain != "Asphalt" {
		t.Errorf("created court = %+v", got)
	}
	if m.mode != modeList || m.statusLevel != levelSuccess {
		t.Errorf("mode %d status %q", m.mode, m.status)
	}
}

func TestInvalidSubmitReopensForm(t *testing.T) {
	repo := &fakeRepo{}
	m := newTestModel(t, repo, nil)
	m = keyPress(t, m, "n")

	m.form.Name = "No terrain"
	updated, cmd := m.submitForm()
	m = drain(t, updated.(Model), cmd)

	if len(repo.created) != 0 {
		t.Errorf("invalid draft reached the repository")
	}
	if m.mode != modeForm || m.form == nil {
		t.Fatalf("mode = %d, want form", m.mode)
	}
	if m.form.Name != "No terrain" {
		t.Errorf("form lost edits: name %q", m.form.Name)
	}
	if m.statusLevel != levelError {
		t.Errorf("status = %q (level %d)", m.status, m.statusLevel)
	}
}

func TestFormEscapeDiscards(t *testing.T) {
	m := newTestModel(t, &fakeRepo{}, nil)
	m = keyPress(t, m, "n")
	if m.view.Session.Phase != session.PhaseDrafting {
		t.Fatalf("phase = %v", m.view.Session.Phase)
	}
	m = keyPress(t, m, "esc")
	if m.mode != modeList || m.form != nil {
		t.Errorf("mode = %d", m.mode)
	}
	if m.view.Session.Phase != session.PhaseEmpty {
		t.Errorf("phase = %v, want empty", m.view.Session.Phase)
	}
}

func TestEditOpensFormWithCourt(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{testCourt(4, "Kallio", "Kallio")}}
	m := newTestModel(t, repo, nil)
	m = drain(t, m, m.Init())

	m = keyPress(t, m, "e")
	if m.mode != modeForm || m.form.Mode != FormModeEdit || m.form.CourtID != 4 {
		t.Fatalf("form = %+v", m.form)
	}
	m.form.Baskets = 3
	updated, cmd := m.submitForm()
	m = drain(t, updated.(Model), cmd)

	if len(repo.created) != 1 || repo.created[0].IDValue() != 4 || repo.created[0].NumberOfBaskets != 3 {
		t.Errorf("created = %+v", repo.created)
	}
}

func TestUseLocationKeepsTypedImage(t *testing.T) {
	m := newTestModel(t, &fakeRepo{}, nil)
	updated, cmd := m.Update(PositionMsg{Coordinate: models.Coordinate{Lat: 60.21, Lon: 24.96}})
	m = drain(t, updated.(Model), cmd)

	m = keyPress(t, m, "n")
	m.form.Name = "Kumpula"
	m.form.Image = "court.jpg"
	updated, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	m = drain(t, updated.(Model), cmd)

	if m.mode != modeForm || m.form == nil {
		t.Fatalf("mode = %d, want form", m.mode)
	}
	if m.form.Name != "Kumpula" || m.view.Session.Draft.Name != "Kumpula" {
		t.Errorf("name: form %q draft %q", m.form.Name, m.view.Session.Draft.Name)
	}
	if m.form.Image != "court.jpg" {
		t.Errorf("image = %q, want typed path kept", m.form.Image)
	}
	edits := m.form.Edits()
	if len(edits) != 1 || edits[0] != (session.SetImage{Ref: "court.jpg"}) {
		t.Errorf("edits = %#v, want pending SetImage", edits)
	}
}

func TestExport(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{testCourt(1, "Kallio", "Kallio")}}
	m := newTestModel(t, repo, nil)
	m = drain(t, m, m.Init())

	m = keyPress(t, m, "x")
	if m.statusLevel != levelSuccess || !strings.HasPrefix(m.status, "exported to ") {
		t.Fatalf("status = %q", m.status)
	}
	path := strings.TrimPrefix(m.status, "exported to ")
	if filepath.Base(path) != "basketcourts.json" {
		t.Errorf("path = %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file: %v", err)
	}
}

func TestPositionMsg(t *testing.T) {
	repo := &fakeRepo{courts: []models.Court{testCourt(1, "Kallio", "Kallio")}}
	m := newTestModel(t, repo, nil)
	m = drain(t, m, m.Init())

	updated, cmd := m.Update(PositionMsg{Coordinate: models.Coordinate{Lat: 60.2, Lon: 24.9}})
	m = drain(t, updated.(Model), cmd)
	if m.view.Position == nil || m.view.Position.Lat != 60.2 {
		t.Fatalf("position = %+v", m.view.Position)
	}
	if !strings.Contains(m.View(), "0 m") {
		t.Error("distance column missing")
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t, &fakeRepo{}, nil)
	m = keyPress(t, m, "?")
	if !m.showHelp || !strings.Contains(m.View(), "filter") {
		t.Error("help not shown")
	}
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, "0 m"},
		{640.4, "640 m"},
		{1500, "1.5 km"},
	}
	for _, tt := range tests {
		if got := formatDistance(tt.meters); got != tt.want {
			t.Errorf("formatDistance(%v) = %q, want %q", tt.meters, got, tt.want)
		}
	}
}
