// Package browser is the interactive court browser. The bubbletea Update
// goroutine owns the orchestrator: commands go through Handle, their tasks run
// as tea.Cmds, and results come back through Apply.
package browser

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/marcus/courts/internal/courtset"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/output"
	"github.com/marcus/courts/internal/session"
	"github.com/marcus/courts/internal/sync"
)

type mode int

const (
	modeList mode = iota
	modeDetail
	modeFilter
	modeForm
	modeConfirm
)

// PositionMsg delivers a position sample from the location feed
type PositionMsg models.Position

type taskDoneMsg struct {
	res sync.Result
}

// Options configures the browser
type Options struct {
	Orchestrator *sync.Orchestrator
	// ExportDir receives JSON/basketcourts.json on export
	ExportDir string
	Version   string
}

// Model is the bubbletea model for the court browser
type Model struct {
	ctx       context.Context
	orch      *sync.Orchestrator
	exportDir string
	version   string

	view    sync.View
	mode    mode
	cursor  int
	offset  int
	running int

	filter      textinput.Model
	filterQuery string

	form        *FormState
	deleteID    int
	detailID    int
	showHelp    bool
	status      string
	statusLevel int // 0 info, 1 success, 2 warning, 3 error

	Width  int
	Height int
}

const (
	levelInfo = iota
	levelSuccess
	levelWarning
	levelError
)

// NewModel creates a browser over orch. ctx bounds every task it starts.
func NewModel(ctx context.Context, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "name, district or terrain"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	return Model{
		ctx:       ctx,
		orch:      opts.Orchestrator,
		exportDir: opts.ExportDir,
		version:   opts.Version,
		view:      opts.Orchestrator.View(),
		filter:    ti,
		Width:     80,
		Height:    24,
	}
}

// Init restores the cached list and starts a refresh
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	cmds = append(cmds, m.handle(sync.RestoreCache{}))
	cmds = append(cmds, m.handle(sync.LoadCourts{}))
	return tea.Batch(cmds...)
}

// handle runs cmd on the owner and schedules its tasks. Immediate failures
// land in the status line.
func (m *Model) handle(cmd sync.Command) tea.Cmd {
	step := m.orch.Handle(cmd)
	m.view = step.Outcome.View
	if step.Outcome.Status == sync.StatusFailed {
		m.setStatus(levelError, "%v", step.Outcome.Err)
	}
	return m.runTasks(step.Tasks)
}

// handleOK is handle for callers that need to know whether cmd was accepted
func (m *Model) handleOK(cmd sync.Command) (tea.Cmd, bool) {
	step := m.orch.Handle(cmd)
	m.view = step.Outcome.View
	if step.Outcome.Status == sync.StatusFailed {
		m.setStatus(levelError, "%v", step.Outcome.Err)
		return nil, false
	}
	return m.runTasks(step.Tasks), true
}

func (m *Model) runTasks(tasks []sync.Task) tea.Cmd {
	if len(tasks) == 0 {
		return nil
	}
	ctx := m.ctx
	cmds := make([]tea.Cmd, 0, len(tasks))
	for _, t := range tasks {
		t := t
		m.running++
		cmds = append(cmds, func() tea.Msg {
			return taskDoneMsg{res: t.Run(ctx)}
		})
	}
	return tea.Batch(cmds...)
}

func (m *Model) setStatus(level int, format string, args ...interface{}) {
	m.statusLevel = level
	m.status = fmt.Sprintf(format, args...)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		if m.mode == modeForm && m.form != nil {
			m.form.Form = m.form.Form.WithWidth(min(msg.Width-4, 80))
		}
		return m, nil

	case taskDoneMsg:
		return m.applyResult(msg.res)

	case PositionMsg:
		next := m.handle(sync.UpdatePosition{Position: models.Position(msg)})
		return m, next
	}

	if m.mode == modeForm {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	return m.handleKey(keyMsg)
}

// applyResult folds a finished task back in and reports primary outcomes
func (m Model) applyResult(res sync.Result) (tea.Model, tea.Cmd) {
	m.running--
	step := m.orch.Apply(res)
	m.view = step.Outcome.View
	m.clampCursor()
	next := m.runTasks(step.Tasks)

	if !res.Primary() {
		return m, next
	}

	out := step.Outcome
	switch res.Task {
	case "load_courts":
		if out.Status == sync.StatusFailed {
			m.setStatus(levelWarning, "offline: %v", out.Err)
		} else if out.Status == sync.StatusOK {
			m.setStatus(levelInfo, "%d courts", len(m.view.Courts))
		}
	case "restore_cache":
		if out.Status == sync.StatusOK && len(m.view.Courts) > 0 {
			m.setStatus(levelInfo, "%d cached courts", len(m.view.Courts))
		}
	case "fetch_court":
		if out.Status == sync.StatusFailed {
			m.setStatus(levelError, "%v", out.Err)
		}
	case "save":
		switch out.Status {
		case sync.StatusSaved:
			m.setStatus(levelSuccess, "saved %s", output.CourtOneLiner(*out.Court))
		case sync.StatusFailed:
			m.setStatus(levelError, "%v", out.Err)
			form := m.openForm()
			return m, tea.Batch(next, form)
		}
	case "delete":
		switch out.Status {
		case sync.StatusOK:
			m.setStatus(levelSuccess, "deleted #%d", m.deleteID)
			if m.detailID == m.deleteID {
				m.detailID = 0
				if m.mode == modeDetail {
					m.mode = modeList
				}
			}
		case sync.StatusAlreadyGone:
			m.setStatus(levelWarning, "court #%d was already gone", m.deleteID)
		case sync.StatusFailed:
			m.setStatus(levelError, "%v", out.Err)
		}
		m.deleteID = 0
	case "upload_image":
		if out.Status == sync.StatusFailed {
			m.setStatus(levelError, "%v", out.Err)
		}
	case "export":
		if out.Status == sync.StatusOK {
			m.setStatus(levelSuccess, "exported to %s", out.Path)
		} else if out.Status == sync.StatusFailed {
			m.setStatus(levelError, "%v", out.Err)
		}
	}
	return m, next
}

func (m Model) context() Context {
	switch m.mode {
	case modeDetail:
		return ContextDetail
	case modeFilter:
		return ContextFilter
	case modeForm:
		return ContextForm
	case modeConfirm:
		return ContextConfirm
	}
	return ContextList
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := m.context()
	cmd, found := lookup(msg, ctx)
	if !found {
		if ctx == ContextFilter {
			var inputCmd tea.Cmd
			m.filter, inputCmd = m.filter.Update(msg)
			if q := m.filter.Value(); q != m.filterQuery {
				m.filterQuery = q
				m.cursor, m.offset = 0, 0
			}
			return m, inputCmd
		}
		return m, nil
	}
	return m.execute(cmd)
}

func (m Model) execute(cmd Command) (tea.Model, tea.Cmd) {
	switch cmd {
	case CmdQuit:
		return m, tea.Quit

	case CmdRefresh:
		m.setStatus(levelInfo, "reloading...")
		if m.mode == modeDetail {
			next := m.handle(sync.FetchCourt{ID: m.detailID})
			return m, next
		}
		next := m.handle(sync.LoadCourts{})
		return m, next

	case CmdCursorDown:
		m.cursor++
		m.clampCursor()
	case CmdCursorUp:
		m.cursor--
		m.clampCursor()
	case CmdCursorTop:
		m.cursor = 0
		m.clampCursor()
	case CmdCursorEnd:
		m.cursor = len(m.visible()) - 1
		m.clampCursor()

	case CmdOpen:
		c, ok := m.current()
		if !ok {
			return m, nil
		}
		if _, ok := m.handleOK(sync.SelectCourt{ID: c.IDValue()}); ok {
			m.detailID = c.IDValue()
			m.mode = modeDetail
		}

	case CmdBack:
		m.mode = modeList
		m.detailID = 0
		m.filter.Blur()

	case CmdFilter:
		m.mode = modeFilter
		return m, m.filter.Focus()

	case CmdClearFilter:
		m.filter.SetValue("")
		m.filterQuery = ""
		m.filter.Blur()
		m.mode = modeList
		m.clampCursor()

	case CmdNew:
		tasks, ok := m.handleOK(sync.NewDraft{})
		if !ok {
			return m, nil
		}
		form := m.openForm()
		return m, tea.Batch(tasks, form)

	case CmdEdit:
		id := m.targetID()
		if id == 0 {
			return m, nil
		}
		tasks, ok := m.handleOK(sync.EditCourt{ID: id})
		if !ok {
			return m, nil
		}
		form := m.openForm()
		return m, tea.Batch(tasks, form)

	case CmdDelete:
		id := m.targetID()
		if id == 0 {
			return m, nil
		}
		if _, ok := m.handleOK(sync.ConfirmDelete{ID: id}); ok {
			m.deleteID = id
			m.mode = modeConfirm
		}

	case CmdConfirm:
		id := m.deleteID
		m.mode = modeList
		if m.detailID == id {
			m.mode = modeDetail
		}
		m.setStatus(levelInfo, "deleting #%d...", id)
		next := m.handle(sync.Delete{ID: id})
		return m, next

	case CmdCancel:
		m.deleteID = 0
		m.mode = modeList
		if m.detailID != 0 {
			m.mode = modeDetail
		}
		next := m.handle(sync.CancelDelete{})
		return m, next

	case CmdExport:
		if m.exportDir == "" {
			m.setStatus(levelWarning, "no export directory configured")
			return m, nil
		}
		next := m.handle(sync.Export{Dir: m.exportDir})
		return m, next

	case CmdToggleHelp:
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// targetID is the court under the cursor, or the open detail court
func (m Model) targetID() int {
	if m.mode == modeDetail {
		return m.detailID
	}
	if c, ok := m.current(); ok {
		return c.IDValue()
	}
	return 0
}

// openForm shows the form for the current draft
func (m *Model) openForm() tea.Cmd {
	return m.openFormWithImage(m.view.Session.ImageRef)
}

// openFormWithImage opens the form on the draft with the image field set to
// image. Edits still compares it against the draft's image.
func (m *Model) openFormWithImage(image string) tea.Cmd {
	st := m.view.Session
	m.form = newFormState(st.Draft, st.ImageRef, image)
	m.form.Form = m.form.Form.WithWidth(min(m.Width-4, 80))
	m.mode = modeForm
	return m.form.Form.Init()
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if cmd, found := lookup(keyMsg, ContextForm); found {
			switch cmd {
			case CmdFormCancel:
				m.form = nil
				m.mode = modeList
				m.setStatus(levelInfo, "draft discarded")
				next := m.handle(sync.Discard{})
				return m, next
			case CmdFormHere:
				return m.useLocationInForm()
			}
		}
	}

	form, cmd := m.form.Form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form.Form = f
	}

	switch m.form.Form.State {
	case huh.StateCompleted:
		return m.submitForm()
	case huh.StateAborted:
		m.form = nil
		m.mode = modeList
		next := m.handle(sync.Discard{})
		return m, next
	}
	return m, cmd
}

// useLocationInForm copies the current position into the draft and rebuilds
// the form so the coordinate fields show it
func (m Model) useLocationInForm() (tea.Model, tea.Cmd) {
	pending := m.form.Edits()
	image := m.form.Image
	var cmds []tea.Cmd
	for _, e := range pending {
		if _, ok := e.(session.SetImage); ok {
			continue
		}
		tasks, ok := m.handleOK(sync.Edit{Cmd: e})
		if !ok {
			return m, nil
		}
		cmds = append(cmds, tasks)
	}
	tasks, ok := m.handleOK(sync.UseCurrentLocation{})
	if !ok {
		return m, tea.Batch(cmds...)
	}
	cmds = append(cmds, tasks, m.openFormWithImage(image))
	return m, tea.Batch(cmds...)
}

// submitForm applies the form values to the draft and starts the save
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	edits := m.form.Edits()
	m.form = nil
	m.mode = modeList
	if m.detailID != 0 {
		m.mode = modeDetail
	}

	var cmds []tea.Cmd
	for _, e := range edits {
		tasks, ok := m.handleOK(sync.Edit{Cmd: e})
		if !ok {
			cmds = append(cmds, m.openForm())
			return m, tea.Batch(cmds...)
		}
		cmds = append(cmds, tasks)
	}

	tasks, ok := m.handleOK(sync.Save{})
	if !ok {
		if m.view.Session.Phase != session.PhaseSaving {
			cmds = append(cmds, m.openForm())
		}
		return m, tea.Batch(cmds...)
	}
	m.setStatus(levelInfo, "saving %s...", m.view.Session.Draft.Name)
	cmds = append(cmds, tasks)
	return m, tea.Batch(cmds...)
}

// visible returns the court list after the filter
func (m Model) visible() []models.Court {
	if m.filterQuery == "" {
		return m.view.Courts
	}
	return courtset.FilterCourts(m.view.Courts, m.filterQuery)
}

func (m Model) current() (models.Court, bool) {
	courts := m.visible()
	if m.cursor < 0 || m.cursor >= len(courts) {
		return models.Court{}, false
	}
	return courts[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	rows := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if rows > 0 && m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}
