package browser

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Context represents a UI context for keybindings
type Context string

const (
	ContextList    Context = "list"
	ContextDetail  Context = "detail"
	ContextFilter  Context = "filter"
	ContextForm    Context = "form"
	ContextConfirm Context = "confirm"
)

// Command represents a named action triggered by a key
type Command string

const (
	CmdQuit        Command = "quit"
	CmdRefresh     Command = "refresh"
	CmdCursorDown  Command = "cursor-down"
	CmdCursorUp    Command = "cursor-up"
	CmdCursorTop   Command = "cursor-top"
	CmdCursorEnd   Command = "cursor-bottom"
	CmdOpen        Command = "open-details"
	CmdBack        Command = "back"
	CmdFilter      Command = "filter"
	CmdClearFilter Command = "clear-filter"
	CmdNew         Command = "new-court"
	CmdEdit        Command = "edit-court"
	CmdDelete      Command = "delete"
	CmdConfirm     Command = "confirm"
	CmdCancel      Command = "cancel"
	CmdExport      Command = "export"
	CmdToggleHelp  Command = "toggle-help"
	CmdFormCancel  Command = "form-cancel"
	CmdFormHere    Command = "form-use-location"
)

// Binding maps a key to a command in a context
type Binding struct {
	Key     string
	Command Command
	Context Context
	Help    string
}

// bindings is the default key table. Keys use tea.KeyMsg.String() names.
var bindings = []Binding{
	{"q", CmdQuit, ContextList, "quit"},
	{"ctrl+c", CmdQuit, ContextList, ""},
	{"ctrl+c", CmdQuit, ContextDetail, ""},
	{"ctrl+c", CmdQuit, ContextConfirm, ""},
	{"ctrl+c", CmdQuit, ContextFilter, ""},
	{"r", CmdRefresh, ContextList, "reload"},
	{"j", CmdCursorDown, ContextList, ""},
	{"down", CmdCursorDown, ContextList, "down"},
	{"k", CmdCursorUp, ContextList, ""},
	{"up", CmdCursorUp, ContextList, "up"},
	{"g", CmdCursorTop, ContextList, ""},
	{"G", CmdCursorEnd, ContextList, ""},
	{"enter", CmdOpen, ContextList, "details"},
	{"/", CmdFilter, ContextList, "filter"},
	{"esc", CmdClearFilter, ContextList, ""},
	{"n", CmdNew, ContextList, "new"},
	{"e", CmdEdit, ContextList, "edit"},
	{"d", CmdDelete, ContextList, "delete"},
	{"x", CmdExport, ContextList, "export"},
	{"?", CmdToggleHelp, ContextList, "help"},

	{"esc", CmdBack, ContextDetail, "back"},
	{"q", CmdBack, ContextDetail, ""},
	{"e", CmdEdit, ContextDetail, "edit"},
	{"d", CmdDelete, ContextDetail, "delete"},
	{"r", CmdRefresh, ContextDetail, "reload"},

	{"enter", CmdBack, ContextFilter, "apply"},
	{"esc", CmdClearFilter, ContextFilter, "clear"},

	{"esc", CmdFormCancel, ContextForm, "discard"},
	{"ctrl+l", CmdFormHere, ContextForm, "use location"},

	{"y", CmdConfirm, ContextConfirm, "delete"},
	{"enter", CmdConfirm, ContextConfirm, ""},
	{"n", CmdCancel, ContextConfirm, "keep"},
	{"esc", CmdCancel, ContextConfirm, ""},
}

// lookup finds the command bound to msg in ctx
func lookup(msg tea.KeyMsg, ctx Context) (Command, bool) {
	key := msg.String()
	for _, b := range bindings {
		if b.Context == ctx && b.Key == key {
			return b.Command, true
		}
	}
	return "", false
}

// helpFor returns "key help" pairs for the bindings in ctx that carry help text
func helpFor(ctx Context) [][2]string {
	var out [][2]string
	for _, b := range bindings {
		if b.Context == ctx && b.Help != "" {
			out = append(out, [2]string{b.Key, b.Help})
		}
	}
	return out
}
