package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/output"
	"github.com/marcus/courts/internal/session"
)

// chrome is the header, filter and status lines around the list
const chrome = 4

func (m Model) listHeight() int {
	h := m.Height - chrome
	if m.showHelp {
		h -= len(helpFor(m.context())) + 1
	}
	if h < 1 {
		return 1
	}
	return h
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.renderForm())
	case modeDetail:
		b.WriteString(m.renderDetail())
	case modeConfirm:
		if m.detailID != 0 {
			b.WriteString(m.renderDetail())
		} else {
			b.WriteString(m.renderList())
		}
		b.WriteString("\n")
		b.WriteString(m.renderConfirm())
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderHelp())
	}
	return b.String()
}

func (m Model) renderHeader() string {
	title := "courts"
	if m.version != "" {
		title += " " + m.version
	}
	right := fmt.Sprintf("%d courts", len(m.view.Courts))
	if m.filterQuery != "" {
		right = fmt.Sprintf("%d/%d courts", len(m.visible()), len(m.view.Courts))
	}
	if m.view.Position != nil {
		right += "  @ " + m.view.Position.Coordinate.String()
	}
	if m.running > 0 {
		right += "  ..."
	}
	gap := m.Width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return headerStyle.Width(max(m.Width, 1)).Render(title + strings.Repeat(" ", gap) + right)
}

func (m Model) renderList() string {
	var b strings.Builder
	if m.mode == modeFilter || m.filterQuery != "" {
		b.WriteString(m.filter.View())
	}
	b.WriteString("\n")

	courts := m.visible()
	if len(courts) == 0 {
		if m.filterQuery != "" {
			b.WriteString(subtleStyle.Render("  no courts match"))
		} else {
			b.WriteString(subtleStyle.Render("  no courts loaded"))
		}
		return b.String()
	}

	rows := m.listHeight()
	end := min(m.offset+rows, len(courts))
	for i := m.offset; i < end; i++ {
		line := m.formatRow(courts[i])
		if i == m.cursor {
			line = selectedRowStyle.Width(max(m.Width, 1)).Render(ansi.Strip(line))
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatRow renders one list row truncated to the terminal width
func (m Model) formatRow(c models.Court) string {
	id := fmt.Sprintf("#%-4d", c.IDValue())
	name := ansi.Truncate(c.Name, 28, "…")
	district := ansi.Truncate(c.District, 16, "…")
	line := fmt.Sprintf("%s %-28s %s %2d  %s %s",
		idStyle.Render(id),
		name,
		subtleStyle.Render(fmt.Sprintf("%-16s", district)),
		c.NumberOfBaskets,
		padRight(output.FormatTerrain(c.Terrain), 10),
		output.FormatAccess(c),
	)
	if d := m.distanceTo(c); d != "" {
		line += "  " + subtleStyle.Render(d)
	}
	return ansi.Truncate(line, max(m.Width, 1), "…")
}

// padRight pads a styled string to width visible cells
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// distanceTo formats the distance from the current position, if both are known
func (m Model) distanceTo(c models.Court) string {
	if m.view.Position == nil {
		return ""
	}
	coord, ok := c.Coordinate()
	if !ok {
		return ""
	}
	return formatDistance(models.Distance(m.view.Position.Coordinate, coord))
}

func formatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func (m Model) renderDetail() string {
	c := m.view.Selected
	if c == nil {
		return subtleStyle.Render("  court not loaded")
	}
	body := output.FormatCourtLong(*c, nil)
	if d := m.distanceTo(*c); d != "" {
		body += "\n" + subtleStyle.Render("Distance: "+d)
	}
	return panelStyle.Width(max(m.Width-2, 1)).Render(body)
}

func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}
	heading := "New court"
	if m.form.Mode == FormModeEdit {
		heading = fmt.Sprintf("Edit court #%d", m.form.CourtID)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(heading))
	if addr := m.view.Session.Address; !addr.IsUnknown() {
		b.WriteString("  " + subtleStyle.Render(addr.String()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.form.Form.View())
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render("esc discard  ctrl+l use location"))
	return b.String()
}

func (m Model) renderConfirm() string {
	label := fmt.Sprintf("#%d", m.deleteID)
	for _, c := range m.view.Courts {
		if c.IDValue() == m.deleteID {
			label = output.CourtOneLiner(c)
			break
		}
	}
	msg := fmt.Sprintf("Delete %s?\n\n%s delete   %s keep",
		label, helpKeyStyle.Render("y"), helpKeyStyle.Render("n"))
	return confirmStyle.Render(msg)
}

func (m Model) renderStatus() string {
	st := m.view.Session
	var parts []string
	if m.status != "" {
		style := subtleStyle
		switch m.statusLevel {
		case levelSuccess:
			style = successStyle
		case levelWarning:
			style = warningStyle
		case levelError:
			style = errorStyle
		}
		parts = append(parts, style.Render(m.status))
	}
	if st.Phase == session.PhaseSaving {
		parts = append(parts, warningStyle.Render("saving"))
	}
	if !m.showHelp {
		parts = append(parts, subtleStyle.Render("? help"))
	}
	return ansi.Truncate(strings.Join(parts, "  "), max(m.Width, 1), "…")
}

func (m Model) renderHelp() string {
	var parts []string
	for _, h := range helpFor(m.context()) {
		parts = append(parts, helpKeyStyle.Render(h[0])+" "+h[1])
	}
	return ansi.Wordwrap(strings.Join(parts, "  "), max(m.Width, 1), " ")
}
