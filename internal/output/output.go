// Package output provides styled terminal output helpers (success, error,
// warning, court formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/session"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	openStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	closedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	terrainStyle = map[models.Terrain]lipgloss.Style{
		models.TerrainWood:       lipgloss.NewStyle().Foreground(lipgloss.Color("179")),
		models.TerrainAsphalt:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		models.TerrainConcrete:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		models.TerrainPVC:        lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		models.TerrainVinyl:      lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		models.TerrainSportTiles: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	}
)

// OutputMode determines output format
type OutputMode int

const (
	ModeShort OutputMode = iota
	ModeLong
	ModeJSON
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidInput         = "invalid_input"
	ErrCodeNetwork              = "network_error"
	ErrCodeServer               = "server_error"
	ErrCodeConfirmationRequired = "confirmation_required"
	ErrCodeImageRead            = "image_read_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	JSONErrorWithDetails(code, message, nil)
}

// JSONErrorWithDetails outputs an error as JSON with additional context
func JSONErrorWithDetails(code, message string, details map[string]interface{}) {
	errObj := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if len(details) > 0 {
		errObj["details"] = details
	}
	result := map[string]interface{}{
		"error": errObj,
	}
	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// FormatID renders a court identifier, or "draft" when it has none
func FormatID(c models.Court) string {
	if c.IsDraft() {
		return subtleStyle.Render("draft")
	}
	return idStyle.Render(fmt.Sprintf("#%d", c.IDValue()))
}

// FormatTerrain colors a terrain value. Unknown values render unstyled.
func FormatTerrain(t string) string {
	if t == "" {
		return subtleStyle.Render("-")
	}
	style, ok := terrainStyle[models.Terrain(t)]
	if !ok {
		return t
	}
	return style.Render(t)
}

// FormatAccess renders "[Open|Closed] [Free|Paid]"
func FormatAccess(c models.Court) string {
	style := openStyle
	if c.IsClosedCourt {
		style = closedStyle
	}
	return style.Render("["+c.OpenLabel()+"]") + " " + subtleStyle.Render("["+c.PaidLabel()+"]")
}

// FormatBaskets returns "1 basket" or "N baskets"
func FormatBaskets(n int) string {
	if n == 1 {
		return "1 basket"
	}
	return fmt.Sprintf("%d baskets", n)
}

// FormatCourtShort formats a court on one line
func FormatCourtShort(c models.Court) string {
	var parts []string
	parts = append(parts, FormatID(c))
	parts = append(parts, titleStyle.Render(c.Name))
	if c.District != "" {
		parts = append(parts, subtleStyle.Render(c.District))
	}
	parts = append(parts, FormatBaskets(c.NumberOfBaskets))
	parts = append(parts, FormatTerrain(c.Terrain))
	parts = append(parts, FormatAccess(c))
	return strings.Join(parts, "  ")
}

// FormatCourtLong formats a court with its description rendered as markdown.
// addr may be nil.
func FormatCourtLong(c models.Court, addr *models.GeoAddress) string {
	var sb strings.Builder

	title := c.Name
	if title == "" {
		title = "(unnamed)"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("  ")
	sb.WriteString(FormatID(c))
	sb.WriteString("\n")

	if c.District != "" {
		sb.WriteString(fmt.Sprintf("District: %s\n", c.District))
	}
	sb.WriteString(fmt.Sprintf("Location: %s, %s\n", c.Latitude, c.Longitude))
	if addr != nil && !addr.IsUnknown() {
		for _, line := range addr.Lines() {
			sb.WriteString("          " + line + "\n")
		}
	}
	sb.WriteString(fmt.Sprintf("Baskets: %d | Terrain: %s | %s\n",
		c.NumberOfBaskets, FormatTerrain(c.Terrain), FormatAccess(c)))
	if c.ImageURL != "" {
		sb.WriteString(fmt.Sprintf("Image: %s\n", c.ImageURL))
	}
	if u := c.MapURL(); u != "" {
		sb.WriteString(subtleStyle.Render("Map: "+u) + "\n")
	}

	if strings.TrimSpace(c.Description) != "" {
		sb.WriteString("\n")
		sb.WriteString(subtleStyle.Render("Description:"))
		sb.WriteString("\n")
		rendered, err := RenderMarkdown(c.Description)
		if err != nil || rendered == "" {
			rendered = c.Description
		}
		sb.WriteString(rendered)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatSession describes an edit session: phase, draft and save gate
func FormatSession(st session.State) string {
	if st.Phase == session.PhaseEmpty {
		return subtleStyle.Render("no draft") + "\n"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Phase: %s\n", st.Phase))
	sb.WriteString(FormatCourtLong(st.Draft, &st.Address))
	if st.ImageRef != "" {
		sb.WriteString(fmt.Sprintf("Attached image: %s\n", st.ImageRef))
	}
	if st.SaveEnabled {
		sb.WriteString(successStyle.Render("ready to save") + "\n")
	} else {
		sb.WriteString(warningStyle.Render("name, terrain, baskets and coordinates are required") + "\n")
	}
	if st.LastErr != nil {
		sb.WriteString(errorStyle.Render("last error: "+st.LastErr.Error()) + "\n")
	}
	return sb.String()
}

// CourtOneLiner returns "#id \"Name\"" for messages
func CourtOneLiner(c models.Court) string {
	if c.IsDraft() {
		return fmt.Sprintf("draft \"%s\"", c.Name)
	}
	return fmt.Sprintf("#%d \"%s\"", c.IDValue(), c.Name)
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nCOURTS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentString indents each line in a string by the specified number of spaces
func IndentString(s string, spaces int) string {
	if s == "" {
		return ""
	}
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
