package browser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/session"
)

var (
	errNameRequired = errors.New("name is required")
	errNotANumber   = errors.New("must be a decimal number")
)

// FormMode represents the mode of the form
type FormMode string

const (
	FormModeCreate FormMode = "create"
	FormModeEdit   FormMode = "edit"
)

// FormState holds the court form and the values bound to it. Submitting the
// form does not touch the draft; Edits translates the values into session
// commands.
type FormState struct {
	Mode    FormMode
	Form    *huh.Form
	CourtID int

	base      models.Court
	baseImage string

	// Bound form values
	Name        string
	District    string
	Latitude    string
	Longitude   string
	Description string
	Baskets     int
	Terrain     string
	Closed      bool
	Paid        bool
	Image       string
}

// NewFormState creates a form populated from the draft being edited. Drafts
// without an id open in create mode.
func NewFormState(draft models.Court, imageRef string) *FormState {
	return newFormState(draft, imageRef, imageRef)
}

func newFormState(draft models.Court, imageRef, image string) *FormState {
	fs := &FormState{
		Mode:        FormModeCreate,
		base:        draft.Clone(),
		baseImage:   imageRef,
		Name:        draft.Name,
		District:    draft.District,
		Latitude:    draft.Latitude,
		Longitude:   draft.Longitude,
		Description: draft.Description,
		Baskets:     draft.NumberOfBaskets,
		Terrain:     draft.Terrain,
		Closed:      draft.IsClosedCourt,
		Paid:        draft.IsPaid,
		Image:       image,
	}
	if !draft.IsDraft() {
		fs.Mode = FormModeEdit
		fs.CourtID = draft.IDValue()
	}
	fs.buildForm()
	return fs
}

// buildForm constructs the huh.Form based on current state
func (fs *FormState) buildForm() {
	terrainOptions := []huh.Option[string]{huh.NewOption("Not set", "")}
	for _, t := range models.Terrains() {
		terrainOptions = append(terrainOptions, huh.NewOption(string(t), string(t)))
	}

	basketOptions := []huh.Option[int]{huh.NewOption("Not set", 0)}
	for n := session.MinBaskets; n <= session.MaxBaskets; n++ {
		basketOptions = append(basketOptions, huh.NewOption(strconv.Itoa(n), n))
	}

	titleStr := "New Court"
	if fs.Mode == FormModeEdit {
		titleStr = fmt.Sprintf("Edit Court: #%d", fs.CourtID)
	}

	mainGroup := huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&fs.Name).
			Placeholder("Court name...").
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errNameRequired
				}
				return nil
			}),
		huh.NewInput().
			Title("District").
			Value(&fs.District).
			Placeholder("e.g. Meilahti"),
		huh.NewInput().
			Title("Latitude").
			Value(&fs.Latitude).
			Validate(validateDegrees),
		huh.NewInput().
			Title("Longitude").
			Value(&fs.Longitude).
			Validate(validateDegrees),
		huh.NewText().
			Title("Description").
			Value(&fs.Description).
			Placeholder("Optional description...").
			Lines(3),
	).Title(titleStr)

	detailGroup := huh.NewGroup(
		huh.NewSelect[int]().
			Title("Baskets").
			Options(basketOptions...).
			Value(&fs.Baskets),
		huh.NewSelect[string]().
			Title("Terrain").
			Options(terrainOptions...).
			Value(&fs.Terrain),
		huh.NewConfirm().
			Title("Indoor court").
			Description("Closed courts are indoors").
			Value(&fs.Closed),
		huh.NewConfirm().
			Title("Paid").
			Value(&fs.Paid),
		huh.NewInput().
			Title("Image").
			Value(&fs.Image).
			Placeholder("path/to/picture.jpg (optional)"),
	).Title("Details")

	fs.Form = huh.NewForm(mainGroup, detailGroup)
	fs.Form.WithTheme(huh.ThemeDracula())
}

func validateDegrees(s string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return errNotANumber
	}
	return nil
}

// Edits returns the session commands that move the draft the form was built
// from to the submitted values. Unchanged fields produce no command.
func (fs *FormState) Edits() []session.Command {
	var cmds []session.Command
	base := fs.base

	if name := strings.TrimSpace(fs.Name); name != base.Name {
		cmds = append(cmds, session.SetName{Name: name})
	}
	if district := strings.TrimSpace(fs.District); district != base.District {
		cmds = append(cmds, session.SetDistrict{District: district})
	}
	if lat := strings.TrimSpace(fs.Latitude); lat != base.Latitude {
		cmds = append(cmds, session.SetLatitude{Latitude: lat})
	}
	if lon := strings.TrimSpace(fs.Longitude); lon != base.Longitude {
		cmds = append(cmds, session.SetLongitude{Longitude: lon})
	}
	if fs.Description != base.Description {
		cmds = append(cmds, session.SetDescription{Description: fs.Description})
	}
	if fs.Baskets != base.NumberOfBaskets {
		cmds = append(cmds, session.AdjustBasketCount{Delta: fs.Baskets - base.NumberOfBaskets})
	}
	if fs.Terrain != base.Terrain {
		cmds = append(cmds, session.SetTerrain{Terrain: fs.Terrain})
	}
	if fs.Closed != base.IsClosedCourt {
		cmds = append(cmds, session.SetClosed{Closed: fs.Closed})
	}
	if fs.Paid != base.IsPaid {
		cmds = append(cmds, session.SetPaid{Paid: fs.Paid})
	}
	switch img := strings.TrimSpace(fs.Image); {
	case img == fs.baseImage:
	case img == "":
		cmds = append(cmds, session.ClearImage{})
	default:
		cmds = append(cmds, session.SetImage{Ref: img})
	}
	return cmds
}
