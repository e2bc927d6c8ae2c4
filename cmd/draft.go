package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/output"
	"github.com/marcus/courts/internal/session"
	"github.com/marcus/courts/internal/sync"
	"github.com/marcus/courts/pkg/browser"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// registerCourtFlags adds the field flags shared by add and edit
func registerCourtFlags(c *cobra.Command) {
	c.Flags().String("name", "", "Court name")
	c.Flags().String("district", "", "District")
	c.Flags().String("description", "", "Free-text description (markdown)")
	c.Flags().String("lat", "", "Latitude in decimal degrees")
	c.Flags().String("lon", "", "Longitude in decimal degrees")
	c.Flags().Int("baskets", 0, fmt.Sprintf("Number of baskets (%d-%d)", session.MinBaskets, session.MaxBaskets))
	c.Flags().String("terrain", "", "Terrain: "+terrainList())
	c.Flags().Bool("indoor", false, "Closed (indoor) court")
	c.Flags().Bool("paid", false, "Paid court")
	c.Flags().String("image", "", "Picture to upload with the court")
	c.Flags().Bool("no-image", false, "Drop an attached picture")
	c.Flags().Bool("here", false, "Use the current position for the coordinates")
	c.Flags().BoolP("interactive", "i", false, "Fill in the court with a form")
	c.Flags().Bool("dry-run", false, "Show the draft without saving it")
}

func terrainList() string {
	var names []string
	for _, t := range models.Terrains() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

// flagEdits turns the changed field flags into session commands against the
// current draft
func flagEdits(cmd *cobra.Command, current models.Court) ([]session.Command, error) {
	f := cmd.Flags()
	var edits []session.Command

	if f.Changed("name") {
		v, _ := f.GetString("name")
		edits = append(edits, session.SetName{Name: strings.TrimSpace(v)})
	}
	if f.Changed("district") {
		v, _ := f.GetString("district")
		edits = append(edits, session.SetDistrict{District: strings.TrimSpace(v)})
	}
	if f.Changed("description") {
		v, _ := f.GetString("description")
		edits = append(edits, session.SetDescription{Description: v})
	}
	if f.Changed("lat") {
		v, _ := f.GetString("lat")
		edits = append(edits, session.SetLatitude{Latitude: strings.TrimSpace(v)})
	}
	if f.Changed("lon") {
		v, _ := f.GetString("lon")
		edits = append(edits, session.SetLongitude{Longitude: strings.TrimSpace(v)})
	}
	if f.Changed("baskets") {
		n, _ := f.GetInt("baskets")
		if n < session.MinBaskets || n > session.MaxBaskets {
			return nil, fmt.Errorf("--baskets must be between %d and %d", session.MinBaskets, session.MaxBaskets)
		}
		edits = append(edits, session.AdjustBasketCount{Delta: n - current.NumberOfBaskets})
	}
	if f.Changed("terrain") {
		v, _ := f.GetString("terrain")
		edits = append(edits, session.SetTerrain{Terrain: canonicalTerrain(v)})
	}
	if f.Changed("indoor") {
		v, _ := f.GetBool("indoor")
		edits = append(edits, session.SetClosed{Closed: v})
	}
	if f.Changed("paid") {
		v, _ := f.GetBool("paid")
		edits = append(edits, session.SetPaid{Paid: v})
	}
	if f.Changed("image") {
		v, _ := f.GetString("image")
		edits = append(edits, session.SetImage{Ref: v})
	}
	if noImage, _ := f.GetBool("no-image"); noImage {
		edits = append(edits, session.ClearImage{})
	}
	return edits, nil
}

// canonicalTerrain matches terrain names case-insensitively. Unknown values
// pass through so the session can reject them.
func canonicalTerrain(v string) string {
	v = strings.TrimSpace(v)
	for _, t := range models.Terrains() {
		if strings.EqualFold(string(t), v) {
			return string(t)
		}
	}
	return v
}

// wantsForm reports whether the interactive form should be shown: -i, or no
// field flags at all on a terminal
func wantsForm(cmd *cobra.Command) bool {
	if v, _ := cmd.Flags().GetBool("interactive"); v {
		return true
	}
	for _, name := range []string{"name", "district", "description", "lat", "lon", "baskets", "terrain", "indoor", "paid", "image", "no-image", "here"} {
		if cmd.Flags().Changed(name) {
			return false
		}
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// fillDraft applies --here, the field flags and optionally the form to the
// draft that is currently open
func fillDraft(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()

	if here, _ := cmd.Flags().GetBool("here"); here {
		if out := a.orch.Drive(ctx, sync.UseCurrentLocation{}); out.Status == sync.StatusFailed {
			return fmt.Errorf("use current location: %w (set location.lat/location.lon or COURTS_LAT/COURTS_LON)", out.Err)
		}
	}

	st := a.orch.View().Session
	edits, err := flagEdits(cmd, st.Draft)
	if err != nil {
		return err
	}
	if err := driveEdits(cmd, a, edits); err != nil {
		return err
	}

	if wantsForm(cmd) {
		st = a.orch.View().Session
		fs := browser.NewFormState(st.Draft, st.ImageRef)
		if err := fs.Form.RunWithContext(ctx); err != nil {
			return fmt.Errorf("form: %w", err)
		}
		if err := driveEdits(cmd, a, fs.Edits()); err != nil {
			return err
		}
	}
	return nil
}

func driveEdits(cmd *cobra.Command, a *app, edits []session.Command) error {
	for _, e := range edits {
		if img, ok := e.(session.SetImage); ok && img.Ref != "" {
			staged, err := a.stageImage(img.Ref)
			if err != nil {
				return err
			}
			e = session.SetImage{Ref: staged}
		}
		if out := a.orch.Drive(cmd.Context(), sync.Edit{Cmd: e}); out.Status == sync.StatusFailed {
			return out.Err
		}
	}
	return nil
}

// saveDraft uploads the open draft and reports the result
func saveDraft(cmd *cobra.Command, a *app) error {
	if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
		st := a.orch.View().Session
		if jsonOutput(cmd) {
			return output.JSON(map[string]interface{}{
				"draft":        st.Draft,
				"image":        st.ImageRef,
				"save_enabled": st.SaveEnabled,
				"address":      st.Address,
			})
		}
		fmt.Print(output.FormatSession(st))
		return nil
	}

	out := a.orch.Drive(cmd.Context(), sync.Save{})
	if out.Status != sync.StatusSaved {
		if errors.Is(out.Err, session.ErrValidation) {
			fmt.Print(output.FormatSession(a.orch.View().Session))
		}
		if out.Err == nil {
			out.Err = fmt.Errorf("save ended with status %s", out.Status)
		}
		return reportError(cmd, out.Err)
	}

	if jsonOutput(cmd) {
		return output.JSON(map[string]interface{}{"saved": out.Court, "courts": len(out.View.Courts)})
	}
	output.Success("SAVED %s", output.CourtOneLiner(*out.Court))
	return nil
}
