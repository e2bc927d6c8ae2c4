package cmd

import (
	"reflect"
	"testing"

	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/session"
	"github.com/spf13/cobra"
)

func newDraftCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	registerCourtFlags(c)
	for k, v := range flags {
		if err := c.Flags().Set(k, v); err != nil {
			t.Fatalf("set --%s: %v", k, err)
		}
	}
	return c
}

func TestFlagEdits(t *testing.T) {
	c := newDraftCmd(t, map[string]string{
		"name":    "  Kallio ",
		"lat":     "60.18",
		"baskets": "4",
		"terrain": "sport TILES",
		"paid":    "true",
	})
	current := models.Court{NumberOfBaskets: 1}

	got, err := flagEdits(c, current)
	if err != nil {
		t.Fatalf("flagEdits: %v", err)
	}
	want := []session.Command{
		session.SetName{Name: "Kallio"},
		session.SetLatitude{Latitude: "60.18"},
		session.AdjustBasketCount{Delta: 3},
		session.SetTerrain{Terrain: "Sport tiles"},
		session.SetPaid{Paid: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("edits =\n%#v\nwant\n%#v", got, want)
	}
}

func TestFlagEditsNoFlags(t *testing.T) {
	got, err := flagEdits(newDraftCmd(t, nil), models.Court{})
	if err != nil || len(got) != 0 {
		t.Errorf("flagEdits = %v, %v; want no edits", got, err)
	}
}

func TestFlagEditsBasketRange(t *testing.T) {
	for _, v := range []string{"0", "20", "-3"} {
		if _, err := flagEdits(newDraftCmd(t, map[string]string{"baskets": v}), models.Court{}); err == nil {
			t.Errorf("--baskets %s accepted", v)
		}
	}
}

func TestFlagEditsImage(t *testing.T) {
	got, _ := flagEdits(newDraftCmd(t, map[string]string{"no-image": "true"}), models.Court{})
	if !reflect.DeepEqual(got, []session.Command{session.ClearImage{}}) {
		t.Errorf("--no-image edits = %#v", got)
	}
	got, _ = flagEdits(newDraftCmd(t, map[string]string{"image": "court.jpg"}), models.Court{})
	if !reflect.DeepEqual(got, []session.Command{session.SetImage{Ref: "court.jpg"}}) {
		t.Errorf("--image edits = %#v", got)
	}
}

func TestCanonicalTerrain(t *testing.T) {
	tests := map[string]string{
		"asphalt": "Asphalt",
		" pvc ":   "PVC",
		"Wood":    "Wood",
		"grass":   "grass",
		"":        "",
	}
	for in, want := range tests {
		if got := canonicalTerrain(in); got != want {
			t.Errorf("canonicalTerrain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWantsForm(t *testing.T) {
	if !wantsForm(newDraftCmd(t, map[string]string{"interactive": "true", "name": "x"})) {
		t.Error("-i should force the form")
	}
	if wantsForm(newDraftCmd(t, map[string]string{"name": "x"})) {
		t.Error("field flags should skip the form")
	}
	if wantsForm(newDraftCmd(t, map[string]string{"here": "true"})) {
		t.Error("--here should skip the form")
	}
}
