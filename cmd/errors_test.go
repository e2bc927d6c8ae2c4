package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/marcus/courts/internal/courtclient"
	"github.com/marcus/courts/internal/images"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/output"
	"github.com/marcus/courts/internal/session"
	"github.com/marcus/courts/internal/sync"
	"github.com/spf13/cobra"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", fmt.Errorf("get court: %w", courtclient.ErrNotFound), output.ErrCodeNotFound},
		{"validation", session.ErrValidation, output.ErrCodeInvalidInput},
		{"rejected", fmt.Errorf("create: %w", courtclient.ErrBadRequest), output.ErrCodeInvalidInput},
		{"confirmation", sync.ErrConfirmationRequired, output.ErrCodeConfirmationRequired},
		{"image", fmt.Errorf("%w: missing.jpg", images.ErrImageRead), output.ErrCodeImageRead},
		{"transport", &courtclient.TransportError{Op: "list courts", Err: errors.New("connection refused")}, output.ErrCodeNetwork},
		{"server", fmt.Errorf("list: %w", &courtclient.StatusError{Code: 500}), output.ErrCodeServer},
		{"other", errors.New("boom"), output.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorCode(tt.err); got != tt.want {
				t.Errorf("errorCode(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestApplyListFilters(t *testing.T) {
	courts := []models.Court{
		{ID: models.IntID(1), Name: "a", District: "Kallio", Terrain: "Asphalt"},
		{ID: models.IntID(2), Name: "b", District: "Meilahti", Terrain: "Wood", IsClosedCourt: true, IsPaid: true},
		{ID: models.IntID(3), Name: "c", District: "kallio", Terrain: "Wood", IsClosedCourt: true},
	}
	tests := []struct {
		flags map[string]string
		want  []int
	}{
		{nil, []int{1, 2, 3}},
		{map[string]string{"terrain": "wood"}, []int{2, 3}},
		{map[string]string{"district": "KALLIO"}, []int{1, 3}},
		{map[string]string{"indoor": "true", "free": "true"}, []int{3}},
	}
	for _, tt := range tests {
		c := &cobra.Command{Use: "list"}
		c.Flags().String("terrain", "", "")
		c.Flags().String("district", "", "")
		c.Flags().Bool("indoor", false, "")
		c.Flags().Bool("free", false, "")
		for k, v := range tt.flags {
			c.Flags().Set(k, v)
		}
		var got []int
		for _, court := range applyListFilters(c, courts) {
			got = append(got, court.IDValue())
		}
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("filters %v = %v, want %v", tt.flags, got, tt.want)
		}
	}
}
