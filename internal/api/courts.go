package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/marcus/courts/internal/models"
)

var errInvalidCourt = errors.New("invalid court")

func (s *Server) handleListCourts(w http.ResponseWriter, r *http.Request) {
	courts, err := s.store.ListCourts()
	if err != nil {
		logFor(r.Context()).Error("list courts", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to list courts")
		return
	}
	writeJSON(w, http.StatusOK, courts)
}

// courtID parses the {id} path value, writing a 400 when it is not a positive int
func courtID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "court id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetCourt(w http.ResponseWriter, r *http.Request) {
	id, ok := courtID(w, r)
	if !ok {
		return
	}
	court, err := s.store.GetCourt(id)
	if err != nil {
		logFor(r.Context()).Error("get court", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to get court")
		return
	}
	if court == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("court %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, court)
}

func (s *Server) handleDeleteCourt(w http.ResponseWriter, r *http.Request) {
	id, ok := courtID(w, r)
	if !ok {
		return
	}
	found, err := s.store.DeleteCourt(id)
	if err != nil {
		logFor(r.Context()).Error("delete court", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to delete court")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, fmt.Sprintf("court %d not found", id))
		return
	}
	s.metrics.recordDelete()
	logFor(r.Context()).Info("court deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleSaveCourt stores a JSON court. A court with an id replaces the stored
// one; there is no separate update route.
func (s *Server) handleSaveCourt(w http.ResponseWriter, r *http.Request) {
	var court models.Court
	if err := json.NewDecoder(r.Body).Decode(&court); err != nil {
		writeBodyError(w, err)
		return
	}
	saved, ok := s.saveCourt(w, r, court)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// saveCourt cleans, validates and stores court, writing the error response
// on failure
func (s *Server) saveCourt(w http.ResponseWriter, r *http.Request, court models.Court) (models.Court, bool) {
	court = s.sanitizeCourt(court)
	if err := validateCourt(court); err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrCodeInvalidCourt, err.Error())
		return models.Court{}, false
	}
	saved, err := s.store.SaveCourt(court)
	if err != nil {
		logFor(r.Context()).Error("save court", "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to save court")
		return models.Court{}, false
	}
	s.metrics.recordSave()
	logFor(r.Context()).Info("court saved", "id", saved.IDValue(), "update", court.ID != nil)
	return saved, true
}

const maxSanitizePasses = 4

// sanitizeCourt strips markup from the free-text fields
func (s *Server) sanitizeCourt(c models.Court) models.Court {
	c.Name = s.cleanText(c.Name)
	c.District = s.cleanText(c.District)
	c.Description = s.cleanText(c.Description)
	c.Latitude = strings.TrimSpace(c.Latitude)
	c.Longitude = strings.TrimSpace(c.Longitude)
	return c
}

// cleanText returns v as plain text. Entities are decoded and the policy is
// applied again until nothing changes, so encoded tags cannot survive as
// markup. Input that does not settle keeps the policy's escaped form.
func (s *Server) cleanText(v string) string {
	v = html.UnescapeString(v)
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(v))
		if next == v {
			return strings.TrimSpace(v)
		}
		v = next
	}
	return strings.TrimSpace(s.policy.Sanitize(v))
}

func validateCourt(c models.Court) error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", errInvalidCourt)
	}
	if c.Terrain != "" && !models.ValidTerrain(c.Terrain) {
		return fmt.Errorf("%w: unknown terrain %q", errInvalidCourt, c.Terrain)
	}
	if c.NumberOfBaskets < 0 {
		return fmt.Errorf("%w: negative basket count", errInvalidCourt)
	}
	for _, v := range []string{c.Latitude, c.Longitude} {
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return fmt.Errorf("%w: coordinate %q is not a number", errInvalidCourt, v)
		}
	}
	return nil
}

// writeBodyError reports a request body that could not be read
func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body: "+err.Error())
}
