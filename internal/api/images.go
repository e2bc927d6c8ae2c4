package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/marcus/courts/internal/models"
	"github.com/marcus/courts/internal/serverdb"
)

// imageTypes maps sniffed content types to stored file extensions
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// multipartMemory bounds how much of a multipart body is held in memory
const multipartMemory = 1 << 20

// readImagePart reads the "image" file part and sniffs its type
func readImagePart(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "missing image part")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeBodyError(w, err)
		return nil, "", false
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "empty image")
		return nil, "", false
	}
	contentType := http.DetectContentType(data)
	ext, ok := imageTypes[contentType]
	if !ok {
		writeError(w, http.StatusUnsupportedMediaType, ErrCodeUnsupportedImage, "unsupported image type "+contentType)
		return nil, "", false
	}
	return data, ext, true
}

func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeBodyError(w, err)
		return false
	}
	return true
}

// handleUploadImage stores a picture that is not attached to a court.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}
	data, ext, ok := readImagePart(w, r)
	if !ok {
		return
	}

	name := uuid.NewString() + ext
	if err := s.storeImage(name, data, nil); err != nil {
		logFor(r.Context()).Error("store image", "name", name, "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to store image")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": name, "url": s.imageURL(name)})
}

// handleSaveCourtWithImage stores the court from the court_data field and the
// picture from the image part, then points the court's imageUrl at it.
func (s *Server) handleSaveCourtWithImage(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}
	raw := r.FormValue("court_data")
	if raw == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "missing court_data field")
		return
	}
	var court models.Court
	if err := json.Unmarshal([]byte(raw), &court); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid court_data: "+err.Error())
		return
	}
	data, ext, ok := readImagePart(w, r)
	if !ok {
		return
	}

	saved, ok := s.saveCourt(w, r, court)
	if !ok {
		return
	}

	id := saved.IDValue()
	name := fmt.Sprintf("%d%s", id, ext)
	if err := s.storeImage(name, data, saved.ID); err != nil {
		logFor(r.Context()).Error("store image", "court", id, "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "court saved but image could not be stored")
		return
	}
	saved.ImageURL = s.imageURL(name)
	if err := s.store.SetImageURL(id, saved.ImageURL); err != nil {
		logFor(r.Context()).Error("set image url", "court", id, "err", err)
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "court saved but image could not be linked")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// storeImage writes data under name in the image directory and records it
func (s *Server) storeImage(name string, data []byte, courtID *int) error {
	tmp, err := os.CreateTemp(s.config.ImageDir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.config.ImageDir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename image: %w", err)
	}

	if err := s.store.RecordImage(serverdb.Image{
		Name:        name,
		CourtID:     courtID,
		ContentType: http.DetectContentType(data),
		Size:        int64(len(data)),
	}); err != nil {
		return err
	}
	s.metrics.recordImage()
	return nil
}

func (s *Server) imageURL(name string) string {
	return strings.TrimRight(s.config.BaseURL, "/") + "/images/" + name
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "image not found")
		return
	}
	path := filepath.Join(s.config.ImageDir, name)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logFor(r.Context()).Error("stat image", "name", name, "err", err)
		}
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "image not found")
		return
	}
	http.ServeFile(w, r, path)
}
