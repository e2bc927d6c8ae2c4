// Package export writes court snapshots to disk for offline use.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/marcus/courts/internal/models"
)

const (
	exportSubdir = "JSON"
	exportFile   = "basketcourts.json"
)

// Path returns where WriteCourtSet writes for dir
func Path(dir string) string {
	return filepath.Join(dir, exportSubdir, exportFile)
}

// WriteCourtSet writes courts as an indented JSON array to
// <dir>/JSON/basketcourts.json using an atomic temp-file rename. Courts are
// ordered by id so repeated exports of the same set are identical.
func WriteCourtSet(dir string, courts []models.Court) (string, error) {
	out := make([]models.Court, len(courts))
	copy(out, courts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IDValue() < out[j].IDValue()
	})

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode courts: %w", err)
	}

	path := Path(dir)
	target := filepath.Dir(path)
	if err := os.MkdirAll(target, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(target, "basketcourts-*.json.tmp")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	return path, nil
}

// ReadCourtSet loads a previous export. A missing file yields no courts.
func ReadCourtSet(dir string) ([]models.Court, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var courts []models.Court
	if err := json.Unmarshal(data, &courts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", Path(dir), err)
	}
	return courts, nil
}
