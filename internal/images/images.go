// Package images resolves local image references into upload payloads and
// manages the on-disk staging area for captured pictures.
package images

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrImageRead is wrapped by every failure to produce image bytes.
var ErrImageRead = errors.New("image could not be read")

// MaxImageSize caps how much of a file is uploaded.
const MaxImageSize = 10 << 20

// Resolver turns an image reference into content and a file name.
type Resolver interface {
	Resolve(ref string) (data []byte, name string, err error)
}

// FileResolver reads references as local file paths. Relative paths are
// resolved against BaseDir when it is set.
type FileResolver struct {
	BaseDir string
	MaxSize int64
}

// Resolve implements Resolver
func (r FileResolver) Resolve(ref string) ([]byte, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, "", fmt.Errorf("%w: empty reference", ErrImageRead)
	}
	path := strings.TrimPrefix(ref, "file://")
	if !filepath.IsAbs(path) && r.BaseDir != "" {
		path = filepath.Join(r.BaseDir, path)
	}

	limit := r.MaxSize
	if limit <= 0 {
		limit = MaxImageSize
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageRead, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageRead, err)
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("%w: %s is a directory", ErrImageRead, path)
	}
	if info.Size() > limit {
		return nil, "", fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrImageRead, path, info.Size(), limit)
	}

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageRead, err)
	}
	if int64(len(data)) > limit {
		return nil, "", fmt.Errorf("%w: %s exceeds %d bytes", ErrImageRead, path, limit)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: %s is empty", ErrImageRead, path)
	}
	return data, filepath.Base(path), nil
}

// MapResolver serves fixed content by reference. Used for tests and demos.
type MapResolver map[string][]byte

// Resolve implements Resolver
func (m MapResolver) Resolve(ref string) ([]byte, string, error) {
	data, ok := m[ref]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrImageRead, ref)
	}
	return data, filepath.Base(ref), nil
}

const (
	stagingSubdir  = "images"
	capturedName   = "basketCourt.jpg"
	tempNamePrefix = "picture_"
	tempNameSuffix = ".jpg"
)

// Staging owns the picture files under Dir.
type Staging struct {
	Dir string
}

// CapturePath returns images/basketCourt.jpg under Dir, removing a previous
// capture so the new picture never mixes with the old one.
func (s Staging) CapturePath() (string, error) {
	dir := filepath.Join(s.Dir, stagingSubdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}
	path := filepath.Join(dir, capturedName)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("remove previous capture: %w", err)
	}
	return path, nil
}

// TempPath creates an empty picture_<unixmillis>*.jpg file under Dir and
// returns its path.
func (s Staging) TempPath(now time.Time) (string, error) {
	dir := filepath.Join(s.Dir, stagingSubdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}
	pattern := fmt.Sprintf("%s%d*%s", tempNamePrefix, now.UnixMilli(), tempNameSuffix)
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp picture: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// Stage copies src into a fresh temp picture and returns the new path.
func (s Staging) Stage(src string, now time.Time) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageRead, err)
	}
	defer in.Close()

	dst, err := s.TempPath(now)
	if err != nil {
		return "", err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, io.LimitReader(in, MaxImageSize+1)); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copy picture: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// Cleanup removes staged temp pictures older than maxAge.
func (s Staging) Cleanup(now time.Time, maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, stagingSubdir, tempNamePrefix+"*"+tempNameSuffix))
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(m); err == nil {
			removed++
		}
	}
	return removed, nil
}
