// Package upload keeps request uploads on disk for exactly as long as the
// request that received them.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	log "github.com/sirupsen/logrus"

	"github.com/basel-ax/genrelay/internal/domain"
)

const (
	filePrefix  = "upload-"
	genericType = "application/octet-stream"
)

// Store writes uploads into a single directory
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates the upload directory when needed
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %q: %w", dir, err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the upload directory
func (s *Store) Dir() string {
	return s.dir
}

// Upload is one request's temporary file. Release must be called on every exit path.
type Upload struct {
	Path     string
	Filename string
	MIMEType string
	Size     int64

	once sync.Once
}

// Save copies the multipart file into the store. The declared Content-Type is
// kept; a missing or generic one is replaced by the sniffed type.
func (s *Store) Save(fh *multipart.FileHeader) (*Upload, error) {
	if fh.Size > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(s.dir, filePrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	up := &Upload{Path: dst.Name(), Filename: fh.Filename}

	n, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	switch {
	case err != nil:
		up.Release()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	case n > s.maxBytes:
		up.Release()
		return nil, domain.ErrFileTooLarge
	}
	up.Size = n

	up.MIMEType = strings.TrimSpace(fh.Header.Get("Content-Type"))
	if up.MIMEType == "" || up.MIMEType == genericType {
		up.MIMEType = sniff(up.Path)
	}
	return up, nil
}

func sniff(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return genericType
	}
	// Drop parameters such as "; charset=utf-8".
	return strings.TrimSpace(strings.SplitN(mt.String(), ";", 2)[0])
}

// ReadAll returns the full upload content
func (u *Upload) ReadAll() ([]byte, error) {
	b, err := os.ReadFile(u.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return b, nil
}

// Release deletes the file. It is safe to call more than once and never fails:
// a file that is already gone is fine, other errors are logged.
func (u *Upload) Release() {
	u.once.Do(func() {
		if err := os.Remove(u.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithField("path", u.Path).Warnf("error deleting upload: %v", err)
		}
	})
}

// Sweep removes uploads last modified before now-maxAge and returns how many were removed.
func (s *Store) Sweep(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list upload dir: %w", err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.WithField("path", path).Warnf("error sweeping upload: %v", err)
			continue
		}
		removed++
	}
	return removed, nil
}
