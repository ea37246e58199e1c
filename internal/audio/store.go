// Package audio stores synthesized audio files and hands out URL references
// for clients to fetch.
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Ref points at one stored audio file.
type Ref struct {
	// URL is the public URL clients use to fetch the audio.
	URL string

	// Path is the location on disk.
	Path string

	// Format is the audio container format, e.g. "mp3".
	Format string

	// Bytes is the file size.
	Bytes int
}

// Store persists synthesized audio.
type Store interface {
	Save(audio []byte, format string) (*Ref, error)
}

// DirStore is a [Store] writing files into a single directory with random
// names. The directory is expected to be served statically (or fronted by a
// CDN) under BaseURL.
type DirStore struct {
	dir     string
	baseURL string
}

// Compile-time interface check.
var _ Store = (*DirStore)(nil)

// NewDirStore creates the directory if needed and returns a DirStore.
func NewDirStore(dir, baseURL string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audio: create dir %s: %w", dir, err)
	}
	return &DirStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save implements [Store]. Filenames are random so refs are not guessable.
func (s *DirStore) Save(audio []byte, format string) (*Ref, error) {
	if format == "" {
		format = "mp3"
	}
	name := uuid.NewString() + "." + format
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return nil, fmt.Errorf("audio: write %s: %w", path, err)
	}
	return &Ref{
		URL:    s.baseURL + "/" + name,
		Path:   path,
		Format: format,
		Bytes:  len(audio),
	}, nil
}
