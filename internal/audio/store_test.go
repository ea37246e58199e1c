package audio

import (
	"os"
	"strings"
	"testing"
)

func TestDirStore_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir, "https://cdn.example.com/audio/")
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}

	ref, err := store.Save([]byte("fake mp3 bytes"), "mp3")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if ref.Bytes != len("fake mp3 bytes") {
		t.Errorf("Bytes = %d, want %d", ref.Bytes, len("fake mp3 bytes"))
	}
	if ref.Format != "mp3" {
		t.Errorf("Format = %q, want mp3", ref.Format)
	}
	if !strings.HasPrefix(ref.URL, "https://cdn.example.com/audio/") {
		t.Errorf("URL = %q, want cdn prefix", ref.URL)
	}
	if !strings.HasSuffix(ref.URL, ".mp3") {
		t.Errorf("URL = %q, want .mp3 suffix", ref.URL)
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "fake mp3 bytes" {
		t.Errorf("stored bytes = %q", data)
	}
}

func TestDirStore_DefaultsFormat(t *testing.T) {
	store, err := NewDirStore(t.TempDir(), "http://localhost:8080/audio")
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}

	ref, err := store.Save([]byte{0x01}, "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ref.Format != "mp3" {
		t.Errorf("Format = %q, want mp3", ref.Format)
	}
}

func TestDirStore_UniqueNames(t *testing.T) {
	store, err := NewDirStore(t.TempDir(), "http://localhost/audio")
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}

	a, err := store.Save([]byte{1}, "mp3")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := store.Save([]byte{2}, "mp3")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a.Path == b.Path {
		t.Error("two saves produced the same path")
	}
}
