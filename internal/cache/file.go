package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"newsrec/internal/embeddings"
)

// FileStore persists the cache as a single JSON file holding the whole
// mapping. Every Put rewrites the file in full. The default rewrite is not
// crash-atomic: a crash mid-write can corrupt the file, which a later Load
// then treats as empty. Set Atomic to write through a temp file and rename
// instead.
type FileStore struct {
	path    string
	atomic  bool
	entries map[Key]embeddings.Vector
}

// FileOptions configures a FileStore.
type FileOptions struct {
	// Atomic switches Put to temp-file-plus-rename. Off by default to keep
	// the historical synchronous rewrite behavior.
	Atomic bool
}

// NewFileStore creates a store backed by the JSON file at path. The file is
// not read until Load.
func NewFileStore(path string, opts FileOptions) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store path required")
	}
	return &FileStore{path: path, atomic: opts.Atomic}, nil
}

// fileEntry is the on-disk record. A struct-keyed map has no JSON form, so
// the file holds a flat list.
type fileEntry struct {
	Text   string            `json:"text"`
	Model  string            `json:"model"`
	Vector embeddings.Vector `json:"vector"`
}

// Load reads the whole file. An absent file starts empty; an unparsable file
// also starts empty, on the grounds that a half-written cache is recomputable
// state, not data worth failing over.
func (s *FileStore) Load(ctx context.Context) (map[Key]embeddings.Vector, error) {
	s.entries = make(map[Key]embeddings.Vector)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var records []fileEntry
	if err := json.Unmarshal(data, &records); err != nil {
		// Corrupt file, start over.
		return s.entries, nil
	}
	for _, rec := range records {
		s.entries[Key{Text: rec.Text, Model: rec.Model}] = rec.Vector
	}
	return s.entries, nil
}

// Put records the entry and rewrites the whole file.
func (s *FileStore) Put(ctx context.Context, key Key, vec embeddings.Vector) error {
	if s.entries == nil {
		s.entries = make(map[Key]embeddings.Vector)
	}
	s.entries[key] = vec

	records := make([]fileEntry, 0, len(s.entries))
	for k, v := range s.entries {
		records = append(records, fileEntry{Text: k.Text, Model: k.Model, Vector: v})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if !s.atomic {
		if err := os.WriteFile(s.path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", s.path, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename to %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op; the file is rewritten on every Put.
func (s *FileStore) Close() error {
	return nil
}
