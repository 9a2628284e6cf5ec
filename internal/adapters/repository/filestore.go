package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pickwire/internal/domain/model"
	"pickwire/internal/manifest"
)

// Document file names under the data directory. These match the original
// site layout so the rendering layer keeps fetching the same paths.
const (
	scoresFile   = "scores.json"
	manifestFile = "manifest.json"
	gradesFile   = "grades.json"
)

// FileStore implements Store over JSON files in a data directory. Writes go
// through a temp file and an atomic rename so a crashed write never leaves a
// half-written document behind.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Scores returns the canonical score store, empty when the file is absent.
func (s *FileStore) Scores(_ context.Context) ([]model.ScoreRecord, error) {
	var records []model.ScoreRecord
	if err := s.readDoc(scoresFile, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// ReplaceScores atomically replaces the canonical score store.
func (s *FileStore) ReplaceScores(_ context.Context, records []model.ScoreRecord) error {
	if records == nil {
		records = []model.ScoreRecord{}
	}
	return s.writeDoc(scoresFile, records)
}

// Manifest returns the manifest document, empty when absent.
func (s *FileStore) Manifest(_ context.Context) ([]manifest.Entry, error) {
	var entries []manifest.Entry
	if err := s.readDoc(manifestFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ReplaceManifest atomically replaces the manifest document.
func (s *FileStore) ReplaceManifest(_ context.Context, entries []manifest.Entry) error {
	if entries == nil {
		entries = []manifest.Entry{}
	}
	return s.writeDoc(manifestFile, entries)
}

// Grades returns persisted grade annotations, empty when absent.
func (s *FileStore) Grades(_ context.Context) (map[string][]model.GradedPick, error) {
	grades := make(map[string][]model.GradedPick)
	if err := s.readDoc(gradesFile, &grades); err != nil {
		return nil, err
	}
	return grades, nil
}

// ReplaceGrades atomically replaces the grade annotations.
func (s *FileStore) ReplaceGrades(_ context.Context, grades map[string][]model.GradedPick) error {
	if grades == nil {
		grades = map[string][]model.GradedPick{}
	}
	return s.writeDoc(gradesFile, grades)
}

// readDoc decodes one JSON document into v. A missing file leaves v at its
// zero value; a corrupt file is an error the caller can surface.
func (s *FileStore) readDoc(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// writeDoc writes v as indented JSON via temp file + rename.
func (s *FileStore) writeDoc(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEncode, name, err)
	}
	tmp := filepath.Join(s.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, name, err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %s: %w", ErrPersist, name, err)
	}
	return nil
}
