package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pickwire/internal/domain/model"
	"pickwire/internal/manifest"
)

func intPtr(n int) *int { return &n }

func TestFileStore_MissingDocumentsReadEmpty(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	records, err := store.Scores(ctx)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty scores, got %d", len(records))
	}

	entries, err := store.Manifest(ctx)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty manifest, got %d", len(entries))
	}

	grades, err := store.Grades(ctx)
	if err != nil {
		t.Fatalf("Grades: %v", err)
	}
	if len(grades) != 0 {
		t.Errorf("expected empty grades, got %d", len(grades))
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	records := []model.ScoreRecord{{
		ID:           "g1",
		Sport:        "americanfootball_ncaaf",
		KickoffAt:    time.Date(2025, 11, 1, 19, 30, 0, 0, time.UTC),
		HomeTeam:     model.Team{Name: "Georgia Bulldogs", ShortCode: "UGA", Score: intPtr(30)},
		AwayTeam:     model.Team{Name: "Tennessee Volunteers", ShortCode: "TENN", Score: intPtr(27)},
		Status:       model.StatusFinal,
		LastUpdateAt: time.Date(2025, 11, 1, 23, 5, 0, 0, time.UTC),
		Completed:    true,
	}}
	if err := store.ReplaceScores(ctx, records); err != nil {
		t.Fatalf("ReplaceScores: %v", err)
	}
	got, err := store.Scores(ctx)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if len(got) != 1 || got[0].ID != "g1" || *got[0].HomeTeam.Score != 30 {
		t.Errorf("scores round trip mismatch: %+v", got)
	}
	if !got[0].Completed || got[0].Status != model.StatusFinal {
		t.Errorf("status fields lost in round trip: %+v", got[0])
	}

	entries := []manifest.Entry{{ID: "g1", Slug: "tenn-vs-uga", HasDetailedData: true}}
	if err := store.ReplaceManifest(ctx, entries); err != nil {
		t.Fatalf("ReplaceManifest: %v", err)
	}
	gotEntries, err := store.Manifest(ctx)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if len(gotEntries) != 1 || !gotEntries[0].HasDetailedData {
		t.Errorf("manifest round trip mismatch: %+v", gotEntries)
	}

	grades := map[string][]model.GradedPick{
		"g1": {{Pick: model.Pick{Text: "Over 54.5", Confidence: 0.7}, Result: model.GradeWon}},
	}
	if err := store.ReplaceGrades(ctx, grades); err != nil {
		t.Fatalf("ReplaceGrades: %v", err)
	}
	gotGrades, err := store.Grades(ctx)
	if err != nil {
		t.Fatalf("Grades: %v", err)
	}
	if gotGrades["g1"][0].Result != model.GradeWon {
		t.Errorf("grades round trip mismatch: %+v", gotGrades)
	}
}

func TestFileStore_NilWritesEmptyDocument(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.ReplaceScores(ctx, nil); err != nil {
		t.Fatalf("ReplaceScores: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "scores.json"))
	if err != nil {
		t.Fatalf("read scores.json: %v", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("scores.json is not a JSON array: %v", err)
	}
	if len(raw) != 0 {
		t.Errorf("expected empty array, got %d items", len(raw))
	}
}

func TestFileStore_WritesLeaveNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.ReplaceScores(ctx, []model.ScoreRecord{{ID: "g1"}}); err != nil {
		t.Fatalf("ReplaceScores: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestFileStore_CorruptDocumentIsAnError(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "scores.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Scores(ctx); err == nil {
		t.Error("expected an error for a corrupt document")
	}
}
