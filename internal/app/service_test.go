package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pickwire/internal/adapters/repository"
	"pickwire/internal/domain/model"
	"pickwire/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const feedPayload = `[
	{
		"id": "g1",
		"sport_key": "americanfootball_ncaaf",
		"commence_time": "2025-11-01T19:30:00Z",
		"home_team": {"name": "Georgia Bulldogs", "short": "UGA", "score": 30},
		"away_team": {"name": "Tennessee Volunteers", "short": "TENN", "score": 27},
		"completed": true,
		"last_update": "2025-11-01T23:05:00Z"
	},
	{
		"id": "g2",
		"sport_key": "americanfootball_ncaaf",
		"commence_time": "2025-11-08T19:30:00Z",
		"home_team": "Ohio State Buckeyes",
		"away_team": "Michigan Wolverines"
	}
]`

const contentPayload = `{
	"game_id": "g1",
	"summary": "Rivalry week in Athens.",
	"picks": [
		{"text": "Over 54.5", "confidence": 0.7},
		{"text": "UGA -2.5", "confidence": 0.6}
	]
}`

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()

	feed := filepath.Join(dir, "new-scores.json")
	if err := os.WriteFile(feed, []byte(feedPayload), 0o644); err != nil {
		t.Fatalf("write feed: %v", err)
	}
	content := filepath.Join(dir, "game-tennessee-volunteers-vs-georgia-bulldogs-2025-11-01.json")
	if err := os.WriteFile(content, []byte(contentPayload), 0o644); err != nil {
		t.Fatalf("write content: %v", err)
	}

	store, err := repository.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	svc := New(
		WithStore(store),
		WithContentDir(dir),
		WithFeedFile(feed),
		WithWorkerCount(1),
		WithQueueSize(8),
	)
	return svc, dir
}

// waitForGrades polls until grades for gameID appear or the deadline hits.
func waitForGrades(t *testing.T, svc *Service, gameID string, want int) []model.GradedPick {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		grades, err := svc.Grades(context.Background(), gameID)
		if err == nil && len(grades) == want {
			return grades
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d grades on %s", want, gameID)
	return nil
}

func TestServiceRefreshPipeline(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	games, err := svc.Games(ctx)
	if err != nil {
		t.Fatalf("Games: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	// Sorted by kickoff: g1 (Nov 1) before g2 (Nov 8).
	if games[0].ID != "g1" || games[1].ID != "g2" {
		t.Errorf("unexpected order: %s, %s", games[0].ID, games[1].ID)
	}
	if !games[0].Final() {
		t.Error("g1 should be final")
	}

	entries, err := svc.Manifest(ctx)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 manifest entries, got %d", len(entries))
	}
	if !entries[0].HasDetailedData {
		t.Error("g1 should have detailed data")
	}
	if entries[1].HasDetailedData {
		t.Error("g2 should be score-only")
	}

	grades := waitForGrades(t, svc, "g1", 2)
	byText := make(map[string]model.GradeResult, len(grades))
	for _, g := range grades {
		byText[g.Text] = g.Result
	}
	// 30+27=57 beats the total; Georgia covers -2.5.
	if byText["Over 54.5"] != model.GradeWon {
		t.Errorf("Over 54.5: expected won, got %s", byText["Over 54.5"])
	}
	if byText["UGA -2.5"] != model.GradeWon {
		t.Errorf("UGA -2.5: expected won, got %s", byText["UGA -2.5"])
	}
}

func TestServiceGameDetail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	detail, err := svc.Game(ctx, "g1")
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if detail.Content == nil || detail.Content.Summary != "Rivalry week in Athens." {
		t.Errorf("expected authored content, got %+v", detail.Content)
	}

	if _, err := svc.Game(ctx, "nope"); err == nil {
		t.Error("expected an error for an unknown game")
	}
}

func TestServiceGradesPersist(t *testing.T) {
	ctx := context.Background()
	svc, dir := newTestService(t)

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	waitForGrades(t, svc, "g1", 2)
	svc.Stop()

	// A fresh service over the same data dir sees the recorded grades.
	store, err := repository.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	persisted, err := store.Grades(ctx)
	if err != nil {
		t.Fatalf("Grades: %v", err)
	}
	if len(persisted["g1"]) != 2 {
		t.Errorf("expected 2 persisted grades, got %d", len(persisted["g1"]))
	}
}

func TestServiceRefreshIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	first, _ := svc.Games(ctx)
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	second, _ := svc.Games(ctx)

	if len(first) != len(second) {
		t.Fatalf("refresh changed game count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Completed != second[i].Completed {
			t.Errorf("record %d drifted between refreshes", i)
		}
	}
}

func TestServiceMissingFeedFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := repository.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	svc := New(
		WithStore(store),
		WithContentDir(dir),
		WithFeedFile(filepath.Join(dir, "new-scores.json")),
		WithWorkerCount(1),
	)

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh with no feed file: %v", err)
	}
	games, err := svc.Games(ctx)
	if err != nil {
		t.Fatalf("Games: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("expected no games, got %d", len(games))
	}
}
