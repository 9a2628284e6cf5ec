package worker

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"pickwire/internal/adapters/mq/queue"
	"pickwire/internal/domain/model"
	"pickwire/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// stubGrader grades every pick with a fixed result.
type stubGrader struct {
	result model.GradeResult
}

func (g *stubGrader) Grade(_ context.Context, _ string, _ model.ScoreRecord) model.GradeResult {
	return g.result
}

// stubRecorder captures recorded grades and signals on each call.
type stubRecorder struct {
	mu     sync.Mutex
	grades map[string][]model.GradedPick
	err    error
	calls  chan string
}

func newStubRecorder() *stubRecorder {
	return &stubRecorder{
		grades: make(map[string][]model.GradedPick),
		calls:  make(chan string, 16),
	}
}

func (r *stubRecorder) RecordGrades(_ context.Context, gameID string, grades []model.GradedPick) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.grades[gameID] = grades
	r.calls <- gameID
	return nil
}

func (r *stubRecorder) get(gameID string) []model.GradedPick {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grades[gameID]
}

func testJob(id string, picks ...string) queue.Job {
	j := queue.Job{
		GameID: id,
		Record: model.ScoreRecord{ID: id, Completed: true},
	}
	for _, text := range picks {
		j.Picks = append(j.Picks, model.Pick{Text: text})
	}
	return j
}

func TestGradeWorker_ProcessesJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(8))
	recorder := newStubRecorder()
	w := NewGradeWorker(q, &stubGrader{result: model.GradeWon}, recorder)

	go w.Run(ctx)

	if !q.Enqueue(ctx, testJob("g1", "Over 54.5", "UGA -3")) {
		t.Fatal("enqueue failed")
	}

	select {
	case id := <-recorder.calls:
		if id != "g1" {
			t.Errorf("expected g1, got %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for grades")
	}

	grades := recorder.get("g1")
	if len(grades) != 2 {
		t.Fatalf("expected 2 graded picks, got %d", len(grades))
	}
	for _, g := range grades {
		if g.Result != model.GradeWon {
			t.Errorf("expected won, got %s", g.Result)
		}
	}
}

func TestGradeWorker_RecorderErrorDoesNotStopTheLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(8))
	recorder := newStubRecorder()
	recorder.err = errors.New("disk full")
	w := NewGradeWorker(q, &stubGrader{result: model.GradeLost}, recorder)

	go w.Run(ctx)

	if !q.Enqueue(ctx, testJob("g1", "Over 54.5")) {
		t.Fatal("enqueue failed")
	}

	// Clear the failure and verify the next job still lands.
	time.Sleep(100 * time.Millisecond)
	recorder.mu.Lock()
	recorder.err = nil
	recorder.mu.Unlock()

	if !q.Enqueue(ctx, testJob("g2", "Under 44")) {
		t.Fatal("enqueue failed")
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case id := <-recorder.calls:
			if id == "g2" {
				return
			}
		case <-deadline:
			t.Fatal("worker stopped processing after a recorder error")
		}
	}
}

func TestPool_ProcessesAcrossWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(32))
	recorder := newStubRecorder()
	pool := NewPool(4, q, &stubGrader{result: model.GradePush}, recorder)
	pool.Start(ctx)

	ids := []string{"g1", "g2", "g3", "g4", "g5"}
	for _, id := range ids {
		if !q.Enqueue(ctx, testJob(id, "Home -3")) {
			t.Fatalf("enqueue %s failed", id)
		}
	}

	seen := make(map[string]bool)
	for range ids {
		select {
		case id := <-recorder.calls:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out; processed %d of %d jobs", len(seen), len(ids))
		}
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("job %s never recorded", id)
		}
	}
}

func TestGradeWorker_Shutdown(t *testing.T) {
	ctx := context.Background()

	q := queue.NewInMemoryQueue(queue.WithCapacity(8))
	recorder := newStubRecorder()
	w := NewGradeWorker(q, &stubGrader{result: model.GradeWon}, recorder)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.Run(runCtx)

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, time.Second)
	defer shutdownCancel()
	if err := w.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
