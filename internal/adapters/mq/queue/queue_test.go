package queue

import (
	"context"
	"testing"
	"time"

	"pickwire/internal/domain/model"
)

func job(id string) Job {
	return Job{
		GameID: id,
		Record: model.ScoreRecord{ID: id, Completed: true},
		Picks:  []model.Pick{{Text: "Over 54.5", Confidence: 0.7}},
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, job("g1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	jobs := q.Dequeue(ctx)
	got := <-jobs
	if got.GameID != "g1" {
		t.Errorf("expected g1, got %v", got.GameID)
	}
	if len(got.Picks) != 1 {
		t.Errorf("picks lost in transit: %+v", got)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("g1")) || !q.Enqueue(ctx, job("g2")) {
		t.Fatal("expected first two enqueues to succeed")
	}
	if q.Enqueue(ctx, job("g3")) {
		t.Error("expected enqueue past capacity to fail")
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, job("g1")) {
		t.Fatal("enqueue failed")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if q.Enqueue(ctx, job("g2")) {
		t.Error("expected enqueue after close to fail")
	}

	// Close is idempotent.
	if err := q.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	// Queued jobs drain, then the channel closes.
	jobs := q.Dequeue(ctx)
	select {
	case got, ok := <-jobs:
		if !ok || got.GameID != "g1" {
			t.Errorf("expected queued job g1, got %v (ok=%v)", got.GameID, ok)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for queued job")
	}
	select {
	case _, ok := <-jobs:
		if ok {
			t.Error("expected channel to close after drain")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestInMemoryQueue_DequeueRespectsContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())

	if !q.Enqueue(context.Background(), job("g1")) {
		t.Fatal("enqueue failed")
	}

	// Nobody reads the channel, so the pump is parked on delivery when the
	// context is canceled.
	jobs := q.Dequeue(ctx)
	cancel()
	time.Sleep(50 * time.Millisecond)

	select {
	case _, ok := <-jobs:
		if ok {
			t.Error("expected channel to close without delivering")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cancel to propagate")
	}
}
