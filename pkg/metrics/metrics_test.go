package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewManagerRegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(WithRegistry(reg))
	if m == nil {
		t.Fatal("expected a manager")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	// Labeled vectors only surface after first use, so spot-check the
	// plain counters.
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"pickwire_site_merge_runs_total",
		"pickwire_site_feed_reloads_total",
		"pickwire_site_queue_enqueues_total",
		"pickwire_site_worker_errors_total",
	} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestNewManagerWithCustomNaming(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewManager(
		WithRegistry(reg),
		WithNamespace("custom"),
		WithSubsystem("test"),
	)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "custom_test_merge_runs_total" {
			found = true
		}
	}
	if !found {
		t.Error("custom namespace/subsystem not applied")
	}
}

func TestGlobalHelpersDoNotPanic(t *testing.T) {
	RecordMergeRun()
	AddMergedRecords(3)
	RecordMergeDuration(1.5)
	RecordFeedReload()
	AddFeedSkipped(1)
	RecordGradeResult("won")
	RecordGradingLatency(0.2)
	UpdateGamesTracked(10)
	UpdateGamesFinal(4)
	UpdateQueueSize(2)
	UpdateQueueCapacity(1024)
	UpdateQueueUtilization(0.1)
	RecordQueueEnqueue()
	RecordQueueDequeue()
	RecordQueueEnqueueError()
	UpdateWorkerCount(4)
	RecordWorkerLatency(3)
	RecordWorkerError()
	UpdateWSClients(1)
	RecordWSBroadcast()
	RecordArchiveWrite()
	RecordArchiveError()
	UpdateSystemMemoryUsage(1 << 20)
	UpdateSystemGoroutineCount(42)
	RecordSystemGCPauseTime(0.05)
	RecordHTTPRequest("games", "GET", "200")
	RecordHTTPRequestDuration("games", "GET", 1.2)

	if GetRegistry() == nil {
		t.Fatal("global registry missing")
	}
}
