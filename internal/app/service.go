// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
//
// The service owns the refresh pipeline: feed file in, reconciled score
// store out, manifest rebuilt, grade jobs enqueued for games that went
// final. Reads are served from in-memory caches that mirror the persisted
// documents.
package service

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"pickwire/internal/adapters/http/api"
	"pickwire/internal/adapters/mq/queue"
	"pickwire/internal/adapters/mq/worker"
	"pickwire/internal/adapters/repository"
	"pickwire/internal/domain/grading"
	"pickwire/internal/domain/model"
	"pickwire/internal/domain/reconcile"
	"pickwire/internal/domain/types"
	"pickwire/internal/ingest"
	"pickwire/internal/manifest"
	"pickwire/pkg/logger"
	"pickwire/pkg/metrics"
)

// Broadcaster pushes live updates to connected clients.
type Broadcaster interface {
	Broadcast(msg api.WSMessage)
}

// Notifier receives final-score alerts. Implementations must tolerate
// being called concurrently.
type Notifier interface {
	NotifyFinal(ctx context.Context, rec model.ScoreRecord, grades []model.GradedPick) error
	Stop()
}

// Service implements the API dependencies for the picks site.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	archive *repository.Archive
	grader  *grading.TextGrader
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	watcher *ingest.Watcher

	broadcaster Broadcaster
	notifier    Notifier

	// Configuration
	workerCount      int
	queueSize        int
	contentDir       string
	feedFile         string
	legacyPrecedence bool

	// Cached read models, mirrors of the persisted documents.
	records  []model.ScoreRecord
	byID     map[string]model.ScoreRecord
	content  map[string]manifest.ContentRef
	entries  []manifest.Entry
	grades   map[string][]model.GradedPick
	skipped  int
	lastLoad time.Time

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the document store. Required.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithArchive sets the optional Postgres archive.
func WithArchive(a *repository.Archive) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithWorkerCount sets the number of grading workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the grade-job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithContentDir sets the directory holding authored game content files.
func WithContentDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.contentDir = dir
		}
	}
}

// WithFeedFile sets the score feed drop file to watch.
func WithFeedFile(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.feedFile = path
		}
	}
}

// WithLegacyPrecedence enables the old away-team-wins ambiguity rule in
// the grader.
func WithLegacyPrecedence() Option {
	return func(s *Service) {
		s.legacyPrecedence = true
	}
}

// WithBroadcaster sets the live-update broadcaster.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) {
		s.broadcaster = b
	}
}

// WithNotifier sets the final-score notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		contentDir:  "data",
		feedFile:    "data/new-scores.json",
		byID:        make(map[string]model.ScoreRecord),
		content:     make(map[string]manifest.ContentRef),
		grades:      make(map[string][]model.GradedPick),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the persisted documents, starts the grading workers, and
// begins watching the feed file.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		return fmt.Errorf("service requires a store")
	}

	s.logger.Info(ctx, "starting picks service...")

	records, err := s.store.Scores(ctx)
	if err != nil {
		return fmt.Errorf("load score store: %w", err)
	}
	grades, err := s.store.Grades(ctx)
	if err != nil {
		return fmt.Errorf("load grades: %w", err)
	}
	entries, err := s.store.Manifest(ctx)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	content, err := manifest.ScanContent(s.contentDir)
	if err != nil {
		return fmt.Errorf("scan content: %w", err)
	}
	s.records = records
	s.byID = reconcile.Index(records)
	s.grades = grades
	if s.grades == nil {
		s.grades = make(map[string][]model.GradedPick)
	}
	s.entries = entries
	s.content = content

	var graderOpts []grading.Option
	if s.legacyPrecedence {
		graderOpts = append(graderOpts, grading.WithLegacyPrecedence())
	}
	s.grader = grading.NewTextGrader(graderOpts...)

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.grader, s)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	w, err := ingest.NewWatcher(s.feedFile, func(ctx context.Context) {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Error(ctx, "refresh failed", logger.Error(err))
		}
	})
	if err != nil {
		s.logger.Warn(ctx, "feed watcher unavailable", logger.Error(err))
	} else {
		s.watcher = w
		go w.Run(runCtx)
	}

	// Catch up on games that went final while the service was down.
	for _, rec := range s.records {
		if rec.Final() && len(s.grades[rec.ID]) == 0 {
			s.enqueueGradingLocked(runCtx, rec)
		}
	}

	s.started = true
	s.updateGauges()
	s.logger.Info(ctx, "picks service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("games", len(s.records)),
	)
	return nil
}

// Stop gracefully shuts down the service. The service lock is released
// before waiting on the workers, which still need it to record in-flight
// grades.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping picks service...")

	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.notifier != nil {
		s.notifier.Stop()
	}
	if s.archive != nil {
		_ = s.archive.Close()
	}

	s.logger.Info(ctx, "picks service stopped")
}

// Refresh runs one pass of the reconcile pipeline: read the feed file,
// merge it into the canonical store, rebuild the manifest, and enqueue
// grading for games that went final.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	start := time.Now()

	data, err := os.ReadFile(s.feedFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read feed file: %w", err)
		}
		data = nil
	}

	incoming, skipped := ingest.DecodeBatch(data)
	metrics.RecordFeedReload()
	if skipped > 0 {
		metrics.AddFeedSkipped(skipped)
		s.logger.Warn(ctx, "skipped malformed feed records", logger.Int("skipped", skipped))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	baseline := s.records
	wasFinal := make(map[string]bool, len(baseline))
	for _, rec := range baseline {
		wasFinal[rec.ID] = rec.Final()
	}

	merged := reconcile.Merge(baseline, incoming)
	metrics.RecordMergeRun()
	metrics.AddMergedRecords(len(merged))

	if err := s.store.ReplaceScores(ctx, merged); err != nil {
		return fmt.Errorf("persist score store: %w", err)
	}
	if s.archive != nil {
		if err := s.archive.UpsertRecords(ctx, merged); err != nil {
			s.logger.Error(ctx, "archive upsert failed", logger.Error(err))
		}
	}

	content, err := manifest.ScanContent(s.contentDir)
	if err != nil {
		return fmt.Errorf("scan content: %w", err)
	}
	entries := manifest.Build(merged, content)
	if err := s.store.ReplaceManifest(ctx, entries); err != nil {
		return fmt.Errorf("persist manifest: %w", err)
	}

	s.records = merged
	s.byID = reconcile.Index(merged)
	s.content = content
	s.entries = entries
	s.skipped += skipped
	s.lastLoad = time.Now()
	s.updateGauges()

	var newlyFinal []model.ScoreRecord
	for _, rec := range merged {
		if rec.Final() && !wasFinal[rec.ID] {
			newlyFinal = append(newlyFinal, rec)
		}
	}
	for _, rec := range newlyFinal {
		s.enqueueGradingLocked(ctx, rec)
	}

	metrics.RecordMergeDuration(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "refresh complete",
		logger.Int("incoming", len(incoming)),
		logger.Int("merged", len(merged)),
		logger.Int("newlyFinal", len(newlyFinal)),
	)

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(api.WSMessage{Type: "scores", Data: merged})
	}
	return nil
}

// enqueueGradingLocked queues a grade job for rec when it has authored
// picks. Caller holds s.mu.
func (s *Service) enqueueGradingLocked(ctx context.Context, rec model.ScoreRecord) {
	ref, ok := s.content[rec.ID]
	if !ok || len(ref.Content.Picks) == 0 {
		return
	}
	job := queue.Job{GameID: rec.ID, Record: rec, Picks: ref.Content.Picks}
	if !s.queue.Enqueue(ctx, job) {
		s.logger.Warn(ctx, "grade queue full, dropping job", logger.String("gameID", rec.ID))
	}
}

// RecordGrades persists graded picks for one game. It is called by the
// grading workers and satisfies the worker.Recorder interface.
func (s *Service) RecordGrades(ctx context.Context, gameID string, grades []model.GradedPick) error {
	s.mu.Lock()
	s.grades[gameID] = grades
	snapshot := make(map[string][]model.GradedPick, len(s.grades))
	for k, v := range s.grades {
		snapshot[k] = v
	}
	rec, known := s.byID[gameID]
	s.mu.Unlock()

	if err := s.store.ReplaceGrades(ctx, snapshot); err != nil {
		return fmt.Errorf("persist grades: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(api.WSMessage{Type: "grades", GameID: gameID, Data: grades})
	}
	if s.notifier != nil && known {
		if err := s.notifier.NotifyFinal(ctx, rec, grades); err != nil {
			s.logger.Warn(ctx, "final notification failed",
				logger.String("gameID", gameID),
				logger.Error(err),
			)
		}
	}
	return nil
}

// Games returns every tracked score record in display order.
func (s *Service) Games(_ context.Context) ([]model.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ScoreRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Game returns the full read shape for one game.
func (s *Service) Game(_ context.Context, id string) (types.GameDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return types.GameDetail{}, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	detail := types.GameDetail{Record: rec}
	if ref, ok := s.content[id]; ok {
		c := ref.Content
		detail.Content = &c
	}
	detail.Grades = s.grades[id]
	return detail, nil
}

// Grades returns the graded picks for one game.
func (s *Service) Grades(_ context.Context, id string) ([]model.GradedPick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.byID[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return s.grades[id], nil
}

// Manifest returns the current manifest entries.
func (s *Service) Manifest(_ context.Context) ([]manifest.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]manifest.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"games":       len(s.records),
		"gamesFinal":  s.countFinalLocked(),
		"graded":      len(s.grades),
		"feedSkipped": s.skipped,
	}
	if !s.lastLoad.IsZero() {
		stats["lastRefresh"] = s.lastLoad.UTC().Format(time.RFC3339)
	}
	if s.started && s.queue != nil {
		stats["queueLength"] = s.queue.Len(context.Background())
	}
	return stats
}

// updateGauges refreshes the tracked-game gauges. Caller holds s.mu.
func (s *Service) updateGauges() {
	metrics.UpdateGamesTracked(len(s.records))
	metrics.UpdateGamesFinal(s.countFinalLocked())
}

func (s *Service) countFinalLocked() int {
	n := 0
	for _, rec := range s.records {
		if rec.Final() {
			n++
		}
	}
	return n
}
