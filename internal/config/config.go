// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the canonical JSON documents (scores, manifest, grades).
	DataDir string `koanf:"data_dir"`

	// ContentDir holds authored game-*.json content files. Defaults to
	// DataDir when empty.
	ContentDir string `koanf:"content_dir"`

	// FeedFile is the drop file the nightly fetch collaborator replaces.
	FeedFile string `koanf:"feed_file"`

	// QueueSize bounds the in-memory grade-job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of grading workers.
	WorkerCount int `koanf:"worker_count"`

	// GradeLegacyPrecedence resolves picks matching both teams to the away
	// side (old site behavior) instead of grading unknown.
	GradeLegacyPrecedence bool `koanf:"grade_legacy_precedence"`

	// ArchiveURL is the optional Postgres DSN for the permanent score
	// archive. Empty disables archiving.
	ArchiveURL string `koanf:"archive_url"`

	// TelegramToken and TelegramChatID enable the grade notifier when both
	// are set.
	TelegramToken  string `koanf:"telegram_token"`
	TelegramChatID int64  `koanf:"telegram_chat_id"`

	// CORSOrigins lists allowed origins for the browser frontend.
	CORSOrigins []string `koanf:"cors_origins"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		Addr:        ":9080",
		DataDir:     "data",
		FeedFile:    "data/new-scores.json",
		QueueSize:   1024,
		WorkerCount: runtime.NumCPU(),
		CORSOrigins: []string{"*"},
	}
}
