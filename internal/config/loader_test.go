package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9080" {
		t.Errorf("expected default addr :9080, got %q", cfg.Addr)
	}
	if cfg.DataDir != "data" {
		t.Errorf("expected default data dir, got %q", cfg.DataDir)
	}
	if cfg.ContentDir != cfg.DataDir {
		t.Errorf("content dir should default to data dir, got %q", cfg.ContentDir)
	}
	if cfg.QueueSize != 1024 {
		t.Errorf("expected default queue size 1024, got %d", cfg.QueueSize)
	}
	if cfg.WorkerCount < 1 {
		t.Errorf("expected a positive default worker count, got %d", cfg.WorkerCount)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PICKWIRE_ADDR", ":7070")
	t.Setenv("PICKWIRE_DATA_DIR", "/var/lib/pickwire")
	t.Setenv("PICKWIRE_QUEUE_SIZE", "64")
	t.Setenv("PICKWIRE_GRADE_LEGACY_PRECEDENCE", "true")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("env addr not applied: %q", cfg.Addr)
	}
	if cfg.DataDir != "/var/lib/pickwire" {
		t.Errorf("env data dir not applied: %q", cfg.DataDir)
	}
	if cfg.ContentDir != "/var/lib/pickwire" {
		t.Errorf("content dir should follow data dir: %q", cfg.ContentDir)
	}
	if cfg.QueueSize != 64 {
		t.Errorf("env queue size not applied: %d", cfg.QueueSize)
	}
	if !cfg.GradeLegacyPrecedence {
		t.Error("env legacy precedence not applied")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pickwire.yaml")
	body := "addr: \":6060\"\nfeed_file: \"/srv/feed/new-scores.json\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PICKWIRE_CONFIG", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":6060" {
		t.Errorf("file addr not applied: %q", cfg.Addr)
	}
	if cfg.FeedFile != "/srv/feed/new-scores.json" {
		t.Errorf("file feed_file not applied: %q", cfg.FeedFile)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pickwire.yaml")
	if err := os.WriteFile(path, []byte("addr: \":6060\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PICKWIRE_CONFIG", path)
	t.Setenv("PICKWIRE_ADDR", ":5050")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":5050" {
		t.Errorf("env should beat file: %q", cfg.Addr)
	}
}

func TestLoadRejectsEmptyAddr(t *testing.T) {
	t.Setenv("PICKWIRE_ADDR", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "pickwire.yaml")
	if err := os.WriteFile(path, []byte("addr: \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PICKWIRE_CONFIG", path)

	_, err := Load(context.Background())
	if err == nil {
		t.Fatal("expected an error for empty addr")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("PICKWIRE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load(context.Background())
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
	if !errors.Is(err, ErrLoadConfig) {
		t.Errorf("expected ErrLoadConfig, got %v", err)
	}
}
