// Package repository persists the canonical score store and its derived
// documents.
package repository

import (
	"context"

	"pickwire/internal/domain/model"
	"pickwire/internal/manifest"
)

// Store provides read/write access to the canonical JSON documents. A
// missing document reads as empty, never as an error: the display layer must
// always have something to render.
type Store interface {
	// Scores returns the canonical score store.
	Scores(ctx context.Context) ([]model.ScoreRecord, error)

	// ReplaceScores atomically replaces the canonical score store.
	ReplaceScores(ctx context.Context, records []model.ScoreRecord) error

	// Manifest returns the current manifest document.
	Manifest(ctx context.Context) ([]manifest.Entry, error)

	// ReplaceManifest atomically replaces the manifest document.
	ReplaceManifest(ctx context.Context, entries []manifest.Entry) error

	// Grades returns the persisted grade annotations keyed by game id.
	Grades(ctx context.Context) (map[string][]model.GradedPick, error)

	// ReplaceGrades atomically replaces the grade annotations.
	ReplaceGrades(ctx context.Context, grades map[string][]model.GradedPick) error
}
