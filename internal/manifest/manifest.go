// Package manifest indexes reconciled score records against authored game
// content.
//
// The manifest is the schedule listing's source document: every reconciled
// record appears exactly once, annotated with whether detailed authored
// content exists for it (has_detailed_data) or the game is score-only. The
// annotation is a projection over the same id key space the reconciler
// merges on, not a second merge.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pickwire/internal/domain/model"
)

// Entry is one manifest row, consumed by the schedule listing.
type Entry struct {
	ID              string           `json:"id"`
	Slug            string           `json:"slug"`
	Matchup         string           `json:"matchup"`
	KickoffAt       time.Time        `json:"kickoff_at,omitzero"`
	Status          model.GameStatus `json:"status"`
	Completed       bool             `json:"completed"`
	HasDetailedData bool             `json:"has_detailed_data"`
	ContentPath     string           `json:"content_path,omitempty"`
}

// ContentRef points at one parsed content file on disk.
type ContentRef struct {
	Path    string
	Content model.GameContent
}

// Build joins records (already deduplicated and sorted by the reconciler)
// with scanned content, preserving record order.
func Build(records []model.ScoreRecord, content map[string]ContentRef) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		e := Entry{
			ID:        rec.ID,
			Slug:      GameSlug(rec),
			Matchup:   fmt.Sprintf("%s at %s", rec.AwayTeam.Name, rec.HomeTeam.Name),
			KickoffAt: rec.KickoffAt,
			Status:    rec.Status,
			Completed: rec.Completed,
		}
		if ref, ok := content[rec.ID]; ok && ref.Content.Detailed() {
			e.HasDetailedData = true
			e.ContentPath = filepath.Base(ref.Path)
		}
		entries = append(entries, e)
	}
	return entries
}

// GameSlug derives the content slug for a record:
// <away>-vs-<home>-<kickoff date>.
func GameSlug(rec model.ScoreRecord) string {
	slug := Slugify(rec.AwayTeam.Name) + "-vs-" + Slugify(rec.HomeTeam.Name)
	if !rec.KickoffAt.IsZero() {
		slug += "-" + rec.KickoffAt.Format("2006-01-02")
	}
	return slug
}

// ScanContent reads every game-*.json content file under dir, keyed by game
// id. Empty or unparseable files are the scaffolded-but-unauthored case and
// are skipped; a missing directory yields an empty map. Content problems
// never fail the build.
func ScanContent(dir string) (map[string]ContentRef, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "game-*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan content dir: %w", err)
	}

	content := make(map[string]ContentRef, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil || len(data) == 0 {
			continue
		}
		var c model.GameContent
		if err := json.Unmarshal(data, &c); err != nil || c.GameID == "" {
			continue
		}
		content[c.GameID] = ContentRef{Path: path, Content: c}
	}
	return content, nil
}
