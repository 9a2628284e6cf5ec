// Package ingest normalizes loosely-shaped score feed batches into the
// strict domain model.
//
// The feed is duck-typed: the key field arrives as "id" or "game_id", teams
// arrive as plain strings or nested objects, and scores arrive as numbers,
// numeric strings, or not at all. All of that ambiguity is resolved here so
// the core algorithms only ever see well-formed records. A batch that is not
// a JSON array decodes to an empty batch, never an error.
package ingest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"pickwire/internal/domain/model"
)

// rawRecord tolerates every shape the score feed is known to deliver.
type rawRecord struct {
	ID            string          `json:"id"`
	GameID        string          `json:"game_id"`
	SportKey      string          `json:"sport_key"`
	CommenceTime  string          `json:"commence_time"`
	HomeTeam      json.RawMessage `json:"home_team"`
	AwayTeam      json.RawMessage `json:"away_team"`
	Scores        []rawSideScore  `json:"scores"`
	Status        string          `json:"status"`
	Quarter       string          `json:"quarter"`
	TimeRemaining string          `json:"time_remaining"`
	LastUpdate    string          `json:"last_update"`
	LastUpdateAt  string          `json:"last_update_at"`
	Completed     bool            `json:"completed"`
}

// rawTeam is the nested team object variant.
type rawTeam struct {
	Name  string          `json:"name"`
	Short string          `json:"short"`
	Score json.RawMessage `json:"score"`
}

// rawSideScore is the sidecar scores-array variant, keyed by team name.
type rawSideScore struct {
	Name  string          `json:"name"`
	Score json.RawMessage `json:"score"`
}

// DecodeBatch parses a feed payload into normalized records. Records that
// fail basic validation (missing id or either team) are skipped, mirroring
// the nightly fetch script; the skipped count is returned for logging.
func DecodeBatch(data []byte) (records []model.ScoreRecord, skipped int) {
	var items []json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(data), &items); err != nil {
		return nil, 0
	}

	records = make([]model.ScoreRecord, 0, len(items))
	for _, item := range items {
		rec, ok := normalizeRecord(item)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

// normalizeRecord converts one raw feed item into the strict model shape.
func normalizeRecord(item json.RawMessage) (model.ScoreRecord, bool) {
	var raw rawRecord
	if err := json.Unmarshal(item, &raw); err != nil {
		return model.ScoreRecord{}, false
	}

	id := raw.ID
	if id == "" {
		id = raw.GameID
	}
	home := normalizeTeam(raw.HomeTeam)
	away := normalizeTeam(raw.AwayTeam)
	if id == "" || home.Name == "" || away.Name == "" {
		return model.ScoreRecord{}, false
	}

	// The odds feed reports scores in a sidecar array keyed by team name.
	for _, s := range raw.Scores {
		if pts := coerceScore(s.Score); pts != nil {
			switch {
			case strings.EqualFold(s.Name, home.Name):
				home.Score = pts
			case strings.EqualFold(s.Name, away.Name):
				away.Score = pts
			}
		}
	}

	rec := model.ScoreRecord{
		ID:            id,
		Sport:         raw.SportKey,
		KickoffAt:     parseTime(raw.CommenceTime),
		HomeTeam:      home,
		AwayTeam:      away,
		Quarter:       raw.Quarter,
		TimeRemaining: raw.TimeRemaining,
		LastUpdateAt:  parseTime(firstNonEmpty(raw.LastUpdate, raw.LastUpdateAt)),
		Completed:     raw.Completed,
	}
	rec.Status = deriveStatus(raw.Status, rec)
	return rec, true
}

// normalizeTeam accepts either a plain string or a nested object.
func normalizeTeam(raw json.RawMessage) model.Team {
	if len(raw) == 0 {
		return model.Team{}
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return model.Team{Name: strings.TrimSpace(name)}
	}
	var obj rawTeam
	if err := json.Unmarshal(raw, &obj); err != nil {
		return model.Team{}
	}
	return model.Team{
		Name:      strings.TrimSpace(obj.Name),
		ShortCode: strings.TrimSpace(obj.Short),
		Score:     coerceScore(obj.Score),
	}
}

// coerceScore accepts a number, a numeric string, or nothing. Anything else
// is treated as absent rather than propagated.
func coerceScore(raw json.RawMessage) *int {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		n := int(f)
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return &n
		}
	}
	return nil
}

// deriveStatus keeps an explicit valid status, otherwise infers one from the
// completed flag and score presence.
func deriveStatus(explicit string, rec model.ScoreRecord) model.GameStatus {
	switch model.GameStatus(explicit) {
	case model.StatusScheduled, model.StatusInProgress, model.StatusFinal:
		return model.GameStatus(explicit)
	}
	if rec.Completed {
		return model.StatusFinal
	}
	if rec.HomeTeam.Score != nil || rec.AwayTeam.Score != nil {
		return model.StatusInProgress
	}
	return model.StatusScheduled
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
