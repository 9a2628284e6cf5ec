// Package model contains domain models passed between layers.
package model

import "time"

// GameStatus describes where a game is in its lifecycle.
type GameStatus string

// Valid game statuses.
const (
	StatusScheduled  GameStatus = "scheduled"
	StatusInProgress GameStatus = "in_progress"
	StatusFinal      GameStatus = "final"
)

// Team is one side of a game. Score stays nil until the feed reports one.
type Team struct {
	Name      string `json:"name"`
	ShortCode string `json:"short_code,omitempty"`
	Score     *int   `json:"score"`
}

// PointsOrZero returns the team score coerced to an int, treating a missing
// score as 0 so grading arithmetic stays total.
func (t Team) PointsOrZero() int {
	if t.Score == nil {
		return 0
	}
	return *t.Score
}

// ScoreRecord is one sporting event's live/final state. ID is the stable
// external identifier and the primary key of the canonical store.
type ScoreRecord struct {
	ID            string     `json:"id"`
	Sport         string     `json:"sport,omitempty"`
	KickoffAt     time.Time  `json:"kickoff_at,omitzero"`
	HomeTeam      Team       `json:"home_team"`
	AwayTeam      Team       `json:"away_team"`
	Status        GameStatus `json:"status"`
	Quarter       string     `json:"quarter,omitempty"`
	TimeRemaining string     `json:"time_remaining,omitempty"`
	LastUpdateAt  time.Time  `json:"last_update_at,omitzero"`
	Completed     bool       `json:"completed"`
}

// Final reports whether the record can be graded against. Completed may lead
// Status transiently during ingestion, so either signal counts.
func (r ScoreRecord) Final() bool {
	return r.Completed || r.Status == StatusFinal
}

// ResolvedTime returns the timestamp used for chronological ordering:
// kickoff time, falling back to the last update, falling back to the zero
// time.
func (r ScoreRecord) ResolvedTime() time.Time {
	if !r.KickoffAt.IsZero() {
		return r.KickoffAt
	}
	return r.LastUpdateAt
}
