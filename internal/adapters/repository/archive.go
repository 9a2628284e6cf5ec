package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"pickwire/internal/domain/model"
	"pickwire/pkg/metrics"
)

// Connection pool settings for the archive database.
const (
	archiveMaxOpenConns = 25
	archiveMaxIdleConns = 5
)

// Archive mirrors reconciled records into Postgres for permanent retention.
// Records are upserted, never deleted; the file store stays the source of
// truth for the site and the archive exists for history queries. A nil
// *Archive is a no-op so callers can leave it unconfigured.
type Archive struct {
	db *sql.DB
}

// OpenArchive connects to the archive database and verifies the connection.
func OpenArchive(databaseURL string) (*Archive, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping archive database: %w", err)
	}
	db.SetMaxOpenConns(archiveMaxOpenConns)
	db.SetMaxIdleConns(archiveMaxIdleConns)
	return &Archive{db: db}, nil
}

// Migrate creates the archive schema. Idempotent.
func (a *Archive) Migrate(ctx context.Context) error {
	if a == nil {
		return nil
	}
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id VARCHAR(100) PRIMARY KEY,
			sport VARCHAR(50),
			kickoff_at TIMESTAMPTZ,
			home_team VARCHAR(200) NOT NULL,
			home_short VARCHAR(20),
			home_score INTEGER,
			away_team VARCHAR(200) NOT NULL,
			away_short VARCHAR(20),
			away_score INTEGER,
			status VARCHAR(20) NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			last_update_at TIMESTAMPTZ,
			archived_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_kickoff_at ON games(kickoff_at)`,
		`CREATE INDEX IF NOT EXISTS idx_games_status ON games(status)`,
	}
	for _, m := range migrations {
		if _, err := a.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("archive migration failed: %w", err)
		}
	}
	return nil
}

// UpsertRecords writes the batch inside one transaction. Conflicting ids are
// updated in place; score columns keep their old value when the new one is
// null, matching the store invariant.
func (a *Archive) UpsertRecords(ctx context.Context, records []model.ScoreRecord) error {
	if a == nil || len(records) == 0 {
		return nil
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordArchiveError()
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO games (id, sport, kickoff_at, home_team, home_short, home_score,
			away_team, away_short, away_score, status, completed, last_update_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			sport = EXCLUDED.sport,
			kickoff_at = EXCLUDED.kickoff_at,
			home_team = EXCLUDED.home_team,
			home_short = EXCLUDED.home_short,
			home_score = COALESCE(EXCLUDED.home_score, games.home_score),
			away_team = EXCLUDED.away_team,
			away_short = EXCLUDED.away_short,
			away_score = COALESCE(EXCLUDED.away_score, games.away_score),
			status = EXCLUDED.status,
			completed = games.completed OR EXCLUDED.completed,
			last_update_at = EXCLUDED.last_update_at`)
	if err != nil {
		metrics.RecordArchiveError()
		return fmt.Errorf("prepare archive upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			rec.ID,
			nullString(rec.Sport),
			nullTime(rec.KickoffAt),
			rec.HomeTeam.Name,
			nullString(rec.HomeTeam.ShortCode),
			nullInt(rec.HomeTeam.Score),
			rec.AwayTeam.Name,
			nullString(rec.AwayTeam.ShortCode),
			nullInt(rec.AwayTeam.Score),
			string(rec.Status),
			rec.Completed,
			nullTime(rec.LastUpdateAt),
		)
		if err != nil {
			metrics.RecordArchiveError()
			return fmt.Errorf("archive upsert %s: %w", rec.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		metrics.RecordArchiveError()
		return fmt.Errorf("commit archive tx: %w", err)
	}
	metrics.RecordArchiveWrite()
	return nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close archive database: %w", err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
