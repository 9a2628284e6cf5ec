// Package reconcile merges score record batches into a canonical store.
//
// Merge is pure and deterministic: it allocates a fresh output, mutates
// neither input, and is safe to call concurrently. Merging the same batch
// twice yields the same result (idempotence), and a completed or fresher
// record is never regressed by an older one (monotonicity). The feed may
// deliver partial snapshots or stale re-deliveries after a retry; both are
// absorbed here.
package reconcile

import (
	"sort"

	"pickwire/internal/domain/model"
)

// Merge combines a baseline store with an incoming batch, keyed by record
// id. Baseline duplicates resolve last-wins. For an id present on both
// sides, replacement follows the freshness rule:
//
//  1. strictly newer LastUpdateAt: incoming wins outright
//  2. otherwise, incoming completed over a non-completed existing: incoming
//     wins
//  3. otherwise, field-level shallow merge where incoming overrides only
//     the fields it supplies
//
// The output is sorted ascending by resolved time (kickoff, falling back to
// last update), with id as the tiebreaker.
func Merge(baseline, incoming []model.ScoreRecord) []model.ScoreRecord {
	byID := make(map[string]model.ScoreRecord, len(baseline)+len(incoming))
	for _, rec := range baseline {
		if rec.ID == "" {
			continue
		}
		byID[rec.ID] = rec
	}

	for _, rec := range incoming {
		if rec.ID == "" {
			continue
		}
		existing, ok := byID[rec.ID]
		if !ok {
			byID[rec.ID] = rec
			continue
		}
		byID[rec.ID] = mergeRecord(existing, rec)
	}

	out := make([]model.ScoreRecord, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].ResolvedTime(), out[j].ResolvedTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Index builds an id-keyed view of a record slice, last-wins on duplicates.
func Index(records []model.ScoreRecord) map[string]model.ScoreRecord {
	byID := make(map[string]model.ScoreRecord, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		byID[rec.ID] = rec
	}
	return byID
}

// mergeRecord decides how an incoming record replaces or augments an
// existing one with the same id.
func mergeRecord(existing, incoming model.ScoreRecord) model.ScoreRecord {
	if incoming.LastUpdateAt.After(existing.LastUpdateAt) {
		return guardScores(existing, incoming)
	}
	if incoming.Completed && !existing.Completed {
		return guardScores(existing, incoming)
	}
	return overlay(existing, incoming)
}

// guardScores applies the store invariant to a wholesale replacement: a
// score that is already non-nil on a completed record is never erased by a
// nil value from the other side.
func guardScores(existing, winner model.ScoreRecord) model.ScoreRecord {
	if !existing.Completed {
		return winner
	}
	if winner.HomeTeam.Score == nil && existing.HomeTeam.Score != nil {
		winner.HomeTeam.Score = existing.HomeTeam.Score
	}
	if winner.AwayTeam.Score == nil && existing.AwayTeam.Score != nil {
		winner.AwayTeam.Score = existing.AwayTeam.Score
	}
	return winner
}

// overlay performs the shallow field merge of rule 3: start from existing
// and take incoming fields only where incoming supplied a value, so partial
// snapshots preserve what they omit.
func overlay(existing, incoming model.ScoreRecord) model.ScoreRecord {
	out := existing

	if incoming.Sport != "" {
		out.Sport = incoming.Sport
	}
	if !incoming.KickoffAt.IsZero() {
		out.KickoffAt = incoming.KickoffAt
	}
	out.HomeTeam = overlayTeam(existing.HomeTeam, incoming.HomeTeam)
	out.AwayTeam = overlayTeam(existing.AwayTeam, incoming.AwayTeam)
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	if incoming.Quarter != "" {
		out.Quarter = incoming.Quarter
	}
	if incoming.TimeRemaining != "" {
		out.TimeRemaining = incoming.TimeRemaining
	}
	// A stale snapshot must not regress freshness: a later re-delivery of
	// mid-aged data would otherwise pass rule 1 and replace newer state.
	if incoming.LastUpdateAt.After(existing.LastUpdateAt) {
		out.LastUpdateAt = incoming.LastUpdateAt
	}
	if incoming.Completed {
		out.Completed = true
	}
	return out
}

func overlayTeam(existing, incoming model.Team) model.Team {
	out := existing
	if incoming.Name != "" {
		out.Name = incoming.Name
	}
	if incoming.ShortCode != "" {
		out.ShortCode = incoming.ShortCode
	}
	if incoming.Score != nil {
		out.Score = incoming.Score
	}
	return out
}
