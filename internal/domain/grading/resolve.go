package grading

import (
	"strconv"
	"strings"

	"pickwire/internal/domain/model"
)

// side identifies which team a fragment resolved to.
type side int

const (
	sideNone side = iota
	sideHome
	sideAway
)

// resolveSide maps a free-text team fragment to one side of the record.
// Literal "home"/"away" resolve immediately; otherwise matching runs in
// tiers of decreasing strength: full-name substring, short-code substring,
// then first word of the full name. The strongest tier with any match
// decides, so a full-name match is never muddied by a weaker heuristic
// firing on the other side.
//
// When the fragment matches both sides at the same tier the default is to
// refuse (sideNone); legacy precedence instead keeps the source-compatible
// away-before-home branch order.
func (g *TextGrader) resolveSide(fragment string, record model.ScoreRecord) side {
	fragment = strings.TrimSpace(strings.ToLower(fragment))
	if fragment == "" {
		return sideNone
	}
	switch fragment {
	case "home":
		return sideHome
	case "away":
		return sideAway
	}

	tiers := []func(string, model.Team) bool{
		matchesName,
		matchesShortCode,
		matchesFirstWord,
	}
	for _, matches := range tiers {
		away := matches(fragment, record.AwayTeam)
		home := matches(fragment, record.HomeTeam)
		switch {
		case away && home:
			if g.legacyPrecedence {
				return sideAway
			}
			return sideNone
		case away:
			return sideAway
		case home:
			return sideHome
		}
	}
	return sideNone
}

// matchesName reports a full-name match: the fragment equals the name or
// one contains the other.
func matchesName(fragment string, team model.Team) bool {
	name := strings.TrimSpace(strings.ToLower(team.Name))
	if name == "" {
		return false
	}
	return fragment == name || strings.Contains(fragment, name) || strings.Contains(name, fragment)
}

// matchesShortCode reports a short-code match in either direction.
func matchesShortCode(fragment string, team model.Team) bool {
	short := strings.TrimSpace(strings.ToLower(team.ShortCode))
	if short == "" {
		return false
	}
	return fragment == short || strings.Contains(fragment, short) || strings.Contains(short, fragment)
}

// matchesFirstWord reports whether the fragment carries the first
// whitespace-delimited word of the team name, e.g. "tennessee vols" for
// "Tennessee Volunteers".
func matchesFirstWord(fragment string, team model.Team) bool {
	name := strings.TrimSpace(strings.ToLower(team.Name))
	first, _, _ := strings.Cut(name, " ")
	return first != "" && strings.Contains(fragment, first)
}

// sideScores returns the picked side's score and the opposing score, both
// coerced to ints with missing values treated as 0.
func sideScores(s side, record model.ScoreRecord) (picked, opposing int) {
	if s == sideAway {
		return record.AwayTeam.PointsOrZero(), record.HomeTeam.PointsOrZero()
	}
	return record.HomeTeam.PointsOrZero(), record.AwayTeam.PointsOrZero()
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
