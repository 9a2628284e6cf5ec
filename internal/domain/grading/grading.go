// Package grading classifies free-text picks against final score records.
//
// Grade is a total function: any input maps to one of the four GradeResult
// values and nothing is ever thrown or returned as an error. Malformed text
// and unresolvable team references degrade to GradeUnknown so one bad pick
// can never block rendering of the rest.
package grading

import (
	"context"
	"regexp"
	"strings"

	"pickwire/internal/domain/model"
)

// Grader grades one pick string against one score record.
type Grader interface {
	// Grade classifies the pick. It never fails; unparseable input grades
	// model.GradeUnknown.
	Grade(ctx context.Context, pickText string, record model.ScoreRecord) model.GradeResult
}

// TextGrader implements Grader over the legacy free-text pick format.
// The zero value grades with strict ambiguity handling; use options to
// change behavior. Safe for concurrent use.
type TextGrader struct {
	legacyPrecedence bool
}

// NewTextGrader creates a grader with configuration options.
func NewTextGrader(opts ...Option) *TextGrader {
	g := &TextGrader{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var (
	oddsTokenRe = regexp.MustCompile(`[+-]\d+`)
	spreadRe    = regexp.MustCompile(`^(.*?)\s*([+-]\d+(?:\.\d+)?)$`)
	lineRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*$`)
)

// Grade applies the pick-shape branches in priority order: moneyline, then
// spread, then total. The first matching branch wins.
func (g *TextGrader) Grade(_ context.Context, pickText string, record model.ScoreRecord) model.GradeResult {
	text := strings.ToLower(strings.TrimSpace(pickText))
	if text == "" {
		return model.GradeUnknown
	}

	if hasMoneylineKeyword(text) {
		return g.gradeMoneyline(text, record)
	}
	if fragment, line, ok := splitSpread(text); ok {
		return g.gradeSpread(fragment, line, record)
	}
	if result, ok := g.gradeTotal(text, record); ok {
		return result
	}
	return model.GradeUnknown
}

// gradeMoneyline strips odds tokens and the ml/moneyline keywords, resolves
// the remaining fragment to a side, and compares final scores. Moneyline
// bets never push: a tie grades lost.
func (g *TextGrader) gradeMoneyline(text string, record model.ScoreRecord) model.GradeResult {
	stripped := oddsTokenRe.ReplaceAllString(text, " ")
	var kept []string
	for _, tok := range strings.Fields(stripped) {
		if tok == "ml" || tok == "moneyline" {
			continue
		}
		kept = append(kept, tok)
	}
	fragment := strings.Join(kept, " ")

	side := g.resolveSide(fragment, record)
	if side == sideNone {
		return model.GradeUnknown
	}
	picked, opposing := sideScores(side, record)
	if picked > opposing {
		return model.GradeWon
	}
	return model.GradeLost
}

// gradeSpread adds the signed line to the picked side's score and compares
// against the unmodified opposing score.
func (g *TextGrader) gradeSpread(fragment string, line float64, record model.ScoreRecord) model.GradeResult {
	side := g.resolveSide(fragment, record)
	if side == sideNone {
		return model.GradeUnknown
	}
	picked, opposing := sideScores(side, record)
	adjusted := float64(picked) + line
	switch {
	case adjusted > float64(opposing):
		return model.GradeWon
	case adjusted < float64(opposing):
		return model.GradeLost
	default:
		return model.GradePush
	}
}

// gradeTotal handles over/under picks against the combined score. The
// second return is false when the text is not a total.
func (g *TextGrader) gradeTotal(text string, record model.ScoreRecord) (model.GradeResult, bool) {
	over := containsToken(text, "over")
	under := containsToken(text, "under")
	if !over && !under {
		return model.GradeUnknown, false
	}
	m := lineRe.FindStringSubmatch(text)
	if m == nil {
		return model.GradeUnknown, true
	}
	line, err := parseFloat(m[1])
	if err != nil {
		return model.GradeUnknown, true
	}
	sum := float64(record.HomeTeam.PointsOrZero() + record.AwayTeam.PointsOrZero())
	if sum == line {
		return model.GradePush, true
	}
	if over {
		if sum > line {
			return model.GradeWon, true
		}
		return model.GradeLost, true
	}
	if sum < line {
		return model.GradeWon, true
	}
	return model.GradeLost, true
}

// hasMoneylineKeyword reports whether the lower-cased text contains the
// token "ml" or "moneyline".
func hasMoneylineKeyword(text string) bool {
	for _, tok := range strings.Fields(text) {
		if tok == "ml" || tok == "moneyline" {
			return true
		}
	}
	return false
}

// splitSpread matches "<team-fragment><+/-><decimal>", e.g. "tennessee +4"
// or "home -7.5". The fragment must be non-empty.
func splitSpread(text string) (string, float64, bool) {
	m := spreadRe.FindStringSubmatch(text)
	if m == nil {
		return "", 0, false
	}
	fragment := strings.TrimSpace(m[1])
	if fragment == "" {
		return "", 0, false
	}
	line, err := parseFloat(m[2])
	if err != nil {
		return "", 0, false
	}
	return fragment, line, true
}

func containsToken(text, token string) bool {
	for _, tok := range strings.Fields(text) {
		if tok == token {
			return true
		}
	}
	return false
}
