package model

// GradeResult classifies the outcome of one pick. Unknown is a terminal,
// non-retryable classification returned for unparseable text or unresolvable
// team references, never an error.
type GradeResult string

// Valid grade results.
const (
	GradeWon     GradeResult = "won"
	GradeLost    GradeResult = "lost"
	GradePush    GradeResult = "push"
	GradeUnknown GradeResult = "unknown"
)

// Pick is one authored wager statement. Text carries one of three shapes:
// moneyline ("TENN +145 ML"), spread ("Villanova +48.5"), or total
// ("Over 54.5"). Picks are authored once and immutable.
type Pick struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// GradedPick is a pick annotated with its grading outcome.
type GradedPick struct {
	Pick
	Result GradeResult `json:"result"`
}

// GameContent is the authored analytical content for one game, keyed to a
// ScoreRecord by GameID. Games present in the score feed without content are
// "score-only".
type GameContent struct {
	GameID  string `json:"game_id"`
	Summary string `json:"summary,omitempty"`
	Picks   []Pick `json:"picks,omitempty"`
}

// Detailed reports whether the content carries anything worth linking to
// from the manifest.
func (c GameContent) Detailed() bool {
	return c.Summary != "" || len(c.Picks) > 0
}
