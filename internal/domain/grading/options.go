// Package grading classifies free-text picks against final score records.
package grading

// Option applies a configuration option to the TextGrader.
type Option func(*TextGrader)

// WithLegacyPrecedence resolves a fragment that matches both teams to the
// away side (the original site's branch order) instead of grading unknown.
// Intended as a compatibility shim for archived pick text that relies on the
// old behavior.
func WithLegacyPrecedence() Option {
	return func(g *TextGrader) {
		g.legacyPrecedence = true
	}
}
