// Package types contains read shapes shared between the service and the
// HTTP API.
package types

import "pickwire/internal/domain/model"

// GameDetail is the per-game read model served to the detail view: the
// reconciled score record plus, when present, the authored content and the
// graded picks.
type GameDetail struct {
	Record  model.ScoreRecord  `json:"record"`
	Content *model.GameContent `json:"content,omitempty"`
	Grades  []model.GradedPick `json:"grades,omitempty"`
}
