package domain

import "strings"

// SuggestionType is how a suggestion is presented
type SuggestionType string

const (
	SuggestionConflict     SuggestionType = "conflict"
	SuggestionOptimization SuggestionType = "optimization"
	SuggestionAlert        SuggestionType = "alert"
	SuggestionSuccess      SuggestionType = "success"
)

// PlannerSuggestionPrefix marks suggestions forwarded by the brain-dump planner.
// They survive schedule re-detection.
const PlannerSuggestionPrefix = "bd-"

// Suggestion is a proposed change or note shown to the user. Accepting it
// replays Actions in order.
type Suggestion struct {
	ID          string           `json:"id"`
	Type        SuggestionType   `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Actions     []CalendarAction `json:"actions,omitempty"`
}

// FromPlanner reports whether the suggestion came from the brain-dump planner
func (s Suggestion) FromPlanner() bool {
	return strings.HasPrefix(s.ID, PlannerSuggestionPrefix)
}
