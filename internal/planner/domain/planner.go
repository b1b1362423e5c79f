// Package domain holds the brain-dump planner's phases and transient
// planning entities. Nothing here outlives a reset or an accept.
package domain

import (
	"errors"

	calendardomain "kaisey-backend/internal/calendar/domain"
)

// Phase is a state of the brain-dump pipeline
type Phase string

const (
	PhaseNoKey          Phase = "NO_KEY"
	PhaseIdle           Phase = "IDLE"
	PhaseBrainDumpInput Phase = "BRAIN_DUMP_INPUT"
	PhaseExtracting     Phase = "EXTRACTING"
	PhaseClarify        Phase = "CLARIFY"
	PhaseProposing      Phase = "PROPOSING"
	PhaseReviewSchedule Phase = "REVIEW_SCHEDULE"
	PhaseRevising       Phase = "REVISING"
	PhaseAccepted       Phase = "ACCEPTED"
)

// Awaiting reports whether the phase waits on an AI call
func (p Phase) Awaiting() bool {
	return p == PhaseExtracting || p == PhaseProposing || p == PhaseRevising
}

// Question fields
const (
	FieldEstimatedDuration = "estimatedDuration"
	FieldDueDate           = "dueDate"
)

const (
	DefaultAnsweredDuration = 60
	DefaultBlockDuration    = 30

	NoTasksMessage = "No schedulable tasks found. To manage existing calendar events (delete, edit, reschedule), use the calendar view or the chat assistant."
)

var (
	ErrInvalidTransition = errors.New("invalid planner transition")
	ErrEmptyInput        = errors.New("input must not be empty")
	ErrBlockNotFound     = errors.New("proposed block not found")
)

type ExtractedTask struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	EstimatedDuration *int    `json:"estimated_duration"`
	DueDate           *string `json:"due_date"`
	PreferredTime     *string `json:"preferred_time"`
	Priority          string  `json:"priority"`
	Category          string  `json:"category"`
}

type ClarificationQuestion struct {
	TaskID    string `json:"task_id"`
	TaskTitle string `json:"task_title"`
	Question  string `json:"question"`
	Field     string `json:"field"`
	Answered  bool   `json:"answered"`
	Answer    string `json:"answer,omitempty"`
}

// ProposedBlock is one row of a proposed day. Existing blocks mirror
// calendar events and carry the event id as TaskID.
type ProposedBlock struct {
	TaskID     string `json:"task_id"`
	Title      string `json:"title"`
	Time       string `json:"time"`
	Date       string `json:"date"`
	Duration   int    `json:"duration"`
	Category   string `json:"category"`
	IsExisting bool   `json:"is_existing"`
}

// AddAction converts a new block into the calendar action that creates it.
// Added events always land on the session's today; Date is informational.
func (b ProposedBlock) AddAction() calendardomain.CalendarAction {
	return calendardomain.CalendarAction{
		Type:  calendardomain.ActionAdd,
		Event: calendardomain.EventFields{Title: b.Title, Time: b.Time, Duration: b.Duration},
	}
}

// RemoveAction converts an existing block into the action that deletes its event
func (b ProposedBlock) RemoveAction() calendardomain.CalendarAction {
	return calendardomain.CalendarAction{
		Type:  calendardomain.ActionRemove,
		Event: calendardomain.EventFields{ID: b.TaskID, Title: b.Title, Time: b.Time, Duration: b.Duration},
	}
}

type Recommendation struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// State is a snapshot of a pipeline for the API
type State struct {
	Phase           Phase                   `json:"phase"`
	Generation      uint64                  `json:"generation"`
	Error           string                  `json:"error,omitempty"`
	BrainDump       string                  `json:"brain_dump,omitempty"`
	Tasks           []ExtractedTask         `json:"tasks"`
	Questions       []ClarificationQuestion `json:"questions"`
	QuestionIndex   int                     `json:"question_index"`
	CurrentQuestion *ClarificationQuestion  `json:"current_question,omitempty"`
	Blocks          []ProposedBlock         `json:"blocks"`
	Recommendations []Recommendation        `json:"recommendations"`
	Summary         string                  `json:"summary,omitempty"`
}
