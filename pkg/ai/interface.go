package ai

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidKey is returned when a call requires an OpenAI key that is missing or malformed
	ErrInvalidKey = errors.New("valid OpenAI API key required")
	// ErrNoToolCall is returned when the model answered without calling the expected tool
	ErrNoToolCall = errors.New("no tool call in model response")
)

// ValidKey reports whether key looks like an OpenAI secret key
func ValidKey(key string) bool {
	return strings.HasPrefix(key, "sk-")
}

// TaskExtraction is one schedulable task found in a brain dump. Nil fields
// were not inferable from the text.
type TaskExtraction struct {
	Title             string  `json:"title"`
	EstimatedDuration *int    `json:"estimated_duration"`
	DueDate           *string `json:"due_date"`
	PreferredTime     *string `json:"preferred_time"`
	Priority          string  `json:"priority"`
	Category          string  `json:"category"`
}

// ClarificationQuestion asks the user for a missing task field
type ClarificationQuestion struct {
	TaskTitle string `json:"task_title"`
	Question  string `json:"question"`
	Field     string `json:"field"` // estimatedDuration or dueDate
}

type ExtractionResult struct {
	Tasks     []TaskExtraction        `json:"tasks"`
	Questions []ClarificationQuestion `json:"clarification_questions"`
}

// ExtractRequest carries a brain dump and the user's current date
type ExtractRequest struct {
	Text  string
	Today string // YYYY-MM-DD
}

// ScheduleTask is a task handed to the schedule proposer
type ScheduleTask struct {
	Title         string `json:"title"`
	Duration      *int   `json:"duration"`
	Priority      string `json:"priority"`
	Category      string `json:"category"`
	PreferredTime string `json:"preferredTime,omitempty"`
}

// ExistingEvent is an event already on the calendar
type ExistingEvent struct {
	Title    string `json:"title"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Type     string `json:"type,omitempty"`
}

// ScheduledBlock is one proposed placement of a task
type ScheduledBlock struct {
	TaskTitle string `json:"task_title"`
	Time      string `json:"time"`
	Date      string `json:"date"`
	Duration  int    `json:"duration"`
	Category  string `json:"category"`
}

// Recommendation is a free-form note produced with a proposal
type Recommendation struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ProposalRequest struct {
	Tasks    []ScheduleTask
	Existing []ExistingEvent
	Today    string // YYYY-MM-DD
	Now      string // HH:MM

	// Revision context; empty for an initial proposal
	Feedback string
	Previous []ScheduledBlock
}

type ProposalResult struct {
	Blocks          []ScheduledBlock `json:"scheduled_blocks"`
	Recommendations []Recommendation `json:"recommendations"`
	Summary         string           `json:"summary"`
}

// ChatMessage is one turn of the conversation history
type ChatMessage struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

type ChatRequest struct {
	Message string
	History []ChatMessage
	Events  []ExistingEvent
	Today   string
	Now     string
}

// ActionCall is the raw argument set of a calendar_action tool call
type ActionCall struct {
	ActionType          string   `json:"action_type"`
	EventTitle          string   `json:"event_title"`
	EventTime           string   `json:"event_time"`
	EventDuration       int      `json:"event_duration"`
	ReplaceWithTitle    string   `json:"replace_with_title,omitempty"`
	ReplaceWithTime     string   `json:"replace_with_time,omitempty"`
	ReplaceWithDuration int      `json:"replace_with_duration,omitempty"`
	IsRecurring         bool     `json:"is_recurring,omitempty"`
	RecurrenceFrequency string   `json:"recurrence_frequency,omitempty"`
	RecurrenceDays      []string `json:"recurrence_days,omitempty"`
	RecurrenceUntil     string   `json:"recurrence_until,omitempty"`
	RecurrenceCount     int      `json:"recurrence_count,omitempty"`
}

type ChatReply struct {
	Content string       `json:"content"`
	Actions []ActionCall `json:"actions"`
}

// Assistant is the interface for the language-model backed planner features.
// Implement this interface to add new AI providers.
type Assistant interface {
	ExtractTasks(ctx context.Context, req ExtractRequest) (*ExtractionResult, error)
	ProposeSchedule(ctx context.Context, req ProposalRequest) (*ProposalResult, error)
	Chat(ctx context.Context, req ChatRequest) (*ChatReply, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
