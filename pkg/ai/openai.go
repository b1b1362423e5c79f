package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel = openai.GPT4oMini
	historyLimit       = 10
)

// OpenAIService implements Assistant with OpenAI tool calling. Any server
// speaking the OpenAI chat completions API can be targeted via the base URL.
type OpenAIService struct {
	client *openai.Client
	model  string
	name   string
}

// NewOpenAIService creates an OpenAI-backed assistant
func NewOpenAIService(apiKey, model string) *OpenAIService {
	return NewOpenAIServiceWithBaseURL(apiKey, "", model)
}

// NewOpenAIServiceWithBaseURL creates an assistant against a custom
// OpenAI-compatible endpoint, e.g. http://localhost:11434/v1
func NewOpenAIServiceWithBaseURL(apiKey, baseURL, model string) *OpenAIService {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		name:   "openai",
	}
}

// Ping lists models to check the endpoint and credentials
func (s *OpenAIService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}

type extractArgs struct {
	Tasks []struct {
		Title             string   `json:"title"`
		EstimatedDuration *float64 `json:"estimatedDuration"`
		DueDate           *string  `json:"dueDate"`
		PreferredTime     *string  `json:"preferredTime"`
		Priority          string   `json:"priority"`
		Category          string   `json:"category"`
	} `json:"tasks"`
	Questions []ClarificationQuestion `json:"clarification_questions"`
}

// ExtractTasks implements Assistant
func (s *OpenAIService) ExtractTasks(ctx context.Context, req ExtractRequest) (*ExtractionResult, error) {
	msg, err := s.complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractSystemPrompt(req.Today)},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Tools:       []openai.Tool{extractTasksTool},
		ToolChoice:  forceTool(toolExtractTasks),
		Temperature: 0.3,
		MaxTokens:   1500,
	})
	if err != nil {
		return nil, err
	}

	var args extractArgs
	if err := decodeToolCall(msg, toolExtractTasks, &args); err != nil {
		return nil, err
	}

	result := &ExtractionResult{
		Tasks:     make([]TaskExtraction, 0, len(args.Tasks)),
		Questions: args.Questions,
	}
	if result.Questions == nil {
		result.Questions = []ClarificationQuestion{}
	}
	for _, t := range args.Tasks {
		result.Tasks = append(result.Tasks, TaskExtraction{
			Title:             t.Title,
			EstimatedDuration: roundMinutes(t.EstimatedDuration),
			DueDate:           nonEmpty(t.DueDate),
			PreferredTime:     nonEmpty(t.PreferredTime),
			Priority:          t.Priority,
			Category:          t.Category,
		})
	}
	return result, nil
}

type proposeArgs struct {
	Blocks []struct {
		TaskTitle string  `json:"task_title"`
		Time      string  `json:"time"`
		Date      string  `json:"date"`
		Duration  float64 `json:"duration"`
		Category  string  `json:"category"`
	} `json:"scheduled_blocks"`
	Recommendations []Recommendation `json:"recommendations"`
	Summary         string           `json:"summary"`
}

// ProposeSchedule implements Assistant
func (s *OpenAIService) ProposeSchedule(ctx context.Context, req ProposalRequest) (*ProposalResult, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: proposeSystemPrompt(req)},
	}
	if req.Feedback != "" {
		previous, _ := json.Marshal(req.Previous)
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "Previously proposed schedule: " + string(previous)},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: "Please revise the schedule: " + req.Feedback},
		)
	} else {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: "Please create an optimized schedule for today fitting these tasks around my existing calendar events.",
		})
	}

	msg, err := s.complete(ctx, openai.ChatCompletionRequest{
		Messages:    messages,
		Tools:       []openai.Tool{proposeScheduleTool},
		ToolChoice:  forceTool(toolProposeSchedule),
		Temperature: 0.5,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, err
	}

	var args proposeArgs
	if err := decodeToolCall(msg, toolProposeSchedule, &args); err != nil {
		return nil, err
	}

	result := &ProposalResult{
		Blocks:          make([]ScheduledBlock, 0, len(args.Blocks)),
		Recommendations: args.Recommendations,
		Summary:         args.Summary,
	}
	if result.Recommendations == nil {
		result.Recommendations = []Recommendation{}
	}
	for _, b := range args.Blocks {
		result.Blocks = append(result.Blocks, ScheduledBlock{
			TaskTitle: b.TaskTitle,
			Time:      b.Time,
			Date:      b.Date,
			Duration:  int(math.Round(b.Duration)),
			Category:  b.Category,
		})
	}
	return result, nil
}

type actionArgs struct {
	ActionType          string   `json:"action_type"`
	EventTitle          string   `json:"event_title"`
	EventTime           string   `json:"event_time"`
	EventDuration       float64  `json:"event_duration"`
	ReplaceWithTitle    string   `json:"replace_with_title"`
	ReplaceWithTime     string   `json:"replace_with_time"`
	ReplaceWithDuration float64  `json:"replace_with_duration"`
	IsRecurring         bool     `json:"is_recurring"`
	RecurrenceFrequency string   `json:"recurrence_frequency"`
	RecurrenceDays      []string `json:"recurrence_days"`
	RecurrenceUntil     string   `json:"recurrence_until"`
	RecurrenceCount     float64  `json:"recurrence_count"`
}

// Chat implements Assistant. Malformed tool calls are skipped.
func (s *OpenAIService) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt(req)},
	}
	history := req.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, h := range history {
		role := openai.ChatMessageRoleAssistant
		if h.Role == openai.ChatMessageRoleUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: h.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Message})

	msg, err := s.complete(ctx, openai.ChatCompletionRequest{
		Messages:    messages,
		Tools:       []openai.Tool{calendarActionTool},
		ToolChoice:  "auto",
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, err
	}

	reply := &ChatReply{Content: msg.Content, Actions: make([]ActionCall, 0)}
	for _, call := range msg.ToolCalls {
		if call.Function.Name != toolCalendarAction {
			continue
		}
		var a actionArgs
		if err := json.Unmarshal([]byte(call.Function.Arguments), &a); err != nil {
			continue
		}
		reply.Actions = append(reply.Actions, ActionCall{
			ActionType:          a.ActionType,
			EventTitle:          a.EventTitle,
			EventTime:           a.EventTime,
			EventDuration:       int(math.Round(a.EventDuration)),
			ReplaceWithTitle:    a.ReplaceWithTitle,
			ReplaceWithTime:     a.ReplaceWithTime,
			ReplaceWithDuration: int(math.Round(a.ReplaceWithDuration)),
			IsRecurring:         a.IsRecurring,
			RecurrenceFrequency: a.RecurrenceFrequency,
			RecurrenceDays:      a.RecurrenceDays,
			RecurrenceUntil:     a.RecurrenceUntil,
			RecurrenceCount:     int(math.Round(a.RecurrenceCount)),
		})
	}

	if reply.Content == "" {
		if len(reply.Actions) > 0 {
			reply.Content = "I'll make this change to your calendar:"
		} else {
			reply.Content = "Sorry, I could not generate a response."
		}
	}
	return reply, nil
}

func (s *OpenAIService) complete(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionMessage, error) {
	req.Model = s.model
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", s.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", s.name)
	}
	return &resp.Choices[0].Message, nil
}

func forceTool(name string) openai.ToolChoice {
	return openai.ToolChoice{
		Type:     openai.ToolTypeFunction,
		Function: openai.ToolFunction{Name: name},
	}
}

func decodeToolCall(msg *openai.ChatCompletionMessage, name string, v interface{}) error {
	for _, call := range msg.ToolCalls {
		if call.Function.Name != name {
			continue
		}
		if err := json.Unmarshal([]byte(call.Function.Arguments), v); err != nil {
			return fmt.Errorf("failed to parse %s arguments: %w", name, err)
		}
		return nil
	}
	return ErrNoToolCall
}

func roundMinutes(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
