package usecase

import (
	"context"
	"errors"
	"log"
	"strings"

	"kaisey-backend/internal/calendar/domain"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/ai"
)

const defaultActionDuration = 60

var ErrEmptyMessage = errors.New("message must not be empty")

// ChatResult is the assistant reply. Actions are proposals only; the client
// applies the ones the user confirms through the calendar endpoint.
type ChatResult struct {
	Reply   string                  `json:"reply"`
	Actions []domain.CalendarAction `json:"actions"`
	Offline bool                    `json:"offline"`
}

// ChatUsecase defines the calendar chat interface
type ChatUsecase interface {
	Send(ctx context.Context, sess *session.Session, message string, history []ai.ChatMessage) (*ChatResult, error)
}

// AssistantFactory builds an assistant for a session's AI key
type AssistantFactory func(key string) (ai.Assistant, error)

type chatUsecase struct {
	assistants AssistantFactory
	offline    ai.Assistant
}

// NewChatUsecase creates a chat usecase. Sessions without a valid key are
// answered by the offline keyword responder.
func NewChatUsecase(assistants AssistantFactory) ChatUsecase {
	return &chatUsecase{
		assistants: assistants,
		offline:    ai.NewOfflineService(),
	}
}

func (u *chatUsecase) Send(ctx context.Context, sess *session.Session, message string, history []ai.ChatMessage) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	assistant, offline := u.offline, true
	if key := sess.OpenAIKey(); ai.ValidKey(key) {
		a, err := u.assistants(key)
		if err != nil {
			return nil, err
		}
		assistant, offline = a, false
	}

	today := sess.Today()
	req := ai.ChatRequest{
		Message: message,
		History: history,
		Today:   today,
		Now:     domain.ClockOf(sess.Now()),
	}
	for _, e := range domain.OnDate(sess.Events(), today) {
		req.Events = append(req.Events, ai.ExistingEvent{Title: e.Title, Time: e.Time, Duration: e.Duration, Type: string(e.Type)})
	}

	reply, err := assistant.Chat(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &ChatResult{Reply: reply.Content, Actions: make([]domain.CalendarAction, 0, len(reply.Actions)), Offline: offline}
	for _, call := range reply.Actions {
		action := ToAction(call)
		if err := action.Validate(); err != nil {
			log.Printf("[Chat] Dropping invalid %s action for %q: %v", call.ActionType, call.EventTitle, err)
			continue
		}
		result.Actions = append(result.Actions, action)
	}
	return result, nil
}

// ToAction maps calendar_action tool arguments to a CalendarAction
func ToAction(call ai.ActionCall) domain.CalendarAction {
	duration := call.EventDuration
	if duration <= 0 {
		duration = defaultActionDuration
	}
	action := domain.CalendarAction{
		Type:  domain.ActionType(strings.ToLower(strings.TrimSpace(call.ActionType))),
		Event: domain.EventFields{Title: call.EventTitle, Time: call.EventTime, Duration: duration},
	}

	if action.Type == domain.ActionReplace {
		with := domain.EventFields{
			Title:    call.ReplaceWithTitle,
			Time:     call.ReplaceWithTime,
			Duration: call.ReplaceWithDuration,
		}
		if with.Title == "" {
			with.Title = action.Event.Title
		}
		if with.Time == "" {
			with.Time = action.Event.Time
		}
		if with.Duration <= 0 {
			with.Duration = action.Event.Duration
		}
		action.ReplaceWith = &with
	}

	if call.IsRecurring && call.RecurrenceFrequency != "" && action.Type != domain.ActionRemove {
		action.Recurrence = &domain.Recurrence{
			Frequency:  domain.Frequency(strings.ToLower(call.RecurrenceFrequency)),
			DaysOfWeek: call.RecurrenceDays,
			Until:      call.RecurrenceUntil,
			Count:      call.RecurrenceCount,
		}
	}
	return action
}
