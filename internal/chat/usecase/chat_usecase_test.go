package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"kaisey-backend/internal/calendar/domain"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/ai"
)

type fakeAssistant struct {
	reply *ai.ChatReply
	got   ai.ChatRequest
}

func (f *fakeAssistant) ExtractTasks(ctx context.Context, req ai.ExtractRequest) (*ai.ExtractionResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeAssistant) ProposeSchedule(ctx context.Context, req ai.ProposalRequest) (*ai.ProposalResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeAssistant) Chat(ctx context.Context, req ai.ChatRequest) (*ai.ChatReply, error) {
	f.got = req
	return f.reply, nil
}

func newSession(key string) *session.Session {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	sess := session.New("s1", "u1", session.Options{OpenAIKey: key, Location: time.UTC, Now: func() time.Time { return now }})
	sess.SetEvents([]domain.CalendarEvent{
		{ID: "1", Title: "Coffee Chat: Sarah (McKinsey)", Time: "10:15", Date: "2026-10-19", Duration: 45},
		{ID: "2", Title: "Gym Session", Time: "13:00", Date: "2026-10-19", Duration: 45},
		{ID: "3", Title: "Next Week", Time: "13:00", Date: "2026-10-26", Duration: 45},
	})
	return sess
}

func TestToAction(t *testing.T) {
	add := ToAction(ai.ActionCall{ActionType: "ADD", EventTitle: "Read", EventTime: "15:00"})
	if add.Type != domain.ActionAdd || add.Event.Duration != 60 || add.Recurrence != nil {
		t.Fatalf("unexpected add %+v", add)
	}

	replace := ToAction(ai.ActionCall{ActionType: "replace", EventTitle: "Gym Session", EventTime: "13:00", EventDuration: 45, ReplaceWithTime: "17:00"})
	if replace.ReplaceWith == nil || replace.ReplaceWith.Title != "Gym Session" || replace.ReplaceWith.Duration != 45 || replace.ReplaceWith.Time != "17:00" {
		t.Fatalf("replace_with should fall back to event fields: %+v", replace.ReplaceWith)
	}

	noFreq := ToAction(ai.ActionCall{ActionType: "add", EventTitle: "Yoga", EventTime: "07:00", IsRecurring: true})
	if noFreq.Recurrence != nil {
		t.Fatal("recurrence without a frequency should be ignored")
	}

	weekly := ToAction(ai.ActionCall{
		ActionType:          "add",
		EventTitle:          "Yoga",
		EventTime:           "07:00",
		IsRecurring:         true,
		RecurrenceFrequency: "Weekly",
		RecurrenceDays:      []string{"TU", "TH"},
		RecurrenceCount:     8,
	})
	if weekly.Recurrence == nil || weekly.Recurrence.Frequency != domain.FrequencyWeekly || weekly.Recurrence.Count != 8 {
		t.Fatalf("unexpected recurrence %+v", weekly.Recurrence)
	}
	if err := weekly.Validate(); err != nil {
		t.Fatalf("weekly action should validate: %v", err)
	}
}

func TestSendOffline(t *testing.T) {
	factory := func(string) (ai.Assistant, error) { t.Fatal("factory must not be used without a key"); return nil, nil }
	uc := NewChatUsecase(factory)

	result, err := uc.Send(context.Background(), newSession(""), "My priority is academics", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Offline || len(result.Actions) == 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	last := result.Actions[len(result.Actions)-1]
	if last.Type != domain.ActionAdd || last.Event.Title != "Focused Study Block" {
		t.Fatalf("unexpected last action %+v", last)
	}

	if _, err := uc.Send(context.Background(), newSession(""), "  ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSendWithAssistant(t *testing.T) {
	assistant := &fakeAssistant{reply: &ai.ChatReply{
		Content: "Moved your gym session.",
		Actions: []ai.ActionCall{
			{ActionType: "replace", EventTitle: "Gym Session", EventTime: "13:00", EventDuration: 45, ReplaceWithTime: "18:00"},
			{ActionType: "teleport", EventTitle: "Gym Session", EventTime: "13:00"},
		},
	}}
	uc := NewChatUsecase(func(key string) (ai.Assistant, error) { return assistant, nil })

	history := []ai.ChatMessage{{Role: "user", Content: "hi"}}
	result, err := uc.Send(context.Background(), newSession("sk-test"), "move gym to 6pm", history)
	if err != nil {
		t.Fatal(err)
	}
	if result.Offline || result.Reply != "Moved your gym session." {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Actions) != 1 || result.Actions[0].ReplaceWith.Time != "18:00" {
		t.Fatalf("invalid actions should be dropped: %+v", result.Actions)
	}
	if len(assistant.got.Events) != 2 || assistant.got.Now != "09:00" || len(assistant.got.History) != 1 {
		t.Fatalf("unexpected request %+v", assistant.got)
	}
}
