package ai

import (
	"context"
	"testing"
)

var demoEvents = []ExistingEvent{
	{Title: "Corporate Finance", Time: "08:00", Duration: 90},
	{Title: "Coffee Chat: Sarah (McKinsey)", Time: "10:15", Duration: 45},
	{Title: "Gym Session", Time: "13:00", Duration: 45},
}

func TestOfflineScheduleStudy(t *testing.T) {
	o := NewOfflineService()
	reply, _ := o.Chat(context.Background(), ChatRequest{Message: "Schedule study time for the valuation case at 3pm for 2 hours", Events: demoEvents})
	if len(reply.Actions) != 1 {
		t.Fatalf("expected one action, got %+v", reply)
	}
	a := reply.Actions[0]
	if a.ActionType != "add" || a.EventTitle != "Study: Valuation Case Study" || a.EventTime != "15:00" || a.EventDuration != 120 {
		t.Fatalf("unexpected action %+v", a)
	}
}

func TestOfflineReplaceUsesRealEvent(t *testing.T) {
	o := NewOfflineService()
	reply, _ := o.Chat(context.Background(), ChatRequest{Message: "schedule quiz prep instead of gym in the evening for 45 min", Events: demoEvents})
	a := reply.Actions[0]
	if a.ActionType != "replace" || a.EventTitle != "Gym Session" || a.EventTime != "13:00" {
		t.Fatalf("unexpected target %+v", a)
	}
	if a.ReplaceWithTitle != "Study: Strategy Canvas Quiz" || a.ReplaceWithTime != "18:00" || a.ReplaceWithDuration != 45 {
		t.Fatalf("unexpected replacement %+v", a)
	}
}

func TestOfflinePriorityAcademics(t *testing.T) {
	o := NewOfflineService()
	reply, _ := o.Chat(context.Background(), ChatRequest{Message: "My priority today is academics", Events: demoEvents})
	if len(reply.Actions) != 3 {
		t.Fatalf("expected 3 actions, got %+v", reply.Actions)
	}
	if reply.Actions[0].ActionType != "remove" || reply.Actions[0].EventTitle != "Gym Session" {
		t.Errorf("unexpected first action %+v", reply.Actions[0])
	}
	if reply.Actions[2].EventTitle != "Focused Study Block" {
		t.Errorf("unexpected last action %+v", reply.Actions[2])
	}
}

func TestOfflineMove(t *testing.T) {
	o := NewOfflineService()
	reply, _ := o.Chat(context.Background(), ChatRequest{Message: "move my gym to 6:30pm", Events: demoEvents})
	a := reply.Actions[0]
	if a.ActionType != "replace" || a.EventTitle != "Gym Session" || a.ReplaceWithTime != "18:30" || a.ReplaceWithDuration != 45 {
		t.Fatalf("unexpected action %+v", a)
	}

	reply, _ = o.Chat(context.Background(), ChatRequest{Message: "move it", Events: demoEvents})
	if len(reply.Actions) != 0 {
		t.Fatalf("expected no actions for an unknown event, got %+v", reply.Actions)
	}
}

func TestOfflineHelp(t *testing.T) {
	reply, _ := NewOfflineService().Chat(context.Background(), ChatRequest{Message: "hello"})
	if reply.Content != offlineHelpText {
		t.Fatalf("unexpected reply %q", reply.Content)
	}
}

func TestParseSpokenTime(t *testing.T) {
	cases := map[string]string{
		"at 6pm":       "18:00",
		"at 12am":      "00:00",
		"at 12pm":      "12:00",
		"at 9:15 am":   "09:15",
		"this evening": "18:00",
		"whenever":     "14:00",
	}
	for in, want := range cases {
		if got := parseSpokenTime(in, "14:00"); got != want {
			t.Errorf("parseSpokenTime(%q) = %s; want %s", in, got, want)
		}
	}
}
