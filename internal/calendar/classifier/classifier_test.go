package classifier

import (
	"testing"

	"kaisey-backend/internal/calendar/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		title string
		want  domain.EventType
	}{
		{"Gym Session", domain.EventTypeWorkout},
		{"Morning YOGA", domain.EventTypeWorkout},
		{"Corporate Finance Class", domain.EventTypeClass},
		{"Guest Lecture", domain.EventTypeClass},
		{"Valuation Prep", domain.EventTypeStudy},
		{"Deep Work Block", domain.EventTypeStudy},
		{"Coffee Chat: Sarah (McKinsey)", domain.EventTypeNetworking},
		{"Lunch with Classmates", domain.EventTypeClass}, // "class" is checked before "lunch"
		{"Goldman Sachs Info Session", domain.EventTypeRecruiting},
		{"Mock Interview", domain.EventTypeRecruiting},
		{"Gym then study", domain.EventTypeWorkout},
		{"Strategy Canvas Quiz", DefaultType},
		{"", DefaultType},
	}
	for _, c := range cases {
		got := Classify(c.title)
		if got.Type != c.want {
			t.Errorf("Classify(%q) = %s; want %s", c.title, got.Type, c.want)
		}
		if got.Color != ColorFor(got.Type) {
			t.Errorf("Classify(%q) color %s does not match type %s", c.title, got.Color, got.Type)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	titles := []string{"Gym Session", "Random Thing", "Networking Lunch"}
	for _, title := range titles {
		if Classify(title) != Classify(title) {
			t.Errorf("Classify(%q) not deterministic", title)
		}
	}
}

func TestDefaultIsMeetingPurple(t *testing.T) {
	got := Classify("Board Sync")
	if got.Type != domain.EventTypeMeeting || got.Color != "bg-purple-500" {
		t.Fatalf("unexpected default %+v", got)
	}
}

func TestApplySetsFields(t *testing.T) {
	e := domain.CalendarEvent{Title: "Team Coffee"}
	Apply(&e)
	if e.Type != domain.EventTypeNetworking || e.Color != "bg-orange-500" {
		t.Fatalf("unexpected %+v", e)
	}
}
