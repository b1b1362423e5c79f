package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseAndFormatClock(t *testing.T) {
	cases := []struct {
		in      string
		minutes int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"9:30", 0, true},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.minutes {
			t.Errorf("ParseClock(%q) = %d, %v; want %d", c.in, got, err, c.minutes)
		}
		if back := FormatClock(got); back != c.in {
			t.Errorf("FormatClock(%d) = %q; want %q", got, back, c.in)
		}
	}

	if got := FormatClock(24*60 + 15); got != "00:15" {
		t.Errorf("FormatClock wraps past midnight: got %q", got)
	}
}

func TestSortByTimeIsStable(t *testing.T) {
	events := []CalendarEvent{
		{ID: "b", Time: "10:00"},
		{ID: "a", Time: "08:00"},
		{ID: "c", Time: "10:00"},
	}
	SortByTime(events)
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if events[i].ID != id {
			t.Fatalf("position %d: got %s want %s", i, events[i].ID, id)
		}
	}
}

func TestOnDateFilters(t *testing.T) {
	events := []CalendarEvent{
		{ID: "1", Date: "2026-10-19", Time: "12:00"},
		{ID: "2", Date: "2026-10-20", Time: "08:00"},
		{ID: "3", Date: "2026-10-19", Time: "07:00"},
	}
	got := OnDate(events, "2026-10-19")
	if len(got) != 2 || got[0].ID != "3" || got[1].ID != "1" {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestHasRemoteID(t *testing.T) {
	cases := []struct {
		event CalendarEvent
		want  bool
	}{
		{CalendarEvent{ID: "abc123", SyncStatus: SyncStatusSynced}, true},
		{CalendarEvent{ID: "local-3", SyncStatus: SyncStatusPending}, false},
		{CalendarEvent{ID: "1", SyncStatus: SyncStatusLocal}, false},
		{CalendarEvent{ID: "", SyncStatus: SyncStatusSynced}, false},
	}
	for _, c := range cases {
		if got := c.event.HasRemoteID(); got != c.want {
			t.Errorf("HasRemoteID(%+v) = %v; want %v", c.event, got, c.want)
		}
	}
}

func TestRecurrenceRRule(t *testing.T) {
	cases := []struct {
		name string
		rec  Recurrence
		want string
	}{
		{"daily", Recurrence{Frequency: FrequencyDaily, Interval: 1}, "RRULE:FREQ=DAILY"},
		{"weekly days count", Recurrence{Frequency: FrequencyWeekly, DaysOfWeek: []string{"tu", "TH"}, Count: 8}, "RRULE:FREQ=WEEKLY;BYDAY=TU,TH;COUNT=8"},
		{"monthly interval until", Recurrence{Frequency: FrequencyMonthly, Interval: 2, Until: "2026-12-31"}, "RRULE:FREQ=MONTHLY;INTERVAL=2;UNTIL=20261231"},
		{"count wins", Recurrence{Frequency: FrequencyWeekly, Count: 4, Until: "2026-12-31"}, "RRULE:FREQ=WEEKLY;COUNT=4"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.rec.RRule()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("got %q want %q", got, c.want)
			}
		})
	}
}

func TestRecurrenceRRuleRejectsBadInput(t *testing.T) {
	bad := []Recurrence{
		{Frequency: "yearly"},
		{Frequency: FrequencyWeekly, DaysOfWeek: []string{"XX"}},
		{Frequency: FrequencyDaily, Until: "not-a-date"},
	}
	for _, r := range bad {
		if _, err := r.RRule(); err == nil {
			t.Errorf("expected error for %+v", r)
		}
	}
}

func TestRecurrenceOccurrences(t *testing.T) {
	start := time.Date(2026, 10, 20, 18, 0, 0, 0, time.UTC) // Tuesday
	rec := Recurrence{Frequency: FrequencyWeekly, DaysOfWeek: []string{"TU", "TH"}, Count: 4}

	got, err := rec.Occurrences(start, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"2026-10-20", "2026-10-22", "2026-10-27", "2026-10-29"}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i, w := range want {
		if DateOf(got[i]) != w || ClockOf(got[i]) != "18:00" {
			t.Errorf("occurrence %d = %s", i, got[i])
		}
	}

	daily := Recurrence{Frequency: FrequencyDaily, Until: "2026-10-22"}
	got, err = daily.Occurrences(time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("until should include its own day, got %d occurrences", len(got))
	}

	unbounded := Recurrence{Frequency: FrequencyDaily}
	got, _ = unbounded.Occurrences(start, 5)
	if len(got) != 5 {
		t.Fatalf("limit not applied, got %d", len(got))
	}
}

func TestActionValidate(t *testing.T) {
	ok := []CalendarAction{
		{Type: ActionAdd, Event: EventFields{Title: "Gym", Time: "18:00", Duration: 45}},
		{Type: ActionRemove, Event: EventFields{Title: "Gym", Time: "18:00"}},
		{Type: ActionRemove, Event: EventFields{ID: "abc"}},
		{Type: ActionReplace, Event: EventFields{Title: "Gym", Time: "18:00"}, ReplaceWith: &EventFields{Title: "Gym", Time: "19:00", Duration: 45}},
		{Type: ActionAdd, Event: EventFields{Title: "Class", Time: "18:00", Duration: 180}, Recurrence: &Recurrence{Frequency: FrequencyWeekly, DaysOfWeek: []string{"TU"}, Count: 4}},
	}
	for _, a := range ok {
		if err := a.Validate(); err != nil {
			t.Errorf("Validate(%+v) unexpected error: %v", a, err)
		}
	}

	bad := []CalendarAction{
		{Type: "move", Event: EventFields{Title: "Gym", Time: "18:00", Duration: 45}},
		{Type: ActionAdd, Event: EventFields{Title: "", Time: "18:00", Duration: 45}},
		{Type: ActionAdd, Event: EventFields{Title: "Gym", Time: "6pm", Duration: 45}},
		{Type: ActionAdd, Event: EventFields{Title: "Gym", Time: "18:00", Duration: 0}},
		{Type: ActionRemove, Event: EventFields{Title: "Gym"}},
		{Type: ActionReplace, Event: EventFields{Title: "Gym", Time: "18:00"}},
		{Type: ActionAdd, Event: EventFields{Title: "Gym", Time: "18:00", Duration: 45}, Recurrence: &Recurrence{Frequency: "hourly"}},
	}
	for _, a := range bad {
		err := a.Validate()
		if !errors.Is(err, ErrInvalidAction) {
			t.Errorf("Validate(%+v) = %v; want ErrInvalidAction", a, err)
		}
	}
}
