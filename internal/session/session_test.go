package session

import (
	"errors"
	"testing"
	"time"

	authdomain "kaisey-backend/internal/auth/domain"
	"kaisey-backend/internal/calendar/domain"
)

func fixedNow() time.Time {
	return time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
}

func newTestSession(opts Options) *Session {
	opts.Now = fixedNow
	opts.Location = time.UTC
	return New("s1", "u1", opts)
}

func TestTempIDsAreUnique(t *testing.T) {
	s := newTestSession(Options{})
	a, b := s.NextTempID(), s.NextTempID()
	if a == b || !domain.IsTempID(a) || !domain.IsTempID(b) {
		t.Fatalf("unexpected ids %s %s", a, b)
	}
}

func TestPromoteID(t *testing.T) {
	s := newTestSession(Options{})
	s.SetEvents([]domain.CalendarEvent{{ID: "local-1", Time: "10:00", SyncStatus: domain.SyncStatusPending}})

	if !s.PromoteID("local-1", "g-abc") {
		t.Fatal("expected promotion")
	}
	events := s.Events()
	if events[0].ID != "g-abc" || events[0].SyncStatus != domain.SyncStatusSynced {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if s.PromoteID("local-1", "g-def") {
		t.Fatal("temp id should be gone after promotion")
	}
}

func TestEventsReturnsCopy(t *testing.T) {
	s := newTestSession(Options{})
	s.SetEvents([]domain.CalendarEvent{{ID: "1", Title: "A", Time: "10:00"}})

	events := s.Events()
	events[0].Title = "changed"
	if s.Events()[0].Title != "A" {
		t.Fatal("Events must not expose internal storage")
	}
}

func TestSetEventsSorts(t *testing.T) {
	s := newTestSession(Options{})
	s.SetEvents([]domain.CalendarEvent{{ID: "2", Time: "12:00"}, {ID: "1", Time: "08:00"}})
	if s.Events()[0].ID != "1" {
		t.Fatalf("events not sorted: %+v", s.Events())
	}
}

func TestConnected(t *testing.T) {
	now := fixedNow()
	valid := &authdomain.TokenBundle{AccessToken: "ya29", ExpiresIn: 3600, Timestamp: now.UnixMilli()}

	if !newTestSession(Options{Token: valid}).Connected() {
		t.Error("valid token should connect")
	}
	if newTestSession(Options{Token: valid, Demo: true}).Connected() {
		t.Error("demo session must never connect")
	}
	if newTestSession(Options{}).Connected() {
		t.Error("missing token should not connect")
	}
	stale := &authdomain.TokenBundle{AccessToken: "ya29", ExpiresIn: 3600, Timestamp: now.Add(-56 * time.Minute).UnixMilli()}
	if newTestSession(Options{Token: stale}).Connected() {
		t.Error("token inside the expiry margin should not connect")
	}
}

func TestToday(t *testing.T) {
	s := newTestSession(Options{})
	if s.Today() != "2026-10-19" {
		t.Fatalf("today = %s", s.Today())
	}
}

func TestSuggestions(t *testing.T) {
	s := newTestSession(Options{})
	s.SetSuggestions([]domain.Suggestion{{ID: "sched-done"}})
	s.AddSuggestions(domain.Suggestion{ID: "bd-1-0"})

	if _, ok := s.Suggestion("bd-1-0"); !ok {
		t.Fatal("expected to find suggestion")
	}
	if !s.RemoveSuggestion("sched-done") || s.RemoveSuggestion("sched-done") {
		t.Fatal("remove should succeed exactly once")
	}
	if got := s.Suggestions(); len(got) != 1 || got[0].ID != "bd-1-0" {
		t.Fatalf("unexpected suggestions %+v", got)
	}
}

func TestStore(t *testing.T) {
	st := NewStore()
	var deleted []string
	st.OnDelete(func(s *Session) { deleted = append(deleted, s.ID) })

	st.Add(newTestSession(Options{}))
	if _, err := st.Get("s1"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(st.All()) != 1 {
		t.Fatal("expected one session")
	}

	st.Delete("s1")
	st.Delete("s1")
	if _, err := st.Get("s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "s1" {
		t.Fatalf("hooks ran %v", deleted)
	}
}

func TestMergeIfSettled(t *testing.T) {
	s := newTestSession(Options{})
	s.SetEvents([]domain.CalendarEvent{{ID: "a", Time: "09:00"}})
	replace := func([]domain.CalendarEvent) []domain.CalendarEvent {
		return []domain.CalendarEvent{{ID: "b", Time: "10:00"}}
	}

	mark := s.SyncMark()
	s.BeginSync()
	if _, ok := s.MergeIfSettled(mark, replace); ok {
		t.Fatal("merge must wait for in-flight writes")
	}
	s.EndSync()
	if events, ok := s.MergeIfSettled(mark, replace); ok || events[0].ID != "a" {
		t.Fatalf("a snapshot taken before a write finished must be dropped, got %+v ok=%v", events, ok)
	}

	events, ok := s.MergeIfSettled(s.SyncMark(), replace)
	if !ok || len(events) != 1 || events[0].ID != "b" {
		t.Fatalf("settled merge = %+v ok=%v", events, ok)
	}
}
