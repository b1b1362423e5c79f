package repository

import (
	"os"
	"path/filepath"
	"testing"

	"kaisey-backend/internal/calendar/domain"
)

func TestDefaultDemoEvents(t *testing.T) {
	events, err := NewSeedRepository("").DemoEvents("2026-10-19")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	quiz := events[2]
	if quiz.Title != "Strategy Canvas Quiz" || quiz.Type != domain.EventTypeClass || quiz.Color != "bg-blue-500" {
		t.Errorf("unexpected quiz event %+v", quiz)
	}
	for _, e := range events {
		if e.Date != "2026-10-19" || e.SyncStatus != domain.SyncStatusLocal {
			t.Errorf("unexpected event %+v", e)
		}
	}
}

func TestDemoEventsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	content := `
- title: Deep Work
  time: "14:00"
  duration: 120
- title: Yoga
  time: "07:30"
  duration: 30
  type: not-a-type
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	events, err := NewSeedRepository(path).DemoEvents("2026-10-19")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].Title != "Yoga" {
		t.Fatalf("expected events sorted by time, got %+v", events)
	}
	if events[0].Type != domain.EventTypeWorkout || events[1].Type != domain.EventTypeStudy {
		t.Errorf("types should fall back to the classifier: %+v", events)
	}
}

func TestDemoEventsFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewSeedRepository(filepath.Join(dir, "missing.yaml")).DemoEvents("2026-10-19"); err == nil {
		t.Error("expected error for a missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("- title: X\n  time: 9am\n  duration: 30\n"), 0o600)
	if _, err := NewSeedRepository(bad).DemoEvents("2026-10-19"); err == nil {
		t.Error("expected error for an invalid time")
	}
}
