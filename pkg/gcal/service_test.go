package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClientWithEndpoint(context.Background(), srv.Client(), srv.URL+"/", "primary")
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestListEventsConvertsAndSkipsCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("singleEvents") != "true" || r.URL.Query().Get("orderBy") != "startTime" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"e1","summary":"Gym","start":{"dateTime":"2026-10-19T13:00:00Z"},"end":{"dateTime":"2026-10-19T13:45:00Z"}},
			{"id":"e2","summary":"Holiday","start":{"date":"2026-10-19"},"end":{"date":"2026-10-20"}},
			{"id":"e3","status":"cancelled","summary":"Gone","start":{"dateTime":"2026-10-19T15:00:00Z"}}
		]}`))
	})

	from := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	events, err := c.ListEvents(context.Background(), from, from.AddDate(0, 0, 28))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != "e1" || events[0].Title != "Gym" || events[0].End.Sub(events[0].Start) != 45*time.Minute {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if !events[1].AllDay || events[1].Start.Format("2006-01-02") != "2026-10-19" {
		t.Errorf("unexpected all-day event %+v", events[1])
	}
}

func TestCreateEventSendsRecurrence(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Summary string `json:"summary"`
			Start   struct {
				DateTime string `json:"dateTime"`
				TimeZone string `json:"timeZone"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
			} `json:"end"`
			Recurrence []string `json:"recurrence"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if body.Summary != "Class" || body.Start.TimeZone != "UTC" {
			t.Errorf("unexpected body %+v", body)
		}
		if body.End.DateTime != "2026-10-20T21:00:00Z" {
			t.Errorf("end = %s", body.End.DateTime)
		}
		if len(body.Recurrence) != 1 || body.Recurrence[0] != "RRULE:FREQ=WEEKLY;BYDAY=TU,TH;COUNT=8" {
			t.Errorf("recurrence = %v", body.Recurrence)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"remote-42"}`))
	})

	id, err := c.CreateEvent(context.Background(), EventInput{
		Title:      "Class",
		Start:      time.Date(2026, 10, 20, 18, 0, 0, 0, time.UTC),
		Duration:   180,
		TimeZone:   "UTC",
		Recurrence: []string{"RRULE:FREQ=WEEKLY;BYDAY=TU,TH;COUNT=8"},
	})
	if err != nil || id != "remote-42" {
		t.Fatalf("CreateEvent = %q, %v", id, err)
	}
}

func TestDeleteEventToleratesGone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.NotFound(w, r)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/events/gone"):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusGone)
			_, _ = w.Write([]byte(`{"error":{"code":410,"message":"Resource has been deleted"}}`))
		case strings.HasSuffix(r.URL.Path, "/events/broken"):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend error"}}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	if err := c.DeleteEvent(context.Background(), "ok"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := c.DeleteEvent(context.Background(), "gone"); err != nil {
		t.Errorf("410 should be treated as deleted, got %v", err)
	}
	if err := c.DeleteEvent(context.Background(), "broken"); err == nil {
		t.Error("expected error for 500")
	}
}

func TestAuthURLRequestsOfflineAccess(t *testing.T) {
	s := NewService("id.apps.googleusercontent.com", "secret", "http://localhost:5173", "")
	u := s.AuthURL("state-1")
	for _, want := range []string{"access_type=offline", "state=state-1", "calendar.events"} {
		if !strings.Contains(u, want) {
			t.Errorf("auth url %s missing %s", u, want)
		}
	}
	if !s.Configured() {
		t.Error("expected configured service")
	}
}
