package usecase

import (
	"errors"

	"kaisey-backend/internal/calendar/classifier"
	"kaisey-backend/internal/calendar/domain"
)

// ErrEventNotFound is returned when a remove or replace matches no event.
// The event list is left unchanged.
var ErrEventNotFound = errors.New("event not found")

// SyncKind is the remote write a SyncJob performs
type SyncKind string

const (
	SyncCreate  SyncKind = "create"
	SyncDelete  SyncKind = "delete"
	SyncReplace SyncKind = "replace" // delete RemoteID, then create Event
)

// ApplyEnv carries what ApplyAction needs from the session
type ApplyEnv struct {
	Date      string        // date given to added events
	NewID     func() string // id for added or replacing events
	Connected bool          // queue remote writes
}

// ApplyResult is the outcome of ApplyAction
type ApplyResult struct {
	Events []domain.CalendarEvent
	Jobs   []SyncJob
}

// ApplyAction computes the event list after action without touching any
// shared state. current is not modified.
func ApplyAction(current []domain.CalendarEvent, action domain.CalendarAction, env ApplyEnv) (ApplyResult, error) {
	if err := action.Validate(); err != nil {
		return ApplyResult{Events: current}, err
	}

	var rrule []string
	if action.Recurrence != nil {
		line, _ := action.Recurrence.RRule() // checked by Validate
		rrule = []string{line}
	}

	events := make([]domain.CalendarEvent, len(current))
	copy(events, current)

	switch action.Type {
	case domain.ActionAdd:
		e := newEvent(action.Event, env.NewID(), env.Date, env.Connected)
		events = append(events, e)
		domain.SortByTime(events)

		result := ApplyResult{Events: events}
		if env.Connected {
			result.Jobs = []SyncJob{{Kind: SyncCreate, TempID: e.ID, Event: e, Recurrence: rrule}}
		}
		return result, nil

	case domain.ActionRemove:
		idx := FindTarget(events, action.Event)
		if idx < 0 {
			return ApplyResult{Events: current}, ErrEventNotFound
		}
		target := events[idx]
		events = append(events[:idx], events[idx+1:]...)

		result := ApplyResult{Events: events}
		if env.Connected && target.HasRemoteID() {
			result.Jobs = []SyncJob{{Kind: SyncDelete, RemoteID: target.ID, Event: target}}
		}
		return result, nil

	case domain.ActionReplace:
		idx := FindTarget(events, action.Event)
		if idx < 0 {
			return ApplyResult{Events: current}, ErrEventNotFound
		}
		target := events[idx]

		id := target.ID
		if env.Connected {
			id = env.NewID()
		}
		date := target.Date
		if date == "" {
			date = env.Date
		}
		e := newEvent(*action.ReplaceWith, id, date, env.Connected)
		events[idx] = e
		domain.SortByTime(events)

		result := ApplyResult{Events: events}
		if env.Connected {
			job := SyncJob{Kind: SyncCreate, TempID: e.ID, Event: e, Recurrence: rrule}
			if target.HasRemoteID() {
				job.Kind = SyncReplace
				job.RemoteID = target.ID
			}
			result.Jobs = []SyncJob{job}
		}
		return result, nil
	}

	return ApplyResult{Events: current}, domain.ErrInvalidAction
}

// FindTarget returns the index of the event an action refers to: the event
// with the action's id when it exists, otherwise the first event with the
// same title and time. It returns -1 when nothing matches.
func FindTarget(events []domain.CalendarEvent, f domain.EventFields) int {
	if f.ID != "" {
		for i, e := range events {
			if e.ID == f.ID {
				return i
			}
		}
	}
	for i, e := range events {
		if f.Matches(e) {
			return i
		}
	}
	return -1
}

func newEvent(f domain.EventFields, id, date string, connected bool) domain.CalendarEvent {
	e := domain.CalendarEvent{
		ID:         id,
		Title:      f.Title,
		Time:       f.Time,
		Date:       date,
		Duration:   f.Duration,
		SyncStatus: domain.SyncStatusLocal,
	}
	if connected {
		e.SyncStatus = domain.SyncStatusPending
	}
	classifier.Apply(&e)
	return e
}
