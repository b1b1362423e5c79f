package domain

import (
	"sort"
	"strings"
)

// EventType is the category of a calendar event, derived from its title
type EventType string

const (
	EventTypeClass      EventType = "class"
	EventTypeMeeting    EventType = "meeting"
	EventTypeStudy      EventType = "study"
	EventTypeWorkout    EventType = "workout"
	EventTypeNetworking EventType = "networking"
	EventTypeRecruiting EventType = "recruiting"
)

// Valid reports whether t is one of the known categories
func (t EventType) Valid() bool {
	switch t {
	case EventTypeClass, EventTypeMeeting, EventTypeStudy, EventTypeWorkout, EventTypeNetworking, EventTypeRecruiting:
		return true
	}
	return false
}

// SyncStatus tracks the remote calendar state of a single event
type SyncStatus string

const (
	SyncStatusLocal   SyncStatus = "local"   // no remote counterpart expected
	SyncStatusPending SyncStatus = "pending" // remote write queued
	SyncStatusSynced  SyncStatus = "synced"  // id is a remote id
	SyncStatusFailed  SyncStatus = "failed"  // remote write failed, never retried
)

// TempIDPrefix prefixes ids assigned locally before a remote id is known
const TempIDPrefix = "local-"

// CalendarEvent is one occurrence on the user's schedule
type CalendarEvent struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Time       string     `json:"time"` // HH:MM, 24h, local zone
	Date       string     `json:"date"` // YYYY-MM-DD, local zone
	Duration   int        `json:"duration"`
	Type       EventType  `json:"type"`
	Color      string     `json:"color"`
	SyncStatus SyncStatus `json:"sync_status"`
}

// IsTempID reports whether id was generated locally
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// HasRemoteID reports whether the event id refers to an event in the remote calendar
func (e CalendarEvent) HasRemoteID() bool {
	return e.ID != "" && !IsTempID(e.ID) && e.SyncStatus == SyncStatusSynced
}

// StartMinutes returns the start as minutes after midnight
func (e CalendarEvent) StartMinutes() (int, error) {
	return ParseClock(e.Time)
}

// EndMinutes returns the end as minutes after midnight (may exceed 24h)
func (e CalendarEvent) EndMinutes() (int, error) {
	start, err := ParseClock(e.Time)
	if err != nil {
		return 0, err
	}
	return start + e.Duration, nil
}

// SortByTime orders events by their HH:MM start. Zero-padded times sort
// correctly as strings; ties keep their insertion order.
func SortByTime(events []CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
}

// OnDate returns the events of a single date, sorted by time
func OnDate(events []CalendarEvent, date string) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.Date == date {
			out = append(out, e)
		}
	}
	SortByTime(out)
	return out
}
