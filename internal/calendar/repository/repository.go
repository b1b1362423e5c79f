package repository

import (
	"context"
	"time"

	"kaisey-backend/internal/calendar/domain"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/gcal"
)

// RemoteCalendar is the part of the Google Calendar client the calendar
// usecases need
type RemoteCalendar interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]gcal.Event, error)
	CreateEvent(ctx context.Context, in gcal.EventInput) (string, error)
	DeleteEvent(ctx context.Context, id string) error
}

// RemoteCalendarFactory builds a RemoteCalendar authorized with the
// session's calendar credential
type RemoteCalendarFactory interface {
	ForSession(ctx context.Context, sess *session.Session) (RemoteCalendar, error)
}

// SeedRepository provides the events shown in demo mode
type SeedRepository interface {
	DemoEvents(date string) ([]domain.CalendarEvent, error)
}
