package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ActionType is the kind of mutation a CalendarAction requests
type ActionType string

const (
	ActionAdd     ActionType = "add"
	ActionRemove  ActionType = "remove"
	ActionReplace ActionType = "replace"
)

// ErrInvalidAction is returned for actions that fail validation
var ErrInvalidAction = errors.New("invalid calendar action")

// EventFields identifies or describes an event inside an action. ID is
// optional; when present and known it takes precedence over (Title, Time).
type EventFields struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
}

// CalendarAction is a requested mutation of the event list
type CalendarAction struct {
	Type        ActionType   `json:"type"`
	Event       EventFields  `json:"event"`
	ReplaceWith *EventFields `json:"replace_with,omitempty"`
	Recurrence  *Recurrence  `json:"recurrence,omitempty"`
}

// Validate checks the action shape before it is applied
func (a CalendarAction) Validate() error {
	switch a.Type {
	case ActionAdd:
		if err := a.Event.validateNew(); err != nil {
			return err
		}
	case ActionRemove:
		if err := a.Event.validateTarget(); err != nil {
			return err
		}
	case ActionReplace:
		if err := a.Event.validateTarget(); err != nil {
			return err
		}
		if a.ReplaceWith == nil {
			return fmt.Errorf("%w: replace requires replace_with", ErrInvalidAction)
		}
		if err := a.ReplaceWith.validateNew(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}

	if a.Recurrence != nil {
		if a.Type == ActionRemove {
			return fmt.Errorf("%w: remove does not take a recurrence", ErrInvalidAction)
		}
		if _, err := a.Recurrence.RRule(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
	}
	return nil
}

func (f EventFields) validateNew() error {
	if strings.TrimSpace(f.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidAction)
	}
	if _, err := ParseClock(f.Time); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	if f.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidAction)
	}
	return nil
}

func (f EventFields) validateTarget() error {
	if f.ID != "" {
		return nil
	}
	if f.Title == "" || f.Time == "" {
		return fmt.Errorf("%w: target needs an id or a title and time", ErrInvalidAction)
	}
	return nil
}

// Matches reports whether e is the target described by f using the
// (title, time) value key
func (f EventFields) Matches(e CalendarEvent) bool {
	return e.Title == f.Title && e.Time == f.Time
}

// FieldsOf returns the action fields describing e
func FieldsOf(e CalendarEvent) EventFields {
	return EventFields{ID: e.ID, Title: e.Title, Time: e.Time, Duration: e.Duration}
}
