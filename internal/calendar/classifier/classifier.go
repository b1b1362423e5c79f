// Package classifier derives an event category and display color from its title.
package classifier

import (
	"strings"

	"kaisey-backend/internal/calendar/domain"
)

// DefaultType is used when no keyword group matches.
const DefaultType = domain.EventTypeMeeting

// Classification is the derived category of an event
type Classification struct {
	Type  domain.EventType `json:"type"`
	Color string           `json:"color"`
}

type keywordGroup struct {
	eventType domain.EventType
	keywords  []string
}

// Groups are checked in order; the first group with a matching keyword wins.
var groups = []keywordGroup{
	{domain.EventTypeWorkout, []string{"gym", "yoga", "meditation", "workout", "exercise"}},
	{domain.EventTypeClass, []string{"class", "lecture", "course"}},
	{domain.EventTypeStudy, []string{"study", "prep", "homework", "focus", "deep work", "buffer"}},
	{domain.EventTypeNetworking, []string{"coffee", "lunch", "follow-up", "network", "chat"}},
	{domain.EventTypeRecruiting, []string{"recruit", "interview", "info session", "goldman"}},
}

var colors = map[domain.EventType]string{
	domain.EventTypeClass:      "bg-blue-500",
	domain.EventTypeMeeting:    "bg-purple-500",
	domain.EventTypeStudy:      "bg-indigo-500",
	domain.EventTypeWorkout:    "bg-green-500",
	domain.EventTypeNetworking: "bg-orange-500",
	domain.EventTypeRecruiting: "bg-red-500",
}

// Classify maps a title to its category and color
func Classify(title string) Classification {
	lower := strings.ToLower(title)
	for _, g := range groups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return Classification{Type: g.eventType, Color: colors[g.eventType]}
			}
		}
	}
	return Classification{Type: DefaultType, Color: colors[DefaultType]}
}

// ColorFor returns the display color of t, falling back to the default type's color
func ColorFor(t domain.EventType) string {
	if c, ok := colors[t]; ok {
		return c
	}
	return colors[DefaultType]
}

// Apply sets Type and Color on e from its title
func Apply(e *domain.CalendarEvent) {
	c := Classify(e.Title)
	e.Type = c.Type
	e.Color = c.Color
}
