// Package detector scans a day's events for overlaps, missing buffers and
// long blocks and proposes corrective calendar actions.
package detector

import (
	"fmt"
	"time"

	"kaisey-backend/internal/calendar/domain"
)

const (
	// BufferMinutes is the gap inserted after an overlapping or back-to-back event
	BufferMinutes = 15
	// LongBlockMinutes is the duration from which an event is suggested to be split
	LongBlockMinutes = 120
	// BreakMinutes separates the two halves of a split block
	BreakMinutes = 10
)

// DetectIssues inspects events of a single day, sorted by time. Suggestions
// come back in evaluation order: the pairwise overlap/buffer scan, then the
// long-block scan, then the all-caught-up check. Moves and splits that would
// start after 23:59 are not suggested.
func DetectIssues(today []domain.CalendarEvent, now time.Time) []domain.Suggestion {
	suggestions := make([]domain.Suggestion, 0)

	for i := 0; i+1 < len(today); i++ {
		current, next := today[i], today[i+1]
		currentEnd, err := current.EndMinutes()
		if err != nil {
			continue
		}
		nextStart, err := next.StartMinutes()
		if err != nil {
			continue
		}

		gap := nextStart - currentEnd
		switch {
		case gap < 0:
			if currentEnd+BufferMinutes >= domain.MinutesPerDay {
				continue
			}
			newTime := domain.FormatClock(currentEnd + BufferMinutes)
			suggestions = append(suggestions, domain.Suggestion{
				ID:    fmt.Sprintf("sched-overlap-%d", i),
				Type:  domain.SuggestionConflict,
				Title: "Schedule Conflict Detected",
				Description: fmt.Sprintf("%q (ends at %s) overlaps with %q (starts at %s). Accept to move %q to %s.",
					current.Title, domain.FormatClock(currentEnd), next.Title, next.Time, next.Title, newTime),
				Actions: []domain.CalendarAction{moveAction(next, newTime)},
			})
		case gap == 0:
			if nextStart+BufferMinutes >= domain.MinutesPerDay {
				continue
			}
			newTime := domain.FormatClock(nextStart + BufferMinutes)
			suggestions = append(suggestions, domain.Suggestion{
				ID:    fmt.Sprintf("sched-buffer-%d", i),
				Type:  domain.SuggestionAlert,
				Title: "No Buffer Between Events",
				Description: fmt.Sprintf("%q ends right when %q starts at %s. Accept to add a %d-min buffer (move %q to %s).",
					current.Title, next.Title, next.Time, BufferMinutes, next.Title, newTime),
				Actions: []domain.CalendarAction{moveAction(next, newTime)},
			})
		}
	}

	for _, e := range today {
		if e.Duration < LongBlockMinutes {
			continue
		}
		start, err := e.StartMinutes()
		if err != nil {
			continue
		}
		firstHalf := e.Duration / 2
		secondHalf := e.Duration - firstHalf
		secondStart := start + firstHalf + BreakMinutes
		if secondStart >= domain.MinutesPerDay {
			continue
		}
		secondTime := domain.FormatClock(secondStart)

		suggestions = append(suggestions, domain.Suggestion{
			ID:    "sched-long-" + e.ID,
			Type:  domain.SuggestionOptimization,
			Title: "Long Block: Consider a Break",
			Description: fmt.Sprintf("%q is %d min. Accept to split into %d min + %d min break + %d min (second half at %s).",
				e.Title, e.Duration, firstHalf, BreakMinutes, secondHalf, secondTime),
			Actions: []domain.CalendarAction{
				{
					Type:        domain.ActionReplace,
					Event:       domain.FieldsOf(e),
					ReplaceWith: &domain.EventFields{Title: e.Title, Time: e.Time, Duration: firstHalf},
				},
				{
					Type:  domain.ActionAdd,
					Event: domain.EventFields{Title: e.Title + " (Part 2)", Time: secondTime, Duration: secondHalf},
				},
			},
		})
	}

	if len(today) > 0 && !hasUpcoming(today, domain.ClockOf(now)) {
		suggestions = append(suggestions, domain.Suggestion{
			ID:          "sched-done",
			Type:        domain.SuggestionSuccess,
			Title:       "All Events Complete",
			Description: "You've finished all your scheduled events for today. Use the brain dump planner if you have more tasks to tackle.",
		})
	}

	return suggestions
}

// ForDate filters events to date, sorts them and runs DetectIssues
func ForDate(events []domain.CalendarEvent, date string, now time.Time) []domain.Suggestion {
	return DetectIssues(domain.OnDate(events, date), now)
}

func hasUpcoming(events []domain.CalendarEvent, nowClock string) bool {
	for _, e := range events {
		if e.Time > nowClock {
			return true
		}
	}
	return false
}

func moveAction(e domain.CalendarEvent, newTime string) domain.CalendarAction {
	return domain.CalendarAction{
		Type:        domain.ActionReplace,
		Event:       domain.FieldsOf(e),
		ReplaceWith: &domain.EventFields{Title: e.Title, Time: newTime, Duration: e.Duration},
	}
}
