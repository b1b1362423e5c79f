package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency is the repeat unit of a Recurrence
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Recurrence describes a repeating event. Count wins over Until when both are set.
type Recurrence struct {
	Frequency  Frequency `json:"frequency"`
	Interval   int       `json:"interval,omitempty"`
	DaysOfWeek []string  `json:"days_of_week,omitempty"` // MO, TU, ...
	Until      string    `json:"until,omitempty"`        // YYYY-MM-DD
	Count      int       `json:"count,omitempty"`
}

// RRule renders the recurrence as a single RFC 5545 RRULE line, e.g.
// RRULE:FREQ=WEEKLY;BYDAY=TU,TH;COUNT=8
func (r Recurrence) RRule() (string, error) {
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return "", fmt.Errorf("unsupported frequency %q", r.Frequency)
	}

	var b strings.Builder
	b.WriteString("RRULE:FREQ=")
	b.WriteString(strings.ToUpper(string(r.Frequency)))

	if r.Interval > 1 {
		b.WriteString(";INTERVAL=")
		b.WriteString(strconv.Itoa(r.Interval))
	}

	if len(r.DaysOfWeek) > 0 {
		days := make([]string, len(r.DaysOfWeek))
		for i, d := range r.DaysOfWeek {
			days[i] = strings.ToUpper(strings.TrimSpace(d))
		}
		b.WriteString(";BYDAY=")
		b.WriteString(strings.Join(days, ","))
	}

	if r.Count > 0 {
		b.WriteString(";COUNT=")
		b.WriteString(strconv.Itoa(r.Count))
	} else if r.Until != "" {
		b.WriteString(";UNTIL=")
		b.WriteString(strings.ReplaceAll(r.Until, "-", ""))
	}

	rule := b.String()
	if _, err := rrule.StrToROption(rule); err != nil {
		return "", fmt.Errorf("invalid recurrence %q: %w", rule, err)
	}
	return rule, nil
}

// Occurrences expands the recurrence from start and returns at most limit
// start times. An UNTIL date includes the whole day.
func (r Recurrence) Occurrences(start time.Time, limit int) ([]time.Time, error) {
	if limit <= 0 {
		return nil, nil
	}
	rule, err := r.RRule()
	if err != nil {
		return nil, err
	}
	opt, err := rrule.StrToROptionInLocation(rule, start.Location())
	if err != nil {
		return nil, err
	}
	opt.Dtstart = start
	if !opt.Until.IsZero() {
		opt.Until = opt.Until.Add(24*time.Hour - time.Second)
	}

	rr, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, 0, limit)
	next := rr.Iterator()
	for len(out) < limit {
		t, ok := next()
		if !ok {
			break
		}
		out = append(out, t)
	}
	return out, nil
}
