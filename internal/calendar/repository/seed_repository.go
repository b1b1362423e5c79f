package repository

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"kaisey-backend/internal/calendar/classifier"
	"kaisey-backend/internal/calendar/domain"
)

// SeedEvent is one entry of a demo events file
type SeedEvent struct {
	Title    string `yaml:"title"`
	Time     string `yaml:"time"`
	Duration int    `yaml:"duration"`
	Type     string `yaml:"type,omitempty"`
}

var defaultSeed = []SeedEvent{
	{Title: "Corporate Finance", Time: "08:00", Duration: 90, Type: "class"},
	{Title: "Coffee Chat: Sarah (McKinsey)", Time: "10:15", Duration: 45, Type: "networking"},
	{Title: "Strategy Canvas Quiz", Time: "11:00", Duration: 60, Type: "class"},
	{Title: "Goldman Sachs Info Session", Time: "12:00", Duration: 60, Type: "recruiting"},
	{Title: "Gym Session", Time: "13:00", Duration: 45, Type: "workout"},
}

type seedRepository struct {
	path string
}

// NewSeedRepository returns the demo events. When path is empty the built-in
// schedule is used, otherwise path is read as a YAML list on every call.
func NewSeedRepository(path string) SeedRepository {
	return &seedRepository{path: path}
}

func (r *seedRepository) DemoEvents(date string) ([]domain.CalendarEvent, error) {
	seed := defaultSeed
	if r.path != "" {
		loaded, err := LoadSeedFile(r.path)
		if err != nil {
			return nil, err
		}
		seed = loaded
	}
	return seedToEvents(seed, date)
}

// LoadSeedFile parses a YAML demo events file
func LoadSeedFile(path string) ([]SeedEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read demo events file: %w", err)
	}
	var seed []SeedEvent
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse demo events file: %w", err)
	}
	return seed, nil
}

func seedToEvents(seed []SeedEvent, date string) ([]domain.CalendarEvent, error) {
	events := make([]domain.CalendarEvent, 0, len(seed))
	for i, s := range seed {
		if _, err := domain.ParseClock(s.Time); err != nil {
			return nil, fmt.Errorf("demo event %d: %w", i+1, err)
		}
		if s.Duration <= 0 {
			return nil, fmt.Errorf("demo event %d: duration must be positive", i+1)
		}

		e := domain.CalendarEvent{
			ID:         strconv.Itoa(i + 1),
			Title:      s.Title,
			Time:       s.Time,
			Date:       date,
			Duration:   s.Duration,
			SyncStatus: domain.SyncStatusLocal,
		}
		if t := domain.EventType(s.Type); t.Valid() {
			e.Type = t
			e.Color = classifier.ColorFor(t)
		} else {
			classifier.Apply(&e)
		}
		events = append(events, e)
	}
	domain.SortByTime(events)
	return events, nil
}
