package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kaisey-backend/internal/calendar/classifier"
	"kaisey-backend/internal/calendar/detector"
	"kaisey-backend/internal/calendar/domain"
	"kaisey-backend/internal/calendar/repository"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/ai"
	"kaisey-backend/pkg/gcal"
)

const (
	// pullWindow is how far before and after today remote events are loaded
	pullWindow = 14 * 24 * time.Hour

	defaultRemoteDuration = 60
	untitledEvent         = "Untitled Event"
	maxPreviewOccurrences = 52
)

var (
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrInvalidRecurrence  = errors.New("invalid recurrence")
)

// CalendarUsecase defines the calendar business logic interface
type CalendarUsecase interface {
	Events(sess *session.Session, date string) []domain.CalendarEvent
	Apply(ctx context.Context, sess *session.Session, action domain.CalendarAction) ([]domain.CalendarEvent, error)
	ApplyAll(ctx context.Context, sess *session.Session, actions []domain.CalendarAction) ([]domain.CalendarEvent, error)
	Load(ctx context.Context, sess *session.Session) error
	Refresh(ctx context.Context, sess *session.Session) error
	Suggestions(sess *session.Session) []domain.Suggestion
	Redetect(sess *session.Session)
	AcceptSuggestion(ctx context.Context, sess *session.Session, id string) ([]domain.CalendarEvent, error)
	DismissSuggestion(sess *session.Session, id string) error
	AddPlannerSuggestions(sess *session.Session, suggestions []domain.Suggestion) []domain.Suggestion
	PreviewRecurrence(sess *session.Session, date, clock string, rec domain.Recurrence, limit int) ([]time.Time, error)
}

type calendarUsecase struct {
	reconciler *Reconciler
	remotes    repository.RemoteCalendarFactory
	seeds      repository.SeedRepository
}

// NewCalendarUsecase creates a new calendar usecase instance
func NewCalendarUsecase(reconciler *Reconciler, remotes repository.RemoteCalendarFactory, seeds repository.SeedRepository) CalendarUsecase {
	return &calendarUsecase{
		reconciler: reconciler,
		remotes:    remotes,
		seeds:      seeds,
	}
}

// Events returns the session's events, limited to date when it is set
func (u *calendarUsecase) Events(sess *session.Session, date string) []domain.CalendarEvent {
	events := sess.Events()
	if date == "" {
		return events
	}
	return domain.OnDate(events, date)
}

func (u *calendarUsecase) Apply(ctx context.Context, sess *session.Session, action domain.CalendarAction) ([]domain.CalendarEvent, error) {
	events, err := u.reconciler.Apply(ctx, sess, action)
	if err != nil {
		return events, err
	}
	u.Redetect(sess)
	return events, nil
}

// ApplyAll applies actions in order. Actions whose target no longer exists
// are skipped; any other error stops the replay.
func (u *calendarUsecase) ApplyAll(ctx context.Context, sess *session.Session, actions []domain.CalendarAction) ([]domain.CalendarEvent, error) {
	events := sess.Events()
	for _, action := range actions {
		next, err := u.reconciler.Apply(ctx, sess, action)
		if errors.Is(err, ErrEventNotFound) {
			log.Printf("[Calendar] Skipping %s %q: %v", action.Type, action.Event.Title, err)
			continue
		}
		if err != nil {
			u.Redetect(sess)
			return next, err
		}
		events = next
	}
	u.Redetect(sess)
	return events, nil
}

// Load fills a fresh session: remote events for connected sessions, demo
// events otherwise or when the remote pull fails
func (u *calendarUsecase) Load(ctx context.Context, sess *session.Session) error {
	if sess.Connected() && u.remotes != nil {
		events, err := u.pull(ctx, sess)
		if err == nil {
			sess.SetEvents(events)
			log.Printf("[Calendar] Loaded %d remote events for session %s", len(events), sess.ID)
			u.Redetect(sess)
			return nil
		}
		log.Printf("[Calendar] Remote pull failed for session %s, using demo events: %v", sess.ID, err)
	}

	events, err := u.seeds.DemoEvents(sess.Today())
	if err != nil {
		return fmt.Errorf("failed to load demo events: %w", err)
	}
	sess.SetEvents(events)
	u.Redetect(sess)
	return nil
}

// Refresh re-pulls remote events. Local events that have no remote
// counterpart yet are kept. The snapshot is discarded when a remote write was
// queued or finished during the pull; the next refresh picks it up.
func (u *calendarUsecase) Refresh(ctx context.Context, sess *session.Session) error {
	if !sess.Connected() || u.remotes == nil {
		u.Redetect(sess)
		return nil
	}

	mark := sess.SyncMark()
	remote, err := u.pull(ctx, sess)
	if err != nil {
		return err
	}
	_, ok := sess.MergeIfSettled(mark, func(current []domain.CalendarEvent) []domain.CalendarEvent {
		merged := remote
		for _, e := range current {
			if !e.HasRemoteID() {
				merged = append(merged, e)
			}
		}
		domain.SortByTime(merged)
		return merged
	})
	if !ok {
		log.Printf("[Calendar] Session %s has remote writes in flight, keeping local events", sess.ID)
	}
	u.Redetect(sess)
	return nil
}

func (u *calendarUsecase) pull(ctx context.Context, sess *session.Session) ([]domain.CalendarEvent, error) {
	client, err := u.remotes.ForSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	now := sess.Now()
	remote, err := client.ListEvents(ctx, now.Add(-pullWindow), now.Add(pullWindow))
	if err != nil {
		return nil, err
	}

	events := make([]domain.CalendarEvent, 0, len(remote))
	for _, r := range remote {
		events = append(events, fromRemote(r, sess.Location()))
	}
	domain.SortByTime(events)
	return events, nil
}

func fromRemote(r gcal.Event, loc *time.Location) domain.CalendarEvent {
	start := r.Start.In(loc)
	duration := defaultRemoteDuration
	if !r.End.IsZero() {
		if d := int(r.End.Sub(r.Start).Minutes()); d > 0 {
			duration = d
		}
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = untitledEvent
	}

	e := domain.CalendarEvent{
		ID:         r.ID,
		Title:      title,
		Time:       domain.ClockOf(start),
		Date:       domain.DateOf(start),
		Duration:   duration,
		SyncStatus: domain.SyncStatusSynced,
	}
	classifier.Apply(&e)
	return e
}

func (u *calendarUsecase) Suggestions(sess *session.Session) []domain.Suggestion {
	return sess.Suggestions()
}

// Redetect regenerates the detector suggestions for today. Without a valid
// AI key only planner suggestions are kept.
func (u *calendarUsecase) Redetect(sess *session.Session) {
	var planner []domain.Suggestion
	for _, s := range sess.Suggestions() {
		if s.FromPlanner() {
			planner = append(planner, s)
		}
	}

	var list []domain.Suggestion
	if ai.ValidKey(sess.OpenAIKey()) {
		list = detector.ForDate(sess.Events(), sess.Today(), sess.Now())
	}
	sess.SetSuggestions(append(list, planner...))
}

// AcceptSuggestion replays the suggestion's actions and removes it
func (u *calendarUsecase) AcceptSuggestion(ctx context.Context, sess *session.Session, id string) ([]domain.CalendarEvent, error) {
	s, ok := sess.Suggestion(id)
	if !ok {
		return nil, ErrSuggestionNotFound
	}
	events := sess.Events()
	if len(s.Actions) > 0 {
		var err error
		events, err = u.ApplyAll(ctx, sess, s.Actions)
		if err != nil {
			return events, err
		}
	}
	sess.RemoveSuggestion(id)
	return events, nil
}

func (u *calendarUsecase) DismissSuggestion(sess *session.Session, id string) error {
	if !sess.RemoveSuggestion(id) {
		return ErrSuggestionNotFound
	}
	return nil
}

// AddPlannerSuggestions stores planner recommendations with bd-<ms>-<i> ids
func (u *calendarUsecase) AddPlannerSuggestions(sess *session.Session, suggestions []domain.Suggestion) []domain.Suggestion {
	stamp := sess.Now().UnixMilli()
	out := make([]domain.Suggestion, len(suggestions))
	for i, s := range suggestions {
		s.ID = fmt.Sprintf("%s%d-%d", domain.PlannerSuggestionPrefix, stamp, i)
		switch s.Type {
		case domain.SuggestionConflict, domain.SuggestionOptimization, domain.SuggestionAlert, domain.SuggestionSuccess:
		default:
			s.Type = domain.SuggestionOptimization
		}
		out[i] = s
	}
	sess.AddSuggestions(out...)
	return out
}

// PreviewRecurrence expands rec from date and clock in the session zone
func (u *calendarUsecase) PreviewRecurrence(sess *session.Session, date, clock string, rec domain.Recurrence, limit int) ([]time.Time, error) {
	if date == "" {
		date = sess.Today()
	}
	start, err := domain.StartTime(date, clock, sess.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}
	if limit <= 0 || limit > maxPreviewOccurrences {
		limit = maxPreviewOccurrences
	}
	out, err := rec.Occurrences(start, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
	}
	return out, nil
}
