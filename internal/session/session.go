// Package session holds the per-login state of a user: profile, calendar
// credential, AI key, the current event list and suggestions.
package session

import (
	"strconv"
	"sync"
	"time"

	authdomain "kaisey-backend/internal/auth/domain"
	"kaisey-backend/internal/calendar/domain"
)

// Options configures a new Session
type Options struct {
	Demo      bool
	Profile   authdomain.Profile
	Token     *authdomain.TokenBundle
	OpenAIKey string
	Location  *time.Location
	Now       func() time.Time
}

// Session is created at login and destroyed at logout. All fields behind mu
// are only reachable through methods.
type Session struct {
	ID        string
	UserID    string
	Demo      bool
	CreatedAt time.Time

	loc *time.Location
	now func() time.Time

	mu          sync.RWMutex
	profile     authdomain.Profile
	openAIKey   string
	token       *authdomain.TokenBundle
	events      []domain.CalendarEvent
	suggestions []domain.Suggestion
	tempSeq     int

	// remote writes in flight, and a counter bumped on every change to it
	syncInflight int
	syncSeq      uint64
}

// New creates a session with an empty event list
func New(id, userID string, opts Options) *Session {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Session{
		ID:          id,
		UserID:      userID,
		Demo:        opts.Demo,
		loc:         loc,
		now:         now,
		profile:     opts.Profile,
		openAIKey:   opts.OpenAIKey,
		token:       opts.Token,
		events:      make([]domain.CalendarEvent, 0),
		suggestions: make([]domain.Suggestion, 0),
	}
	s.CreatedAt = s.Now()
	return s
}

// Now returns the current time in the session's location
func (s *Session) Now() time.Time {
	return s.now().In(s.loc)
}

// Today returns the session's current date as YYYY-MM-DD
func (s *Session) Today() string {
	return domain.DateOf(s.Now())
}

func (s *Session) Location() *time.Location {
	return s.loc
}

func (s *Session) Profile() authdomain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *Session) SetProfile(p authdomain.Profile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
}

func (s *Session) OpenAIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openAIKey
}

func (s *Session) SetOpenAIKey(key string) {
	s.mu.Lock()
	s.openAIKey = key
	s.mu.Unlock()
}

// Token returns a copy of the calendar credential, or nil
func (s *Session) Token() *authdomain.TokenBundle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil
	}
	t := *s.token
	return &t
}

func (s *Session) SetToken(t *authdomain.TokenBundle) {
	s.mu.Lock()
	s.token = t
	s.mu.Unlock()
}

// Connected reports whether remote calendar writes should be attempted
func (s *Session) Connected() bool {
	if s.Demo {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token.Connected(s.Now())
}

// Events returns a copy of the event list in its current order
func (s *Session) Events() []domain.CalendarEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CalendarEvent, len(s.events))
	copy(out, s.events)
	return out
}

// SetEvents replaces the event list, sorted by time
func (s *Session) SetEvents(events []domain.CalendarEvent) {
	list := make([]domain.CalendarEvent, len(events))
	copy(list, events)
	domain.SortByTime(list)

	s.mu.Lock()
	s.events = list
	s.mu.Unlock()
}

// Update runs fn on the event list under the session lock and stores its
// result. fn must not call other Session methods.
func (s *Session) Update(fn func(events []domain.CalendarEvent) []domain.CalendarEvent) []domain.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := make([]domain.CalendarEvent, len(s.events))
	copy(current, s.events)
	s.events = fn(current)

	out := make([]domain.CalendarEvent, len(s.events))
	copy(out, s.events)
	return out
}

// NextTempID returns a fresh local-<n> id, unique within the session
func (s *Session) NextTempID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempSeq++
	return domain.TempIDPrefix + strconv.Itoa(s.tempSeq)
}

// PromoteID rewrites a temporary id to the remote one in place and marks the
// event synced. It returns false when the event no longer exists.
func (s *Session) PromoteID(tempID, remoteID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == tempID {
			s.events[i].ID = remoteID
			s.events[i].SyncStatus = domain.SyncStatusSynced
			return true
		}
	}
	return false
}

// BeginSync records a remote write in flight. Every call must be matched by
// EndSync.
func (s *Session) BeginSync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncInflight++
	s.syncSeq++
}

func (s *Session) EndSync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncInflight > 0 {
		s.syncInflight--
	}
	s.syncSeq++
}

// SyncMark returns a marker to pass to MergeIfSettled
func (s *Session) SyncMark() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncSeq
}

// MergeIfSettled runs fn like Update, but only when no remote write is in
// flight and none started or finished since mark was taken. ok reports
// whether fn ran.
func (s *Session) MergeIfSettled(mark uint64, fn func(events []domain.CalendarEvent) []domain.CalendarEvent) (events []domain.CalendarEvent, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncInflight == 0 && s.syncSeq == mark {
		current := make([]domain.CalendarEvent, len(s.events))
		copy(current, s.events)
		s.events = fn(current)
		ok = true
	}
	events = make([]domain.CalendarEvent, len(s.events))
	copy(events, s.events)
	return events, ok
}

// SetSyncStatus updates the sync status of the event with id
func (s *Session) SetSyncStatus(id string, status domain.SyncStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID == id {
			s.events[i].SyncStatus = status
			return true
		}
	}
	return false
}

// Suggestions returns a copy of the current suggestions
func (s *Session) Suggestions() []domain.Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Suggestion, len(s.suggestions))
	copy(out, s.suggestions)
	return out
}

func (s *Session) SetSuggestions(list []domain.Suggestion) {
	out := make([]domain.Suggestion, len(list))
	copy(out, list)
	s.mu.Lock()
	s.suggestions = out
	s.mu.Unlock()
}

// AddSuggestions appends to the current suggestions
func (s *Session) AddSuggestions(list ...domain.Suggestion) {
	s.mu.Lock()
	s.suggestions = append(s.suggestions, list...)
	s.mu.Unlock()
}

// Suggestion looks up a suggestion by id
func (s *Session) Suggestion(id string) (domain.Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sg := range s.suggestions {
		if sg.ID == id {
			return sg, true
		}
	}
	return domain.Suggestion{}, false
}

// RemoveSuggestion drops the suggestion with id and reports whether it existed
func (s *Session) RemoveSuggestion(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sg := range s.suggestions {
		if sg.ID == id {
			s.suggestions = append(s.suggestions[:i], s.suggestions[i+1:]...)
			return true
		}
	}
	return false
}
