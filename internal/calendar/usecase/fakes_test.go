package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	authdomain "kaisey-backend/internal/auth/domain"
	"kaisey-backend/internal/calendar/repository"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/gcal"
)

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type fakeRemote struct {
	mu        sync.Mutex
	calls     []string
	created   []gcal.EventInput
	nextID    int
	events    []gcal.Event
	listErr   error
	createErr error
	deleteErr error
}

func (f *fakeRemote) ListEvents(ctx context.Context, from, to time.Time) ([]gcal.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	return f.events, f.listErr
}

func (f *fakeRemote) CreateEvent(ctx context.Context, in gcal.EventInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create:"+in.Title)
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, in)
	f.nextID++
	return fmt.Sprintf("g%d", f.nextID), nil
}

func (f *fakeRemote) DeleteEvent(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete:"+id)
	return f.deleteErr
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeFactory struct {
	remote *fakeRemote
}

func (f *fakeFactory) ForSession(ctx context.Context, sess *session.Session) (repository.RemoteCalendar, error) {
	if !sess.Connected() {
		return nil, repository.ErrNotConnected
	}
	return f.remote, nil
}

type sentEvent struct {
	userID string
	event  string
	data   interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (n *fakeNotifier) SendToUser(userID, event string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEvent{userID, event, data})
}

func (n *fakeNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.event
	}
	return out
}

func connectedSession(key string) *session.Session {
	return session.New("s1", "u1", session.Options{
		Token:     &authdomain.TokenBundle{AccessToken: "at", ExpiresIn: 3600, Timestamp: testNow.UnixMilli()},
		OpenAIKey: key,
		Location:  time.UTC,
		Now:       func() time.Time { return testNow },
	})
}

func demoSession(key string) *session.Session {
	return session.New("s2", "u2", session.Options{
		Demo:      true,
		OpenAIKey: key,
		Location:  time.UTC,
		Now:       func() time.Time { return testNow },
	})
}
