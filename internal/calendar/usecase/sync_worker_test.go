package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"kaisey-backend/internal/calendar/domain"
)

func newWorker(remote *fakeRemote, notifier *fakeNotifier) *SyncWorker {
	w := NewSyncWorker(&fakeFactory{remote: remote}, notifier, 0)
	w.Start()
	return w
}

func TestReconcilerPromotesCreatedEvent(t *testing.T) {
	remote := &fakeRemote{}
	notifier := &fakeNotifier{}
	worker := newWorker(remote, notifier)
	defer worker.Stop()

	sess := connectedSession("")
	r := NewReconciler(worker)

	events, err := r.Apply(context.Background(), sess, domain.CalendarAction{
		Type:  domain.ActionAdd,
		Event: domain.EventFields{Title: "Valuation Prep", Time: "15:00", Duration: 120},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].ID != "local-1" || events[0].SyncStatus != domain.SyncStatusPending {
		t.Fatalf("expected pending temp event, got %+v", events[0])
	}

	worker.Wait()

	got := sess.Events()
	if got[0].ID != "g1" || got[0].SyncStatus != domain.SyncStatusSynced {
		t.Fatalf("expected promoted event, got %+v", got[0])
	}
	if in := remote.created[0]; in.Duration != 120 || in.Start.Hour() != 15 || in.TimeZone != "UTC" {
		t.Fatalf("unexpected create input %+v", in)
	}
	if !reflect.DeepEqual(notifier.Events(), []string{"event_synced"}) {
		t.Fatalf("unexpected notifications %v", notifier.Events())
	}
}

func TestSyncFailureMarksEventFailed(t *testing.T) {
	remote := &fakeRemote{createErr: errors.New("boom")}
	notifier := &fakeNotifier{}
	worker := newWorker(remote, notifier)
	defer worker.Stop()

	sess := connectedSession("")
	r := NewReconciler(worker)
	_, _ = r.Apply(context.Background(), sess, domain.CalendarAction{
		Type:  domain.ActionAdd,
		Event: domain.EventFields{Title: "Focus", Time: "15:00", Duration: 30},
	})
	worker.Wait()

	got := sess.Events()
	if got[0].ID != "local-1" || got[0].SyncStatus != domain.SyncStatusFailed {
		t.Fatalf("expected failed event, got %+v", got[0])
	}
	if calls := remote.Calls(); len(calls) != 1 {
		t.Fatalf("failed jobs must not be retried, calls %v", calls)
	}
	if !reflect.DeepEqual(notifier.Events(), []string{"event_sync_failed"}) {
		t.Fatalf("unexpected notifications %v", notifier.Events())
	}
}

func TestReplaceDeletesThenCreates(t *testing.T) {
	remote := &fakeRemote{nextID: 10}
	worker := newWorker(remote, nil)
	defer worker.Stop()

	sess := connectedSession("")
	sess.SetEvents(seeded())
	r := NewReconciler(worker)

	_, err := r.Apply(context.Background(), sess, domain.CalendarAction{
		Type:        domain.ActionReplace,
		Event:       domain.EventFields{ID: "g2", Title: "Gym Session", Time: "13:00"},
		ReplaceWith: &domain.EventFields{Title: "Gym Session", Time: "06:00", Duration: 45},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	worker.Wait()

	if want := []string{"delete:g2", "create:Gym Session"}; !reflect.DeepEqual(remote.Calls(), want) {
		t.Fatalf("calls = %v, want %v", remote.Calls(), want)
	}
	got := sess.Events()
	if got[0].ID != "g11" || got[0].Time != "06:00" || got[0].SyncStatus != domain.SyncStatusSynced {
		t.Fatalf("unexpected events %+v", got)
	}
}

func TestRemoteFailureNeverRollsBack(t *testing.T) {
	remote := &fakeRemote{deleteErr: errors.New("boom")}
	worker := newWorker(remote, nil)
	defer worker.Stop()

	sess := connectedSession("")
	sess.SetEvents(seeded())
	_, err := NewReconciler(worker).Apply(context.Background(), sess, domain.CalendarAction{
		Type:  domain.ActionRemove,
		Event: domain.EventFields{Title: "Corporate Finance", Time: "08:00"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	worker.Wait()

	if got := sess.Events(); len(got) != 1 || got[0].ID != "g2" {
		t.Fatalf("local removal must stand, got %+v", got)
	}
}

func TestRemovedBeforeSyncDeletesRemoteCopy(t *testing.T) {
	remote := &fakeRemote{}
	notifier := &fakeNotifier{}
	worker := NewSyncWorker(&fakeFactory{remote: remote}, notifier, 0)

	sess := connectedSession("")
	r := NewReconciler(worker)
	ctx := context.Background()
	_, _ = r.Apply(ctx, sess, domain.CalendarAction{Type: domain.ActionAdd, Event: domain.EventFields{Title: "Focus", Time: "15:00", Duration: 30}})
	_, _ = r.Apply(ctx, sess, domain.CalendarAction{Type: domain.ActionRemove, Event: domain.EventFields{ID: "local-1"}})

	worker.Start()
	worker.Wait()
	worker.Stop()

	if got := sess.Events(); len(got) != 0 {
		t.Fatalf("expected no events, got %+v", got)
	}
	if want := []string{"create:Focus", "delete:g1"}; !reflect.DeepEqual(remote.Calls(), want) {
		t.Fatalf("calls = %v, want %v", remote.Calls(), want)
	}
	if !reflect.DeepEqual(notifier.Events(), []string{"event_deleted"}) {
		t.Fatalf("unexpected notifications %v", notifier.Events())
	}
}

func TestReplaceBeforeSyncLeavesOneRemoteEvent(t *testing.T) {
	remote := &fakeRemote{}
	worker := NewSyncWorker(&fakeFactory{remote: remote}, nil, 0)

	sess := connectedSession("")
	r := NewReconciler(worker)
	ctx := context.Background()
	_, _ = r.Apply(ctx, sess, domain.CalendarAction{Type: domain.ActionAdd, Event: domain.EventFields{Title: "Deep Work", Time: "13:00", Duration: 150}})
	_, err := r.Apply(ctx, sess, domain.CalendarAction{
		Type:        domain.ActionReplace,
		Event:       domain.EventFields{ID: "local-1", Title: "Deep Work", Time: "13:00"},
		ReplaceWith: &domain.EventFields{Title: "Deep Work", Time: "13:00", Duration: 75},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	worker.Start()
	worker.Wait()
	worker.Stop()

	want := []string{"create:Deep Work", "delete:g1", "create:Deep Work"}
	if !reflect.DeepEqual(remote.Calls(), want) {
		t.Fatalf("calls = %v, want %v", remote.Calls(), want)
	}
	got := sess.Events()
	if len(got) != 1 || got[0].ID != "g2" || got[0].Duration != 75 || got[0].SyncStatus != domain.SyncStatusSynced {
		t.Fatalf("unexpected events %+v", got)
	}
}

func TestDemoSessionNeverQueues(t *testing.T) {
	remote := &fakeRemote{}
	worker := newWorker(remote, nil)
	defer worker.Stop()

	sess := demoSession("")
	events, err := NewReconciler(worker).Apply(context.Background(), sess, domain.CalendarAction{
		Type:  domain.ActionAdd,
		Event: domain.EventFields{Title: "Focus", Time: "15:00", Duration: 30},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	worker.Wait()

	if events[0].SyncStatus != domain.SyncStatusLocal || len(remote.Calls()) != 0 {
		t.Fatalf("demo sessions must stay local: %+v %v", events, remote.Calls())
	}
}

func TestEnqueueAfterStopFails(t *testing.T) {
	worker := NewSyncWorker(&fakeFactory{remote: &fakeRemote{}}, nil, 0)
	worker.Start()
	worker.Stop()

	sess := connectedSession("")
	sess.SetEvents([]domain.CalendarEvent{{ID: "local-9", Title: "X", Time: "10:00", Duration: 10, SyncStatus: domain.SyncStatusPending}})
	if worker.Enqueue(SyncJob{Session: sess, Kind: SyncCreate, TempID: "local-9"}) {
		t.Fatal("enqueue after stop should fail")
	}
	if got := sess.Events()[0].SyncStatus; got != domain.SyncStatusFailed {
		t.Fatalf("status = %s", got)
	}
}
