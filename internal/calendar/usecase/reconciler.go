package usecase

import (
	"context"
	"log"

	"kaisey-backend/internal/calendar/domain"
	"kaisey-backend/internal/session"
)

// Reconciler is the only writer of a session's event list. Local changes
// are applied synchronously; remote writes go through the SyncWorker.
type Reconciler struct {
	worker *SyncWorker
}

func NewReconciler(worker *SyncWorker) *Reconciler {
	return &Reconciler{worker: worker}
}

// Apply applies action to the session's events and returns the new list.
// On error the list is unchanged.
func (r *Reconciler) Apply(ctx context.Context, sess *session.Session, action domain.CalendarAction) ([]domain.CalendarEvent, error) {
	env := ApplyEnv{
		Date:      sess.Today(),
		Connected: sess.Connected() && r.worker != nil,
	}
	var newID string
	if action.Type == domain.ActionAdd || (action.Type == domain.ActionReplace && env.Connected) {
		newID = sess.NextTempID()
	}
	env.NewID = func() string { return newID }

	// held until the jobs are queued so a concurrent refresh cannot merge
	// a remote snapshot taken before this change
	sess.BeginSync()
	defer sess.EndSync()

	var (
		result ApplyResult
		err    error
	)
	events := sess.Update(func(current []domain.CalendarEvent) []domain.CalendarEvent {
		result, err = ApplyAction(current, action, env)
		if err != nil {
			return current
		}
		return result.Events
	})
	if err != nil {
		return events, err
	}

	log.Printf("[Reconciler] Applied %s %q for session %s (%d remote jobs)", action.Type, action.Event.Title, sess.ID, len(result.Jobs))
	for _, job := range result.Jobs {
		job.Session = sess
		r.worker.Enqueue(job)
	}
	return events, nil
}
