package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"kaisey-backend/internal/calendar/domain"
	"kaisey-backend/internal/calendar/repository"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/gcal"
)

const syncTimeout = 30 * time.Second

// SyncJob is one remote write queued after a local change
type SyncJob struct {
	Session    *session.Session
	Kind       SyncKind
	TempID     string // local id to promote after a create
	RemoteID   string // remote id to delete
	Event      domain.CalendarEvent
	Recurrence []string
}

// Notifier pushes sync outcomes to the user's open streams
type Notifier interface {
	SendToUser(userID, event string, data interface{})
}

// SyncWorker writes local changes to the remote calendar one job at a time,
// pausing stagger between jobs. Jobs are attempted once.
type SyncWorker struct {
	remotes  repository.RemoteCalendarFactory
	notifier Notifier
	stagger  time.Duration
	jobQueue chan SyncJob
	workerWg sync.WaitGroup
	pending  sync.WaitGroup
	started  bool
	closed   bool
	mu       sync.Mutex
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(remotes repository.RemoteCalendarFactory, notifier Notifier, stagger time.Duration) *SyncWorker {
	if stagger < 0 {
		stagger = 0
	}
	return &SyncWorker{
		remotes:  remotes,
		notifier: notifier,
		stagger:  stagger,
		jobQueue: make(chan SyncJob, 500), // Buffered channel
	}
}

// Start starts the worker
func (w *SyncWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started || w.closed {
		return
	}
	w.workerWg.Add(1)
	go w.worker()
	w.started = true
	log.Printf("[SyncWorker] Started (stagger %s)", w.stagger)
}

// Stop drains the queue and waits for the worker to exit
func (w *SyncWorker) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.jobQueue)
	w.mu.Unlock()

	w.workerWg.Wait()
	log.Println("[SyncWorker] Worker stopped")
}

// Wait blocks until every queued job has been processed
func (w *SyncWorker) Wait() {
	w.pending.Wait()
}

// Enqueue adds a job to the queue (non-blocking). A job that does not fit
// fails immediately.
func (w *SyncWorker) Enqueue(job SyncJob) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.fail(job, "sync worker stopped")
		return false
	}
	w.pending.Add(1)
	job.Session.BeginSync()
	select {
	case w.jobQueue <- job:
		w.mu.Unlock()
		return true
	default:
		job.Session.EndSync()
		w.pending.Done()
		w.mu.Unlock()
		log.Printf("[SyncWorker] Queue full, dropping %s job for %q", job.Kind, job.Event.Title)
		w.fail(job, "sync queue full")
		return false
	}
}

func (w *SyncWorker) worker() {
	defer w.workerWg.Done()

	for job := range w.jobQueue {
		w.processJob(job)
		job.Session.EndSync()
		w.pending.Done()
		if w.stagger > 0 {
			time.Sleep(w.stagger)
		}
	}
}

func (w *SyncWorker) processJob(job SyncJob) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	client, err := w.remotes.ForSession(ctx, job.Session)
	if err != nil {
		log.Printf("[SyncWorker] No calendar client for session %s: %v", job.Session.ID, err)
		w.fail(job, err.Error())
		return
	}

	switch job.Kind {
	case SyncDelete:
		if err := client.DeleteEvent(ctx, job.RemoteID); err != nil {
			log.Printf("[SyncWorker] Delete of %q failed: %v", job.Event.Title, err)
			w.fail(job, err.Error())
			return
		}
		w.notify(job.Session, "event_deleted", map[string]interface{}{
			"id":    job.RemoteID,
			"title": job.Event.Title,
		})

	case SyncReplace:
		if err := client.DeleteEvent(ctx, job.RemoteID); err != nil {
			log.Printf("[SyncWorker] Delete of replaced %q failed: %v", job.Event.Title, err)
			w.fail(job, err.Error())
			return
		}
		w.create(ctx, client, job)

	case SyncCreate:
		w.create(ctx, client, job)
	}
}

func (w *SyncWorker) create(ctx context.Context, client repository.RemoteCalendar, job SyncJob) {
	loc := job.Session.Location()
	start, err := domain.StartTime(job.Event.Date, job.Event.Time, loc)
	if err != nil {
		w.fail(job, err.Error())
		return
	}

	in := gcal.EventInput{
		Title:      job.Event.Title,
		Start:      start,
		Duration:   job.Event.Duration,
		Recurrence: job.Recurrence,
	}
	if name := loc.String(); name != "Local" && name != "" {
		in.TimeZone = name
	}

	remoteID, err := client.CreateEvent(ctx, in)
	if err != nil {
		log.Printf("[SyncWorker] Create of %q failed: %v", job.Event.Title, err)
		w.fail(job, err.Error())
		return
	}

	if !job.Session.PromoteID(job.TempID, remoteID) {
		// removed or replaced locally while the create was queued
		log.Printf("[SyncWorker] Event %s was removed before its sync finished, deleting remote %s", job.TempID, remoteID)
		if err := client.DeleteEvent(ctx, remoteID); err != nil {
			log.Printf("[SyncWorker] Delete of orphaned %q failed: %v", job.Event.Title, err)
			w.notify(job.Session, "event_sync_failed", map[string]interface{}{
				"id":     remoteID,
				"title":  job.Event.Title,
				"kind":   SyncDelete,
				"reason": err.Error(),
			})
			return
		}
		w.notify(job.Session, "event_deleted", map[string]interface{}{
			"id":          remoteID,
			"title":       job.Event.Title,
			"compensated": true,
		})
		return
	}
	log.Printf("[SyncWorker] Synced %q as %s", job.Event.Title, remoteID)
	w.notify(job.Session, "event_synced", map[string]interface{}{
		"temp_id": job.TempID,
		"id":      remoteID,
		"title":   job.Event.Title,
	})
}

// fail marks the local event failed. Failed jobs are never retried.
func (w *SyncWorker) fail(job SyncJob, reason string) {
	if job.TempID != "" {
		job.Session.SetSyncStatus(job.TempID, domain.SyncStatusFailed)
	}
	w.notify(job.Session, "event_sync_failed", map[string]interface{}{
		"id":     job.TempID,
		"title":  job.Event.Title,
		"kind":   job.Kind,
		"reason": reason,
	})
}

func (w *SyncWorker) notify(sess *session.Session, event string, data interface{}) {
	if w.notifier == nil || sess == nil {
		return
	}
	w.notifier.SendToUser(sess.UserID, event, data)
}
