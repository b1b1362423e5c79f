package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"kaisey-backend/internal/calendar/usecase"
	"kaisey-backend/internal/session"
)

const refreshTimeout = time.Minute

// RefreshScheduler periodically re-pulls remote events of connected sessions
// and re-runs schedule detection for every session
type RefreshScheduler struct {
	store    *session.Store
	calendar usecase.CalendarUsecase
	schedule string
	cron     *cron.Cron
}

// NewRefreshScheduler creates a new scheduler. schedule is a cron expression or
// descriptor such as "@every 5m".
func NewRefreshScheduler(store *session.Store, calendar usecase.CalendarUsecase, schedule string, loc *time.Location) *RefreshScheduler {
	if loc == nil {
		loc = time.Local
	}
	if schedule == "" {
		schedule = "@every 5m"
	}
	return &RefreshScheduler{
		store:    store,
		calendar: calendar,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(loc)),
	}
}

// Start registers the refresh job and begins the scheduler loop
func (s *RefreshScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("[Scheduler] Starting calendar refresh scheduler (%s)", s.schedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running refresh
func (s *RefreshScheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Scheduler] Scheduler stopped")
}

// RunOnce refreshes all sessions
func (s *RefreshScheduler) RunOnce() {
	sessions := s.store.All()
	if len(sessions) == 0 {
		return
	}

	refreshed := 0
	for _, sess := range sessions {
		if !sess.Connected() {
			s.calendar.Redetect(sess)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		err := s.calendar.Refresh(ctx, sess)
		cancel()
		if err != nil {
			log.Printf("[Scheduler] Refresh failed for session %s: %v", sess.ID, err)
			continue
		}
		refreshed++
	}
	log.Printf("[Scheduler] Refreshed %d of %d sessions", refreshed, len(sessions))
}
