package usecase

import (
	"log"
	"sync"

	calendarusecase "kaisey-backend/internal/calendar/usecase"
	"kaisey-backend/internal/session"
)

// PlannerUsecase owns one brain-dump pipeline per session
type PlannerUsecase interface {
	// For returns the session's pipeline, creating it on first use
	For(sess *session.Session) *Pipeline
	// SyncKey re-evaluates the NO_KEY gate after the session key changed
	SyncKey(sess *session.Session)
	// Remove drops the pipeline of a destroyed session
	Remove(sess *session.Session)
	// Wait blocks until every pipeline's background calls have finished
	Wait()
}

type plannerUsecase struct {
	calendar   Calendar
	assistants AssistantFactory
	notifier   calendarusecase.Notifier

	mu        sync.RWMutex
	pipelines map[string]*Pipeline
}

// NewPlannerUsecase creates a new planner usecase instance
func NewPlannerUsecase(calendar Calendar, assistants AssistantFactory, notifier calendarusecase.Notifier) PlannerUsecase {
	return &plannerUsecase{
		calendar:   calendar,
		assistants: assistants,
		notifier:   notifier,
		pipelines:  make(map[string]*Pipeline),
	}
}

func (u *plannerUsecase) For(sess *session.Session) *Pipeline {
	u.mu.RLock()
	p, ok := u.pipelines[sess.ID]
	u.mu.RUnlock()
	if ok {
		return p
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if p, ok := u.pipelines[sess.ID]; ok {
		return p
	}
	p = NewPipeline(sess, u.calendar, u.assistants, u.notifier)
	u.pipelines[sess.ID] = p
	return p
}

func (u *plannerUsecase) SyncKey(sess *session.Session) {
	state := u.For(sess).SyncKey()
	log.Printf("[Planner] Session %s key synced, phase %s", sess.ID, state.Phase)
}

func (u *plannerUsecase) Remove(sess *session.Session) {
	u.mu.Lock()
	p, ok := u.pipelines[sess.ID]
	delete(u.pipelines, sess.ID)
	u.mu.Unlock()
	if ok {
		// results still in flight for a destroyed session are dropped
		_, _ = p.Reset()
	}
}

func (u *plannerUsecase) Wait() {
	u.mu.RLock()
	list := make([]*Pipeline, 0, len(u.pipelines))
	for _, p := range u.pipelines {
		list = append(list, p)
	}
	u.mu.RUnlock()

	for _, p := range list {
		p.Wait()
	}
}
