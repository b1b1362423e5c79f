package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	calendardomain "kaisey-backend/internal/calendar/domain"
	calendarusecase "kaisey-backend/internal/calendar/usecase"
	"kaisey-backend/internal/planner/domain"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/ai"
)

// Calendar is the part of the calendar usecase the planner writes through
type Calendar interface {
	Apply(ctx context.Context, sess *session.Session, action calendardomain.CalendarAction) ([]calendardomain.CalendarEvent, error)
	AddPlannerSuggestions(sess *session.Session, suggestions []calendardomain.Suggestion) []calendardomain.Suggestion
}

// AssistantFactory builds an assistant for a session's AI key
type AssistantFactory func(key string) (ai.Assistant, error)

// Pipeline is the brain-dump state machine of one session. Extraction and
// proposal calls run in the background; their results are applied only if
// the pipeline is still in the phase and generation that started them.
type Pipeline struct {
	sess       *session.Session
	calendar   Calendar
	assistants AssistantFactory
	notifier   calendarusecase.Notifier

	mu            sync.Mutex
	inflight      sync.WaitGroup
	generation    uint64
	phase         domain.Phase
	errMsg        string
	brainDump     string
	tasks         []domain.ExtractedTask
	questions     []domain.ClarificationQuestion
	questionIndex int
	blocks        []domain.ProposedBlock
	recs          []domain.Recommendation
	summary       string
}

// NewPipeline creates a pipeline in IDLE or NO_KEY depending on the session key
func NewPipeline(sess *session.Session, calendar Calendar, assistants AssistantFactory, notifier calendarusecase.Notifier) *Pipeline {
	p := &Pipeline{
		sess:       sess,
		calendar:   calendar,
		assistants: assistants,
		notifier:   notifier,
		phase:      domain.PhaseNoKey,
	}
	if ai.ValidKey(sess.OpenAIKey()) {
		p.phase = domain.PhaseIdle
	}
	return p
}

// SyncKey moves the pipeline in or out of NO_KEY after the session key changed
func (p *Pipeline) SyncKey() domain.State {
	valid := ai.ValidKey(p.sess.OpenAIKey())

	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case valid && p.phase == domain.PhaseNoKey:
		p.phase = domain.PhaseIdle
	case !valid && p.phase != domain.PhaseNoKey:
		p.generation++
		p.clear()
		p.phase = domain.PhaseNoKey
	}
	return p.snapshot()
}

func (p *Pipeline) Start() (domain.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != domain.PhaseIdle && p.phase != domain.PhaseAccepted {
		return p.snapshot(), p.invalid("start")
	}
	p.clear()
	p.phase = domain.PhaseBrainDumpInput
	return p.snapshot(), nil
}

// Submit sends the brain dump for task extraction
func (p *Pipeline) Submit(text string) (domain.State, error) {
	text = strings.TrimSpace(text)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != domain.PhaseBrainDumpInput {
		return p.snapshot(), p.invalid("submit")
	}
	if text == "" {
		return p.snapshot(), domain.ErrEmptyInput
	}

	assistant, err := p.assistants(p.sess.OpenAIKey())
	if err != nil {
		p.errMsg = err.Error()
		return p.snapshot(), nil
	}

	p.generation++
	p.brainDump = text
	p.errMsg = ""
	p.phase = domain.PhaseExtracting

	req := ai.ExtractRequest{Text: text, Today: p.sess.Today()}
	gen := p.generation
	p.inflight.Add(1)
	go p.extract(gen, assistant, req)

	return p.snapshot(), nil
}

func (p *Pipeline) extract(gen uint64, assistant ai.Assistant, req ai.ExtractRequest) {
	defer p.inflight.Done()

	result, err := assistant.ExtractTasks(context.Background(), req)

	p.mu.Lock()
	if !p.current(gen, domain.PhaseExtracting) {
		p.mu.Unlock()
		log.Printf("[Planner] Dropping stale extraction result for session %s", p.sess.ID)
		return
	}

	switch {
	case err != nil:
		log.Printf("[Planner] Extraction failed for session %s: %v", p.sess.ID, err)
		p.errMsg = err.Error()
		p.phase = domain.PhaseBrainDumpInput
	case len(result.Tasks) == 0:
		p.errMsg = domain.NoTasksMessage
		p.phase = domain.PhaseBrainDumpInput
	default:
		p.tasks = tasksFrom(result.Tasks, req.Today)
		p.questions = questionsFrom(result.Questions, p.tasks)
		p.questionIndex = 0
		if len(p.questions) == 0 {
			p.beginProposal(false, "")
		} else {
			p.phase = domain.PhaseClarify
		}
	}
	state := p.snapshot()
	p.mu.Unlock()

	p.notify(state)
}

// Answer records the answer to the current clarification question
func (p *Pipeline) Answer(text string) (domain.State, error) {
	text = strings.TrimSpace(text)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != domain.PhaseClarify || p.questionIndex >= len(p.questions) {
		return p.snapshot(), p.invalid("answer")
	}
	if text == "" {
		return p.snapshot(), domain.ErrEmptyInput
	}

	q := &p.questions[p.questionIndex]
	q.Answered = true
	q.Answer = text
	for i := range p.tasks {
		if p.tasks[i].ID != q.TaskID {
			continue
		}
		switch q.Field {
		case domain.FieldEstimatedDuration:
			minutes := parseMinutes(text)
			p.tasks[i].EstimatedDuration = &minutes
		case domain.FieldDueDate:
			due := text
			p.tasks[i].DueDate = &due
		}
	}

	p.questionIndex++
	if p.questionIndex >= len(p.questions) {
		p.beginProposal(false, "")
	}
	return p.snapshot(), nil
}

// Propose retries the initial proposal once every question is answered
func (p *Pipeline) Propose() (domain.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != domain.PhaseClarify || p.questionIndex < len(p.questions) {
		return p.snapshot(), p.invalid("propose")
	}
	p.beginProposal(false, "")
	return p.snapshot(), nil
}

// Revise asks for a new proposal with feedback and the previous blocks as context
func (p *Pipeline) Revise(feedback string) (domain.State, error) {
	feedback = strings.TrimSpace(feedback)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase != domain.PhaseReviewSchedule {
		return p.snapshot(), p.invalid("revise")
	}
	if feedback == "" {
		return p.snapshot(), domain.ErrEmptyInput
	}
	p.beginProposal(true, feedback)
	return p.snapshot(), nil
}

// beginProposal must be called with mu held
func (p *Pipeline) beginProposal(revise bool, feedback string) {
	fallback := domain.PhaseClarify
	p.phase = domain.PhaseProposing
	if revise {
		fallback = domain.PhaseReviewSchedule
		p.phase = domain.PhaseRevising
	}
	p.errMsg = ""

	assistant, err := p.assistants(p.sess.OpenAIKey())
	if err != nil {
		p.errMsg = err.Error()
		p.phase = fallback
		return
	}

	req := p.proposalRequest(revise, feedback)
	gen, phase := p.generation, p.phase
	p.inflight.Add(1)
	go p.propose(gen, phase, fallback, assistant, req)
}

func (p *Pipeline) proposalRequest(revise bool, feedback string) ai.ProposalRequest {
	req := ai.ProposalRequest{
		Today: p.sess.Today(),
		Now:   calendardomain.ClockOf(p.sess.Now()),
	}
	for _, t := range p.tasks {
		st := ai.ScheduleTask{Title: t.Title, Duration: t.EstimatedDuration, Priority: t.Priority, Category: t.Category}
		if t.PreferredTime != nil {
			st.PreferredTime = *t.PreferredTime
		}
		req.Tasks = append(req.Tasks, st)
	}
	for _, e := range calendardomain.OnDate(p.sess.Events(), req.Today) {
		req.Existing = append(req.Existing, ai.ExistingEvent{Title: e.Title, Time: e.Time, Duration: e.Duration, Type: string(e.Type)})
	}
	if revise {
		req.Feedback = feedback
		for _, b := range p.blocks {
			if b.IsExisting {
				continue
			}
			req.Previous = append(req.Previous, ai.ScheduledBlock{TaskTitle: b.Title, Time: b.Time, Date: b.Date, Duration: b.Duration, Category: b.Category})
		}
	}
	return req
}

func (p *Pipeline) propose(gen uint64, phase, fallback domain.Phase, assistant ai.Assistant, req ai.ProposalRequest) {
	defer p.inflight.Done()

	result, err := assistant.ProposeSchedule(context.Background(), req)

	p.mu.Lock()
	if !p.current(gen, phase) {
		p.mu.Unlock()
		log.Printf("[Planner] Dropping stale proposal for session %s", p.sess.ID)
		return
	}

	if err != nil {
		log.Printf("[Planner] Proposal failed for session %s: %v", p.sess.ID, err)
		p.errMsg = err.Error()
		p.phase = fallback
	} else {
		prefix := "new-"
		if phase == domain.PhaseRevising {
			prefix = "rev-"
		}
		p.blocks = p.mergeBlocks(result.Blocks, prefix, req.Today)
		p.recs = make([]domain.Recommendation, 0, len(result.Recommendations))
		for _, r := range result.Recommendations {
			p.recs = append(p.recs, domain.Recommendation{Type: r.Type, Title: r.Title, Description: r.Description})
		}
		p.summary = result.Summary
		p.phase = domain.PhaseReviewSchedule
	}
	state := p.snapshot()
	p.mu.Unlock()

	p.notify(state)
}

func (p *Pipeline) mergeBlocks(proposed []ai.ScheduledBlock, prefix, today string) []domain.ProposedBlock {
	blocks := make([]domain.ProposedBlock, 0)
	for _, e := range calendardomain.OnDate(p.sess.Events(), today) {
		blocks = append(blocks, domain.ProposedBlock{
			TaskID:     e.ID,
			Title:      e.Title,
			Time:       e.Time,
			Date:       e.Date,
			Duration:   e.Duration,
			Category:   string(e.Type),
			IsExisting: true,
		})
	}
	for i, b := range proposed {
		block := domain.ProposedBlock{
			TaskID:   fmt.Sprintf("%s%d", prefix, i),
			Title:    b.TaskTitle,
			Time:     b.Time,
			Date:     b.Date,
			Duration: b.Duration,
			Category: b.Category,
		}
		if block.Duration <= 0 {
			block.Duration = domain.DefaultBlockDuration
		}
		if block.Date == "" {
			block.Date = today
		}
		blocks = append(blocks, block)
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Time < blocks[j].Time })
	return blocks
}

// RemoveBlock drops a block from the proposal. Removing an existing block
// also removes its calendar event.
func (p *Pipeline) RemoveBlock(ctx context.Context, taskID string) (domain.State, error) {
	p.mu.Lock()
	if p.phase != domain.PhaseReviewSchedule {
		defer p.mu.Unlock()
		return p.snapshot(), p.invalid("remove block")
	}

	idx := -1
	for i, b := range p.blocks {
		if b.TaskID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		defer p.mu.Unlock()
		return p.snapshot(), domain.ErrBlockNotFound
	}
	block := p.blocks[idx]
	p.blocks = append(p.blocks[:idx:idx], p.blocks[idx+1:]...)
	state := p.snapshot()
	p.mu.Unlock()

	if block.IsExisting {
		_, err := p.calendar.Apply(ctx, p.sess, block.RemoveAction())
		if err != nil && !errors.Is(err, calendarusecase.ErrEventNotFound) {
			return state, err
		}
	}
	return state, nil
}

// Accept adds every new block to the calendar in order and forwards the
// recommendations as suggestions. It returns the number of events added.
func (p *Pipeline) Accept(ctx context.Context) (domain.State, int, error) {
	p.mu.Lock()
	if p.phase != domain.PhaseReviewSchedule {
		defer p.mu.Unlock()
		return p.snapshot(), 0, p.invalid("accept")
	}
	var newBlocks []domain.ProposedBlock
	for _, b := range p.blocks {
		if !b.IsExisting {
			newBlocks = append(newBlocks, b)
		}
	}
	recs := p.recs
	p.clear()
	p.phase = domain.PhaseAccepted
	state := p.snapshot()
	p.mu.Unlock()

	added := 0
	for _, b := range newBlocks {
		if _, err := p.calendar.Apply(ctx, p.sess, b.AddAction()); err != nil {
			log.Printf("[Planner] Failed to add block %q at %s: %v", b.Title, b.Time, err)
			continue
		}
		added++
	}

	if len(recs) > 0 {
		suggestions := make([]calendardomain.Suggestion, len(recs))
		for i, r := range recs {
			suggestions[i] = calendardomain.Suggestion{
				Type:        calendardomain.SuggestionType(r.Type),
				Title:       r.Title,
				Description: r.Description,
			}
		}
		p.calendar.AddPlannerSuggestions(p.sess, suggestions)
	}

	log.Printf("[Planner] Session %s accepted schedule: %d of %d blocks added", p.sess.ID, added, len(newBlocks))
	return state, added, nil
}

// Reset returns to IDLE and discards all planning state
func (p *Pipeline) Reset() (domain.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phase == domain.PhaseNoKey {
		return p.snapshot(), p.invalid("reset")
	}
	p.generation++
	p.clear()
	p.phase = domain.PhaseIdle
	return p.snapshot(), nil
}

func (p *Pipeline) State() domain.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

// Wait blocks until background AI calls have finished
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}

func (p *Pipeline) current(gen uint64, phase domain.Phase) bool {
	return p.generation == gen && p.phase == phase
}

func (p *Pipeline) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s in %s", domain.ErrInvalidTransition, op, p.phase)
}

func (p *Pipeline) clear() {
	p.errMsg = ""
	p.brainDump = ""
	p.tasks = nil
	p.questions = nil
	p.questionIndex = 0
	p.blocks = nil
	p.recs = nil
	p.summary = ""
}

func (p *Pipeline) snapshot() domain.State {
	s := domain.State{
		Phase:           p.phase,
		Generation:      p.generation,
		Error:           p.errMsg,
		BrainDump:       p.brainDump,
		Tasks:           append([]domain.ExtractedTask{}, p.tasks...),
		Questions:       append([]domain.ClarificationQuestion{}, p.questions...),
		QuestionIndex:   p.questionIndex,
		Blocks:          append([]domain.ProposedBlock{}, p.blocks...),
		Recommendations: append([]domain.Recommendation{}, p.recs...),
		Summary:         p.summary,
	}
	if p.phase == domain.PhaseClarify && p.questionIndex < len(s.Questions) {
		q := s.Questions[p.questionIndex]
		s.CurrentQuestion = &q
	}
	return s
}

func (p *Pipeline) notify(state domain.State) {
	if p.notifier != nil {
		p.notifier.SendToUser(p.sess.UserID, "planner_updated", state)
	}
}

func tasksFrom(extracted []ai.TaskExtraction, today string) []domain.ExtractedTask {
	tasks := make([]domain.ExtractedTask, len(extracted))
	for i, t := range extracted {
		task := domain.ExtractedTask{
			ID:                fmt.Sprintf("task-%d", i),
			Title:             t.Title,
			EstimatedDuration: t.EstimatedDuration,
			DueDate:           t.DueDate,
			Priority:          t.Priority,
			Category:          t.Category,
		}
		if t.PreferredTime != nil && *t.PreferredTime != "" {
			pt := *t.PreferredTime
			task.PreferredTime = &pt
			if task.DueDate == nil || *task.DueDate == "" {
				due := today
				task.DueDate = &due
			}
		}
		tasks[i] = task
	}
	return tasks
}

func questionsFrom(raw []ai.ClarificationQuestion, tasks []domain.ExtractedTask) []domain.ClarificationQuestion {
	questions := make([]domain.ClarificationQuestion, len(raw))
	for i, q := range raw {
		taskID := fmt.Sprintf("task-%d", i)
		for _, t := range tasks {
			if t.Title == q.TaskTitle {
				taskID = t.ID
				break
			}
		}
		questions[i] = domain.ClarificationQuestion{
			TaskID:    taskID,
			TaskTitle: q.TaskTitle,
			Question:  q.Question,
			Field:     q.Field,
		}
	}
	return questions
}

// parseMinutes reads the leading integer of an answer like "45 minutes"
func parseMinutes(answer string) int {
	end := 0
	for end < len(answer) && answer[end] >= '0' && answer[end] <= '9' {
		end++
	}
	minutes, err := strconv.Atoi(answer[:end])
	if err != nil || minutes <= 0 {
		return domain.DefaultAnsweredDuration
	}
	return minutes
}
