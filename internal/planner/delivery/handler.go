package delivery

import (
	"errors"
	"net/http"

	authdelivery "kaisey-backend/internal/auth/delivery"
	calendarusecase "kaisey-backend/internal/calendar/usecase"
	"kaisey-backend/internal/planner/domain"
	"kaisey-backend/internal/planner/usecase"

	"github.com/gin-gonic/gin"
)

// PlannerHandler exposes the brain-dump pipeline of the current session
type PlannerHandler struct {
	plannerUsecase usecase.PlannerUsecase
}

func NewPlannerHandler(plannerUsecase usecase.PlannerUsecase) *PlannerHandler {
	return &PlannerHandler{plannerUsecase: plannerUsecase}
}

// TextRequest carries a brain dump, an answer or revision feedback
type TextRequest struct {
	Text string `json:"text"`
}

// GetState returns the pipeline snapshot
// GET /api/planner
func (h *PlannerHandler) GetState(c *gin.Context) {
	p := h.plannerUsecase.For(authdelivery.CurrentSession(c))
	c.JSON(http.StatusOK, p.State())
}

// POST /api/planner/start
func (h *PlannerHandler) Start(c *gin.Context) {
	p := h.plannerUsecase.For(authdelivery.CurrentSession(c))
	state, err := p.Start()
	respond(c, state, err)
}

// Submit sends a brain dump for extraction; the result arrives as a
// planner_updated stream event
// POST /api/planner/submit
func (h *PlannerHandler) Submit(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := h.plannerUsecase.For(authdelivery.CurrentSession(c))
	state, err := p.Submit(req.Text)
	respond(c, state, err)
}

// POST /api/planner/answer
func (h *PlannerHandler) Answer(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := h.plannerUsecase.For(authdelivery.CurrentSession(c))
	state, err := p.Answer(req.Text)
	respond(c, state, err)
}

// POST /api/planner/propose
func (h *PlannerHandler) Propose(c *gin.Context) {
	p := h.plannerUsecase.For(authdelivery.CurrentSession(c))
	state, err := p.Propose()
	respond(c, state, err)
}

// POST /api/planner/revise
func (h *PlannerHandler) Revise(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := h.plannerUsecase.For(authdelivery.CurrentSession(c))
	state, err := p.Revise(req.Text)
	respond(c, state, err)
}

// RemoveBlock drops a proposed block
// DELETE /api/planner/blocks/:taskId
func (h *PlannerHandler) RemoveBlock(c *gin.Context) {
	p := h.plannerUsecase.For(authdelivery.CurrentSession(c))
	state, err := p.RemoveBlock(c.Request.Context(), c.Param("taskId"))
	respond(c, state, err)
}

// Accept writes the proposed schedule to the calendar
// POST /api/planner/accept
func (h *PlannerHandler) Accept(c *gin.Context) {
	sess := authdelivery.CurrentSession(c)
	state, added, err := h.plannerUsecase.For(sess).Accept(c.Request.Context())
	if err != nil {
		respond(c, state, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":  state,
		"added":  added,
		"events": sess.Events(),
	})
}

// POST /api/planner/reset
func (h *PlannerHandler) Reset(c *gin.Context) {
	p := h.plannerUsecase.For(authdelivery.CurrentSession(c))
	state, err := p.Reset()
	respond(c, state, err)
}

func respond(c *gin.Context, state domain.State, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, state)
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": state})
	case errors.Is(err, domain.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrBlockNotFound), errors.Is(err, calendarusecase.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
