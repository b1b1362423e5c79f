package delivery

import (
	"errors"
	"net/http"
	"time"

	authdelivery "kaisey-backend/internal/auth/delivery"
	"kaisey-backend/internal/calendar/domain"
	"kaisey-backend/internal/calendar/usecase"

	"github.com/gin-gonic/gin"
)

// CalendarHandler handles event and suggestion requests
type CalendarHandler struct {
	calendarUsecase usecase.CalendarUsecase
}

// NewCalendarHandler creates a new CalendarHandler
func NewCalendarHandler(calendarUsecase usecase.CalendarUsecase) *CalendarHandler {
	return &CalendarHandler{calendarUsecase: calendarUsecase}
}

// ApplyActionsRequest carries one or more actions applied in order
type ApplyActionsRequest struct {
	Actions []domain.CalendarAction `json:"actions" binding:"required,min=1"`
}

// PreviewRecurrenceRequest asks for the first occurrences of a rule
type PreviewRecurrenceRequest struct {
	Date       string            `json:"date"`
	Time       string            `json:"time" binding:"required"`
	Recurrence domain.Recurrence `json:"recurrence"`
	Limit      int               `json:"limit"`
}

// GetEvents returns the session's events
// GET /api/calendar/events?date=2026-10-19
func (h *CalendarHandler) GetEvents(c *gin.Context) {
	sess := authdelivery.CurrentSession(c)
	events := h.calendarUsecase.Events(sess, c.Query("date"))
	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"today":  sess.Today(),
	})
}

// ApplyActions applies calendar actions and returns the new event list
// POST /api/calendar/actions
func (h *CalendarHandler) ApplyActions(c *gin.Context) {
	sess := authdelivery.CurrentSession(c)

	var req ApplyActionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		events []domain.CalendarEvent
		err    error
	)
	if len(req.Actions) == 1 {
		events, err = h.calendarUsecase.Apply(c.Request.Context(), sess, req.Actions[0])
	} else {
		events, err = h.calendarUsecase.ApplyAll(c.Request.Context(), sess, req.Actions)
	}
	if err != nil {
		writeCalendarError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"suggestions": h.calendarUsecase.Suggestions(sess),
	})
}

// Refresh re-pulls the remote calendar
// POST /api/calendar/refresh
func (h *CalendarHandler) Refresh(c *gin.Context) {
	sess := authdelivery.CurrentSession(c)
	if err := h.calendarUsecase.Refresh(c.Request.Context(), sess); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events":      h.calendarUsecase.Events(sess, ""),
		"suggestions": h.calendarUsecase.Suggestions(sess),
	})
}

// GetSuggestions returns the current suggestions
// GET /api/calendar/suggestions
func (h *CalendarHandler) GetSuggestions(c *gin.Context) {
	sess := authdelivery.CurrentSession(c)
	c.JSON(http.StatusOK, gin.H{"suggestions": h.calendarUsecase.Suggestions(sess)})
}

// AcceptSuggestion applies a suggestion's actions
// POST /api/calendar/suggestions/:id/accept
func (h *CalendarHandler) AcceptSuggestion(c *gin.Context) {
	sess := authdelivery.CurrentSession(c)
	events, err := h.calendarUsecase.AcceptSuggestion(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		writeCalendarError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"suggestions": h.calendarUsecase.Suggestions(sess),
	})
}

// DismissSuggestion drops a suggestion without applying it
// DELETE /api/calendar/suggestions/:id
func (h *CalendarHandler) DismissSuggestion(c *gin.Context) {
	sess := authdelivery.CurrentSession(c)
	if err := h.calendarUsecase.DismissSuggestion(sess, c.Param("id")); err != nil {
		writeCalendarError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": h.calendarUsecase.Suggestions(sess)})
}

// PreviewRecurrence lists upcoming occurrences of a rule
// POST /api/calendar/recurrence/preview
func (h *CalendarHandler) PreviewRecurrence(c *gin.Context) {
	sess := authdelivery.CurrentSession(c)

	var req PreviewRecurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	occurrences, err := h.calendarUsecase.PreviewRecurrence(sess, req.Date, req.Time, req.Recurrence, req.Limit)
	if err != nil {
		writeCalendarError(c, err)
		return
	}
	rrule, _ := req.Recurrence.RRule()

	out := make([]string, len(occurrences))
	for i, t := range occurrences {
		out[i] = t.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, gin.H{
		"rrule":       rrule,
		"occurrences": out,
	})
}

func writeCalendarError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAction), errors.Is(err, usecase.ErrInvalidRecurrence):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrEventNotFound), errors.Is(err, usecase.ErrSuggestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
