package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	calendardomain "kaisey-backend/internal/calendar/domain"
	"kaisey-backend/internal/planner/domain"
	"kaisey-backend/internal/planner/usecase"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/ai"

	"github.com/gin-gonic/gin"
)

type nopCalendar struct{}

func (nopCalendar) Apply(ctx context.Context, sess *session.Session, action calendardomain.CalendarAction) ([]calendardomain.CalendarEvent, error) {
	return sess.Events(), nil
}

func (nopCalendar) AddPlannerSuggestions(sess *session.Session, s []calendardomain.Suggestion) []calendardomain.Suggestion {
	return s
}

func setup(key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	sess := session.New("s1", "u1", session.Options{OpenAIKey: key, Location: time.UTC})
	factory := func(key string) (ai.Assistant, error) { return ai.NewOfflineService(), nil }
	h := NewPlannerHandler(usecase.NewPlannerUsecase(nopCalendar{}, factory, nil))

	r := gin.New()
	g := r.Group("/api/planner", func(c *gin.Context) { c.Set("session", sess) })
	g.GET("", h.GetState)
	g.POST("/start", h.Start)
	g.POST("/submit", h.Submit)
	g.POST("/reset", h.Reset)
	g.POST("/accept", h.Accept)
	return r
}

func post(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPlannerRoutes(t *testing.T) {
	r := setup("sk-test")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/planner", nil))
	var state domain.State
	_ = json.Unmarshal(w.Body.Bytes(), &state)
	if w.Code != http.StatusOK || state.Phase != domain.PhaseIdle {
		t.Fatalf("GET state: %d %+v", w.Code, state)
	}

	if w := post(r, "/api/planner/accept", nil); w.Code != http.StatusConflict {
		t.Fatalf("accept from IDLE = %d", w.Code)
	}
	if w := post(r, "/api/planner/start", nil); w.Code != http.StatusOK {
		t.Fatalf("start = %d", w.Code)
	}
	if w := post(r, "/api/planner/submit", TextRequest{Text: " "}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty submit = %d", w.Code)
	}
	w = post(r, "/api/planner/reset", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &state)
	if w.Code != http.StatusOK || state.Phase != domain.PhaseIdle {
		t.Fatalf("reset: %d %+v", w.Code, state)
	}
}

func TestPlannerWithoutKey(t *testing.T) {
	r := setup("")
	if w := post(r, "/api/planner/start", nil); w.Code != http.StatusConflict {
		t.Fatalf("start without key = %d", w.Code)
	}
}
