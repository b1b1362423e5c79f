package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	authUsecase "kaisey-backend/internal/auth/usecase"
	calendarDelivery "kaisey-backend/internal/calendar/delivery"
	calendarRepo "kaisey-backend/internal/calendar/repository"
	"kaisey-backend/internal/calendar/scheduler"
	calendarUsecasePkg "kaisey-backend/internal/calendar/usecase"
	chatDelivery "kaisey-backend/internal/chat/delivery"
	chatUsecasePkg "kaisey-backend/internal/chat/usecase"
	plannerDelivery "kaisey-backend/internal/planner/delivery"
	plannerUsecasePkg "kaisey-backend/internal/planner/usecase"
	"kaisey-backend/internal/session"
	"kaisey-backend/pkg/ai"
	"kaisey-backend/pkg/config"
	"kaisey-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	calendarUsecase calendarUsecasePkg.CalendarUsecase
	plannerUsecase  plannerUsecasePkg.PlannerUsecase
	syncWorker      *calendarUsecasePkg.SyncWorker
	scheduler       *scheduler.RefreshScheduler
	sseManager      *sse.Manager
	settings        *RuntimeSettings
	config          *config.Config
	calendarHandler *calendarDelivery.CalendarHandler
	plannerHandler  *plannerDelivery.PlannerHandler
	chatHandler     *chatDelivery.ChatHandler
	server          *http.Server
}

func NewHandler(authUc authUsecase.AuthUsecase, store *session.Store, remotes calendarRepo.RemoteCalendarFactory, seeds calendarRepo.SeedRepository, sseManager *sse.Manager, cfg *config.Config) *Handler {
	h := &Handler{
		authUsecase: authUc,
		sseManager:  sseManager,
		settings:    NewRuntimeSettings(cfg),
		config:      cfg,
	}
	log.Printf("AI settings initialized with provider: %s (runtime config enabled)", cfg.AIProvider)

	// Initialize SyncWorker for background calendar writes
	h.syncWorker = calendarUsecasePkg.NewSyncWorker(remotes, sseManager, cfg.SyncStagger)
	h.syncWorker.Start()

	h.calendarUsecase = calendarUsecasePkg.NewCalendarUsecase(calendarUsecasePkg.NewReconciler(h.syncWorker), remotes, seeds)
	h.plannerUsecase = plannerUsecasePkg.NewPlannerUsecase(h.calendarUsecase, h.assistantFor, sseManager)
	chatUc := chatUsecasePkg.NewChatUsecase(h.assistantFor)

	// Every new session gets its events and a planner before the tokens are returned
	authUc.SetLoginCallback(func(ctx context.Context, sess *session.Session) error {
		if err := h.calendarUsecase.Load(ctx, sess); err != nil {
			return err
		}
		h.plannerUsecase.For(sess)
		return nil
	})
	authUc.SetKeyChangeCallback(func(sess *session.Session) {
		h.calendarUsecase.Redetect(sess)
		h.plannerUsecase.SyncKey(sess)
	})
	store.OnDelete(h.plannerUsecase.Remove)

	h.scheduler = scheduler.NewRefreshScheduler(store, h.calendarUsecase, cfg.RefreshSchedule, cfg.Location())
	if err := h.scheduler.Start(); err != nil {
		log.Printf("Warning: Failed to start refresh scheduler: %v", err)
		h.scheduler = nil
	}

	h.calendarHandler = calendarDelivery.NewCalendarHandler(h.calendarUsecase)
	h.plannerHandler = plannerDelivery.NewPlannerHandler(h.plannerUsecase)
	h.chatHandler = chatDelivery.NewChatHandler(chatUc)
	log.Println("Calendar, planner and chat handlers initialized")

	return h
}

// assistantFor builds an assistant for a session key from the current runtime settings
func (h *Handler) assistantFor(key string) (ai.Assistant, error) {
	return ai.NewAssistant(h.settings.AIConfig().WithKey(key))
}

// Engine builds the gin engine with middleware and routes
func (h *Handler) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Admin-Password")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.authUsecase, h.sseManager, h.settings, h.calendarHandler, h.plannerHandler, h.chatHandler)
	return r
}

// Start serves HTTP until Shutdown is called
func (h *Handler) Start(addr string) error {
	h.server = &http.Server{Addr: addr, Handler: h.Engine()}
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then drains the background workers
func (h *Handler) Shutdown(ctx context.Context) error {
	var err error
	if h.server != nil {
		err = h.server.Shutdown(ctx)
	}
	if h.scheduler != nil {
		h.scheduler.Stop()
	}
	h.plannerUsecase.Wait()
	h.syncWorker.Stop()
	h.sseManager.Close()
	return err
}
