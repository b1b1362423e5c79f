package api

import (
	"net/http"

	"kaisey-backend/internal/auth/delivery"
	authUsecase "kaisey-backend/internal/auth/usecase"
	calendarDelivery "kaisey-backend/internal/calendar/delivery"
	chatDelivery "kaisey-backend/internal/chat/delivery"
	plannerDelivery "kaisey-backend/internal/planner/delivery"
	"kaisey-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, sseManager *sse.Manager, settings *RuntimeSettings, calendarHandler *calendarDelivery.CalendarHandler, plannerHandler *plannerDelivery.PlannerHandler, chatHandler *chatDelivery.ChatHandler) {
	authHandler := delivery.NewAuthHandler(authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint for sync and planner updates
		api.GET("/stream", delivery.AuthMiddleware(authUsecase), func(c *gin.Context) {
			userID := c.GetString("userID")
			sseManager.ServeHTTP(c, userID)
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/demo", authHandler.DemoLogin)
			auth.POST("/google", authHandler.GoogleLogin)
			auth.GET("/google/url", authHandler.GoogleAuthURL)
			auth.POST("/google/exchange", authHandler.ExchangeCode)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUsecase), authHandler.Me)
			auth.PUT("/openai-key", delivery.AuthMiddleware(authUsecase), authHandler.SetOpenAIKey)
		}

		// Calendar routes (protected)
		calendar := api.Group("/calendar")
		calendar.Use(delivery.AuthMiddleware(authUsecase))
		{
			calendar.GET("/events", calendarHandler.GetEvents)
			calendar.POST("/actions", calendarHandler.ApplyActions)
			calendar.POST("/refresh", calendarHandler.Refresh)
			calendar.GET("/suggestions", calendarHandler.GetSuggestions)
			calendar.POST("/suggestions/:id/accept", calendarHandler.AcceptSuggestion)
			calendar.DELETE("/suggestions/:id", calendarHandler.DismissSuggestion)
			calendar.POST("/recurrence/preview", calendarHandler.PreviewRecurrence)
		}

		// Brain-dump planner routes (protected)
		planner := api.Group("/planner")
		planner.Use(delivery.AuthMiddleware(authUsecase))
		{
			planner.GET("", plannerHandler.GetState)
			planner.POST("/start", plannerHandler.Start)
			planner.POST("/submit", plannerHandler.Submit)
			planner.POST("/answer", plannerHandler.Answer)
			planner.POST("/propose", plannerHandler.Propose)
			planner.POST("/revise", plannerHandler.Revise)
			planner.POST("/accept", plannerHandler.Accept)
			planner.DELETE("/blocks/:taskId", plannerHandler.RemoveBlock)
			planner.POST("/reset", plannerHandler.Reset)
		}

		// Chat (protected) - replies propose actions, the client applies them
		api.POST("/chat", delivery.AuthMiddleware(authUsecase), chatHandler.Send)

		// Settings routes - runtime AI configuration
		settingsGroup := api.Group("/settings")
		{
			settingsGroup.GET("/ai", settings.GetAISettings)
			settingsGroup.PUT("/ai", settings.AdminGuard(), settings.UpdateAISettings)
			settingsGroup.POST("/ai/test", settings.AdminGuard(), settings.TestOllamaConnection)
		}
	}
}
