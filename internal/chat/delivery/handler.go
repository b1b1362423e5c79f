package delivery

import (
	"errors"
	"net/http"

	authdelivery "kaisey-backend/internal/auth/delivery"
	"kaisey-backend/internal/chat/usecase"
	"kaisey-backend/pkg/ai"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatUsecase usecase.ChatUsecase
}

func NewChatHandler(chatUsecase usecase.ChatUsecase) *ChatHandler {
	return &ChatHandler{chatUsecase: chatUsecase}
}

type ChatRequest struct {
	Message string           `json:"message" binding:"required"`
	History []ai.ChatMessage `json:"history"`
}

// Send answers a chat message with a reply and proposed calendar actions
// POST /api/chat
func (h *ChatHandler) Send(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.chatUsecase.Send(c.Request.Context(), authdelivery.CurrentSession(c), req.Message, req.History)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
