package delivery

import (
	"errors"
	"net/http"

	authdto "kaisey-backend/internal/auth/dto"
	"kaisey-backend/internal/auth/usecase"
	"kaisey-backend/internal/session"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authUsecase usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase}
}

// DemoLogin starts a session backed by sample events
// POST /api/auth/demo
func (h *AuthHandler) DemoLogin(c *gin.Context) {
	var req authdto.DemoLoginRequest
	// an empty body is a valid demo login
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	resp, err := h.authUsecase.DemoLogin(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GoogleLogin signs in with a calendar token obtained by the client
// POST /api/auth/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req authdto.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authUsecase.GoogleLogin(c.Request.Context(), &req)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GoogleAuthURL returns the consent screen URL
// GET /api/auth/google/url?state=...
func (h *AuthHandler) GoogleAuthURL(c *gin.Context) {
	url, err := h.authUsecase.GoogleAuthURL(c.Query("state"))
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ExchangeCode completes the consent flow
// POST /api/auth/google/exchange
func (h *AuthHandler) ExchangeCode(c *gin.Context) {
	var req authdto.ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authUsecase.ExchangeCode(c.Request.Context(), &req)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RefreshToken rotates the refresh token
// POST /api/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.authUsecase.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout ends the current session
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req authdto.LogoutRequest
	_ = c.ShouldBindJSON(&req)

	// the access token may already be gone; the refresh token alone still logs out
	sessionID := ""
	if token, ok := bearerToken(c); ok {
		if sess, err := h.authUsecase.ValidateToken(token); err == nil {
			sessionID = sess.ID
		}
	}

	if err := h.authUsecase.Logout(sessionID, req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me describes the current session
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	sess := CurrentSession(c)
	c.JSON(http.StatusOK, h.authUsecase.Me(sess))
}

// SetOpenAIKey replaces the session's AI key. An empty key clears it.
// PUT /api/auth/openai-key
func (h *AuthHandler) SetOpenAIKey(c *gin.Context) {
	var req authdto.OpenAIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := CurrentSession(c)
	h.authUsecase.SetOpenAIKey(sess, req.Key)
	c.JSON(http.StatusOK, h.authUsecase.Me(sess))
}

func writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidToken),
		errors.Is(err, usecase.ErrRefreshTokenExpired),
		errors.Is(err, usecase.ErrUserNotFound),
		errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrInvalidCalendarToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrGoogleNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
