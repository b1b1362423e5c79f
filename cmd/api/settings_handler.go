package api

import (
	"net/http"
	"strings"
	"sync"

	authRepo "kaisey-backend/internal/auth/repository"
	"kaisey-backend/pkg/ai"
	"kaisey-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

const adminPasswordHeader = "X-Admin-Password"

// RuntimeConfig holds runtime-configurable AI settings
type RuntimeConfig struct {
	Provider      string `json:"provider"`
	OpenAIModel   string `json:"openai_model"`
	OllamaBaseURL string `json:"ollama_base_url"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

// RuntimeSettings guards the RuntimeConfig shared by every request
type RuntimeSettings struct {
	mu                sync.RWMutex
	config            RuntimeConfig
	adminPasswordHash string
}

// NewRuntimeSettings initializes runtime settings from static config
func NewRuntimeSettings(cfg *config.Config) *RuntimeSettings {
	return &RuntimeSettings{
		config: RuntimeConfig{
			Provider:      cfg.AIProvider,
			OpenAIModel:   cfg.OpenAIModel,
			OllamaBaseURL: cfg.OllamaBaseURL,
			OllamaModel:   cfg.OllamaModel,
		},
		adminPasswordHash: cfg.AdminPasswordHash,
	}
}

func (s *RuntimeSettings) Current() RuntimeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// OllamaBaseURL returns the current runtime Ollama base URL
func (s *RuntimeSettings) OllamaBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.OllamaBaseURL
}

// OllamaModel returns the current runtime Ollama model
func (s *RuntimeSettings) OllamaModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.OllamaModel
}

// AIConfig builds the assistant config for the current settings
func (s *RuntimeSettings) AIConfig() ai.Config {
	current := s.Current()
	return ai.Config{
		Provider:         ai.ProviderType(current.Provider),
		OpenAIModel:      current.OpenAIModel,
		GetOllamaBaseURL: s.OllamaBaseURL,
		GetOllamaModel:   s.OllamaModel,
	}
}

// AdminGuard requires the admin password in the X-Admin-Password header
func (s *RuntimeSettings) AdminGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.adminPasswordHash == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin password is not configured"})
			c.Abort()
			return
		}
		password := c.GetHeader(adminPasswordHeader)
		if password == "" || !authRepo.CheckPasswordHash(password, s.adminPasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin password"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// UpdateAISettingsRequest represents the request body for updating AI settings.
// Empty fields keep their current value.
type UpdateAISettingsRequest struct {
	Provider      string `json:"provider" binding:"omitempty,oneof=openai ollama auto"`
	OpenAIModel   string `json:"openai_model"`
	OllamaBaseURL string `json:"ollama_base_url" binding:"omitempty,url"`
	OllamaModel   string `json:"ollama_model"`
}

// GetAISettings returns current AI configuration
// GET /api/settings/ai
func (s *RuntimeSettings) GetAISettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.Current())
}

// UpdateAISettings updates AI configuration at runtime
// PUT /api/settings/ai
func (s *RuntimeSettings) UpdateAISettings(c *gin.Context) {
	var req UpdateAISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	if req.Provider != "" {
		s.config.Provider = req.Provider
	}
	if req.OpenAIModel != "" {
		s.config.OpenAIModel = req.OpenAIModel
	}
	if req.OllamaBaseURL != "" {
		s.config.OllamaBaseURL = strings.TrimRight(req.OllamaBaseURL, "/")
	}
	if req.OllamaModel != "" {
		s.config.OllamaModel = req.OllamaModel
	}
	current := s.config
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":  "AI settings updated successfully",
		"settings": current,
	})
}

// TestOllamaConnection tests if the Ollama server is reachable
// POST /api/settings/ai/test
func (s *RuntimeSettings) TestOllamaConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.OllamaBaseURL == "" {
		req.OllamaBaseURL = s.OllamaBaseURL()
	}

	// Ollama lists its local models at /api/tags
	resp, err := http.Get(strings.TrimRight(req.OllamaBaseURL, "/") + "/api/tags")
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected":   false,
			"status_code": resp.StatusCode,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.OllamaBaseURL,
	})
}
