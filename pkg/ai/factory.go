package ai

import (
	"fmt"
)

// Config holds AI provider configuration. The Ollama getters are read on
// every call so runtime settings apply without a restart.
type Config struct {
	Provider ProviderType // "openai", "ollama" or "auto"

	OpenAIAPIKey string
	OpenAIModel  string

	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// NewAssistant creates an Assistant based on the config.
// Switch AI provider by changing config.Provider.
func NewAssistant(cfg Config) (Assistant, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if !ValidKey(cfg.OpenAIAPIKey) {
			return nil, ErrInvalidKey
		}
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil

	case ProviderOllama:
		return newOllama(cfg), nil

	case ProviderAuto, "":
		if ValidKey(cfg.OpenAIAPIKey) {
			return NewFallbackService(NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel), newOllama(cfg)), nil
		}
		return newOllama(cfg), nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

// WithKey returns a copy of cfg that uses key for OpenAI
func (cfg Config) WithKey(key string) Config {
	cfg.OpenAIAPIKey = key
	return cfg
}

func newOllama(cfg Config) *OllamaService {
	if cfg.GetOllamaBaseURL == nil || cfg.GetOllamaModel == nil {
		return NewOllamaService("", "")
	}
	return NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)
}
