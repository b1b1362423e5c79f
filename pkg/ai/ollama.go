package ai

import (
	"context"
	"strings"
)

// OllamaService implements Assistant against a local Ollama server through
// its OpenAI-compatible endpoint. Base URL and model are read on every call
// so runtime settings changes apply immediately.
type OllamaService struct {
	getBaseURL func() string
	getModel   func() string
}

// NewOllamaService creates a new Ollama service
func NewOllamaService(baseURL, model string) *OllamaService {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.1"
	}
	return &OllamaService{
		getBaseURL: func() string { return baseURL },
		getModel:   func() string { return model },
	}
}

// NewOllamaServiceWithGetters creates a new Ollama service with dynamic getters
func NewOllamaServiceWithGetters(getBaseURL, getModel func() string) *OllamaService {
	return &OllamaService{
		getBaseURL: getBaseURL,
		getModel:   getModel,
	}
}

func (o *OllamaService) delegate() *OpenAIService {
	base := strings.TrimRight(o.getBaseURL(), "/") + "/v1"
	s := NewOpenAIServiceWithBaseURL("ollama", base, o.getModel())
	s.name = "ollama"
	return s
}

// ExtractTasks implements Assistant
func (o *OllamaService) ExtractTasks(ctx context.Context, req ExtractRequest) (*ExtractionResult, error) {
	return o.delegate().ExtractTasks(ctx, req)
}

// ProposeSchedule implements Assistant
func (o *OllamaService) ProposeSchedule(ctx context.Context, req ProposalRequest) (*ProposalResult, error) {
	return o.delegate().ProposeSchedule(ctx, req)
}

// Chat implements Assistant
func (o *OllamaService) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	return o.delegate().Chat(ctx, req)
}

// Ping checks that the Ollama server answers
func (o *OllamaService) Ping(ctx context.Context) error {
	return o.delegate().Ping(ctx)
}
