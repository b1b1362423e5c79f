package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// FallbackService routes every call to the primary provider and retries on
// the secondary one when the primary fails
// - OpenAI first (tool calling quality)
// - Ollama on quota exhaustion or connection failure
type FallbackService struct {
	primary   Assistant
	secondary Assistant
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(primary, secondary Assistant) *FallbackService {
	return &FallbackService{
		primary:   primary,
		secondary: secondary,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
	}
	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// shouldFallback reports whether a primary failure is worth retrying elsewhere
func shouldFallback(err error) bool {
	return isQuotaError(err) || isConnectionError(err)
}

// ExtractTasks implements Assistant
func (f *FallbackService) ExtractTasks(ctx context.Context, req ExtractRequest) (*ExtractionResult, error) {
	if f.primary != nil {
		result, err := f.primary.ExtractTasks(ctx, req)
		if err == nil {
			return result, nil
		}
		if f.secondary == nil || !shouldFallback(err) {
			return nil, err
		}
		log.Printf("[AI] Primary provider failed for task extraction: %v, falling back", err)
	}

	if f.secondary != nil {
		result, err := f.secondary.ExtractTasks(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fallback task extraction failed: %w", err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("no AI provider available for task extraction")
}

// ProposeSchedule implements Assistant
func (f *FallbackService) ProposeSchedule(ctx context.Context, req ProposalRequest) (*ProposalResult, error) {
	if f.primary != nil {
		result, err := f.primary.ProposeSchedule(ctx, req)
		if err == nil {
			return result, nil
		}
		if f.secondary == nil || !shouldFallback(err) {
			return nil, err
		}
		log.Printf("[AI] Primary provider failed for schedule proposal: %v, falling back", err)
	}

	if f.secondary != nil {
		result, err := f.secondary.ProposeSchedule(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fallback schedule proposal failed: %w", err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("no AI provider available for schedule proposal")
}

// Chat implements Assistant
func (f *FallbackService) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	if f.primary != nil {
		reply, err := f.primary.Chat(ctx, req)
		if err == nil {
			return reply, nil
		}
		if f.secondary == nil || !shouldFallback(err) {
			return nil, err
		}
		log.Printf("[AI] Primary provider failed for chat: %v, falling back", err)
	}

	if f.secondary != nil {
		reply, err := f.secondary.Chat(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fallback chat failed: %w", err)
		}
		return reply, nil
	}
	return nil, fmt.Errorf("no AI provider available for chat")
}
