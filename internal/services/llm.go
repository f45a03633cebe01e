package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/repolens/reviewserver/internal/config"
	"github.com/repolens/reviewserver/internal/logger"
)

var (
	ErrLLMAPIError      = errors.New("llm api error")
	ErrLLMEmptyResponse = errors.New("llm returned no choices")
)

const (
	llmRequestTimeout = 30 * time.Second
	llmMaxAttempts    = 3
	llmRetryDelay     = 2 * time.Second
)

// LLMService calls an OpenAI-compatible chat completions API to review code
type LLMService struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
	retryDelay  time.Duration
}

// NewLLMService creates a new LLMService instance from the application config
func NewLLMService(cfg *config.Config) *LLMService {
	return &LLMService{
		baseURL:     strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		apiKey:      cfg.OpenAIAPIKey,
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: llmRequestTimeout},
		retryDelay:  llmRetryDelay,
	}
}

// chatMessage is a single message in a chat completions request
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the chat completions endpoint
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

// chatResponse is the subset of the chat completions response we consume
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ReviewCode sends the given code to the chat completions API and returns the
// model's review. Connection timeouts are retried up to three times with a
// short delay between attempts.
func (s *LLMService) ReviewCode(ctx context.Context, code, assignmentDescription, candidateLevel string) (string, error) {
	prompt := s.buildPrompt(code, assignmentDescription, candidateLevel)

	body, err := json.Marshal(chatRequest{
		Model:       s.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= llmMaxAttempts; attempt++ {
		analysis, err := s.doRequest(ctx, body)
		if err == nil {
			return analysis, nil
		}

		if !isRetryable(err) {
			return "", err
		}

		lastErr = err
		logger.WithFields(map[string]interface{}{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Chat completions request timed out, retrying")

		if attempt < llmMaxAttempts {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("chat completions request failed after %d attempts: %w", llmMaxAttempts, lastErr)
}

// doRequest performs a single chat completions request
func (s *LLMService) doRequest(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		s.baseURL+"/chat/completions",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completions request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.WithField("status_code", resp.StatusCode).Warn("Chat completions API returned non-OK status")
		return "", fmt.Errorf("%w: status code %d", ErrLLMAPIError, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", ErrLLMEmptyResponse
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// buildPrompt constructs the review prompt for a single file
func (s *LLMService) buildPrompt(code, assignmentDescription, candidateLevel string) string {
	return fmt.Sprintf(
		"Please review the following code in the context of a coding assignment:\n\n"+
			"Assignment Description: %s\n"+
			"Candidate Level: %s\n\n"+
			"Code:\n%s\n",
		assignmentDescription, candidateLevel, code,
	)
}

// isRetryable reports whether the request error is a timeout or connection
// failure worth retrying
func isRetryable(err error) bool {
	if errors.Is(err, ErrLLMAPIError) || errors.Is(err, ErrLLMEmptyResponse) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout() || urlErr.Temporary()
	}
	return false
}
