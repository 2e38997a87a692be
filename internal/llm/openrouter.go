package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/apierr"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/config"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/retry"
)

// OpenRouterAdapter implements Adapter over the OpenRouter chat-completions
// API, generalised from the teacher's internal/llm.OpenRouterClient: one
// prompt in, one answer out, no dialog history of its own.
type OpenRouterAdapter struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
	policy       retry.Policy
	logger       *slog.Logger
}

// NewOpenRouterAdapter builds an OpenRouter-backed LLM adapter.
func NewOpenRouterAdapter(cfg config.OpenRouterConfig, httpClient *http.Client, logger *slog.Logger) *OpenRouterAdapter {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = 2 // spec: one retry, then STOP(ERROR).
	return &OpenRouterAdapter{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		httpClient:   httpClient,
		policy:       policy,
		logger:       logger,
	}
}

func (a *OpenRouterAdapter) Generate(ctx context.Context, modelID string, prompt string) (string, error) {
	if modelID == "" {
		modelID = a.defaultModel
	}
	if modelID == "" {
		return "", apierr.ConfigError("model id is required")
	}

	reqBody, err := json.Marshal(openRouterRequest{
		Model:    modelID,
		Messages: []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal openrouter request: %w", err)
	}

	resp, body, err := retry.DoHTTP(ctx, a.policy, a.logger, func(ctx context.Context) (*http.Response, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(reqBody))
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if a.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+a.apiKey)
		}

		httpResp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, nil, err
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		return httpResp, respBody, err
	})
	if err != nil {
		return "", apierr.ModelUnavailable(err)
	}
	if resp.StatusCode >= 300 {
		return "", apierr.ModelUnavailable(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed openRouterResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apierr.ModelUnavailable(fmt.Errorf("decode openrouter response: %w", err))
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", apierr.ModelUnavailable(errors.New("empty response from model"))
	}
	return parsed.Choices[0].Message.Content, nil
}

type openRouterRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}
