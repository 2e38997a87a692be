package validator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/apierr"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/retry"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"
)

// HTTPAdapter wraps a remote AR validation service, grounded on the
// teacher's internal/llm.OpenRouterClient retry/transient-error plumbing.
type HTTPAdapter struct {
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	logger     *slog.Logger
}

// NewHTTPAdapter builds an HTTP-backed validator adapter.
func NewHTTPAdapter(baseURL string, httpClient *http.Client, logger *slog.Logger) *HTTPAdapter {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = 2 // spec: one retry, then STOP(ERROR).
	return &HTTPAdapter{
		baseURL:    baseURL,
		httpClient: httpClient,
		policy:     policy,
		logger:     logger,
	}
}

type validateRequest struct {
	PolicyID string `json:"policy_id"`
	Answer   string `json:"answer"`
}

type validateResponse struct {
	Findings []thread.Finding `json:"findings"`
}

func (a *HTTPAdapter) Validate(ctx context.Context, policyID string, answer string) ([]thread.Finding, thread.Verdict, error) {
	reqBody, err := json.Marshal(validateRequest{PolicyID: policyID, Answer: answer})
	if err != nil {
		return nil, "", fmt.Errorf("marshal validate request: %w", err)
	}

	resp, body, err := retry.DoHTTP(ctx, a.policy, a.logger, func(ctx context.Context) (*http.Response, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/validate", bytes.NewReader(reqBody))
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		httpResp, err := a.httpClient.Do(req)
		if err != nil {
			return nil, nil, err
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		return httpResp, respBody, err
	})
	if err != nil {
		return nil, "", apierr.ValidatorUnavailable(err)
	}
	if resp.StatusCode >= 300 {
		return nil, "", apierr.ValidatorUnavailable(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var parsed validateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, "", apierr.ValidatorUnavailable(fmt.Errorf("decode validate response: %w", err))
	}

	return parsed.Findings, DeriveVerdict(parsed.Findings), nil
}
