package validator

import (
	"context"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"
)

// StubAdapter is a deterministic, in-memory Adapter for tests, grounded on
// the teacher's mockClient pattern in internal/llm/dialog_service_test.go.
type StubAdapter struct {
	// ValidateFunc, if set, is called directly.
	ValidateFunc func(ctx context.Context, policyID, answer string) ([]thread.Finding, thread.Verdict, error)

	// Responses is consumed in order, one per call, when ValidateFunc is
	// nil — useful for scripting a sequence of validator turns.
	Responses []StubResponse
	calls     int
}

// StubResponse is one scripted validator turn.
type StubResponse struct {
	Findings []thread.Finding
	Err      error
}

func (a *StubAdapter) Validate(ctx context.Context, policyID string, answer string) ([]thread.Finding, thread.Verdict, error) {
	if a.ValidateFunc != nil {
		return a.ValidateFunc(ctx, policyID, answer)
	}
	if a.calls >= len(a.Responses) {
		return nil, "", nil
	}
	resp := a.Responses[a.calls]
	a.calls++
	if resp.Err != nil {
		return nil, "", resp.Err
	}
	return resp.Findings, DeriveVerdict(resp.Findings), nil
}
