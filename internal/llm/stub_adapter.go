package llm

import "context"

// StubAdapter is a deterministic, in-memory Adapter for tests, grounded on
// the teacher's mockClient pattern in internal/llm/dialog_service_test.go.
type StubAdapter struct {
	GenerateFunc func(ctx context.Context, modelID, prompt string) (string, error)

	// Responses is consumed in order, one per call, when GenerateFunc is
	// nil.
	Responses []StubResponse
	calls     int
}

// StubResponse is one scripted LLM turn.
type StubResponse struct {
	Answer string
	Err    error
}

func (a *StubAdapter) Generate(ctx context.Context, modelID string, prompt string) (string, error) {
	if a.GenerateFunc != nil {
		return a.GenerateFunc(ctx, modelID, prompt)
	}
	if a.calls >= len(a.Responses) {
		return "", nil
	}
	resp := a.Responses[a.calls]
	a.calls++
	return resp.Answer, resp.Err
}
