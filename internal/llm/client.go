// Package llm wraps the external text-generation service behind a single
// textual prompt in, single answer out contract (§4.6). The orchestrator's
// Thread iterations are the conversation history; this adapter is
// deliberately stateless between calls.
package llm

import "context"

// Adapter is the minimal public interface the orchestrator depends on.
type Adapter interface {
	Generate(ctx context.Context, modelID string, prompt string) (string, error)
}
