// Package policy implements the Decision Policy of §4.3: given the latest
// validation verdict and the thread's history, choose CONTINUE, ASK_USER or
// STOP.
package policy

import "github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"

// Kind discriminates the three Decision outcomes.
type Kind string

const (
	KindContinue Kind = "CONTINUE"
	KindAskUser  Kind = "ASK_USER"
	KindStop     Kind = "STOP"
)

// StopReason explains why a STOP decision was reached.
type StopReason string

const (
	StopSuccess         StopReason = "success"
	StopBudgetExhausted StopReason = "budget_exhausted"
	StopOutOfPolicy     StopReason = "out_of_policy"
	StopError           StopReason = "error"
)

// Decision is the tagged-union result of Decide.
type Decision struct {
	Kind      Kind
	Questions []string
	Reason    StopReason
}

// Decide implements §4.3's ordered rule list exactly:
//  1. latest verdict VALID -> STOP(success)
//  2. budget about to be exceeded -> STOP(budget_exhausted)
//  3. NO_TRANSLATIONS / TRANSLATION_AMBIGUOUS -> STOP(out_of_policy)
//  4. SATISFIABLE and no clarification used yet -> ASK_USER
//  5. otherwise (INVALID, IMPOSSIBLE, or SATISFIABLE after clarification) -> CONTINUE
//
// Decide itself is pure and does no I/O; the orchestrator synthesizes the
// ASK_USER questions separately via the Rewriter and the LLM Adapter.
func Decide(iterationCounter, maxIterations int, verdict thread.Verdict, clarificationUsed bool) Decision {
	if verdict == thread.VerdictValid {
		return Decision{Kind: KindStop, Reason: StopSuccess}
	}
	if iterationCounter+1 > maxIterations {
		return Decision{Kind: KindStop, Reason: StopBudgetExhausted}
	}
	if verdict == thread.VerdictNoTranslations || verdict == thread.VerdictTranslationAmbiguous {
		return Decision{Kind: KindStop, Reason: StopOutOfPolicy}
	}
	if verdict == thread.VerdictSatisfiable && !clarificationUsed {
		return Decision{Kind: KindAskUser}
	}
	return Decision{Kind: KindContinue}
}
