// Package orchestrator runs the validate-rewrite loop of §4.2 for one
// thread at a time and exposes the seven external operations of §6. It is
// grounded on the teacher's internal/llm.DialogService: the same
// read-history, call-adapter, persist, decide-what's-next shape, generalised
// from a single chat turn into a multi-iteration AR-feedback loop.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/apierr"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/llm"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/policy"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/rewriter"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/validator"
)

// Orchestrator drives a single Thread through generation, validation and
// decision until it reaches a terminal status or suspends for clarification.
// It holds no per-thread state of its own; internal/thread.Store is the only
// synchronisation point (§4.1).
type Orchestrator struct {
	store     thread.Store
	llm       llm.Adapter
	validator validator.Adapter
	rewriter  rewriter.Rewriter
	logger    *slog.Logger
}

// New builds an Orchestrator over its store and its two adapters.
func New(store thread.Store, llmAdapter llm.Adapter, validatorAdapter validator.Adapter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     store,
		llm:       llmAdapter,
		validator: validatorAdapter,
		logger:    logger,
	}
}

// Run drives threadID forward until it reaches COMPLETED, ERROR, or
// AWAITING_USER_INPUT. It is safe to call again on a thread already in a
// terminal or awaiting state: it is then a no-op (§4.2: "invoked once after
// creation, and each time a clarification answer arrives").
func (o *Orchestrator) Run(ctx context.Context, threadID string) error {
	for {
		t, err := o.store.Get(ctx, threadID)
		if err != nil {
			return err
		}
		if t.Status != thread.StatusProcessing {
			return nil
		}

		if len(t.Iterations) == 0 {
			prompt := o.rewriter.InitialPrompt(t.UserPrompt)
			if err := o.stepARFeedback(ctx, t, "", prompt, thread.LLMDecisionInitial); err != nil {
				return err
			}
			continue
		}

		last := t.Iterations[len(t.Iterations)-1]
		decision := policy.Decide(t.IterationCounter(), t.MaxIterations, last.ValidationOutput, t.HasClarification())

		switch decision.Kind {
		case policy.KindStop:
			warning := stopWarning(decision.Reason)
			if err := o.store.UpdateStatus(ctx, t.ID, thread.StatusCompleted, last.RewrittenAnswer, warning); err != nil {
				return err
			}
			return nil

		case policy.KindAskUser:
			if err := o.askUser(ctx, t, &last); err != nil {
				return err
			}
			return nil

		case policy.KindContinue:
			prompt := o.rewriter.ARFeedbackPrompt(t.UserPrompt, last.RewrittenAnswer, last.EffectiveFindings(), last.ValidationOutput)
			if err := o.stepARFeedback(ctx, t, last.RewrittenAnswer, prompt, thread.LLMDecisionContinue); err != nil {
				return err
			}
			continue
		}
	}
}

// stepARFeedback generates one answer, validates it, and appends the
// resulting AR_FEEDBACK iteration. Adapter failures are absorbed into an
// ERROR transition per §7 — they never escape to the caller as a Go error;
// only a genuine store-level error (a bug, not an upstream failure) does.
func (o *Orchestrator) stepARFeedback(ctx context.Context, t *thread.Thread, originalAnswer, prompt string, decision thread.LLMDecision) error {
	answer, err := o.llm.Generate(ctx, t.ModelID, prompt)
	if err != nil {
		return o.finalizeAdapterError(ctx, t.ID, originalAnswer, "model", err)
	}

	findings, verdict, err := o.validator.Validate(ctx, t.PolicyID, answer)
	if err != nil {
		return o.finalizeAdapterError(ctx, t.ID, answer, "validator", err)
	}

	it := thread.Iteration{
		Type:             thread.IterationARFeedback,
		OriginalAnswer:   originalAnswer,
		RewritingPrompt:  prompt,
		RewrittenAnswer:  answer,
		Findings:         findings,
		LLMDecision:      decision,
		ValidationOutput: verdict,
	}

	if err := o.store.AppendIteration(ctx, t.ID, it); err != nil {
		if apierr.Is(err, apierr.KindBudgetExceeded) {
			return o.store.UpdateStatus(ctx, t.ID, thread.StatusCompleted, answer, stopWarning(policy.StopBudgetExhausted))
		}
		return err
	}
	return nil
}

// askUser synthesises the clarification questions of §4.4(b) and suspends
// the thread. If the LLM's reply yields no usable questions, the thread
// degrades to an AR-feedback rewrite instead of stalling forever — a
// judgement call the decision policy itself does not have to make.
func (o *Orchestrator) askUser(ctx context.Context, t *thread.Thread, last *thread.Iteration) error {
	qPrompt := o.rewriter.ClarificationQuestionPrompt(t.UserPrompt, last.RewrittenAnswer, last.Findings)
	raw, err := o.llm.Generate(ctx, t.ModelID, qPrompt)
	if err != nil {
		return o.finalizeAdapterError(ctx, t.ID, last.RewrittenAnswer, "model", err)
	}

	questions := parseQuestions(raw)
	if len(questions) == 0 {
		prompt := o.rewriter.ARFeedbackPrompt(t.UserPrompt, last.RewrittenAnswer, last.Findings, last.ValidationOutput)
		return o.stepARFeedback(ctx, t, last.RewrittenAnswer, prompt, thread.LLMDecisionContinue)
	}

	pending := thread.Iteration{
		OriginalAnswer:  last.RewrittenAnswer,
		RewritingPrompt: qPrompt,
		QAExchange:      &thread.QAExchange{Questions: questions},
	}
	return o.store.SetPending(ctx, t.ID, pending)
}

func (o *Orchestrator) finalizeAdapterError(ctx context.Context, threadID, bestAnswer, which string, cause error) error {
	warning := fmt.Sprintf("%s adapter unavailable after retry: %v", which, cause)
	o.logger.Warn("orchestrator step failed", slog.String("thread_id", threadID), slog.String("adapter", which), slog.Any("cause", cause))
	return o.store.UpdateStatus(ctx, threadID, thread.StatusError, bestAnswer, warning)
}

func stopWarning(reason policy.StopReason) string {
	switch reason {
	case policy.StopBudgetExhausted:
		return "iteration budget exhausted before the validator returned VALID"
	case policy.StopOutOfPolicy:
		return "question falls outside the scope of the active policy: validator could not translate the answer into a decidable claim"
	default:
		return ""
	}
}

// parseQuestions turns the LLM's free-form question list into a bounded,
// cleaned slice: one non-empty line per question, common list markers
// stripped, capped at rewriter.MaxClarificationQuestions.
func parseQuestions(raw string) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		q := strings.TrimSpace(line)
		q = strings.TrimLeft(q, "0123456789.)- \t")
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == rewriter.MaxClarificationQuestions {
			break
		}
	}
	return out
}
