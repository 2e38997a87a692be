package orchestrator

import (
	"context"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"
)

// SubmitAnswers resolves the pending clarification iteration of §4.7: it
// records the user's answers (or a skip), rewrites the answer with that
// additional context, validates the result, promotes the completed
// iteration to the history, and then resumes the ordinary loop by calling
// Run again — exactly as if a fresh AR_FEEDBACK iteration had just landed.
func (o *Orchestrator) SubmitAnswers(ctx context.Context, threadID string, answers *[]string, skipped bool) error {
	t, err := o.store.Get(ctx, threadID)
	if err != nil {
		return err
	}

	resolved, err := o.store.ResolvePending(ctx, threadID, answers, skipped)
	if err != nil {
		return err
	}

	// The AR_FEEDBACK iteration that triggered the clarification carries the
	// findings and verdict the rewrite prompt needs; it is always the last
	// promoted iteration, since the pending slot is not itself in history.
	var trigger thread.Iteration
	if n := len(t.Iterations); n > 0 {
		trigger = t.Iterations[n-1]
	}

	var resolvedAnswers []string
	if resolved.QAExchange.Answers != nil {
		resolvedAnswers = *resolved.QAExchange.Answers
	}
	resolved.ContextAugmentation = o.rewriter.ContextAugmentation(resolved.QAExchange.Questions, resolvedAnswers, resolved.QAExchange.Skipped)

	prompt := o.rewriter.PostClarificationPrompt(
		t.UserPrompt,
		resolved.OriginalAnswer,
		trigger.EffectiveFindings(),
		resolved.QAExchange.Questions,
		resolvedAnswers,
		resolved.QAExchange.Skipped,
		trigger.ValidationOutput,
	)

	answer, err := o.llm.Generate(ctx, t.ModelID, prompt)
	if err != nil {
		return o.promoteThenFinalizeError(ctx, threadID, resolved, resolved.OriginalAnswer, "model", err)
	}

	findings, verdict, err := o.validator.Validate(ctx, t.PolicyID, answer)
	if err != nil {
		return o.promoteThenFinalizeError(ctx, threadID, resolved, answer, "validator", err)
	}

	resolved.RewritingPrompt = prompt
	resolved.RewrittenAnswer = answer
	resolved.ValidationFindings = findings
	resolved.ValidationOutput = verdict

	if err := o.store.PromotePending(ctx, threadID, resolved); err != nil {
		return err
	}

	return o.Run(ctx, threadID)
}

// promoteThenFinalizeError still promotes the clarification iteration — the
// questions and answers belong in the audit log even when the rewrite that
// followed them failed — then transitions the thread to ERROR with the best
// available answer, per §7.
func (o *Orchestrator) promoteThenFinalizeError(ctx context.Context, threadID string, resolved thread.Iteration, bestAnswer, which string, cause error) error {
	resolved.RewrittenAnswer = bestAnswer
	if err := o.store.PromotePending(ctx, threadID, resolved); err != nil {
		return err
	}
	return o.finalizeAdapterError(ctx, threadID, bestAnswer, which, cause)
}
