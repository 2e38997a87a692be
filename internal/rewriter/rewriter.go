// Package rewriter builds the three prompt templates the orchestrator sends
// to the LLM Adapter: an AR-feedback rewrite, a clarification-question
// synthesis, and a post-clarification rewrite. It is stateless — wording is
// the implementer's choice per §4.4; only the structured inputs that must
// appear in each prompt are specified.
package rewriter

import (
	"fmt"
	"strings"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"
)

// MaxClarificationQuestions bounds the clarification-question list per §4.4(b).
const MaxClarificationQuestions = 5

// systemInstruction is the fixed system instruction the initial prompt is
// augmented with, per §4.2 step 1.
const systemInstruction = "You are an assistant whose answers are checked by an automated-reasoning validator. Answer precisely and only assert what you can support."

// Rewriter is stateless; a zero value is ready to use.
type Rewriter struct{}

// InitialPrompt builds the first-generation prompt of §4.2 step 1: the raw
// user prompt augmented with a fixed system instruction.
func (Rewriter) InitialPrompt(userPrompt string) string {
	return fmt.Sprintf("%s\n\n%s", systemInstruction, userPrompt)
}

// ARFeedbackPrompt builds the rewrite prompt of §4.4(a): preserve the
// user's intent while removing or correcting the claims the validator
// rejected.
func (Rewriter) ARFeedbackPrompt(userPrompt, previousAnswer string, findings []thread.Finding, verdict thread.Verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user asked:\n%s\n\n", userPrompt)
	fmt.Fprintf(&b, "Your previous answer was:\n%s\n\n", previousAnswer)
	fmt.Fprintf(&b, "An automated-reasoning validator scored that answer as %s, for these reasons:\n", verdict)
	writeFindings(&b, findings)
	b.WriteString("\nRewrite the answer so that it preserves the user's original intent while removing or correcting every claim the validator rejected. Output only the revised answer.")
	return b.String()
}

// ClarificationQuestionPrompt builds the question-synthesis prompt of
// §4.4(b): a bounded list of short follow-up questions that would make the
// claim decidable.
func (Rewriter) ClarificationQuestionPrompt(userPrompt, previousAnswer string, findings []thread.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user asked:\n%s\n\n", userPrompt)
	fmt.Fprintf(&b, "Your previous answer was:\n%s\n\n", previousAnswer)
	b.WriteString("An automated-reasoning validator found this answer SATISFIABLE but could not fully decide it given these premises:\n")
	writeFindings(&b, findings)
	fmt.Fprintf(&b, "\nList at most %d short, concrete follow-up questions whose answers would let the validator decide the claim. Output one question per line, nothing else.", MaxClarificationQuestions)
	return b.String()
}

// PostClarificationPrompt builds the rewrite prompt of §4.4(c): re-answer
// using the user's clarifications as additional context. If skipped, it
// falls back to the AR-feedback prompt.
func (Rewriter) PostClarificationPrompt(userPrompt, previousAnswer string, findings []thread.Finding, questions, answers []string, skipped bool, verdict thread.Verdict) string {
	if skipped {
		return Rewriter{}.ARFeedbackPrompt(userPrompt, previousAnswer, findings, verdict)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user asked:\n%s\n\n", userPrompt)
	fmt.Fprintf(&b, "Your previous answer was:\n%s\n\n", previousAnswer)
	b.WriteString("The user was asked for clarification and responded:\n")
	b.WriteString(Rewriter{}.ContextAugmentation(questions, answers, skipped))
	b.WriteString("\n\nRewrite the answer using this additional context so an automated-reasoning validator can certify it. Output only the revised answer.")
	return b.String()
}

// ContextAugmentation renders the user's clarification responses as the Q&A
// block a USER_CLARIFICATION iteration records in its context_augmentation
// field (§3) — the same text PostClarificationPrompt folds into its rewrite
// prompt, exposed separately so the orchestrator can persist it to the
// audit log rather than recompute it.
func (Rewriter) ContextAugmentation(questions, answers []string, skipped bool) string {
	if skipped {
		return ""
	}
	var b strings.Builder
	for i, q := range questions {
		answer := ""
		if i < len(answers) {
			answer = answers[i]
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", q, answer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeFindings(b *strings.Builder, findings []thread.Finding) {
	for _, f := range findings {
		fmt.Fprintf(b, "- [%s]", f.ValidationOutput)
		for _, claim := range f.Details.Claims {
			fmt.Fprintf(b, " claim: %q", claim.NaturalLanguage)
		}
		for _, rule := range f.Details.SupportingRules {
			fmt.Fprintf(b, " rule %s: %q", rule.Identifier, rule.NaturalLanguage)
		}
		b.WriteString("\n")
	}
}
