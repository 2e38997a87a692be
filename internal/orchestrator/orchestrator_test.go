package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/llm"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/validator"
)

type allowAllCatalog struct{}

func (allowAllCatalog) IsValidModel(string) bool  { return true }
func (allowAllCatalog) IsValidPolicy(string) bool { return true }

func newTestOrchestrator(llmAdapter *llm.StubAdapter, validatorAdapter *validator.StubAdapter) (*Orchestrator, thread.Store) {
	store := thread.NewMemoryStore(allowAllCatalog{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, llmAdapter, validatorAdapter, logger), store
}

func finding(v thread.Verdict) thread.Finding {
	return thread.Finding{ValidationOutput: v}
}

// Scenario 1: happy path.
func TestScenario_HappyPath(t *testing.T) {
	llmAdapter := &llm.StubAdapter{Responses: []llm.StubResponse{{Answer: "4"}}}
	validatorAdapter := &validator.StubAdapter{Responses: []validator.StubResponse{{Findings: []thread.Finding{finding(thread.VerdictValid)}}}}
	o, store := newTestOrchestrator(llmAdapter, validatorAdapter)

	tr, err := store.Create(context.Background(), thread.Config{ModelID: "m", PolicyID: "p", MaxIterations: 5}, "What is 2+2?")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := o.Run(context.Background(), tr.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := store.Get(context.Background(), tr.ID)
	if got.Status != thread.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}
	if len(got.Iterations) != 1 {
		t.Fatalf("expected 1 iteration, got %d", len(got.Iterations))
	}
	if got.Iterations[0].IterationNumber != 0 || got.Iterations[0].Type != thread.IterationARFeedback || got.Iterations[0].LLMDecision != thread.LLMDecisionInitial {
		t.Fatalf("unexpected iteration 0: %+v", got.Iterations[0])
	}
	if got.FinalResponse != "4" {
		t.Fatalf("expected final_response '4', got %q", got.FinalResponse)
	}
	if got.WarningMessage != "" {
		t.Fatalf("expected no warning, got %q", got.WarningMessage)
	}
}

// Scenario 2: one rewrite.
func TestScenario_OneRewrite(t *testing.T) {
	llmAdapter := &llm.StubAdapter{Responses: []llm.StubResponse{{Answer: "5"}, {Answer: "4"}}}
	validatorAdapter := &validator.StubAdapter{Responses: []validator.StubResponse{
		{Findings: []thread.Finding{finding(thread.VerdictInvalid)}},
		{Findings: []thread.Finding{finding(thread.VerdictValid)}},
	}}
	o, store := newTestOrchestrator(llmAdapter, validatorAdapter)

	tr, _ := store.Create(context.Background(), thread.Config{ModelID: "m", PolicyID: "p", MaxIterations: 5}, "q")
	if err := o.Run(context.Background(), tr.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := store.Get(context.Background(), tr.ID)
	if got.Status != thread.StatusCompleted || got.FinalResponse != "4" {
		t.Fatalf("expected COMPLETED with final_response '4', got %s / %q", got.Status, got.FinalResponse)
	}
	if len(got.Iterations) != 2 {
		t.Fatalf("expected 2 iterations, got %d", len(got.Iterations))
	}
	if got.Iterations[1].OriginalAnswer != "5" || got.Iterations[1].RewrittenAnswer != "4" {
		t.Fatalf("unexpected iteration 1: %+v", got.Iterations[1])
	}
}

// Scenario 3: clarification path.
func TestScenario_ClarificationPath(t *testing.T) {
	llmAdapter := &llm.StubAdapter{Responses: []llm.StubResponse{
		{Answer: "initial answer"},
		{Answer: "Which year?\nWhich region?"},
		{Answer: "final answer"},
	}}
	validatorAdapter := &validator.StubAdapter{Responses: []validator.StubResponse{
		{Findings: []thread.Finding{finding(thread.VerdictSatisfiable)}},
		{Findings: []thread.Finding{finding(thread.VerdictValid)}},
	}}
	o, store := newTestOrchestrator(llmAdapter, validatorAdapter)

	tr, _ := store.Create(context.Background(), thread.Config{ModelID: "m", PolicyID: "p", MaxIterations: 5}, "q")
	if err := o.Run(context.Background(), tr.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	awaiting, _ := store.Get(context.Background(), tr.ID)
	if awaiting.Status != thread.StatusAwaitingUserInput {
		t.Fatalf("expected AWAITING_USER_INPUT, got %s", awaiting.Status)
	}
	pending := awaiting.Pending()
	if pending == nil {
		t.Fatalf("expected a pending clarification iteration")
	}
	if len(pending.QAExchange.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %+v", pending.QAExchange.Questions)
	}

	if err := o.SubmitAnswers(context.Background(), tr.ID, &[]string{"2024", "EU"}, false); err != nil {
		t.Fatalf("SubmitAnswers failed: %v", err)
	}

	got, _ := store.Get(context.Background(), tr.ID)
	if got.Status != thread.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}
	if len(got.Iterations) != 2 {
		t.Fatalf("expected 2 iterations, got %d", len(got.Iterations))
	}
	clarification := got.Iterations[1]
	if clarification.Type != thread.IterationUserClarification {
		t.Fatalf("expected iteration 1 to be USER_CLARIFICATION, got %s", clarification.Type)
	}
	if clarification.QAExchange.Answers == nil || strings.Join(*clarification.QAExchange.Answers, ",") != "2024,EU" {
		t.Fatalf("unexpected answers: %+v", clarification.QAExchange.Answers)
	}
	if clarification.ValidationOutput != thread.VerdictValid {
		t.Fatalf("expected VALID on the clarification iteration, got %s", clarification.ValidationOutput)
	}
	if !strings.Contains(clarification.ContextAugmentation, "2024") || !strings.Contains(clarification.ContextAugmentation, "EU") {
		t.Fatalf("expected context_augmentation to record the Q&A pairs, got %q", clarification.ContextAugmentation)
	}
}

// Scenario 4: skip path, engineered to exhaust the budget right after the
// clarification resolves so the loop does not need a further rewrite round.
func TestScenario_SkipPath(t *testing.T) {
	llmAdapter := &llm.StubAdapter{Responses: []llm.StubResponse{
		{Answer: "initial answer"},
		{Answer: "Which year?\nWhich region?"},
		{Answer: "skip rewrite answer"},
	}}
	validatorAdapter := &validator.StubAdapter{Responses: []validator.StubResponse{
		{Findings: []thread.Finding{finding(thread.VerdictSatisfiable)}},
		{Findings: []thread.Finding{finding(thread.VerdictInvalid)}},
	}}
	o, store := newTestOrchestrator(llmAdapter, validatorAdapter)

	tr, _ := store.Create(context.Background(), thread.Config{ModelID: "m", PolicyID: "p", MaxIterations: 2}, "q")
	if err := o.Run(context.Background(), tr.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if err := o.SubmitAnswers(context.Background(), tr.ID, nil, true); err != nil {
		t.Fatalf("SubmitAnswers failed: %v", err)
	}

	got, _ := store.Get(context.Background(), tr.ID)
	if got.Status != thread.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}
	clarification := got.Iterations[1]
	if clarification.ValidationOutput == thread.VerdictValid {
		t.Fatalf("scenario requires a non-VALID verdict on the clarification iteration")
	}
	if !clarification.QAExchange.Skipped {
		t.Fatalf("expected qa_exchange.skipped=true")
	}
	if got.FinalResponse != "skip rewrite answer" {
		t.Fatalf("expected final_response 'skip rewrite answer', got %q", got.FinalResponse)
	}
	if !strings.Contains(got.WarningMessage, "budget") {
		t.Fatalf("expected a budget warning, got %q", got.WarningMessage)
	}
}

// Scenario 5: budget exhaustion.
func TestScenario_BudgetExhaustion(t *testing.T) {
	llmAdapter := &llm.StubAdapter{Responses: []llm.StubResponse{{Answer: "a0"}, {Answer: "a1"}}}
	validatorAdapter := &validator.StubAdapter{Responses: []validator.StubResponse{
		{Findings: []thread.Finding{finding(thread.VerdictInvalid)}},
		{Findings: []thread.Finding{finding(thread.VerdictInvalid)}},
		{Findings: []thread.Finding{finding(thread.VerdictInvalid)}},
	}}
	o, store := newTestOrchestrator(llmAdapter, validatorAdapter)

	tr, _ := store.Create(context.Background(), thread.Config{ModelID: "m", PolicyID: "p", MaxIterations: 2}, "q")
	if err := o.Run(context.Background(), tr.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := store.Get(context.Background(), tr.ID)
	if got.Status != thread.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}
	if len(got.Iterations) != 2 {
		t.Fatalf("expected exactly 2 iterations (the budget), got %d", len(got.Iterations))
	}
	if got.FinalResponse != got.Iterations[1].RewrittenAnswer {
		t.Fatalf("expected final_response to equal the last iteration's answer")
	}
	if !strings.Contains(got.WarningMessage, "budget") {
		t.Fatalf("expected a budget warning, got %q", got.WarningMessage)
	}
}

// Scenario 6: out-of-policy.
func TestScenario_OutOfPolicy(t *testing.T) {
	llmAdapter := &llm.StubAdapter{Responses: []llm.StubResponse{{Answer: "initial"}}}
	validatorAdapter := &validator.StubAdapter{Responses: []validator.StubResponse{
		{Findings: []thread.Finding{finding(thread.VerdictNoTranslations)}},
	}}
	o, store := newTestOrchestrator(llmAdapter, validatorAdapter)

	tr, _ := store.Create(context.Background(), thread.Config{ModelID: "m", PolicyID: "p", MaxIterations: 5}, "q")
	if err := o.Run(context.Background(), tr.ID); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := store.Get(context.Background(), tr.ID)
	if got.Status != thread.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got.Status)
	}
	if len(got.Iterations) != 1 {
		t.Fatalf("expected exactly 1 iteration, got %d", len(got.Iterations))
	}
	if got.FinalResponse != "initial" {
		t.Fatalf("expected final_response 'initial', got %q", got.FinalResponse)
	}
	if !strings.Contains(strings.ToLower(got.WarningMessage), "polic") {
		t.Fatalf("expected warning to mention policy scope, got %q", got.WarningMessage)
	}
}

// Adapter failure: a model outage during an ordinary rewrite ends the
// thread in ERROR with the best available answer, never propagating the
// transport error to the caller (§7).
func TestAdapterFailure_EndsInError(t *testing.T) {
	llmAdapter := &llm.StubAdapter{Responses: []llm.StubResponse{{Answer: "a0"}, {Err: context.DeadlineExceeded}}}
	validatorAdapter := &validator.StubAdapter{Responses: []validator.StubResponse{
		{Findings: []thread.Finding{finding(thread.VerdictInvalid)}},
	}}
	o, store := newTestOrchestrator(llmAdapter, validatorAdapter)

	tr, _ := store.Create(context.Background(), thread.Config{ModelID: "m", PolicyID: "p", MaxIterations: 5}, "q")
	if err := o.Run(context.Background(), tr.ID); err != nil {
		t.Fatalf("Run should absorb adapter failures, got error: %v", err)
	}

	got, _ := store.Get(context.Background(), tr.ID)
	if got.Status != thread.StatusError {
		t.Fatalf("expected ERROR, got %s", got.Status)
	}
	if got.FinalResponse != "a0" {
		t.Fatalf("expected best-available answer 'a0', got %q", got.FinalResponse)
	}
	if got.WarningMessage == "" {
		t.Fatalf("expected a warning describing the adapter failure")
	}
}
