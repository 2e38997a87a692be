// Package thread holds the Thread/Iteration/Finding data model: the unit of
// work the orchestration core drives from creation to a terminal status.
package thread

import "time"

// Status is one of the four states a Thread can occupy.
type Status string

const (
	StatusProcessing        Status = "PROCESSING"
	StatusAwaitingUserInput Status = "AWAITING_USER_INPUT"
	StatusCompleted         Status = "COMPLETED"
	StatusError             Status = "ERROR"
)

// SchemaVersion is stamped on every Thread for future migration of the
// iteration record format.
const SchemaVersion = "2.0"

// IterationType discriminates the two Iteration variants.
type IterationType string

const (
	IterationARFeedback       IterationType = "AR_FEEDBACK"
	IterationUserClarification IterationType = "USER_CLARIFICATION"
)

// LLMDecision marks why an AR_FEEDBACK iteration's rewrite prompt was built.
type LLMDecision string

const (
	LLMDecisionInitial  LLMDecision = "INITIAL"
	LLMDecisionContinue LLMDecision = "CONTINUE"
)

// Verdict is the overall validator verdict for one answer.
type Verdict string

const (
	VerdictValid                Verdict = "VALID"
	VerdictInvalid               Verdict = "INVALID"
	VerdictSatisfiable           Verdict = "SATISFIABLE"
	VerdictImpossible            Verdict = "IMPOSSIBLE"
	VerdictNoTranslations        Verdict = "NO_TRANSLATIONS"
	VerdictTranslationAmbiguous  Verdict = "TRANSLATION_AMBIGUOUS"
)

// FindingDetails carries the structured explanation behind one Finding.
type FindingDetails struct {
	Premises        []PremiseOrClaim `json:"premises"`
	Claims          []PremiseOrClaim `json:"claims"`
	SupportingRules []SupportingRule  `json:"supporting_rules"`
	Confidence      float64           `json:"confidence"`
}

// PremiseOrClaim pairs a natural-language statement with its logic form.
type PremiseOrClaim struct {
	NaturalLanguage string `json:"natural_language"`
	Logic           string `json:"logic"`
}

// SupportingRule names one rule the validator used to reach its verdict.
type SupportingRule struct {
	Identifier      string `json:"identifier"`
	NaturalLanguage string `json:"natural_language"`
}

// Finding is one atomic validator verdict on a piece of text.
type Finding struct {
	ValidationOutput Verdict        `json:"validation_output"`
	Details          FindingDetails `json:"details"`
}

// QAExchange records the questions asked for a clarification iteration and
// the answers (if any) the user supplied.
type QAExchange struct {
	Questions []string  `json:"questions"`
	Answers   *[]string `json:"answers"`
	Skipped   bool      `json:"skipped"`
}

// clone deep-copies a QAExchange, including its Answers slice, so a
// Snapshot reader can never mutate live store state through it.
func (qa *QAExchange) clone() *QAExchange {
	if qa == nil {
		return nil
	}
	cp := *qa
	if qa.Answers != nil {
		answers := make([]string, len(*qa.Answers))
		copy(answers, *qa.Answers)
		cp.Answers = &answers
	}
	return &cp
}

// Iteration is one pass through the validate-rewrite loop. Type selects the
// variant; only the field group for that variant (AR_FEEDBACK or
// USER_CLARIFICATION, below) is populated.
type Iteration struct {
	Type            IterationType `json:"iteration_type"`
	IterationNumber int           `json:"iteration_number"`
	OriginalAnswer  string        `json:"original_answer"`
	RewritingPrompt string        `json:"rewriting_prompt"`
	RewrittenAnswer string        `json:"rewritten_answer,omitempty"`

	// AR_FEEDBACK fields.
	Findings    []Finding   `json:"findings,omitempty"`
	LLMDecision LLMDecision `json:"llm_decision,omitempty"`

	// USER_CLARIFICATION fields.
	QAExchange          *QAExchange `json:"qa_exchange,omitempty"`
	ContextAugmentation string      `json:"context_augmentation,omitempty"`
	ValidationFindings  []Finding   `json:"validation_findings,omitempty"`

	// Shared verdict field: "validation_output" on both variants in the
	// spec's wire shape. Empty until the iteration's answer has been
	// validated — always so for a still-pending clarification.
	ValidationOutput Verdict `json:"validation_output,omitempty"`
}

// Config is the immutable configuration snapshot taken at Thread creation.
type Config struct {
	ModelID       string
	PolicyID      string
	MaxIterations int
}

// Thread is the unit of work and the only long-lived entity.
type Thread struct {
	ID             string    `json:"thread_id"`
	SchemaVersion  string    `json:"schema_version"`
	UserPrompt     string    `json:"user_prompt"`
	ModelID        string    `json:"model_id"`
	PolicyID       string    `json:"policy_id"`
	MaxIterations  int       `json:"max_iterations"`
	Status         Status    `json:"status"`
	Iterations     []Iteration `json:"iterations"`
	FinalResponse  string    `json:"final_response,omitempty"`
	WarningMessage string    `json:"warning_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	// pending holds the in-flight USER_CLARIFICATION iteration that has not
	// yet been promoted to Iterations (§4.7, §9). It is never exposed in
	// the JSON iteration history directly; GetThread surfaces it appended
	// to the visible history so callers can see the outstanding questions.
	pending *Iteration `json:"-"`

	// clarificationUsed enforces the single-clarification rule (§4.3 rule 4,
	// §9 Open Question 1) independently of scanning the whole history.
	clarificationUsed bool `json:"-"`
}

// IterationCounter is len(Iterations); the orchestrator's budget check.
func (t *Thread) IterationCounter() int {
	return len(t.Iterations)
}

// HasClarification reports whether a USER_CLARIFICATION iteration has
// already been produced (pending or promoted) in this thread.
func (t *Thread) HasClarification() bool {
	return t.clarificationUsed
}

// Pending returns the in-flight clarification iteration, if any.
func (t *Thread) Pending() *Iteration {
	return t.pending
}

// Snapshot returns a copy of the thread, safe to hand to a caller outside
// the store's lock: the Iterations slice, each QAExchange (with its
// Answers), the pending iteration and CompletedAt are copied. The Findings
// and ValidationFindings slices of each iteration are shared with the
// store, not copied.
func (t *Thread) Snapshot() *Thread {
	cp := *t
	cp.Iterations = make([]Iteration, len(t.Iterations))
	copy(cp.Iterations, t.Iterations)
	for i := range cp.Iterations {
		cp.Iterations[i].QAExchange = cp.Iterations[i].QAExchange.clone()
	}
	if t.pending != nil {
		pendingCopy := *t.pending
		pendingCopy.QAExchange = pendingCopy.QAExchange.clone()
		cp.pending = &pendingCopy
	}
	if t.CompletedAt != nil {
		completedCopy := *t.CompletedAt
		cp.CompletedAt = &completedCopy
	}
	return &cp
}

// EffectiveFindings returns the findings that explain this iteration's
// ValidationOutput, regardless of which variant it is.
func (it *Iteration) EffectiveFindings() []Finding {
	if it.Type == IterationUserClarification {
		return it.ValidationFindings
	}
	return it.Findings
}

// VisibleIterations returns the append-only history plus, if present, the
// pending clarification iteration as its last element — the view an
// external caller of GetThread sees.
func (t *Thread) VisibleIterations() []Iteration {
	if t.pending == nil {
		return t.Iterations
	}
	out := make([]Iteration, len(t.Iterations)+1)
	copy(out, t.Iterations)
	out[len(t.Iterations)] = *t.pending
	return out
}

// WithVisibleIterations returns a shallow copy of the thread whose
// Iterations field is VisibleIterations() rather than the raw append-only
// history — the shape GetThread/ListThreads/CreateThread/SubmitAnswers hand
// to external callers, so a caller polling a thread stuck in
// AWAITING_USER_INPUT can read the outstanding questions without reaching
// into unexported state. Internal iteration counting (budget checks, the
// Clarification Gate's trigger lookup) must keep using a plain Snapshot,
// not this view, since IterationCounter counts the unmerged history.
func (t *Thread) WithVisibleIterations() *Thread {
	cp := *t
	cp.Iterations = t.VisibleIterations()
	return &cp
}
