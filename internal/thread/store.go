package thread

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/apierr"
)

// CatalogChecker is consulted by Create to validate a model_id/policy_id
// pair before a Thread is minted. Kept as a narrow interface so the store
// never imports internal/catalog directly.
type CatalogChecker interface {
	IsValidModel(modelID string) bool
	IsValidPolicy(policyID string) bool
}

// Store is the single synchronisation point for Thread state: the narrow
// interface behind which a future persistent implementation can drop in
// (§9 design note).
type Store interface {
	Create(ctx context.Context, cfg Config, userPrompt string) (*Thread, error)
	Get(ctx context.Context, threadID string) (*Thread, error)
	List(ctx context.Context) ([]*Thread, error)

	// AppendIteration appends a completed iteration, atomic with respect to
	// concurrent readers. Fails with apierr.BudgetExceeded if the thread's
	// iteration counter is already at max_iterations.
	AppendIteration(ctx context.Context, threadID string, it Iteration) error

	// SetPending installs the in-flight USER_CLARIFICATION iteration and
	// transitions the thread to AWAITING_USER_INPUT.
	SetPending(ctx context.Context, threadID string, it Iteration) error

	// ResolvePending supplies answers (or a skip) for the pending
	// iteration without promoting it to the history yet; the orchestrator
	// completes the iteration's validation fields and calls
	// PromotePending once it has rewritten and validated the answer.
	ResolvePending(ctx context.Context, threadID string, answers *[]string, skipped bool) (Iteration, error)

	// PromotePending appends the now-complete pending iteration to the
	// history and clears the pending slot. Because the clarification is only
	// appended once complete, no record already in the history is ever
	// modified (§4.7, §9).
	PromotePending(ctx context.Context, threadID string, completed Iteration) error

	UpdateStatus(ctx context.Context, threadID string, newStatus Status, finalResponse, warning string) error
}

type entry struct {
	mu     sync.Mutex
	thread *Thread
}

// MemoryStore is a mutex-guarded in-memory Store, grounded on the teacher's
// auth.MemoryStore/llm.MemoryDialogStore map-behind-a-lock pattern.
type MemoryStore struct {
	catalog CatalogChecker

	mu      sync.RWMutex
	threads map[string]*entry
}

// NewMemoryStore creates an empty in-memory thread store.
func NewMemoryStore(catalog CatalogChecker) *MemoryStore {
	return &MemoryStore{
		catalog: catalog,
		threads: make(map[string]*entry),
	}
}

func (s *MemoryStore) Create(ctx context.Context, cfg Config, userPrompt string) (*Thread, error) {
	if !s.catalog.IsValidModel(cfg.ModelID) {
		return nil, apierr.ConfigError(fmt.Sprintf("unknown model_id %q", cfg.ModelID))
	}
	if !s.catalog.IsValidPolicy(cfg.PolicyID) {
		return nil, apierr.ConfigError(fmt.Sprintf("unknown policy_id %q", cfg.PolicyID))
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 5
	}

	t := &Thread{
		ID:            uuid.NewString(),
		SchemaVersion: SchemaVersion,
		UserPrompt:    userPrompt,
		ModelID:       cfg.ModelID,
		PolicyID:      cfg.PolicyID,
		MaxIterations: cfg.MaxIterations,
		Status:        StatusProcessing,
		Iterations:    make([]Iteration, 0, cfg.MaxIterations),
		CreatedAt:     time.Now(),
	}

	s.mu.Lock()
	s.threads[t.ID] = &entry{thread: t}
	s.mu.Unlock()

	return t.Snapshot(), nil
}

func (s *MemoryStore) lookup(threadID string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.threads[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, apierr.NotFound(fmt.Sprintf("thread %q not found", threadID))
	}
	return e, nil
}

func (s *MemoryStore) Get(ctx context.Context, threadID string) (*Thread, error) {
	e, err := s.lookup(threadID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thread.Snapshot(), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Thread, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.threads))
	for _, e := range s.threads {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*Thread, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.thread.Snapshot())
		e.mu.Unlock()
	}
	return out, nil
}

func (s *MemoryStore) AppendIteration(ctx context.Context, threadID string, it Iteration) error {
	e, err := s.lookup(threadID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread
	if t.IterationCounter() >= t.MaxIterations {
		return apierr.BudgetExceeded(fmt.Sprintf("thread %q already has %d iterations", threadID, t.MaxIterations))
	}
	it.IterationNumber = t.IterationCounter()
	if it.Type == IterationUserClarification {
		t.clarificationUsed = true
	}
	t.Iterations = append(t.Iterations, it)
	return nil
}

func (s *MemoryStore) SetPending(ctx context.Context, threadID string, it Iteration) error {
	e, err := s.lookup(threadID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread
	if t.clarificationUsed {
		return apierr.IllegalState(fmt.Sprintf("thread %q already used its single clarification", threadID))
	}
	if t.Status != StatusProcessing {
		return apierr.IllegalTransition(fmt.Sprintf("cannot enter AWAITING_USER_INPUT from %s", t.Status))
	}

	it.Type = IterationUserClarification
	it.IterationNumber = t.IterationCounter()
	t.pending = &it
	t.clarificationUsed = true
	t.Status = StatusAwaitingUserInput
	return nil
}

func (s *MemoryStore) ResolvePending(ctx context.Context, threadID string, answers *[]string, skipped bool) (Iteration, error) {
	e, err := s.lookup(threadID)
	if err != nil {
		return Iteration{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread
	if t.Status != StatusAwaitingUserInput || t.pending == nil {
		return Iteration{}, apierr.IllegalState(fmt.Sprintf("thread %q is not awaiting user input", threadID))
	}
	if !skipped && (answers == nil || len(*answers) != len(t.pending.QAExchange.Questions)) {
		return Iteration{}, apierr.IllegalState("answer count must match question count")
	}

	t.pending.QAExchange.Answers = answers
	t.pending.QAExchange.Skipped = skipped
	t.Status = StatusProcessing

	return *t.pending, nil
}

func (s *MemoryStore) PromotePending(ctx context.Context, threadID string, completed Iteration) error {
	e, err := s.lookup(threadID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread
	if t.pending == nil {
		return apierr.IllegalTransition(fmt.Sprintf("thread %q has no pending iteration to promote", threadID))
	}
	if t.IterationCounter() >= t.MaxIterations {
		t.pending = nil
		return apierr.BudgetExceeded(fmt.Sprintf("thread %q already has %d iterations", threadID, t.MaxIterations))
	}

	completed.IterationNumber = t.IterationCounter()
	completed.Type = IterationUserClarification
	t.Iterations = append(t.Iterations, completed)
	t.pending = nil
	return nil
}

var validTransitions = map[Status]map[Status]bool{
	StatusProcessing: {
		StatusAwaitingUserInput: true,
		StatusCompleted:         true,
		StatusError:             true,
	},
	StatusAwaitingUserInput: {
		StatusProcessing: true,
	},
	StatusCompleted: {},
	StatusError:     {},
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, threadID string, newStatus Status, finalResponse, warning string) error {
	e, err := s.lookup(threadID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.thread
	allowed, ok := validTransitions[t.Status]
	if !ok || !allowed[newStatus] {
		return apierr.IllegalTransition(fmt.Sprintf("thread %q: %s -> %s not allowed", threadID, t.Status, newStatus))
	}

	t.Status = newStatus
	if newStatus == StatusCompleted || newStatus == StatusError {
		t.FinalResponse = finalResponse
		t.WarningMessage = warning
		now := time.Now()
		t.CompletedAt = &now
	}
	return nil
}

// ClearExpired removes threads whose CreatedAt is older than ttl relative to
// now, regardless of status. Supplementary operational hygiene (§11); the
// orchestrator never calls this itself — it is for an operator to schedule.
func (s *MemoryStore) ClearExpired(ctx context.Context, now time.Time, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, e := range s.threads {
		e.mu.Lock()
		expired := now.Sub(e.thread.CreatedAt) > ttl
		e.mu.Unlock()
		if expired {
			delete(s.threads, id)
			deleted++
		}
	}
	return deleted, nil
}
