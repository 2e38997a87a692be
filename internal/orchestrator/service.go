package orchestrator

import (
	"context"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/apierr"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/catalog"
	"github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"
)

const (
	defaultMaxIterations = 5
	minMaxIterations     = 1
	maxMaxIterations     = 20
)

// Service is the full external surface of §6: seven operations, no
// transport framing. Callers (the ambient health server's neighbours, a
// future CLI, tests) talk to this directly.
type Service struct {
	orchestrator *Orchestrator
	store        thread.Store
	catalogs     *catalog.Catalogs
}

// NewService wires a Service over an already-constructed Orchestrator.
func NewService(o *Orchestrator, store thread.Store, catalogs *catalog.Catalogs) *Service {
	return &Service{orchestrator: o, store: store, catalogs: catalogs}
}

// CreateThread creates a thread with the given model/policy/budget and runs
// it forward until it reaches a terminal or awaiting status, then returns
// the resulting snapshot.
func (s *Service) CreateThread(ctx context.Context, userPrompt, modelID, policyID string, maxIterations int) (*thread.Thread, error) {
	if maxIterations == 0 {
		maxIterations = defaultMaxIterations
	}
	if maxIterations < minMaxIterations || maxIterations > maxMaxIterations {
		return nil, apierr.ConfigError("max_iterations must be between 1 and 20")
	}

	t, err := s.store.Create(ctx, thread.Config{
		ModelID:       modelID,
		PolicyID:      policyID,
		MaxIterations: maxIterations,
	}, userPrompt)
	if err != nil {
		return nil, err
	}

	if err := s.orchestrator.Run(ctx, t.ID); err != nil {
		return nil, err
	}
	created, err := s.store.Get(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return created.WithVisibleIterations(), nil
}

// GetThread returns the current snapshot of a thread, including any pending
// clarification as the last visible iteration.
func (s *Service) GetThread(ctx context.Context, threadID string) (*thread.Thread, error) {
	t, err := s.store.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return t.WithVisibleIterations(), nil
}

// ListThreads returns every thread the store currently holds.
func (s *Service) ListThreads(ctx context.Context) ([]*thread.Thread, error) {
	threads, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*thread.Thread, len(threads))
	for i, t := range threads {
		out[i] = t.WithVisibleIterations()
	}
	return out, nil
}

// SubmitAnswers resolves a pending clarification (or skips it) and resumes
// the loop, returning the resulting snapshot.
func (s *Service) SubmitAnswers(ctx context.Context, threadID string, answers *[]string, skipped bool) (*thread.Thread, error) {
	if err := s.orchestrator.SubmitAnswers(ctx, threadID, answers, skipped); err != nil {
		return nil, err
	}
	t, err := s.store.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return t.WithVisibleIterations(), nil
}

// ListModels returns the configured model catalog.
func (s *Service) ListModels(ctx context.Context) ([]catalog.Model, error) {
	return s.catalogs.Models.List(), nil
}

// ListPolicies returns the configured policy catalog.
func (s *Service) ListPolicies(ctx context.Context) ([]catalog.Policy, error) {
	return s.catalogs.Policies.List(), nil
}

// ListTestPrompts returns the guard-content test prompts bundled with a
// policy.
func (s *Service) ListTestPrompts(ctx context.Context, policyID string) ([]catalog.TestPrompt, error) {
	if !s.catalogs.Policies.IsValidPolicy(policyID) {
		return nil, apierr.NotFound("policy not found")
	}
	return s.catalogs.Policies.TestPrompts(policyID), nil
}
