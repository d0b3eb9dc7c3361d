package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/cadence/internal/ports/primary"
	"github.com/example/cadence/internal/ports/secondary"
)

// DefaultStrategyTimeout bounds a single generation strategy attempt.
const DefaultStrategyTimeout = 2 * time.Minute

// FallbackServiceImpl implements the FallbackService interface: the
// ordered generation strategy chain. Strategies are dispatched by
// identifier through Attempt, so adding a strategy does not touch the
// chain's control flow.
type FallbackServiceImpl struct {
	generator secondary.Generator
	draftRepo secondary.DraftRepository

	// strategyTimeout bounds each individual attempt.
	strategyTimeout time.Duration

	// placeholder is the terminal safety net. It has no external
	// dependency and always succeeds; injectable for tests.
	placeholder func(ctx context.Context, agentID string) (string, error)
}

// NewFallbackService creates a new FallbackService with injected dependencies.
func NewFallbackService(generator secondary.Generator, draftRepo secondary.DraftRepository) *FallbackServiceImpl {
	return &FallbackServiceImpl{
		generator:       generator,
		draftRepo:       draftRepo,
		strategyTimeout: DefaultStrategyTimeout,
		placeholder:     emergencyPlaceholder,
	}
}

// Run tries each strategy in priority order until one yields an artifact.
func (s *FallbackServiceImpl) Run(ctx context.Context, agentID string) *primary.Outcome {
	outcome := &primary.Outcome{}

	for _, strategy := range primary.StrategyOrder {
		artifactID, err := s.Attempt(ctx, strategy, agentID)
		if err == nil {
			outcome.Success = true
			outcome.DropID = artifactID
			outcome.Strategy = strategy
			outcome.IsEmergency = strategy == primary.StrategyPlaceholder
			return outcome
		}

		outcome.ExhaustedStrategies = append(outcome.ExhaustedStrategies, strategy)

		if strategy == primary.StrategyPlaceholder {
			// The placeholder is the last line of defense; an error
			// here must surface loudly, there is nothing left to try.
			outcome.Err = fmt.Errorf("placeholder strategy failed: %w", err)
			return outcome
		}
		if ctx.Err() != nil {
			outcome.Err = ctx.Err()
			return outcome
		}
		// "Not available" and per-strategy timeouts both advance the
		// chain; only the caller's own cancellation stops it.
	}
	return outcome
}

// Attempt runs a single strategy by identifier.
func (s *FallbackServiceImpl) Attempt(ctx context.Context, strategy, agentID string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.strategyTimeout)
	defer cancel()

	switch strategy {
	case primary.StrategyAlternatePrompt, primary.StrategyBackupModel:
		return s.generator.Generate(attemptCtx, agentID, strategy)
	case primary.StrategyDraftPool:
		draft, err := s.draftRepo.ClaimNext(attemptCtx, agentID)
		if err != nil {
			return "", err
		}
		if draft == nil {
			return "", secondary.ErrNotAvailable
		}
		return draft.ID, nil
	case primary.StrategyPlaceholder:
		return s.placeholder(attemptCtx, agentID)
	default:
		return "", fmt.Errorf("unknown strategy %q", strategy)
	}
}

// emergencyPlaceholder mints a minimal artifact locally. Its only job
// is to exist so the day's drop is recorded.
func emergencyPlaceholder(ctx context.Context, agentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "placeholder-" + uuid.NewString(), nil
}

var _ primary.FallbackService = (*FallbackServiceImpl)(nil)
