package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"recipe-harvester/internal/domain"
)

// RetryPolicy governs retries of a single external call: bounded
// attempts with exponential backoff and a predicate deciding what is
// worth retrying.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

// DefaultEmbeddingRetryPolicy matches the embedding contract: up to 6
// attempts spaced 2s, 4s, 8s, 16s, 32s.
func DefaultEmbeddingRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 6,
		BaseDelay:   2 * time.Second,
		MaxDelay:    60 * time.Second,
		Retryable:   domain.IsTransient,
	}
}

// DelayBeforeAttempt returns the backoff before attempt k (1-indexed).
// Attempt 1 runs immediately.
func (p RetryPolicy) DelayBeforeAttempt(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	delay := p.BaseDelay << (attempt - 2)
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// EmbedRecipeUsecase converts canonical recipe text into a vector with
// retry and graceful degradation: once the retry budget is exhausted it
// returns nil, never an error, so embedding trouble can never block a
// recipe from being stored.
type EmbedRecipeUsecase interface {
	Execute(ctx context.Context, canonicalText string) *domain.EmbeddingResult
	ModelID() string
}

type embedRecipeUsecase struct {
	encoder domain.VectorEncoder
	policy  RetryPolicy
	dim     int
	logger  *slog.Logger

	// sleep is injectable so tests can observe the backoff schedule
	// without waiting it out.
	sleep func(ctx context.Context, d time.Duration) error
}

// EmbedRecipeOption adjusts the usecase at construction.
type EmbedRecipeOption func(*embedRecipeUsecase)

// WithSleepFunc replaces the backoff sleeper.
func WithSleepFunc(sleep func(ctx context.Context, d time.Duration) error) EmbedRecipeOption {
	return func(u *embedRecipeUsecase) {
		u.sleep = sleep
	}
}

func NewEmbedRecipeUsecase(
	encoder domain.VectorEncoder,
	policy RetryPolicy,
	dim int,
	logger *slog.Logger,
	opts ...EmbedRecipeOption,
) EmbedRecipeUsecase {
	u := &embedRecipeUsecase{
		encoder: encoder,
		policy:  policy,
		dim:     dim,
		logger:  logger,
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *embedRecipeUsecase) ModelID() string {
	return u.encoder.Version()
}

func (u *embedRecipeUsecase) Execute(ctx context.Context, canonicalText string) *domain.EmbeddingResult {
	var lastErr error

	for attempt := 1; attempt <= u.policy.MaxAttempts; attempt++ {
		if delay := u.policy.DelayBeforeAttempt(attempt); delay > 0 {
			if err := u.sleep(ctx, delay); err != nil {
				u.logger.Warn("embed_cancelled",
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()),
				)
				return nil
			}
		}

		vector, err := u.encoder.Encode(ctx, canonicalText)
		if err == nil && len(vector) != u.dim {
			err = fmt.Errorf("unexpected embedding dimension: got %d, want %d", len(vector), u.dim)
		}
		if err == nil {
			return &domain.EmbeddingResult{
				Vector:     vector,
				SourceText: canonicalText,
				ModelID:    u.encoder.Version(),
			}
		}

		lastErr = err
		u.logger.Warn("embed_attempt_failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", u.policy.MaxAttempts),
			slog.String("error", truncateForLog(err.Error())),
		)

		if !u.policy.Retryable(err) {
			u.logger.Error("embed_aborted_non_retryable",
				slog.Int("attempt", attempt),
				slog.String("error", truncateForLog(err.Error())),
			)
			return nil
		}
	}

	u.logger.Error("embed_gave_up",
		slog.Int("attempts", u.policy.MaxAttempts),
		slog.String("error", truncateForLog(lastErr.Error())),
	)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
