package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/phrazzld/downbeat/internal/domain"
)

// Classifier decides whether an attempt error is retryable.
type Classifier func(err error) bool

// DefaultClassifier retries everything not explicitly marked permanent.
// The upstream music clients wrap rate limits and network hiccups as
// transient and invalid identifiers as permanent; unclassified errors are
// treated as transient, matching the original retry decorator which
// retried any exception.
func DefaultClassifier(err error) bool {
	return !domain.IsPermanent(err)
}

// RetryPolicy wraps task body execution with a bounded retry loop.
// The inter-attempt delay is a suspension point (context-aware timer),
// never a busy wait. This component does not roll back side effects of
// failed attempts; task bodies are required to be safe to re-invoke.
type RetryPolicy struct {
	// MaxAttempts is the total invocation budget (default 3).
	MaxAttempts int

	// Delay between attempts. Must be non-zero.
	Delay time.Duration

	// Retryable classifies attempt errors; nil means DefaultClassifier.
	Retryable Classifier

	Logger *slog.Logger
}

// NewRetryPolicy creates a policy with the given budget and delay.
func NewRetryPolicy(maxAttempts int, delay time.Duration, logger *slog.Logger) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if delay <= 0 {
		delay = time.Second
	}
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Retryable:   DefaultClassifier,
		Logger:      logger.With("component", "retry_policy"),
	}
}

// Run invokes body until it succeeds, the attempt budget is exhausted, or
// a non-retryable error short-circuits the loop. It returns the terminal
// outcome: the first successful result, or the last attempt's error.
func (p *RetryPolicy) Run(
	ctx context.Context,
	taskID string,
	body func(ctx context.Context) (domain.MediaResult, error),
) (domain.MediaResult, error) {
	classify := p.Retryable
	if classify == nil {
		classify = DefaultClassifier
	}

	var out domain.MediaResult
	attempt := 0

	backoff := retry.WithMaxRetries(uint64(p.MaxAttempts-1), retry.NewConstant(p.Delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		result, err := body(ctx)
		if err != nil {
			if classify(err) {
				p.Logger.Warn("attempt failed, will retry",
					"task_id", taskID,
					"attempt", attempt,
					"max_attempts", p.MaxAttempts,
					"error", err)
				return retry.RetryableError(err)
			}
			p.Logger.Warn("attempt failed with non-retryable error",
				"task_id", taskID,
				"attempt", attempt,
				"error", err)
			return err
		}
		out = result
		return nil
	})
	if err != nil {
		return domain.MediaResult{}, err
	}
	return out, nil
}
