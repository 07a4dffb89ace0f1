package retry

import (
	"context"
	"time"

	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

// Executor runs operations under a classifier and a backoff strategy.
//
// Thread Safety: safe for concurrent use. WithOnRetry returns a copy.
type Executor struct {
	classifier ddlstore.ErrorClassifier
	strategy   ddlstore.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor panics if classifier or strategy is nil.
func NewExecutor(classifier ddlstore.ErrorClassifier, strategy ddlstore.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// NewDefaultExecutor retries PostgreSQL-transient errors up to
// ddlstore.DefaultRetryMaxAttempts times with the default backoff.
func NewDefaultExecutor() *Executor {
	return NewExecutor(NewPostgreSQLErrorClassifier(), NewExponentialBackoff(ddlstore.DefaultRetryMaxAttempts))
}

// WithOnRetry returns a copy of e that calls callback before every wait.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation until it succeeds, fails with a non-transient error,
// the attempts are used up or ctx ends. The last operation error is returned;
// ctx.Err() is returned when the context ends while waiting.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	maxAttempts := e.strategy.MaxAttempts()

	for attempt := 0; err != nil && e.classifier.IsTransient(err); attempt++ {
		if maxAttempts >= 0 && attempt >= maxAttempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation(ctx)
	}
	return err
}

// Do is Execute for operations that produce a value.
func Do[T any](ctx context.Context, e *Executor, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := operation(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
