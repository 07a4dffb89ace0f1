package ddlstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Logger receives printf-style messages from every ddlstore component.
// Implementations are called from many goroutines at once.
type Logger interface {
	// Verbose is for diagnostics such as retries and generated SQL.
	// It is dropped unless verbose output was requested.
	Verbose(format string, args ...interface{})
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Connector opens a pool for one authentication method.
// The caller closes the pool.
type Connector interface {
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// ErrorClassifier tells transient failures, worth another attempt, from
// final ones.
type ErrorClassifier interface {
	IsTransient(err error) bool
}

// BackoffStrategy spaces out retries.
type BackoffStrategy interface {
	// NextDelay is the wait before retry number attempt, counted from 0.
	NextDelay(attempt int) time.Duration

	// MaxAttempts bounds the retries after the first try.
	// 0 disables retrying and -1 retries until the context ends.
	MaxAttempts() int
}
