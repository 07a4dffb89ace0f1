package ddlstore

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration
	ExitConnectionError = 11 // Failed to connect to database
	ExitSchemaError     = 12 // DDL could not be parsed or resolved
	ExitStatementFailed = 13 // Bulk insert or read-back failed
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultMaxConns caps the pool owned by the connection manager.
	DefaultMaxConns = 10

	// DefaultMinConns keeps one warm connection.
	DefaultMinConns = 1

	// DefaultMaxConnIdleTime closes idle pool members after this long.
	DefaultMaxConnIdleTime = 30 * time.Second

	// DefaultRequestTimeout bounds a single statement on the server side.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultPort is the PostgreSQL default port.
	DefaultPort = 5432

	// DefaultSSLMode is used when nothing else specifies one.
	DefaultSSLMode = "prefer"
)

// DefaultSkipNames are the columns left out of bulk loads unless the caller
// says otherwise. They are filled by column defaults on the server.
var DefaultSkipNames = []string{"isDisabled", "dateUpdated", "dateCreated"}
