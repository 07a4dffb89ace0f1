package ddlstore

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	s, err := schema.Parse(ddl)
//	if errors.Is(err, ddlstore.ErrUnknownType) {
//	    // the DDL references a type the directory cannot resolve
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownType indicates a DDL type name has no entry in the type directory.
	ErrUnknownType = errors.New("unknown column type")

	// ErrParseFailure indicates the DDL text could not be parsed into a schema.
	ErrParseFailure = errors.New("ddl parse failure")

	// ErrStatementFailed indicates a bulk insert or read-back statement failed.
	ErrStatementFailed = errors.New("statement failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotFound indicates a lookup returned no row.
	ErrNotFound = errors.New("not found")

	// ErrEmptySchema indicates an operation was attempted with a schema that has no columns.
	ErrEmptySchema = errors.New("schema has no columns")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrUnknownType), errors.Is(err, ErrParseFailure), errors.Is(err, ErrEmptySchema):
		return ExitSchemaError
	case errors.Is(err, ErrStatementFailed):
		return ExitStatementFailed
	}

	errStr := err.Error()

	// cobra reports usage problems as plain errors
	usagePatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"requires at least",
		"required flag",
		"invalid argument",
	}
	for _, p := range usagePatterns {
		if strings.Contains(errStr, p) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
