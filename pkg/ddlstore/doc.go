// Package ddlstore holds the public contracts of the ddlstore data-access layer:
// the logger and connector interfaces, connection configuration, sentinel
// errors and process exit codes.
//
// Concrete implementations live under internal/. Callers that only need to
// plug in their own logger or connector depend on this package alone.
package ddlstore
