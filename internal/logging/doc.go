// Package logging implements ddlstore.Logger.
//
// ConsoleLogger writes one line per message to any io.Writer; the CLI
// points it at stderr, or at stderr and a log file through io.MultiWriter.
// NullLogger is for tests and library callers that want silence.
package logging
