// Package logging assembles structured slog loggers and formatting helpers
// used across mibisweep components.
//
// It owns the configurable console/JSON handlers and exposes context-aware
// helpers so sweep code can automatically tag log lines with sweep session
// and combination identifiers. Per-job tool output goes to dedicated files
// owned by the supervisor, never through global stream substitution.
package logging
