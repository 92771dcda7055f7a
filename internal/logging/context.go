package logging

import (
	"context"
	"log/slog"

	"mibisweep/internal/services"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := services.SweepIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSweepID, id))
	}
	if combo, ok := services.CombinationFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCombination, combo))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
