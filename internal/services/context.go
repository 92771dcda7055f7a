package services

import "context"

type contextKey string

const (
	sweepIDKey contextKey = "sweep_id"
	comboKey   contextKey = "combination"
)

// WithSweepID stores the sweep session identifier on the context.
func WithSweepID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sweepIDKey, id)
}

// SweepIDFromContext extracts the sweep session identifier, if present.
func SweepIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sweepIDKey).(string)
	return id, ok && id != ""
}

// WithCombination stores the active combination identifier on the context.
func WithCombination(ctx context.Context, identifier string) context.Context {
	return context.WithValue(ctx, comboKey, identifier)
}

// CombinationFromContext extracts the active combination identifier, if present.
func CombinationFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(comboKey).(string)
	return id, ok && id != ""
}
