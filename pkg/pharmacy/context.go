package pharmacy

import (
	"context"
	"errors"
)

// contextKey is a private type for context keys to prevent collisions
type contextKey string

const pharmacyIDKey contextKey = "pharmacy_id"

// ErrNoPharmacyInContext is returned when pharmacy context is missing
var ErrNoPharmacyInContext = errors.New("no pharmacy in context")

// WithPharmacyID adds the pharmacy ID to the context.
// This should be called by middleware after extracting the ID from headers.
func WithPharmacyID(ctx context.Context, pharmacyID string) context.Context {
	return context.WithValue(ctx, pharmacyIDKey, pharmacyID)
}

// PharmacyID extracts the pharmacy ID from context.
// Returns ErrNoPharmacyInContext if it is not set.
func PharmacyID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(pharmacyIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoPharmacyInContext
	}
	return id, nil
}

// MustPharmacyID extracts the pharmacy ID from context and panics if not found.
// Use only in cases where a missing pharmacy is a programming error.
func MustPharmacyID(ctx context.Context) string {
	id, err := PharmacyID(ctx)
	if err != nil {
		panic("pharmacy ID not found in context")
	}
	return id
}
