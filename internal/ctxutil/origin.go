// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// Trigger origins recorded on audit events.
const (
	OriginLocalFire   = "local-fire"
	OriginHourlySweep = "hourly-sweep"
	OriginEODSweep    = "eod-sweep"
	OriginManual      = "manual"
)

// OriginKey is the context key for the trigger origin.
// Exported so it can be used consistently across packages.
type OriginKey struct{}

// WithOrigin returns a context with the trigger origin embedded.
func WithOrigin(ctx context.Context, origin string) context.Context {
	return context.WithValue(ctx, OriginKey{}, origin)
}

// OriginFromContext returns the trigger origin from context, or empty string if not set.
func OriginFromContext(ctx context.Context) string {
	if v := ctx.Value(OriginKey{}); v != nil {
		return v.(string)
	}
	return ""
}
