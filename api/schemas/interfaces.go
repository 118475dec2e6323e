package schemas

import (
	"context"
)

// -- Capability Provider Interface --

// CapabilityProvider is the contract every pluggable domain module implements.
// The core (classifier, registry, validator) consumes this interface and
// never depends on a concrete provider type; concrete modules are selected at
// runtime by name. Plugin loaders, if any, hand their instances to the
// registry through the same Register contract.
type CapabilityProvider interface {
	// Name is the unique registry key for this provider.
	Name() string
	// Version identifies the provider build.
	Version() string

	// Initialize prepares the provider and its dependencies. A non-nil error
	// prevents registration. Initialize must be idempotent at registration
	// time.
	Initialize() error

	// CanHandle scores how well this provider matches a raw query, in [0,1].
	CanHandle(query string) float64

	// Execute runs the query. Anticipated failures are reported inside the
	// Result (success=false plus an error string); a non-nil error is
	// reserved for faults the provider could not fold into a Result and is
	// converted to a structured failure at the registry boundary.
	Execute(query string, context map[string]any) (Result, error)

	// ValidateResult checks a result this provider produced. This is exactly
	// the validator callable the recursive validator expects.
	ValidateResult(result Result, originalQuery string) Verdict

	// Capabilities lists the capability tags this provider advertises.
	Capabilities() []string
	// Info returns a descriptive map (name, version, enabled, capabilities,
	// metadata).
	Info() map[string]any

	// Enabled reports whether the provider is visible to routing. Disabled
	// providers are skipped regardless of match score.
	Enabled() bool
	Enable()
	Disable()
}

// -- History Store Interface --

// HistoryStore is a persistent or in-memory log of completed requests. The
// in-memory implementation caps growth with a configurable limit; the
// Postgres implementation makes the log durable.
type HistoryStore interface {
	// Append records one completed request/response cycle.
	Append(ctx context.Context, entry HistoryEntry) error
	// Recent returns up to limit entries, most recent last. limit <= 0 means
	// all retained entries.
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)
	// Len reports the number of retained entries.
	Len(ctx context.Context) (int, error)
	// Clear discards all retained entries.
	Clear(ctx context.Context) error
	// Close releases any underlying resources.
	Close() error
}
