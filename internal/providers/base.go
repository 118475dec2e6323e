// Package providers contains the built-in capability providers: the three
// scientific domain modules (Mathematics, Physics, Electronics) and the
// unified ScientificSolver that fans a query out across them. All of them
// implement schemas.CapabilityProvider and are wired into the registry at
// startup.
package providers

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
	"github.com/nyxlab/nyx/internal/observability"
)

// Base carries the bookkeeping every provider shares: identity, capability
// tags, the enabled flag and a named logger. Concrete providers embed it and
// override CanHandle when the default capability-substring scoring is too
// weak for their domain.
type Base struct {
	name         string
	version      string
	capabilities []string
	metadata     map[string]any
	logger       *zap.Logger

	enabled atomic.Bool
}

// NewBase builds the shared provider core. Providers start enabled.
func NewBase(name, version string, capabilities []string, metadata map[string]any) (b Base) {
	b.name = name
	b.version = version
	b.capabilities = capabilities
	b.metadata = metadata
	b.logger = observability.GetLogger().Named("providers." + strings.ToLower(name))
	b.enabled.Store(true)
	return
}

func (b *Base) Name() string    { return b.name }
func (b *Base) Version() string { return b.version }

func (b *Base) Capabilities() []string {
	out := make([]string, len(b.capabilities))
	copy(out, b.capabilities)
	return out
}

func (b *Base) Info() map[string]any {
	return map[string]any{
		"name":         b.name,
		"version":      b.version,
		"enabled":      b.Enabled(),
		"capabilities": b.Capabilities(),
		"metadata":     b.metadata,
	}
}

func (b *Base) Enabled() bool { return b.enabled.Load() }
func (b *Base) Enable()       { b.enabled.Store(true) }
func (b *Base) Disable()      { b.enabled.Store(false) }

// CanHandle is the default match scoring: 0.3 per capability tag appearing
// verbatim in the query, clamped to 1.0. Capability tags rarely occur in
// natural language, so providers that should win free-text routing override
// this with a keyword table.
func (b *Base) CanHandle(query string) float64 {
	lower := strings.ToLower(query)
	score := 0.0
	for _, capability := range b.capabilities {
		if strings.Contains(lower, strings.ToLower(capability)) {
			score += 0.3
		}
	}
	return min(score, 1.0)
}

// ValidateResult is the shared structural check: a result carrying an
// "error" key is invalid with zero confidence; one carrying "result" or
// "solutions" is valid at 0.95; anything else passes at 0.9.
func (b *Base) ValidateResult(result schemas.Result, _ string) schemas.Verdict {
	return StructuralVerdict(result)
}

// StructuralVerdict inspects the shape of a result map without recomputing
// anything.
func StructuralVerdict(result schemas.Result) schemas.Verdict {
	verdict := schemas.Verdict{IsValid: true, Confidence: 0.9, Method: "structural"}
	if result == nil {
		return schemas.Verdict{
			IsValid:    false,
			Confidence: 0.0,
			Errors:     []string{"nil result"},
			Method:     "structural",
		}
	}
	if msg, ok := result["error"].(string); ok {
		return schemas.Verdict{
			IsValid:    false,
			Confidence: 0.0,
			Errors:     []string{msg},
			Method:     "structural",
		}
	}
	if _, ok := result["result"]; ok {
		verdict.Confidence = 0.95
	} else if _, ok := result["solutions"]; ok {
		verdict.Confidence = 0.95
	}
	return verdict
}

// Logger returns the provider's named logger.
func (b *Base) Logger() *zap.Logger { return b.logger }

// numericParam pulls a float out of a context/parameter map, tolerating the
// numeric types JSON decoding produces.
func numericParam(params map[string]any, key string) (float64, bool) {
	if params == nil {
		return 0, false
	}
	switch v := params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
