// Package registry manages the set of capability providers and routes
// queries to the best-scoring one. Registration order is significant: when
// two providers score the same for a query, the earlier-registered one wins.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
	"github.com/nyxlab/nyx/internal/observability"
)

// minMatchScore is the selection floor: a provider whose best score does not
// exceed it is never chosen, so barely-matching providers do not swallow
// queries they cannot meaningfully handle.
const minMatchScore = 0.3

// Registry is the authoritative set of registered providers. Safe for
// concurrent use.
type Registry struct {
	logger *zap.Logger

	mu        sync.RWMutex
	providers map[string]schemas.CapabilityProvider
	configs   map[string]map[string]any
	order     []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger overrides the default process logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New builds an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		providers: make(map[string]schemas.CapabilityProvider),
		configs:   make(map[string]map[string]any),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = observability.GetLogger().Named("registry")
	}
	return r
}

// Register initializes and registers a provider. Initialization failure
// leaves the registry unchanged. Registering a name that already exists
// replaces the previous provider but keeps its position in the selection
// order.
func (r *Registry) Register(p schemas.CapabilityProvider, config map[string]any) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("provider has no name")
	}

	if err := p.Initialize(); err != nil {
		r.logger.Error("provider initialization failed", zap.String("module", name), zap.Error(err))
		return fmt.Errorf("initializing provider %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		r.logger.Warn("provider already registered, replacing", zap.String("module", name))
	} else {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
	if config == nil {
		config = make(map[string]any)
	}
	r.configs[name] = config

	r.logger.Info("provider registered",
		zap.String("module", name),
		zap.String("version", p.Version()),
	)
	return nil
}

// Unregister removes a provider by name. It reports whether anything was
// removed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; !exists {
		return false
	}
	delete(r.providers, name)
	delete(r.configs, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info("provider unregistered", zap.String("module", name))
	return true
}

// Get returns a provider by name, or nil when unknown.
func (r *Registry) Get(name string) schemas.CapabilityProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// All returns the registered providers in registration order.
func (r *Registry) All() []schemas.CapabilityProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]schemas.CapabilityProvider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

// Config returns the config map a provider was registered with.
func (r *Registry) Config(name string) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configs[name]
}

// FindBest returns the enabled provider with the highest CanHandle score for
// the query, or nil when no score clears the selection floor. Ties go to the
// earliest-registered provider.
func (r *Registry) FindBest(query string) schemas.CapabilityProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best schemas.CapabilityProvider
	bestScore := 0.0
	for _, name := range r.order {
		p := r.providers[name]
		if !p.Enabled() {
			continue
		}
		if score := p.CanHandle(query); score > bestScore {
			bestScore = score
			best = p
		}
	}

	if bestScore > minMatchScore {
		r.logger.Debug("provider selected",
			zap.String("module", best.Name()),
			zap.Float64("score", bestScore),
		)
		return best
	}
	r.logger.Warn("no suitable provider for query", zap.String("query", query))
	return nil
}

// Execute routes a query to the best provider and runs it. Failures never
// surface as errors: an unroutable query, an execution error or a provider
// panic all come back as a structured failure Result. Successful results are
// annotated with the handling provider under "module_used".
func (r *Registry) Execute(query string, context map[string]any) schemas.Result {
	p := r.FindBest(query)
	if p == nil {
		return schemas.FailureResult(query, "no suitable provider found")
	}
	return r.execute(p, query, context)
}

// ExecuteOn runs a query on a named provider, bypassing scoring. Used when a
// routing decision already picked the module.
func (r *Registry) ExecuteOn(name, query string, context map[string]any) schemas.Result {
	p := r.Get(name)
	if p == nil {
		return schemas.FailureResult(query, fmt.Sprintf("unknown provider %q", name))
	}
	return r.execute(p, query, context)
}

func (r *Registry) execute(p schemas.CapabilityProvider, query string, context map[string]any) (out schemas.Result) {
	// A panicking provider must not take the process down with it.
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("provider panicked",
				zap.String("module", p.Name()),
				zap.Any("panic", rec),
			)
			out = schemas.FailureResult(query, fmt.Sprintf("provider panic: %v", rec))
			out["module_used"] = p.Name()
		}
	}()

	result, err := p.Execute(query, context)
	if err != nil {
		r.logger.Error("provider execution failed",
			zap.String("module", p.Name()),
			zap.Error(err),
		)
		failure := schemas.FailureResult(query, err.Error())
		failure["module_used"] = p.Name()
		return failure
	}
	if result == nil {
		result = schemas.Result{}
	}
	result["module_used"] = p.Name()
	return result
}

// Status describes the registry and every provider in it.
type Status struct {
	TotalProviders   int                       `json:"total_modules"`
	EnabledProviders int                       `json:"enabled_modules"`
	Providers        map[string]map[string]any `json:"modules"`
}

// SystemStatus reports the registry state with per-provider info.
func (r *Registry) SystemStatus() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := Status{
		TotalProviders: len(r.providers),
		Providers:      make(map[string]map[string]any, len(r.providers)),
	}
	for name, p := range r.providers {
		if p.Enabled() {
			status.EnabledProviders++
		}
		status.Providers[name] = p.Info()
	}
	return status
}

// Capabilities returns the sorted union of every enabled provider's
// capability tags.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range r.providers {
		if !p.Enabled() {
			continue
		}
		for _, c := range p.Capabilities() {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
