// Package orchestrator wires the classifier, registry, validator and history
// store into the top-level assistant. It is injected with a configuration and
// a history store; everything else it builds itself.
package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
	"github.com/nyxlab/nyx/internal/config"
	"github.com/nyxlab/nyx/internal/intent"
	"github.com/nyxlab/nyx/internal/providers"
	"github.com/nyxlab/nyx/internal/registry"
	"github.com/nyxlab/nyx/internal/validation"
)

// Version reported on status responses.
const Version = "1.0.0"

// ErrNotInitialized is returned when a request arrives after Shutdown.
var ErrNotInitialized = fmt.Errorf("assistant is not initialized")

// Response is the envelope returned for one query.
type Response struct {
	Query      string                     `json:"query"`
	Result     schemas.Result             `json:"result"`
	Context    map[string]any             `json:"context,omitempty"`
	Success    bool                       `json:"success"`
	Validation *schemas.ValidationSummary `json:"validation,omitempty"`
}

// SystemStatus is the full status document exposed by the status endpoint.
type SystemStatus struct {
	Assistant    AssistantStatus       `json:"nyx"`
	Modules      registry.Status       `json:"modules"`
	Validator    validation.Statistics `json:"validator"`
	Capabilities []string              `json:"capabilities"`
}

// AssistantStatus describes the assistant process itself.
type AssistantStatus struct {
	Initialized      bool   `json:"initialized"`
	Version          string `json:"version"`
	QueriesProcessed int    `json:"queries_processed"`
}

// Nyx is the modular, recursively-validated science assistant. Safe for
// concurrent use.
type Nyx struct {
	cfg       *config.Config
	logger    *zap.Logger
	registry  *registry.Registry
	router    *registry.Router
	validator *validation.Validator
	history   schemas.HistoryStore

	initialized atomic.Bool
}

// New builds the assistant, registers the default providers and verifies
// every dependency is present.
func New(cfg *config.Config, logger *zap.Logger, store schemas.HistoryStore) (*Nyx, error) {
	if cfg == nil || logger == nil || store == nil {
		return nil, fmt.Errorf("cannot initialize assistant with nil dependencies")
	}

	reg := registry.New(registry.WithLogger(logger.Named("registry")))

	classifierOpts := []intent.Option{intent.WithLogger(logger.Named("intent"))}
	if !cfg.Classifier.CacheEnabled {
		classifierOpts = append(classifierOpts, intent.WithCache(false))
	}
	router := registry.NewRouter(intent.NewClassifier(classifierOpts...))

	validator := validation.NewValidator(
		cfg.Validator.MaxIterations,
		cfg.Validator.MinConfidence,
		validation.WithLogger(logger.Named("validation")),
	)

	n := &Nyx{
		cfg:       cfg,
		logger:    logger.Named("nyx"),
		registry:  reg,
		router:    router,
		validator: validator,
		history:   store,
	}
	if err := n.registerDefaultProviders(); err != nil {
		return nil, err
	}
	n.initialized.Store(true)
	n.logger.Info("assistant initialized", zap.String("version", Version))
	return n, nil
}

// registerDefaultProviders loads the unified solver first, then the
// individual domain providers for direct use.
func (n *Nyx) registerDefaultProviders() error {
	defaults := []schemas.CapabilityProvider{
		providers.NewScientificSolver(),
		providers.NewMathematics(),
		providers.NewPhysics(),
		providers.NewElectronics(),
	}
	for _, p := range defaults {
		if err := n.registry.Register(p, nil); err != nil {
			return fmt.Errorf("registering default provider: %w", err)
		}
	}
	return nil
}

// AskOption adjusts a single Ask call.
type AskOption func(*askSettings)

type askSettings struct {
	validate bool
	module   string
}

// WithoutValidation skips the recursive validation pass.
func WithoutValidation() AskOption {
	return func(s *askSettings) { s.validate = false }
}

// WithModule forces the query onto a named provider instead of scoring.
func WithModule(name string) AskOption {
	return func(s *askSettings) { s.module = name }
}

// Ask answers one query: the best-scoring provider executes it, the result is
// recursively validated against that provider's own checker, and the full
// cycle lands in the history store. Provider-level failures come back as an
// unsuccessful Response, not an error.
func (n *Nyx) Ask(ctx context.Context, query string, queryContext map[string]any, opts ...AskOption) (*Response, error) {
	if !n.initialized.Load() {
		return nil, ErrNotInitialized
	}
	settings := askSettings{validate: true}
	for _, opt := range opts {
		opt(&settings)
	}

	n.logger.Info("new query", zap.String("query", query))

	var result schemas.Result
	if settings.module != "" {
		result = n.registry.ExecuteOn(settings.module, query, queryContext)
	} else {
		result = n.registry.Execute(query, queryContext)
	}

	response := &Response{
		Query:   query,
		Result:  result,
		Context: queryContext,
		Success: result.Succeeded(),
	}

	if settings.validate && result.Succeeded() {
		outcome := n.validator.Validate(result, query, n.providerValidator(result, query), nil)
		response.Validation = &schemas.ValidationSummary{
			Status:     string(outcome.Status),
			Confidence: outcome.Confidence,
			Iterations: outcome.Iterations,
			Errors:     outcome.Errors,
		}
		n.logger.Info("validation finished",
			zap.String("status", string(outcome.Status)),
			zap.Float64("confidence", outcome.Confidence),
		)
	}

	entry := schemas.HistoryEntry{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Query:      query,
		Result:     result,
		Context:    queryContext,
		Success:    response.Success,
		Validation: response.Validation,
	}
	if err := n.history.Append(ctx, entry); err != nil {
		// A full answer beats a lost history row.
		n.logger.Warn("failed to record history entry", zap.Error(err))
	}

	return response, nil
}

// providerValidator builds the validation callable for a result: the provider
// that produced it re-checks it, and an unknown provider yields a permissive
// verdict rather than blocking the answer.
func (n *Nyx) providerValidator(result schemas.Result, query string) validation.ValidatorFunc {
	return func(candidate any) schemas.Verdict {
		moduleUsed, _ := result["module_used"].(string)
		if moduleUsed != "" {
			if p := n.registry.Get(moduleUsed); p != nil {
				if candidateResult, ok := candidate.(schemas.Result); ok {
					return p.ValidateResult(candidateResult, query)
				}
			}
		}
		return schemas.Verdict{IsValid: true, Confidence: 0.7}
	}
}

// Solve answers a full scientific problem through the unified solver,
// regardless of per-domain scoring.
func (n *Nyx) Solve(ctx context.Context, problem string, parameters map[string]any, opts ...AskOption) (*Response, error) {
	return n.Ask(ctx, problem, parameters, append(opts, WithModule("ScientificSolver"))...)
}

// Classify exposes the intent classification for one query.
func (n *Nyx) Classify(query string, queryContext map[string]any) schemas.Intent {
	return n.router.Classifier().Detect(query, queryContext)
}

// Route exposes the routing decision for one query without executing it.
func (n *Nyx) Route(query string, queryContext map[string]any) schemas.RoutingDecision {
	return n.router.Route(query, queryContext)
}

// Status reports the assistant, registry and validator state.
func (n *Nyx) Status(ctx context.Context) SystemStatus {
	processed, err := n.history.Len(ctx)
	if err != nil {
		n.logger.Warn("failed to count history entries", zap.Error(err))
	}
	return SystemStatus{
		Assistant: AssistantStatus{
			Initialized:      n.initialized.Load(),
			Version:          Version,
			QueriesProcessed: processed,
		},
		Modules:      n.registry.SystemStatus(),
		Validator:    n.validator.Statistics(),
		Capabilities: n.Capabilities(),
	}
}

// Capabilities returns the sorted union of enabled provider capabilities.
func (n *Nyx) Capabilities() []string {
	return n.registry.Capabilities()
}

// ValidationStatistics summarizes all validation cycles run so far.
func (n *Nyx) ValidationStatistics() validation.Statistics {
	return n.validator.Statistics()
}

// History returns up to limit stored entries, oldest first. limit <= 0
// returns everything retained.
func (n *Nyx) History(ctx context.Context, limit int) ([]schemas.HistoryEntry, error) {
	return n.history.Recent(ctx, limit)
}

// ClearHistory discards all stored entries.
func (n *Nyx) ClearHistory(ctx context.Context) error {
	return n.history.Clear(ctx)
}

// ListModules returns the info map of every registered provider.
func (n *Nyx) ListModules() map[string]map[string]any {
	out := make(map[string]map[string]any)
	for _, p := range n.registry.All() {
		out[p.Name()] = p.Info()
	}
	return out
}

// ModuleInfo returns one provider's info map, or nil when unknown.
func (n *Nyx) ModuleInfo(name string) map[string]any {
	p := n.registry.Get(name)
	if p == nil {
		return nil
	}
	return p.Info()
}

// Registry exposes the provider registry for direct management.
func (n *Nyx) Registry() *registry.Registry {
	return n.registry
}

// Shutdown closes the history store and marks the assistant uninitialized.
func (n *Nyx) Shutdown() error {
	n.logger.Info("shutting down assistant")
	n.initialized.Store(false)
	return n.history.Close()
}
