// Package schemas defines the shared value types and interfaces exchanged
// between the intent classifier, the module registry and the recursive
// validator. Everything here is JSON-serializable; no wire or on-disk binary
// formats are defined by the core.
package schemas

import (
	"time"
)

// -- Intent Schemas --

// Category is the coarse classification of what a query is asking for.
type Category string

const (
	CategoryQuery     Category = "query"
	CategoryCompute   Category = "compute"
	CategorySolve     Category = "solve"
	CategoryVisualize Category = "visualize"
	CategorySimulate  Category = "simulate"
	CategoryExplain   Category = "explain"
	CategoryOptimize  Category = "optimize"
	CategoryAnalyze   Category = "analyze"
	CategoryDerive    Category = "derive"
	CategoryIntegrate Category = "integrate"
	// CategoryUnknown is the explicit "no match" sentinel. It is a real value,
	// never a nil/empty stand-in.
	CategoryUnknown Category = "unknown"
)

// Domain is the scientific domain a query belongs to.
type Domain string

const (
	DomainMathematics Domain = "mathematics"
	DomainPhysics     Domain = "physics"
	DomainElectronics Domain = "electronics"
	// DomainGeneral is the fallback when no domain keyword scored.
	DomainGeneral Domain = "general"
)

// Action is the fine-grained operation tag. The enumeration is open-ended:
// providers may introduce new actions per domain.
type Action string

const (
	// Mathematics
	ActionPlotFunction      Action = "plot_function"
	ActionPlotParametric    Action = "plot_parametric"
	ActionPlot3D            Action = "plot_3d"
	ActionSolveEquation     Action = "solve_equation"
	ActionComputeDerivative Action = "compute_derivative"
	ActionComputeIntegral   Action = "compute_integral"
	ActionComputeLimit      Action = "compute_limit"
	ActionComputeSeries     Action = "compute_series"

	// Physics
	ActionSimulateMotion    Action = "simulate_motion"
	ActionSimulateCollision Action = "simulate_collision"
	ActionSimulateWaves     Action = "simulate_waves"
	ActionSimulatePendulum  Action = "simulate_pendulum"
	ActionCalculateEnergy   Action = "calculate_energy"
	ActionCalculateForce    Action = "calculate_force"

	// Electronics
	ActionSimulateCircuit Action = "simulate_circuit"
	ActionAnalyzeCircuit  Action = "analyze_circuit"
	ActionDesignCircuit   Action = "design_circuit"
	ActionCalculateRC     Action = "calculate_rc"
	ActionCalculateRL     Action = "calculate_rl"
	ActionCalculateRLC    Action = "calculate_rlc"

	// General
	ActionExplain Action = "explain"
	ActionCompute Action = "compute"
)

// Intent is the immutable classification of a single query. The confidence is
// always the weighted combination of the three sub-detections
// (category 0.3, domain 0.4, action 0.3).
type Intent struct {
	Category        Category       `json:"category"`
	Domain          Domain         `json:"domain"`
	Action          Action         `json:"action"`
	Confidence      float64        `json:"confidence"`
	Parameters      map[string]any `json:"parameters"`
	RequiresSandbox bool           `json:"requires_sandbox"`
	OriginalQuery   string         `json:"original_query"`
}

// -- Routing Schemas --

// RoutingMetadata carries the intent fields forward on a routing decision
// without mutating the Intent itself.
type RoutingMetadata struct {
	Category        Category `json:"intent_category"`
	Domain          Domain   `json:"domain"`
	Action          Action   `json:"action"`
	Confidence      float64  `json:"confidence"`
	RequiresSandbox bool     `json:"requires_sandbox"`
}

// RoutingDecision is the ephemeral, per-request outcome of routing. It names
// the module and method that should handle the query but does not execute
// anything; callers may inspect or override it before running it.
type RoutingDecision struct {
	Module        string          `json:"module"`
	Method        string          `json:"method"`
	Parameters    map[string]any  `json:"parameters"`
	Metadata      RoutingMetadata `json:"metadata"`
	OriginalQuery string          `json:"original_query"`
}

// -- Result Schemas --

// Result is the structured map a capability provider returns. A "success"
// field is expected but not required; the registry treats a missing success
// flag as success.
type Result map[string]any

// Succeeded reports whether the result should be treated as successful.
// Only an explicit success=false marks a failure.
func (r Result) Succeeded() bool {
	if r == nil {
		return false
	}
	if ok, exists := r["success"].(bool); exists {
		return ok
	}
	return true
}

// ErrorMessage returns the error string carried by a failure result, if any.
func (r Result) ErrorMessage() string {
	if r == nil {
		return ""
	}
	if msg, ok := r["error"].(string); ok {
		return msg
	}
	return ""
}

// FailureResult builds the structured failure envelope used whenever an
// anticipated failure mode occurs. Failures are data, not exceptions (the
// caller can always inspect a Result without wrapping the call).
func FailureResult(query, errMsg string) Result {
	return Result{
		"success": false,
		"error":   errMsg,
		"query":   query,
	}
}

// -- Validation Schemas --

// ValidationStatus is the terminal classification of one validation cycle.
// It is never re-derived after being returned.
type ValidationStatus string

const (
	StatusValid     ValidationStatus = "valid"
	StatusInvalid   ValidationStatus = "invalid"
	StatusUncertain ValidationStatus = "uncertain"
	StatusCorrected ValidationStatus = "corrected"
	StatusFailed    ValidationStatus = "failed"
)

// Verdict is the outcome of a single validator invocation. It is also the
// shape a CapabilityProvider returns from ValidateResult.
type Verdict struct {
	IsValid    bool     `json:"is_valid"`
	Confidence float64  `json:"confidence"`
	Errors     []string `json:"errors,omitempty"`
	Method     string   `json:"validation_method,omitempty"`
}

// ValidationResult is the outcome of a full validate cycle, possibly after
// several internal iterations.
//
// Invariants: StatusValid implies Iterations == 1; StatusCorrected implies
// convergence after Iterations > 1; StatusFailed/StatusUncertain mean the
// iteration budget was exhausted (or no corrector was available).
// CorrectedResult is nil when no correction ever ran.
type ValidationResult struct {
	Status          ValidationStatus `json:"status"`
	Confidence      float64          `json:"confidence"`
	OriginalResult  any              `json:"original_result"`
	CorrectedResult any              `json:"corrected_result,omitempty"`
	Details         map[string]any   `json:"validation_details,omitempty"`
	Iterations      int              `json:"iterations"`
	// Errors accumulate across all iterations in order, multiplicity
	// preserved (never deduplicated or cleared between iterations).
	Errors []string `json:"errors"`
}

// ValidationSummary mirrors the ValidationResult fields exposed on the
// orchestrator's ask/solve response.
type ValidationSummary struct {
	Status     string   `json:"status"`
	Confidence float64  `json:"confidence"`
	Iterations int      `json:"iterations"`
	Errors     []string `json:"errors"`
}

// -- History Schemas --

// HistoryEntry records one completed request/response cycle.
type HistoryEntry struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Query      string             `json:"query"`
	Result     Result             `json:"result"`
	Context    map[string]any     `json:"context,omitempty"`
	Success    bool               `json:"success"`
	Validation *ValidationSummary `json:"validation,omitempty"`
}
