// Package validation implements the recursive validate/correct loop applied
// to provider results. A caller supplies the result, a validator callable and
// an optional corrector; the loop re-validates after each correction until
// the result converges or the iteration budget runs out. Every cycle is
// appended to an in-process history that feeds aggregate statistics.
package validation

import (
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
	"github.com/nyxlab/nyx/internal/observability"
)

// Defaults applied when the caller passes non-positive settings.
const (
	DefaultMaxIterations = 3
	DefaultMinConfidence = 0.85
)

// ValidatorFunc checks a candidate result and reports a verdict. It must be
// side-effect free with respect to the result.
type ValidatorFunc func(result any) schemas.Verdict

// CorrectorFunc produces an adjusted result from a rejected one, guided by
// the verdict that rejected it.
type CorrectorFunc func(result any, verdict schemas.Verdict) (any, error)

// AlternativeFunc recomputes the same answer through an independent method.
type AlternativeFunc func() (any, error)

// ComparisonFunc judges a result against the alternative computations. Slots
// for alternatives that failed are nil.
type ComparisonFunc func(result any, alternatives []any) schemas.Verdict

// Statistics aggregates the validation history.
type Statistics struct {
	TotalValidations   int            `json:"total_validations"`
	StatusDistribution map[string]int `json:"status_distribution,omitempty"`
	AverageIterations  float64        `json:"average_iterations,omitempty"`
	AverageConfidence  float64        `json:"average_confidence,omitempty"`
	// SuccessRate is the fraction of cycles that ended first-pass valid;
	// corrected cycles do not count as successes.
	SuccessRate float64 `json:"success_rate"`
}

// Validator runs recursive validation cycles. Safe for concurrent use; the
// history is guarded by a mutex.
type Validator struct {
	maxIterations int
	minConfidence float64
	logger        *zap.Logger

	mu      sync.Mutex
	history []schemas.ValidationResult
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger overrides the default process logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// NewValidator builds a Validator. Non-positive maxIterations and
// out-of-range minConfidence fall back to the defaults.
func NewValidator(maxIterations int, minConfidence float64, opts ...Option) *Validator {
	v := &Validator{
		maxIterations: maxIterations,
		minConfidence: minConfidence,
	}
	if v.maxIterations <= 0 {
		v.maxIterations = DefaultMaxIterations
	}
	if v.minConfidence <= 0 || v.minConfidence > 1 {
		v.minConfidence = DefaultMinConfidence
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = observability.GetLogger().Named("validation")
	}
	return v
}

// MaxIterations reports the configured iteration budget.
func (v *Validator) MaxIterations() int { return v.maxIterations }

// MinConfidence reports the configured acceptance threshold.
func (v *Validator) MinConfidence() float64 { return v.minConfidence }

// Validate runs the validate/correct loop on one result.
//
// The loop terminates on the first iteration whose verdict is valid with
// confidence at or above the threshold: StatusValid if that was the first
// iteration, StatusCorrected otherwise. Without a corrector the loop cannot
// progress and stops after one iteration. Errors from every iteration
// accumulate in order; they are never cleared between iterations.
func (v *Validator) Validate(result any, originalQuery string, validate ValidatorFunc, correct CorrectorFunc) schemas.ValidationResult {
	v.logger.Debug("starting recursive validation", zap.String("query", originalQuery))

	current := result
	corrected := false
	iteration := 0
	var totalErrors []string
	var verdict schemas.Verdict

	for iteration < v.maxIterations {
		iteration++

		verdict = validate(current)
		totalErrors = append(totalErrors, verdict.Errors...)

		v.logger.Debug("validation iteration",
			zap.Int("iteration", iteration),
			zap.Bool("is_valid", verdict.IsValid),
			zap.Float64("confidence", verdict.Confidence),
		)

		if verdict.IsValid && verdict.Confidence >= v.minConfidence {
			out := schemas.ValidationResult{
				Status:         schemas.StatusValid,
				Confidence:     verdict.Confidence,
				OriginalResult: result,
				Details:        verdictDetails(verdict),
				Iterations:     iteration,
				Errors:         totalErrors,
			}
			if iteration > 1 {
				out.Status = schemas.StatusCorrected
				out.CorrectedResult = current
			}
			v.record(out)
			return out
		}

		if correct == nil {
			break
		}

		next, err := correct(current, verdict)
		if err != nil {
			totalErrors = append(totalErrors, fmt.Sprintf("correction error: %v", err))
			break
		}
		current = next
		corrected = true
	}

	// Budget exhausted, or no way to make progress.
	status := schemas.StatusFailed
	if iteration == 1 {
		status = schemas.StatusUncertain
	}
	out := schemas.ValidationResult{
		Status:         status,
		Confidence:     verdict.Confidence,
		OriginalResult: result,
		Details:        verdictDetails(verdict),
		Iterations:     iteration,
		Errors:         totalErrors,
	}
	if corrected {
		out.CorrectedResult = current
	}
	v.record(out)
	v.logger.Warn("validation did not converge",
		zap.String("query", originalQuery),
		zap.String("status", string(status)),
		zap.Int("iterations", iteration),
	)
	return out
}

// ValidateBatch validates results against their queries pairwise. Extra
// entries on either side are ignored.
func (v *Validator) ValidateBatch(results []any, queries []string, validate ValidatorFunc, correct CorrectorFunc) []schemas.ValidationResult {
	n := min(len(results), len(queries))
	out := make([]schemas.ValidationResult, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, v.Validate(results[i], queries[i], validate, correct))
	}
	return out
}

// CrossValidate checks a result by recomputing it through alternative
// methods and comparing. An alternative that fails contributes a nil slot so
// the comparison sees which methods produced answers. Cross-validation never
// corrects; the outcome is StatusValid or StatusUncertain.
func (v *Validator) CrossValidate(result any, alternatives []AlternativeFunc, compare ComparisonFunc) schemas.ValidationResult {
	altResults := make([]any, 0, len(alternatives))
	for i, method := range alternatives {
		alt, err := method()
		if err != nil {
			v.logger.Warn("alternative method failed", zap.Int("method", i+1), zap.Error(err))
			altResults = append(altResults, nil)
			continue
		}
		altResults = append(altResults, alt)
	}

	verdict := compare(result, altResults)

	status := schemas.StatusUncertain
	if verdict.IsValid {
		status = schemas.StatusValid
	}
	out := schemas.ValidationResult{
		Status:         status,
		Confidence:     verdict.Confidence,
		OriginalResult: result,
		Details: map[string]any{
			"comparison":          verdictDetails(verdict),
			"alternative_results": altResults,
			"num_methods":         len(alternatives),
		},
		Iterations: 1,
		Errors:     verdict.Errors,
	}
	v.record(out)
	return out
}

// Statistics summarizes every recorded cycle.
func (v *Validator) Statistics() Statistics {
	v.mu.Lock()
	defer v.mu.Unlock()

	total := len(v.history)
	if total == 0 {
		return Statistics{}
	}

	distribution := make(map[string]int)
	var sumIterations int
	var sumConfidence float64
	for _, vr := range v.history {
		distribution[string(vr.Status)]++
		sumIterations += vr.Iterations
		sumConfidence += vr.Confidence
	}

	return Statistics{
		TotalValidations:   total,
		StatusDistribution: distribution,
		AverageIterations:  round(float64(sumIterations)/float64(total), 2),
		AverageConfidence:  round(sumConfidence/float64(total), 3),
		SuccessRate:        round(float64(distribution[string(schemas.StatusValid)])/float64(total), 3),
	}
}

// History returns a copy of the recorded cycles, oldest first.
func (v *Validator) History() []schemas.ValidationResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]schemas.ValidationResult, len(v.history))
	copy(out, v.history)
	return out
}

// ClearHistory discards all recorded cycles.
func (v *Validator) ClearHistory() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.history = nil
}

func (v *Validator) record(vr schemas.ValidationResult) {
	v.mu.Lock()
	v.history = append(v.history, vr)
	v.mu.Unlock()
}

func verdictDetails(verdict schemas.Verdict) map[string]any {
	details := map[string]any{
		"is_valid":   verdict.IsValid,
		"confidence": verdict.Confidence,
	}
	if len(verdict.Errors) > 0 {
		details["errors"] = verdict.Errors
	}
	if verdict.Method != "" {
		details["validation_method"] = verdict.Method
	}
	return details
}

func round(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}
