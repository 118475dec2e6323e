package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
)

func newTestValidator(t *testing.T, maxIterations int, minConfidence float64) *Validator {
	t.Helper()
	return NewValidator(maxIterations, minConfidence, WithLogger(zap.NewNop()))
}

// acceptAll is a validator func that always accepts at the given confidence.
func acceptAll(confidence float64) ValidatorFunc {
	return func(any) schemas.Verdict {
		return schemas.Verdict{IsValid: true, Confidence: confidence, Method: "structural"}
	}
}

func TestValidateFirstPassValid(t *testing.T) {
	t.Parallel()
	v := newTestValidator(t, 3, 0.85)

	out := v.Validate("42", "compute 6*7", acceptAll(0.95), nil)

	assert.Equal(t, schemas.StatusValid, out.Status)
	assert.Equal(t, 1, out.Iterations)
	assert.Equal(t, 0.95, out.Confidence)
	assert.Equal(t, "42", out.OriginalResult)
	assert.Nil(t, out.CorrectedResult, "no correction ran, so no corrected result")
	assert.Empty(t, out.Errors)
}

func TestValidateCorrectedAfterOneFix(t *testing.T) {
	t.Parallel()
	v := newTestValidator(t, 3, 0.85)

	validate := func(result any) schemas.Verdict {
		if result == "wrong" {
			return schemas.Verdict{IsValid: false, Confidence: 0.2, Errors: []string{"sign flipped"}}
		}
		return schemas.Verdict{IsValid: true, Confidence: 0.9}
	}
	correct := func(any, schemas.Verdict) (any, error) { return "right", nil }

	out := v.Validate("wrong", "solve", validate, correct)

	assert.Equal(t, schemas.StatusCorrected, out.Status)
	assert.Equal(t, 2, out.Iterations)
	assert.Equal(t, "wrong", out.OriginalResult)
	assert.Equal(t, "right", out.CorrectedResult)
	// Errors from the rejected first pass survive into the final outcome.
	assert.Equal(t, []string{"sign flipped"}, out.Errors)
}

func TestValidateExhaustsIterationBudget(t *testing.T) {
	t.Parallel()
	v := newTestValidator(t, 3, 0.85)

	rejects := 0
	validate := func(any) schemas.Verdict {
		rejects++
		return schemas.Verdict{IsValid: false, Confidence: 0.1, Errors: []string{"still wrong"}}
	}
	correct := func(result any, _ schemas.Verdict) (any, error) { return result, nil }

	out := v.Validate("bad", "solve", validate, correct)

	assert.Equal(t, schemas.StatusFailed, out.Status)
	assert.Equal(t, 3, out.Iterations)
	assert.Equal(t, 3, rejects)
	// One error per iteration, multiplicity preserved.
	assert.Equal(t, []string{"still wrong", "still wrong", "still wrong"}, out.Errors)
	assert.Equal(t, 0.1, out.Confidence)
}

func TestValidateWithoutCorrectorStopsUncertain(t *testing.T) {
	t.Parallel()
	v := newTestValidator(t, 3, 0.85)

	validate := func(any) schemas.Verdict {
		return schemas.Verdict{IsValid: false, Confidence: 0.4, Errors: []string{"unverifiable"}}
	}

	out := v.Validate("bad", "solve", validate, nil)

	assert.Equal(t, schemas.StatusUncertain, out.Status)
	assert.Equal(t, 1, out.Iterations)
	assert.Equal(t, []string{"unverifiable"}, out.Errors)
}

func TestValidateLowConfidenceIsNotAccepted(t *testing.T) {
	t.Parallel()
	v := newTestValidator(t, 3, 0.85)

	// Valid but below the acceptance threshold must not converge.
	out := v.Validate("maybe", "solve", acceptAll(0.5), nil)

	assert.Equal(t, schemas.StatusUncertain, out.Status)
	assert.Equal(t, 1, out.Iterations)
}

func TestValidateCorrectorFailureStopsLoop(t *testing.T) {
	t.Parallel()
	v := newTestValidator(t, 3, 0.85)

	validate := func(any) schemas.Verdict {
		return schemas.Verdict{IsValid: false, Confidence: 0.3, Errors: []string{"bad shape"}}
	}
	correct := func(any, schemas.Verdict) (any, error) {
		return nil, errors.New("no correction strategy")
	}

	out := v.Validate("bad", "solve", validate, correct)

	assert.Equal(t, schemas.StatusUncertain, out.Status, "corrector failed on the first pass")
	assert.Equal(t, 1, out.Iterations)
	require.Len(t, out.Errors, 2)
	assert.Equal(t, "bad shape", out.Errors[0])
	assert.Contains(t, out.Errors[1], "no correction strategy")
}

func TestValidateBatchPairsResultsWithQueries(t *testing.T) {
	t.Parallel()
	v := newTestValidator(t, 3, 0.85)

	results := []any{"a", "b", "c"}
	queries := []string{"qa", "qb"} // shorter on purpose

	out := v.ValidateBatch(results, queries, acceptAll(0.9), nil)

	require.Len(t, out, 2)
	for _, vr := range out {
		assert.Equal(t, schemas.StatusValid, vr.Status)
	}
}

func TestCrossValidate(t *testing.T) {
	t.Parallel()

	t.Run("agreement yields valid", func(t *testing.T) {
		v := newTestValidator(t, 3, 0.85)

		alternatives := []AlternativeFunc{
			func() (any, error) { return 4.0, nil },
			func() (any, error) { return 4.0, nil },
		}
		compare := func(result any, alts []any) schemas.Verdict {
			for _, alt := range alts {
				if alt != result {
					return schemas.Verdict{IsValid: false, Confidence: 0.2}
				}
			}
			return schemas.Verdict{IsValid: true, Confidence: 0.99}
		}

		out := v.CrossValidate(4.0, alternatives, compare)

		assert.Equal(t, schemas.StatusValid, out.Status)
		assert.Equal(t, 1, out.Iterations)
		assert.Equal(t, 2, out.Details["num_methods"])
	})

	t.Run("failed alternatives keep their nil slot", func(t *testing.T) {
		v := newTestValidator(t, 3, 0.85)

		var seen []any
		alternatives := []AlternativeFunc{
			func() (any, error) { return nil, errors.New("diverged") },
			func() (any, error) { return 4.0, nil },
		}
		compare := func(result any, alts []any) schemas.Verdict {
			seen = alts
			return schemas.Verdict{IsValid: false, Confidence: 0.3, Errors: []string{"only one method agreed"}}
		}

		out := v.CrossValidate(4.0, alternatives, compare)

		require.Len(t, seen, 2, "comparison must see one slot per method")
		assert.Nil(t, seen[0])
		assert.Equal(t, 4.0, seen[1])
		assert.Equal(t, schemas.StatusUncertain, out.Status, "cross-validation never corrects")
		assert.Equal(t, []string{"only one method agreed"}, out.Errors)
	})
}

func TestStatisticsAggregation(t *testing.T) {
	t.Parallel()
	v := newTestValidator(t, 3, 0.85)

	assert.Equal(t, Statistics{}, v.Statistics(), "empty history yields zero stats")

	// One valid, one uncertain, one failed.
	v.Validate("ok", "q1", acceptAll(0.9), nil)
	v.Validate("bad", "q2", func(any) schemas.Verdict {
		return schemas.Verdict{IsValid: false, Confidence: 0.3}
	}, nil)
	v.Validate("bad", "q3", func(any) schemas.Verdict {
		return schemas.Verdict{IsValid: false, Confidence: 0.3}
	}, func(result any, _ schemas.Verdict) (any, error) { return result, nil })

	stats := v.Statistics()
	assert.Equal(t, 3, stats.TotalValidations)
	assert.Equal(t, 1, stats.StatusDistribution[string(schemas.StatusValid)])
	assert.Equal(t, 1, stats.StatusDistribution[string(schemas.StatusUncertain)])
	assert.Equal(t, 1, stats.StatusDistribution[string(schemas.StatusFailed)])
	// Iterations: 1 + 1 + 3 over three cycles.
	assert.InDelta(t, 1.67, stats.AverageIterations, 1e-9)
	assert.InDelta(t, 0.5, stats.AverageConfidence, 1e-9)
	assert.InDelta(t, 0.333, stats.SuccessRate, 1e-9)

	require.Len(t, v.History(), 3)
	v.ClearHistory()
	assert.Empty(t, v.History())
	assert.Equal(t, Statistics{}, v.Statistics())
}

func TestNewValidatorDefaults(t *testing.T) {
	t.Parallel()

	v := NewValidator(0, 0, WithLogger(zap.NewNop()))
	assert.Equal(t, DefaultMaxIterations, v.MaxIterations())
	assert.Equal(t, DefaultMinConfidence, v.MinConfidence())

	v = NewValidator(5, 0.7, WithLogger(zap.NewNop()))
	assert.Equal(t, 5, v.MaxIterations())
	assert.Equal(t, 0.7, v.MinConfidence())
}
