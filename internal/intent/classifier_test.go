package intent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
)

func newTestClassifier(t *testing.T, opts ...Option) *Classifier {
	t.Helper()
	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	return NewClassifier(opts...)
}

func TestDetectClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		query       string
		category    schemas.Category
		domain      schemas.Domain
		action      schemas.Action
		sandbox     bool
		minimumConf float64
	}{
		{
			name:        "french solve equation",
			query:       "Résoudre x² - 9 = 0",
			category:    schemas.CategorySolve,
			domain:      schemas.DomainMathematics,
			action:      schemas.ActionSolveEquation,
			sandbox:     false,
			minimumConf: 0.8,
		},
		{
			name:        "french plot request",
			query:       "Tracer x² - 4",
			category:    schemas.CategoryVisualize,
			domain:      schemas.DomainMathematics,
			action:      schemas.ActionPlotFunction,
			sandbox:     true,
			minimumConf: 0.8,
		},
		{
			name:        "rc time constant",
			query:       "Calculer la constante de temps RC avec R = 1000 et C = 0.001",
			category:    schemas.CategoryCompute,
			domain:      schemas.DomainElectronics,
			action:      schemas.ActionCalculateRC,
			sandbox:     false,
			minimumConf: 0.8,
		},
		{
			name:     "english derivative",
			query:    "compute the derivative of x^3",
			category: schemas.CategoryDerive,
			domain:   schemas.DomainMathematics,
			action:   schemas.ActionComputeDerivative,
			sandbox:  false,
		},
		{
			name:     "physics collision",
			query:    "Simuler une collision avec masse = 2 kg et vitesse = 10 m/s",
			category: schemas.CategorySimulate,
			domain:   schemas.DomainPhysics,
			action:   schemas.ActionSimulateCollision,
			sandbox:  true,
		},
		{
			name:     "compute keyword fallback without pattern",
			query:    "valeur approximative",
			category: schemas.CategoryCompute,
			domain:   schemas.DomainGeneral,
			action:   schemas.ActionCompute,
			sandbox:  false,
		},
		{
			name:     "unrecognized query falls back to query and general",
			query:    "bonjour mes amis",
			category: schemas.CategoryQuery,
			domain:   schemas.DomainGeneral,
			action:   schemas.ActionCompute,
			sandbox:  false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClassifier(t)

			intent := c.Detect(tc.query, nil)

			assert.Equal(t, tc.category, intent.Category)
			assert.Equal(t, tc.domain, intent.Domain)
			assert.Equal(t, tc.action, intent.Action)
			assert.Equal(t, tc.sandbox, intent.RequiresSandbox)
			assert.Equal(t, tc.query, intent.OriginalQuery)
			assert.GreaterOrEqual(t, intent.Confidence, 0.0)
			assert.LessOrEqual(t, intent.Confidence, 1.0)
			if tc.minimumConf > 0 {
				assert.GreaterOrEqual(t, intent.Confidence, tc.minimumConf)
			}
		})
	}
}

func TestDetectConfidenceIsWeightedSum(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t)

	// Category 0.9 (pattern match), domain 0.85 (single keyword "résoudre"),
	// action 0.95 ("résoudre" in the solve table).
	intent := c.Detect("Résoudre x² - 9 = 0", nil)
	assert.InDelta(t, 0.3*0.9+0.4*0.85+0.3*0.95, intent.Confidence, 1e-9)

	// No cue at all: query 0.5, general 0.3, default action 0.5.
	intent = c.Detect("zzz", nil)
	assert.InDelta(t, 0.3*0.5+0.4*0.3+0.3*0.5, intent.Confidence, 1e-9)
}

func TestDetectDomainScoringIsAdditiveAndClamped(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t)

	// Two electronics keywords (circuit 0.95, rc 0.9) sum past 1.0; the
	// winning score must be clamped.
	intent := c.Detect("analyser un circuit rc", nil)
	assert.Equal(t, schemas.DomainElectronics, intent.Domain)
	assert.LessOrEqual(t, intent.Confidence, 1.0)

	// A lone physics keyword still beats the empty domains.
	intent = c.Detect("quelle est la force", nil)
	assert.Equal(t, schemas.DomainPhysics, intent.Domain)
}

func TestDetectParameterExtraction(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t)

	t.Run("math function and bounds", func(t *testing.T) {
		intent := c.Detect("Tracer f(x) = x^2 de -5 à 5", nil)
		assert.Equal(t, "x^2", intent.Parameters["function"])
		assert.Equal(t, "-5", intent.Parameters["x_min"])
		assert.Equal(t, "5", intent.Parameters["x_max"])
	})

	t.Run("math interval notation", func(t *testing.T) {
		intent := c.Detect("Tracer x^2 sur [0, 6.28]", nil)
		assert.Equal(t, "0", intent.Parameters["x_min"])
		assert.Equal(t, "6.28", intent.Parameters["x_max"])
	})

	t.Run("physics mass and velocity", func(t *testing.T) {
		intent := c.Detect("Simuler un mouvement avec masse = 2.5 kg et vitesse = 10 m/s", nil)
		assert.Equal(t, 2.5, intent.Parameters["mass"])
		assert.Equal(t, "kg", intent.Parameters["mass_unit"])
		assert.Equal(t, 10.0, intent.Parameters["velocity"])
	})

	t.Run("electronics resistance and capacitance with unit defaults", func(t *testing.T) {
		intent := c.Detect("Calculer la constante RC avec R = 1000 et C = 0.001", nil)
		assert.Equal(t, 1000.0, intent.Parameters["resistance"])
		assert.Equal(t, "Ω", intent.Parameters["resistance_unit"])
		assert.Equal(t, 0.001, intent.Parameters["capacitance"])
		assert.Equal(t, "F", intent.Parameters["capacitance_unit"])
	})

	t.Run("no extractable slots leaves parameters empty", func(t *testing.T) {
		intent := c.Detect("Résoudre x² - 9 = 0", nil)
		_, hasFunction := intent.Parameters["function"]
		assert.False(t, hasFunction)
	})
}

func TestDetectContextHandling(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t)

	ctx := map[string]any{"previous_result": 42, "units": "si"}
	intent := c.Detect("Calculer la dérivée de x^2", ctx)

	got, ok := intent.Parameters["context"].(map[string]any)
	require.True(t, ok, "context must be carried under parameters")
	assert.Equal(t, ctx, got)

	// Context never changes the classification itself.
	bare := c.Detect("Calculer la dérivée de x^2", nil)
	assert.Equal(t, bare.Category, intent.Category)
	assert.Equal(t, bare.Domain, intent.Domain)
	assert.Equal(t, bare.Action, intent.Action)
	assert.Equal(t, bare.Confidence, intent.Confidence)
	_, hasCtx := bare.Parameters["context"]
	assert.False(t, hasCtx)
}

func TestDetectIsIdempotent(t *testing.T) {
	t.Parallel()

	for _, cached := range []bool{true, false} {
		c := newTestClassifier(t, WithCache(cached))
		first := c.Detect("Tracer f(x) = x^2 de -5 à 5", map[string]any{"k": "v"})
		second := c.Detect("Tracer f(x) = x^2 de -5 à 5", map[string]any{"k": "v"})
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("repeated detection differs (cache=%v):\n%s", cached, diff)
		}
	}
}

func TestDetectCacheDoesNotAliasParameters(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t)

	first := c.Detect("Tracer f(x) = x^2", nil)
	first.Parameters["function"] = "tampered"
	first.Parameters["context"] = "tampered"

	second := c.Detect("Tracer f(x) = x^2", nil)
	assert.Equal(t, "x^2", second.Parameters["function"])
	_, hasCtx := second.Parameters["context"]
	assert.False(t, hasCtx)
}

func TestClassifierCacheBookkeeping(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t)

	require.Zero(t, c.CacheSize())
	c.Detect("Tracer x² - 4", nil)
	c.Detect("Tracer x² - 4", nil)
	c.Detect("Résoudre x² - 9 = 0", nil)
	assert.Equal(t, 2, c.CacheSize())

	c.ClearCache()
	assert.Zero(t, c.CacheSize())

	disabled := newTestClassifier(t, WithCache(false))
	disabled.Detect("Tracer x² - 4", nil)
	assert.Zero(t, disabled.CacheSize())
}

func TestDetectNeverPanicsOnMalformedInput(t *testing.T) {
	t.Parallel()
	c := newTestClassifier(t)

	for _, q := range []string{"", "   ", "((((", "x = ", "de ", "∫∫∫", "R = notanumber"} {
		intent := c.Detect(q, nil)
		assert.NotEmpty(t, intent.Category)
		assert.NotEmpty(t, intent.Domain)
	}
}
