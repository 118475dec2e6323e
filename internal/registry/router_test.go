package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
	"github.com/nyxlab/nyx/internal/intent"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	return NewRouter(intent.NewClassifier(intent.WithLogger(zap.NewNop())))
}

func TestRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		query  string
		module string
	}{
		{"mathematics query", "Résoudre x² - 9 = 0", "Mathematics"},
		{"physics query", "Simuler une collision avec masse = 2 kg", "Physics"},
		{"electronics query", "Calculer la constante de temps d'un circuit RC", "Electronics"},
		{"unrecognized query routes to the general solver", "bonjour mes amis", "ScientificSolver"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router := newTestRouter(t)

			decision := router.Route(tc.query, nil)

			assert.Equal(t, tc.module, decision.Module)
			assert.Equal(t, "execute", decision.Method)
			assert.Equal(t, tc.query, decision.OriginalQuery)
			assert.NotEmpty(t, decision.Metadata.Category)
			assert.NotEmpty(t, decision.Metadata.Domain)
			assert.NotEmpty(t, decision.Metadata.Action)
		})
	}
}

func TestRouteCarriesIntentMetadata(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	decision := router.Route("Tracer x² - 4", map[string]any{"session": "abc"})

	assert.Equal(t, schemas.CategoryVisualize, decision.Metadata.Category)
	assert.Equal(t, schemas.DomainMathematics, decision.Metadata.Domain)
	assert.Equal(t, schemas.ActionPlotFunction, decision.Metadata.Action)
	assert.True(t, decision.Metadata.RequiresSandbox)
	assert.Greater(t, decision.Metadata.Confidence, 0.0)
	assert.Equal(t, map[string]any{"session": "abc"}, decision.Parameters["context"])
}

func TestModuleForDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Mathematics", ModuleForDomain(schemas.DomainMathematics))
	assert.Equal(t, "Physics", ModuleForDomain(schemas.DomainPhysics))
	assert.Equal(t, "Electronics", ModuleForDomain(schemas.DomainElectronics))
	assert.Equal(t, "ScientificSolver", ModuleForDomain(schemas.DomainGeneral))
	assert.Equal(t, "ScientificSolver", ModuleForDomain(schemas.Domain("astrology")))
}
