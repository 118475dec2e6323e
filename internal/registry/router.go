package registry

import (
	"github.com/nyxlab/nyx/api/schemas"
	"github.com/nyxlab/nyx/internal/intent"
)

// domainModules maps a detected domain to the provider expected to own it.
// Unknown domains route to the general solver.
var domainModules = map[schemas.Domain]string{
	schemas.DomainMathematics: "Mathematics",
	schemas.DomainPhysics:     "Physics",
	schemas.DomainElectronics: "Electronics",
	schemas.DomainGeneral:     "ScientificSolver",
}

// generalModule is the catch-all provider name.
const generalModule = "ScientificSolver"

// executeMethod is the single dispatch method every provider exposes today.
// Sandboxed providers may grow dedicated methods later; the decision shape
// already carries the field.
const executeMethod = "execute"

// Router turns queries into routing decisions by running the classifier and
// mapping the detected domain onto a provider name. Routing is pure: it
// never executes anything and has no side effects, so callers may inspect or
// override the decision before acting on it.
type Router struct {
	classifier *intent.Classifier
}

// NewRouter builds a Router over the given classifier.
func NewRouter(classifier *intent.Classifier) *Router {
	return &Router{classifier: classifier}
}

// Route classifies a query and maps it to a module and method.
func (r *Router) Route(query string, context map[string]any) schemas.RoutingDecision {
	detected := r.classifier.Detect(query, context)
	return schemas.RoutingDecision{
		Module:     ModuleForDomain(detected.Domain),
		Method:     executeMethod,
		Parameters: detected.Parameters,
		Metadata: schemas.RoutingMetadata{
			Category:        detected.Category,
			Domain:          detected.Domain,
			Action:          detected.Action,
			Confidence:      detected.Confidence,
			RequiresSandbox: detected.RequiresSandbox,
		},
		OriginalQuery: query,
	}
}

// Classifier exposes the underlying classifier for callers that need the raw
// intent.
func (r *Router) Classifier() *intent.Classifier {
	return r.classifier
}

// ModuleForDomain maps a domain to its owning provider name.
func ModuleForDomain(domain schemas.Domain) string {
	if name, ok := domainModules[domain]; ok {
		return name
	}
	return generalModule
}
