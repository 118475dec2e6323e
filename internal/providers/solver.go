package providers

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
)

// ScientificSolver is the unified fallback provider: it analyzes which
// domains a query touches, fans it out to its embedded domain providers and
// merges their answers. It owns its sub-providers; they are separate from
// any instances registered directly.
type ScientificSolver struct {
	Base

	mathematics *Mathematics
	physics     *Physics
	electronics *Electronics
}

// NewScientificSolver builds the solver with fresh sub-providers.
func NewScientificSolver() *ScientificSolver {
	return &ScientificSolver{
		Base: NewBase("ScientificSolver", "1.0.0",
			[]string{
				"scientific_problem_solving",
				"multi_domain_analysis",
				"integrated_calculations",
			},
			map[string]any{
				"description": "Unified engine for multi-domain scientific problems",
				"modules":     []string{"Mathematics", "Physics", "Electronics"},
			},
		),
		mathematics: NewMathematics(),
		physics:     NewPhysics(),
		electronics: NewElectronics(),
	}
}

// Initialize initializes every sub-provider; any failure aborts.
func (s *ScientificSolver) Initialize() error {
	for _, sub := range s.subProviders() {
		if err := sub.Initialize(); err != nil {
			return fmt.Errorf("initializing sub-provider %s: %w", sub.Name(), err)
		}
	}
	return nil
}

// CanHandle is a floor, not a claim: the solver accepts anything at a
// modest score so it only wins when no domain provider claims the query.
func (s *ScientificSolver) CanHandle(query string) float64 {
	best := 0.35
	for _, sub := range s.subProviders() {
		if score := sub.CanHandle(query); score > best {
			best = score
		}
	}
	return min(best, 1.0)
}

var solverDomainKeywords = map[string][]string{
	"mathematics": {
		"équation", "equation", "dérivée", "derivative", "intégrale",
		"integral", "fonction", "function", "résoudre", "solve", "x^", "x²",
	},
	"physics": {
		"force", "énergie", "energy", "vitesse", "velocity", "masse", "mass",
		"collision", "pendule", "pendulum", "mouvement", "motion",
	},
	"electronics": {
		"circuit", "résistance", "resistance", "condensateur", "capacitor",
		"tension", "voltage", "courant", "current", "ohm",
	},
}

// Execute fans the query out to every relevant domain and merges the
// results. A query touching no recognized domain falls back to mathematics,
// which degrades gracefully on arbitrary text.
func (s *ScientificSolver) Execute(query string, context map[string]any) (schemas.Result, error) {
	domains := s.analyzeDomains(query)
	s.Logger().Debug("executing multi-domain query",
		zap.Strings("domains", domains),
		zap.String("query", query),
	)

	subResults := make(map[string]any, len(domains))
	allSucceeded := true
	for _, domain := range domains {
		sub := s.subProvider(domain)
		result, err := sub.Execute(query, context)
		if err != nil {
			subResults[domain] = schemas.FailureResult(query, err.Error())
			allSucceeded = false
			continue
		}
		subResults[domain] = result
		if !result.Succeeded() {
			allSucceeded = false
		}
	}

	return schemas.Result{
		"success":          allSucceeded,
		"result":           subResults,
		"domains_involved": domains,
		"query":            query,
	}, nil
}

// ValidateResult checks the merged envelope: any embedded error invalidates,
// otherwise confidence is the weakest sub-result's structural confidence.
func (s *ScientificSolver) ValidateResult(result schemas.Result, originalQuery string) schemas.Verdict {
	if result == nil {
		return schemas.Verdict{IsValid: false, Confidence: 0, Errors: []string{"nil result"}, Method: "structural"}
	}
	if msg := result.ErrorMessage(); msg != "" {
		return schemas.Verdict{IsValid: false, Confidence: 0, Errors: []string{msg}, Method: "structural"}
	}

	verdict := schemas.Verdict{IsValid: true, Confidence: 0.9, Method: "structural"}
	subResults, ok := result["result"].(map[string]any)
	if !ok {
		return verdict
	}
	for _, raw := range subResults {
		sub, ok := raw.(schemas.Result)
		if !ok {
			if m, isMap := raw.(map[string]any); isMap {
				sub = schemas.Result(m)
			} else {
				continue
			}
		}
		subVerdict := StructuralVerdict(sub)
		if !subVerdict.IsValid {
			verdict.IsValid = false
			verdict.Errors = append(verdict.Errors, subVerdict.Errors...)
		}
		verdict.Confidence = min(verdict.Confidence, subVerdict.Confidence)
	}
	return verdict
}

// SubCapabilities maps each sub-provider to its capability tags.
func (s *ScientificSolver) SubCapabilities() map[string][]string {
	out := make(map[string][]string, 3)
	for _, sub := range s.subProviders() {
		out[sub.Name()] = sub.Capabilities()
	}
	return out
}

func (s *ScientificSolver) analyzeDomains(query string) []string {
	lower := strings.ToLower(query)
	var domains []string
	for _, domain := range []string{"mathematics", "physics", "electronics"} {
		for _, keyword := range solverDomainKeywords[domain] {
			if strings.Contains(lower, keyword) {
				domains = append(domains, domain)
				break
			}
		}
	}
	if len(domains) == 0 {
		domains = []string{"mathematics"}
	}
	return domains
}

func (s *ScientificSolver) subProviders() []schemas.CapabilityProvider {
	return []schemas.CapabilityProvider{s.mathematics, s.physics, s.electronics}
}

func (s *ScientificSolver) subProvider(domain string) schemas.CapabilityProvider {
	switch domain {
	case "physics":
		return s.physics
	case "electronics":
		return s.electronics
	default:
		return s.mathematics
	}
}
