package intent

import (
	"regexp"

	"github.com/nyxlab/nyx/api/schemas"
)

// The matching tables below are data, not code: the scoring algorithm in
// classifier.go stays generic and testable while the tables carry the
// domain knowledge. Keywords are French and English, matched against the
// lower-cased query.

// categoryGroup binds one category to its regex patterns. Groups are
// evaluated in declaration order and every pattern match scores the same
// fixed base, so the first group with any matching pattern wins. That
// ordering is a deliberate, reproducible tie-break.
type categoryGroup struct {
	category schemas.Category
	patterns []*regexp.Regexp
}

const (
	// categoryBaseScore is the fixed score for any pattern match.
	categoryBaseScore = 0.9
	// computeFallbackScore applies when no pattern matched but a compute
	// keyword is present.
	computeFallbackScore = 0.6
	// queryFallbackScore is the floor for a query with no recognized cue.
	queryFallbackScore = 0.5
	// generalDomainScore is the fixed floor when no domain keyword scored.
	generalDomainScore = 0.3
	// defaultActionScore applies when the action comes from the
	// (category, domain) default table instead of keyword scoring.
	defaultActionScore = 0.5
)

// Sub-detection weights for the overall confidence.
const (
	categoryWeight = 0.3
	domainWeight   = 0.4
	actionWeight   = 0.3
)

var categoryGroups = []categoryGroup{
	{schemas.CategoryVisualize, compileAll(
		`\b(trac(?:er|e)|plot|graph(?:e|ique)?|visualis(?:er|e)|dessiner?|afficher?)\b`,
		`\bcourbe\b`,
		`\bdiagramme\b`,
	)},
	{schemas.CategorySimulate, compileAll(
		`\b(simul(?:er|e|ation)|model(?:er|e)?|animer?)\b`,
		`\ben temps r[ée]el\b`,
		`\binteractif\b`,
		`\bbac [àa] sable\b`,
		`\bsandbox\b`,
	)},
	{schemas.CategorySolve, compileAll(
		`\b(r[ée]sou(?:dre|s)|solve|trouver?)\b`,
		`[ée]quation`,
		`\bsolution\b`,
	)},
	{schemas.CategoryDerive, compileAll(
		`\bd[ée]riv(?:[ée]e?|er)?`,
		`\bderivative\b`,
		`\bd/dx\b`,
	)},
	{schemas.CategoryIntegrate, compileAll(
		`\bint[ée]gr(?:ale?|er)`,
		`\bintegral\b`,
		`∫`,
	)},
	{schemas.CategoryCompute, compileAll(
		`\b(calcul(?:er)?|calculate|compute)\b`,
		`[ée]valuer?`,
	)},
	{schemas.CategoryExplain, compileAll(
		`\b(expli(?:que|quer)|explain|comment)\b`,
		`qu'?est[- ]ce`,
		`c'?est quoi`,
		`\bpourquoi\b`,
	)},
	{schemas.CategoryAnalyze, compileAll(
		`\b(analys(?:er|e)|analyze)\b`,
		`[ée]tud(?:ier|e)`,
	)},
	{schemas.CategoryOptimize, compileAll(
		`\b(optimis(?:er|e)|optimize|minim(?:iser|um)|maxim(?:iser|um))\b`,
	)},
}

// computeFallbackKeywords map a query with no matching pattern to
// CategoryCompute.
var computeFallbackKeywords = []string{"calculer", "calculate", "compute", "valeur"}

// domainOrder fixes the iteration order for domain scoring so that ties
// resolve deterministically to the first-listed domain.
var domainOrder = []schemas.Domain{
	schemas.DomainMathematics,
	schemas.DomainPhysics,
	schemas.DomainElectronics,
}

// domainKeywords carries additive presence weights: each keyword found as a
// substring of the lower-cased query contributes its weight once, regardless
// of how many times it occurs. Summing (rather than taking a max) means
// verbose queries drift toward the domain with the most matched keywords;
// the sum is clamped to 1.0.
var domainKeywords = map[schemas.Domain]map[string]float64{
	schemas.DomainMathematics: {
		"fonction": 0.9, "function": 0.9, "équation": 0.9, "equation": 0.9,
		"dérivée": 0.95, "derivative": 0.95, "intégrale": 0.95, "integral": 0.95,
		"courbe": 0.85, "graphe": 0.85, "graph": 0.85, "plot": 0.85,
		"limite": 0.9, "limit": 0.9, "série": 0.9, "series": 0.9,
		"matrice": 0.9, "matrix": 0.9, "algèbre": 0.85, "algebra": 0.85,
		"sin": 0.7, "cos": 0.7, "tan": 0.7, "exp": 0.7, "log": 0.7,
		"polynôme": 0.85, "polynomial": 0.85,
		"résoudre": 0.85, "solve": 0.85, "tracer": 0.85,
	},
	schemas.DomainPhysics: {
		"physique": 0.95, "physics": 0.95, "force": 0.9, "énergie": 0.9, "energy": 0.9,
		"vitesse": 0.85, "velocity": 0.85, "accélération": 0.85, "acceleration": 0.85,
		"masse": 0.8, "mass": 0.8, "collision": 0.9, "mouvement": 0.85, "motion": 0.85,
		"pendule": 0.9, "pendulum": 0.9, "gravité": 0.85, "gravity": 0.85,
		"projectile": 0.9, "onde": 0.85, "wave": 0.85, "oscillation": 0.85,
		"mécanique": 0.9, "mechanics": 0.9, "cinétique": 0.85, "kinetic": 0.85,
		"photon": 0.9, "quantique": 0.95, "quantum": 0.95,
	},
	schemas.DomainElectronics: {
		"circuit": 0.95, "électrique": 0.9, "electric": 0.9, "électronique": 0.95,
		"résistance": 0.9, "resistance": 0.9, "résistor": 0.9, "resistor": 0.9,
		"condensateur": 0.9, "capacitor": 0.9, "inductance": 0.9, "inductor": 0.9,
		"voltage": 0.85, "tension": 0.85, "courant": 0.85, "current": 0.85,
		"ampère": 0.8, "ampere": 0.8, "volt": 0.8, "ohm": 0.85,
		"rc": 0.9, "rl": 0.9, "rlc": 0.95, "transistor": 0.9,
		"diode": 0.9, "led": 0.85, "oscilloscope": 0.9,
	},
}

// actionEntry binds one action to its keyword weights. Entries are scored in
// declaration order; strict comparison keeps ties on the first-declared
// action.
type actionEntry struct {
	action   schemas.Action
	keywords map[string]float64
}

var actionTable = []actionEntry{
	// Mathematics
	{schemas.ActionPlotFunction, map[string]float64{
		"tracer": 0.9, "plot": 0.9, "graphe": 0.9, "courbe": 0.9,
		"dessiner": 0.85, "visualiser": 0.85, "afficher": 0.8,
	}},
	{schemas.ActionSolveEquation, map[string]float64{
		"résoudre": 0.95, "solve": 0.95, "solution": 0.9, "trouver": 0.85,
	}},
	{schemas.ActionComputeDerivative, map[string]float64{
		"dérivée": 0.95, "derivative": 0.95, "dériver": 0.9, "d/dx": 0.95,
	}},
	{schemas.ActionComputeIntegral, map[string]float64{
		"intégrale": 0.95, "integral": 0.95, "intégrer": 0.9, "∫": 0.95,
	}},

	// Physics
	{schemas.ActionSimulateMotion, map[string]float64{
		"mouvement": 0.9, "motion": 0.9, "déplacer": 0.85, "move": 0.85,
	}},
	{schemas.ActionSimulateCollision, map[string]float64{
		"collision": 0.95, "choc": 0.9, "impact": 0.85,
	}},
	{schemas.ActionSimulatePendulum, map[string]float64{
		"pendule": 0.95, "pendulum": 0.95, "balancier": 0.9,
	}},

	// Electronics
	{schemas.ActionSimulateCircuit, map[string]float64{
		"circuit": 0.9, "simuler": 0.85, "simulate": 0.85,
	}},
	{schemas.ActionCalculateRC, map[string]float64{
		"rc": 0.95, "résistance-condensateur": 0.9,
	}},
}

// defaultActions resolve an action when no keyword scored, keyed by
// (category, domain). Pairs not listed fall back to the generic compute
// action.
var defaultActions = map[[2]string]schemas.Action{
	{string(schemas.CategoryVisualize), string(schemas.DomainMathematics)}: schemas.ActionPlotFunction,
	{string(schemas.CategorySolve), string(schemas.DomainMathematics)}:     schemas.ActionSolveEquation,
	{string(schemas.CategoryDerive), string(schemas.DomainMathematics)}:    schemas.ActionComputeDerivative,
	{string(schemas.CategoryIntegrate), string(schemas.DomainMathematics)}: schemas.ActionComputeIntegral,
	{string(schemas.CategorySimulate), string(schemas.DomainPhysics)}:      schemas.ActionSimulateMotion,
	{string(schemas.CategorySimulate), string(schemas.DomainElectronics)}:  schemas.ActionSimulateCircuit,
	{string(schemas.CategoryCompute), string(schemas.DomainElectronics)}:   schemas.ActionCalculateRC,
}

// sandboxCategories and sandboxActions drive the requires_sandbox flag. This
// is purely declarative; no scoring is involved.
var sandboxCategories = map[schemas.Category]bool{
	schemas.CategoryVisualize: true,
	schemas.CategorySimulate:  true,
}

var sandboxActions = map[schemas.Action]bool{
	schemas.ActionPlotFunction:      true,
	schemas.ActionPlotParametric:    true,
	schemas.ActionPlot3D:            true,
	schemas.ActionSimulateMotion:    true,
	schemas.ActionSimulateCollision: true,
	schemas.ActionSimulateWaves:     true,
	schemas.ActionSimulatePendulum:  true,
	schemas.ActionSimulateCircuit:   true,
	schemas.ActionDesignCircuit:     true,
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+e))
	}
	return out
}
