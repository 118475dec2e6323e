package providers

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
)

const gravity = 9.81 // m/s², standard surface value

// Physics handles classical mechanics: motion, collisions, pendulums,
// energy and force. Numeric inputs come from the query text or from the
// caller context; with no inputs the provider answers with the governing
// formulas so a result is always produced.
type Physics struct {
	Base
}

// NewPhysics builds the physics provider.
func NewPhysics() *Physics {
	return &Physics{
		Base: NewBase("Physics", "1.0.0",
			[]string{
				"mechanics", "kinematics", "simulate_motion",
				"simulate_collision", "simulate_pendulum",
				"calculate_energy", "calculate_force",
			},
			map[string]any{
				"description": "Classical mechanics simulations and energy calculations",
			},
		),
	}
}

// Initialize is a no-op: the provider has no external dependencies.
func (p *Physics) Initialize() error { return nil }

// physicsKeywords drive CanHandle with max-weight scoring, mirroring the
// electronics provider: one strong keyword is a strong claim, regardless of
// how many weaker ones surround it.
var physicsKeywords = map[string]float64{
	"physique": 0.95, "physics": 0.95,
	"collision": 0.95, "pendule": 0.95, "pendulum": 0.95,
	"mouvement": 0.9, "motion": 0.9, "projectile": 0.9,
	"énergie": 0.9, "energy": 0.9, "force": 0.9,
	"vitesse": 0.85, "velocity": 0.85,
	"masse": 0.8, "mass": 0.8,
	"gravité": 0.85, "gravity": 0.85,
	"accélération": 0.85, "acceleration": 0.85,
}

// CanHandle overrides the capability-substring default with a keyword table.
func (p *Physics) CanHandle(query string) float64 {
	lower := strings.ToLower(query)
	score := 0.0
	for keyword, weight := range physicsKeywords {
		if strings.Contains(lower, keyword) {
			score = math.Max(score, weight)
		}
	}
	return min(score, 1.0)
}

var (
	rePhysMass     = regexp.MustCompile(`(?i)masse?\s*(?:=|:)?\s*(\d+(?:\.\d+)?)`)
	rePhysVelocity = regexp.MustCompile(`(?i)(?:vitesse|velocity)\s*(?:=|:)?\s*(\d+(?:\.\d+)?)`)
	rePhysLength   = regexp.MustCompile(`(?i)(?:longueur|length)\s*(?:=|:)?\s*(\d+(?:\.\d+)?)`)
	rePhysHeight   = regexp.MustCompile(`(?i)(?:hauteur|height)\s*(?:=|:)?\s*(\d+(?:\.\d+)?)`)
	rePhysAccel    = regexp.MustCompile(`(?i)(?:acc[ée]l[ée]ration)\s*(?:=|:)?\s*(\d+(?:\.\d+)?)`)
)

// Execute classifies the physical problem and runs it.
func (p *Physics) Execute(query string, context map[string]any) (schemas.Result, error) {
	kind := p.detectSimulation(query)
	p.Logger().Debug("executing physics query",
		zap.String("simulation", kind),
		zap.String("query", query),
	)

	var result map[string]any
	switch kind {
	case "collision":
		result = p.simulateCollision(query, context)
	case "pendulum":
		result = p.simulatePendulum(query, context)
	case "energy":
		result = p.calculateEnergy(query, context)
	case "force":
		result = p.calculateForce(query, context)
	default:
		result = p.simulateMotion(query, context)
	}

	return schemas.Result{
		"success":         true,
		"result":          result,
		"simulation_type": kind,
		"query":           query,
	}, nil
}

func (p *Physics) detectSimulation(query string) string {
	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "collision", "choc", "impact"):
		return "collision"
	case containsAny(lower, "pendule", "pendulum", "balancier"):
		return "pendulum"
	case containsAny(lower, "énergie", "energy", "cinétique", "kinetic", "potentielle", "potential"):
		return "energy"
	case strings.Contains(lower, "force"):
		return "force"
	default:
		return "motion"
	}
}

// simulateMotion covers free fall and uniform motion from the available
// parameters.
func (p *Physics) simulateMotion(query string, context map[string]any) map[string]any {
	mass, hasMass := p.param(query, context, "mass", rePhysMass)
	velocity, hasVelocity := p.param(query, context, "velocity", rePhysVelocity)
	height, hasHeight := p.param(query, context, "height", rePhysHeight)

	out := map[string]any{"model": "point_mass"}
	if hasHeight {
		// Free fall from rest.
		fallTime := math.Sqrt(2 * height / gravity)
		out["fall_time_s"] = fallTime
		out["impact_velocity_ms"] = gravity * fallTime
		out["height_m"] = height
	}
	if hasMass && hasVelocity {
		out["momentum_kgms"] = mass * velocity
		out["kinetic_energy_j"] = 0.5 * mass * velocity * velocity
	}
	if len(out) == 1 {
		out["formulas"] = []string{"v = g·t", "h = ½·g·t²", "p = m·v", "Ec = ½·m·v²"}
	}
	return out
}

// simulateCollision resolves a perfectly elastic head-on collision when both
// bodies are described, otherwise it reports the conservation laws.
func (p *Physics) simulateCollision(query string, context map[string]any) map[string]any {
	m1, ok1 := numericParam(context, "m1")
	m2, ok2 := numericParam(context, "m2")
	v1, ok3 := numericParam(context, "v1")
	v2, ok4 := numericParam(context, "v2")
	if !(ok1 && ok2 && ok3 && ok4) {
		return map[string]any{
			"model":    "elastic_collision",
			"formulas": []string{"m1·v1 + m2·v2 = m1·v1' + m2·v2'", "½·m1·v1² + ½·m2·v2² conserved"},
			"required": []string{"m1", "m2", "v1", "v2"},
		}
	}

	total := m1 + m2
	v1After := ((m1-m2)*v1 + 2*m2*v2) / total
	v2After := ((m2-m1)*v2 + 2*m1*v1) / total
	return map[string]any{
		"model":          "elastic_collision",
		"v1_after_ms":    v1After,
		"v2_after_ms":    v2After,
		"momentum_kgms":  m1*v1 + m2*v2,
		"kinetic_energy": 0.5*m1*v1*v1 + 0.5*m2*v2*v2,
	}
}

// simulatePendulum reports the small-angle period for the given length.
func (p *Physics) simulatePendulum(query string, context map[string]any) map[string]any {
	length, ok := p.param(query, context, "length", rePhysLength)
	if !ok {
		return map[string]any{
			"model":    "simple_pendulum",
			"formulas": []string{"T = 2π·√(L/g)"},
			"required": []string{"length"},
		}
	}
	period := 2 * math.Pi * math.Sqrt(length/gravity)
	return map[string]any{
		"model":        "simple_pendulum",
		"length_m":     length,
		"period_s":     period,
		"frequency_hz": 1 / period,
	}
}

func (p *Physics) calculateEnergy(query string, context map[string]any) map[string]any {
	mass, hasMass := p.param(query, context, "mass", rePhysMass)
	velocity, hasVelocity := p.param(query, context, "velocity", rePhysVelocity)
	height, hasHeight := p.param(query, context, "height", rePhysHeight)

	out := map[string]any{}
	if hasMass && hasVelocity {
		out["kinetic_energy_j"] = 0.5 * mass * velocity * velocity
	}
	if hasMass && hasHeight {
		out["potential_energy_j"] = mass * gravity * height
	}
	if len(out) == 0 {
		return map[string]any{
			"formulas": []string{"Ec = ½·m·v²", "Ep = m·g·h"},
			"required": []string{"mass", "velocity or height"},
		}
	}
	out["result"] = sumValues(out)
	return out
}

func (p *Physics) calculateForce(query string, context map[string]any) map[string]any {
	mass, hasMass := p.param(query, context, "mass", rePhysMass)
	accel, hasAccel := p.param(query, context, "acceleration", rePhysAccel)
	if !hasAccel {
		if a, ok := numericParam(context, "acceleration"); ok {
			accel, hasAccel = a, true
		}
	}
	if hasMass && hasAccel {
		return map[string]any{
			"result":       mass * accel,
			"force_n":      mass * accel,
			"formula":      "F = m·a",
			"mass_kg":      mass,
			"acceleration": accel,
		}
	}
	if hasMass {
		return map[string]any{
			"result":   mass * gravity,
			"weight_n": mass * gravity,
			"formula":  "P = m·g",
			"mass_kg":  mass,
		}
	}
	return map[string]any{
		"formulas": []string{"F = m·a", "P = m·g"},
		"required": []string{"mass", "acceleration"},
	}
}

// param resolves a numeric input from the caller context first, then from
// the query text.
func (p *Physics) param(query string, context map[string]any, key string, re *regexp.Regexp) (float64, bool) {
	if v, ok := numericParam(context, key); ok {
		return v, true
	}
	if match := re.FindStringSubmatch(query); match != nil {
		if v, err := strconv.ParseFloat(match[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func sumValues(m map[string]any) float64 {
	sum := 0.0
	for _, v := range m {
		if f, ok := v.(float64); ok {
			sum += f
		}
	}
	return sum
}
