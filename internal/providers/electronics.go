package providers

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
)

// Electronics analyzes simple circuits: Ohm's law, power, RC/RL/RLC
// behavior and voltage dividers. Component values come from the query text
// or the caller context; with no values the provider answers with the
// governing formulas.
type Electronics struct {
	Base
}

// NewElectronics builds the electronics provider.
func NewElectronics() *Electronics {
	return &Electronics{
		Base: NewBase("Electronics", "1.0.0",
			[]string{
				"circuit_analysis", "simulate_circuit", "calculate_rc",
				"calculate_rl", "calculate_rlc", "ohms_law", "voltage_divider",
			},
			map[string]any{
				"description": "First-order circuit analysis and component calculations",
			},
		),
	}
}

// Initialize is a no-op: the provider has no external dependencies.
func (e *Electronics) Initialize() error { return nil }

// electronicsKeywords score CanHandle by max weight: a single strong signal
// like "circuit" is decisive on its own.
var electronicsKeywords = map[string]float64{
	"circuit": 0.9, "résistance": 0.9, "resistance": 0.9,
	"voltage": 0.9, "tension": 0.9, "volt": 0.9,
	"courant": 0.9, "current": 0.9, "ampère": 0.9, "ampere": 0.9,
	"ohm": 0.9, "condensateur": 0.9, "capacitor": 0.9, "capacitance": 0.9,
	"inductance": 0.9, "inductor": 0.9,
	"transistor": 0.95, "diode": 0.95,
	"impédance": 0.9, "impedance": 0.9,
	"résonance": 0.9, "resonance": 0.9,
	"puissance": 0.7, "power": 0.7, "watt": 0.8,
	"fréquence": 0.7, "frequency": 0.7,
}

// electronicsComponents are short tags scored at a flat 0.9.
var electronicsComponents = []string{"rc", "rl", "rlc", "bjt", "fet", "mosfet"}

// CanHandle overrides the default scoring with a max-weight keyword table.
func (e *Electronics) CanHandle(query string) float64 {
	lower := strings.ToLower(query)
	score := 0.0
	for keyword, weight := range electronicsKeywords {
		if strings.Contains(lower, keyword) {
			score = math.Max(score, weight)
		}
	}
	for _, comp := range electronicsComponents {
		if strings.Contains(lower, comp) {
			score = math.Max(score, 0.9)
		}
	}
	return min(score, 1.0)
}

var (
	reElecR = regexp.MustCompile(`(?i)R\s*=\s*(\d+(?:\.\d+)?)`)
	reElecC = regexp.MustCompile(`(?i)C\s*=\s*(\d+(?:\.\d+)?)`)
	reElecL = regexp.MustCompile(`(?i)L\s*=\s*(\d+(?:\.\d+)?)`)
	reElecV = regexp.MustCompile(`(?i)(?:V|U)\s*=\s*(\d+(?:\.\d+)?)`)
	reElecI = regexp.MustCompile(`(?i)I\s*=\s*(\d+(?:\.\d+)?)`)
)

// Execute classifies the circuit calculation and runs it.
func (e *Electronics) Execute(query string, context map[string]any) (schemas.Result, error) {
	kind := e.detectCalculation(query)
	e.Logger().Debug("executing electronics query",
		zap.String("calculation", kind),
		zap.String("query", query),
	)

	var result map[string]any
	switch kind {
	case "rc_circuit":
		result = e.rcCircuit(query, context)
	case "rl_circuit":
		result = e.rlCircuit(query, context)
	case "rlc_circuit":
		result = e.rlcCircuit(query, context)
	case "divider":
		result = e.voltageDivider(query, context)
	case "power":
		result = e.power(query, context)
	default:
		result = e.ohmsLaw(query, context)
	}

	return schemas.Result{
		"success":          true,
		"result":           result,
		"calculation_type": kind,
		"query":            query,
	}, nil
}

func (e *Electronics) detectCalculation(query string) string {
	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "diviseur", "divider"):
		return "divider"
	case strings.Contains(lower, "rlc") || containsAny(lower, "résonance", "resonance"):
		return "rlc_circuit"
	case strings.Contains(lower, "rc"):
		return "rc_circuit"
	case strings.Contains(lower, "rl"):
		return "rl_circuit"
	case containsAny(lower, "puissance", "power", "watt"):
		return "power"
	default:
		return "ohms_law"
	}
}

// rcCircuit reports the time constant and cutoff frequency.
func (e *Electronics) rcCircuit(query string, context map[string]any) map[string]any {
	r, hasR := e.param(query, context, "resistance", reElecR)
	c, hasC := e.param(query, context, "capacitance", reElecC)
	if !hasR || !hasC {
		return map[string]any{
			"circuit":  "rc",
			"formulas": []string{"τ = R·C", "fc = 1/(2π·R·C)"},
			"required": []string{"resistance", "capacitance"},
		}
	}
	tau := r * c
	return map[string]any{
		"circuit":             "rc",
		"resistance_ohm":      r,
		"capacitance_f":       c,
		"result":              tau,
		"time_constant_s":     tau,
		"cutoff_frequency_hz": 1 / (2 * math.Pi * tau),
		"formula":             "τ = R·C",
	}
}

func (e *Electronics) rlCircuit(query string, context map[string]any) map[string]any {
	r, hasR := e.param(query, context, "resistance", reElecR)
	l, hasL := e.param(query, context, "inductance", reElecL)
	if !hasR || !hasL {
		return map[string]any{
			"circuit":  "rl",
			"formulas": []string{"τ = L/R", "fc = R/(2π·L)"},
			"required": []string{"resistance", "inductance"},
		}
	}
	tau := l / r
	return map[string]any{
		"circuit":             "rl",
		"resistance_ohm":      r,
		"inductance_h":        l,
		"result":              tau,
		"time_constant_s":     tau,
		"cutoff_frequency_hz": r / (2 * math.Pi * l),
		"formula":             "τ = L/R",
	}
}

func (e *Electronics) rlcCircuit(query string, context map[string]any) map[string]any {
	r, hasR := e.param(query, context, "resistance", reElecR)
	l, hasL := e.param(query, context, "inductance", reElecL)
	c, hasC := e.param(query, context, "capacitance", reElecC)
	if !hasL || !hasC {
		return map[string]any{
			"circuit":  "rlc",
			"formulas": []string{"f0 = 1/(2π·√(L·C))", "Q = (1/R)·√(L/C)"},
			"required": []string{"inductance", "capacitance"},
		}
	}
	f0 := 1 / (2 * math.Pi * math.Sqrt(l*c))
	out := map[string]any{
		"circuit":               "rlc",
		"inductance_h":          l,
		"capacitance_f":         c,
		"result":                f0,
		"resonant_frequency_hz": f0,
	}
	if hasR && r > 0 {
		out["resistance_ohm"] = r
		out["quality_factor"] = (1 / r) * math.Sqrt(l/c)
	}
	return out
}

// ohmsLaw solves V = I·R for whichever variable is missing.
func (e *Electronics) ohmsLaw(query string, context map[string]any) map[string]any {
	v, hasV := e.param(query, context, "voltage", reElecV)
	i, hasI := e.param(query, context, "current", reElecI)
	r, hasR := e.param(query, context, "resistance", reElecR)

	switch {
	case hasV && hasI:
		return map[string]any{"result": v / i, "resistance_ohm": v / i, "formula": "R = V/I"}
	case hasV && hasR:
		return map[string]any{"result": v / r, "current_a": v / r, "formula": "I = V/R"}
	case hasI && hasR:
		return map[string]any{"result": i * r, "voltage_v": i * r, "formula": "V = I·R"}
	default:
		return map[string]any{
			"formulas": []string{"V = I·R"},
			"required": []string{"two of voltage, current, resistance"},
		}
	}
}

func (e *Electronics) power(query string, context map[string]any) map[string]any {
	v, hasV := e.param(query, context, "voltage", reElecV)
	i, hasI := e.param(query, context, "current", reElecI)
	r, hasR := e.param(query, context, "resistance", reElecR)

	switch {
	case hasV && hasI:
		return map[string]any{"result": v * i, "power_w": v * i, "formula": "P = V·I"}
	case hasI && hasR:
		return map[string]any{"result": i * i * r, "power_w": i * i * r, "formula": "P = I²·R"}
	case hasV && hasR:
		return map[string]any{"result": v * v / r, "power_w": v * v / r, "formula": "P = V²/R"}
	default:
		return map[string]any{
			"formulas": []string{"P = V·I", "P = I²·R", "P = V²/R"},
			"required": []string{"two of voltage, current, resistance"},
		}
	}
}

// voltageDivider computes Vout for two series resistors.
func (e *Electronics) voltageDivider(query string, context map[string]any) map[string]any {
	vin, hasVin := numericParam(context, "vin")
	r1, hasR1 := numericParam(context, "r1")
	r2, hasR2 := numericParam(context, "r2")
	if !(hasVin && hasR1 && hasR2) {
		return map[string]any{
			"circuit":  "voltage_divider",
			"formulas": []string{"Vout = Vin·R2/(R1+R2)"},
			"required": []string{"vin", "r1", "r2"},
		}
	}
	vout := vin * r2 / (r1 + r2)
	return map[string]any{
		"circuit": "voltage_divider",
		"result":  vout,
		"vout_v":  vout,
		"formula": "Vout = Vin·R2/(R1+R2)",
	}
}

func (e *Electronics) param(query string, context map[string]any, key string, re *regexp.Regexp) (float64, bool) {
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
