package providers

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nyxlab/nyx/api/schemas"
)

// Mathematics solves single-variable polynomial problems: equations up to
// degree two, derivatives, definite integrals and plot sampling. Expressions
// are parsed from the query itself, so the provider stands alone and does
// not depend on upstream parameter extraction.
type Mathematics struct {
	Base
}

// NewMathematics builds the mathematics provider.
func NewMathematics() *Mathematics {
	return &Mathematics{
		Base: NewBase("Mathematics", "1.0.0",
			[]string{
				"algebra", "calculus", "derivatives", "integrals",
				"solve_equation", "plot_function", "numerical_analysis",
			},
			map[string]any{
				"description": "Polynomial algebra and calculus over a single variable",
			},
		),
	}
}

// Initialize is a no-op: the provider has no external dependencies.
func (m *Mathematics) Initialize() error { return nil }

var (
	reMathFuncDef = regexp.MustCompile(`(?i)(?:f\(x\)|y)\s*=\s*(.+?)(?:\s+(?:de|from|sur)\s+|$)`)
	reMathOf      = regexp.MustCompile(`(?i)(?:d[ée]riv[ée]e?\s+de|int[ée]grale?\s+de|de)\s+([0-9xX^²³+\-.\s*]+)`)
	reMathBounds  = regexp.MustCompile(`(?i)(?:de|from)\s+(-?\d+(?:\.\d+)?)\s+(?:à|to)\s+(-?\d+(?:\.\d+)?)`)
	reMathBracket = regexp.MustCompile(`[\[]\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*[\]]`)
	reMathEq      = regexp.MustCompile(`(?i)([0-9xX^²³+\-.\s*]+)=\s*([0-9+\-.\s]+)`)
	reMathExpr    = regexp.MustCompile(`[0-9]*\.?[0-9]*\s*\*?\s*[xX][^\s=]*(?:\s*[+\-]\s*[0-9xX^²³.\s*]+)*`)
)

// Execute classifies the mathematical operation and runs it. Anticipated
// failures (unparseable expressions, unsupported degrees) come back inside
// the result map; the success envelope only flips on faults.
func (m *Mathematics) Execute(query string, context map[string]any) (schemas.Result, error) {
	op := m.detectOperation(query)
	m.Logger().Debug("executing mathematics query",
		zap.String("operation", op),
		zap.String("query", query),
	)

	var result map[string]any
	switch op {
	case "solve_equation":
		result = m.solveEquation(query)
	case "derivative":
		result = m.computeDerivative(query)
	case "integral":
		result = m.computeIntegral(query, context)
	case "plot":
		result = m.plotFunction(query, context)
	default:
		result = m.evaluateExpression(query, context)
	}

	return schemas.Result{
		"success":        true,
		"result":         result,
		"operation_type": op,
		"query":          query,
	}, nil
}

func (m *Mathematics) detectOperation(query string) string {
	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "dériv", "deriv", "d/dx"):
		return "derivative"
	case containsAny(lower, "intégr", "integr", "∫"):
		return "integral"
	case containsAny(lower, "tracer", "plot", "graph", "courbe", "dessiner"):
		return "plot"
	case containsAny(lower, "résoudre", "resoudre", "solve", "équation", "equation") || strings.Contains(lower, "="):
		return "solve_equation"
	default:
		return "evaluate"
	}
}

func (m *Mathematics) solveEquation(query string) map[string]any {
	lhs, rhs, ok := m.extractEquation(query)
	if !ok {
		return map[string]any{"error": "no equation found in query"}
	}

	left, err := parsePolynomial(lhs)
	if err != nil {
		return map[string]any{"error": err.Error(), "equation": lhs + " = " + rhs}
	}
	right, err := parsePolynomial(rhs)
	if err != nil {
		return map[string]any{"error": err.Error(), "equation": lhs + " = " + rhs}
	}

	normalized := left.sub(right)
	solutions, err := normalized.solve()
	if err != nil {
		return map[string]any{"error": err.Error(), "equation": normalized.String() + " = 0"}
	}

	return map[string]any{
		"equation":  normalized.String() + " = 0",
		"solutions": solutions,
		"degree":    normalized.degree(),
		"method":    solveMethod(normalized.degree()),
	}
}

func solveMethod(degree int) string {
	if degree == 2 {
		return "quadratic_formula"
	}
	return "linear"
}

func (m *Mathematics) computeDerivative(query string) map[string]any {
	expr, ok := m.extractExpression(query)
	if !ok {
		return map[string]any{"error": "no differentiable expression found in query"}
	}
	p, err := parsePolynomial(expr)
	if err != nil {
		return map[string]any{"error": err.Error(), "function": expr}
	}
	return map[string]any{
		"function":   p.String(),
		"derivative": p.derive().String(),
		"method":     "power_rule",
	}
}

func (m *Mathematics) computeIntegral(query string, context map[string]any) map[string]any {
	expr, ok := m.extractExpression(query)
	if !ok {
		return map[string]any{"error": "no integrable expression found in query"}
	}
	p, err := parsePolynomial(expr)
	if err != nil {
		return map[string]any{"error": err.Error(), "function": expr}
	}

	out := map[string]any{
		"function":       p.String(),
		"antiderivative": p.antiderive().String() + " + C",
		"method":         "power_rule",
	}
	if lo, hi, ok := m.extractBounds(query, context); ok {
		out["x_min"] = lo
		out["x_max"] = hi
		out["result"] = p.trapezoid(lo, hi, 1000)
		out["method"] = "trapezoid"
	}
	return out
}

// plotFunction samples the function over the requested interval; the caller
// renders the table. Default window is [-10, 10].
func (m *Mathematics) plotFunction(query string, context map[string]any) map[string]any {
	expr, ok := m.extractExpression(query)
	if !ok {
		return map[string]any{"error": "no plottable expression found in query"}
	}
	p, err := parsePolynomial(expr)
	if err != nil {
		return map[string]any{"error": err.Error(), "function": expr}
	}

	lo, hi, bounded := m.extractBounds(query, context)
	if !bounded {
		lo, hi = -10, 10
	}
	const samples = 50
	step := (hi - lo) / float64(samples-1)
	xs := make([]float64, samples)
	ys := make([]float64, samples)
	for i := 0; i < samples; i++ {
		xs[i] = lo + float64(i)*step
		ys[i] = p.eval(xs[i])
	}

	return map[string]any{
		"function": p.String(),
		"x_min":    lo,
		"x_max":    hi,
		"x":        xs,
		"y":        ys,
		"samples":  samples,
	}
}

func (m *Mathematics) evaluateExpression(query string, context map[string]any) map[string]any {
	expr, ok := m.extractExpression(query)
	if !ok {
		return map[string]any{"error": "no expression found in query"}
	}
	p, err := parsePolynomial(expr)
	if err != nil {
		return map[string]any{"error": err.Error(), "expression": expr}
	}

	out := map[string]any{"expression": p.String()}
	if x, found := numericParam(context, "x"); found {
		out["result"] = p.eval(x)
		out["x"] = x
	} else if p.degree() <= 0 {
		out["result"] = p.eval(0)
	}
	return out
}

// extractEquation pulls "lhs = rhs" out of free text.
func (m *Mathematics) extractEquation(query string) (lhs, rhs string, ok bool) {
	match := reMathEq.FindStringSubmatch(query)
	if match == nil {
		return "", "", false
	}
	return strings.TrimSpace(match[1]), strings.TrimSpace(match[2]), true
}

// extractExpression finds the polynomial expression a query talks about,
// trying explicit "f(x) = ..." definitions first, then French "de <expr>"
// phrasing, then any bare x-term run.
func (m *Mathematics) extractExpression(query string) (string, bool) {
	if match := reMathFuncDef.FindStringSubmatch(query); match != nil {
		return strings.TrimSpace(match[1]), true
	}
	if match := reMathOf.FindStringSubmatch(query); match != nil {
		if expr := strings.TrimSpace(match[1]); strings.ContainsAny(expr, "xX") {
			return expr, true
		}
	}
	if match := reMathExpr.FindString(query); match != "" {
		return strings.TrimSpace(match), true
	}
	return "", false
}

func (m *Mathematics) extractBounds(query string, context map[string]any) (lo, hi float64, ok bool) {
	if match := reMathBounds.FindStringSubmatch(query); match != nil {
		lo, _ = strconv.ParseFloat(match[1], 64)
		hi, _ = strconv.ParseFloat(match[2], 64)
		return lo, hi, true
	}
	if match := reMathBracket.FindStringSubmatch(query); match != nil {
		lo, _ = strconv.ParseFloat(match[1], 64)
		hi, _ = strconv.ParseFloat(match[2], 64)
		return lo, hi, true
	}
	lo, loOK := numericParam(context, "x_min")
	hi, hiOK := numericParam(context, "x_max")
	if loOK && hiOK {
		return lo, hi, true
	}
	return 0, 0, false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
