package providers

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// polynomial maps exponent to coefficient. The zero map is the zero
// polynomial.
type polynomial map[int]float64

var polyReplacer = strings.NewReplacer("²", "^2", "³", "^3", " ", "", "*", "", ",", ".")

// parsePolynomial parses a single-variable polynomial in x, e.g.
// "x^2 - 9", "2x+3", "x² - 4". Superscript squares and cubes are
// normalized before parsing. Anything that is not a sum of c·x^n terms is
// rejected.
func parsePolynomial(expr string) (polynomial, error) {
	s := polyReplacer.Replace(strings.ToLower(expr))
	if s == "" {
		return nil, errors.New("empty expression")
	}

	p := make(polynomial)
	for _, term := range splitTerms(s) {
		coef, exp, err := parseTerm(term)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q: %w", expr, err)
		}
		p[exp] += coef
	}
	return p, nil
}

func splitTerms(s string) []string {
	var terms []string
	start := 0
	for i, r := range s {
		if i > 0 && (r == '+' || r == '-') {
			terms = append(terms, s[start:i])
			start = i
		}
	}
	return append(terms, s[start:])
}

func parseTerm(term string) (coef float64, exp int, err error) {
	if term == "" || term == "+" || term == "-" {
		return 0, 0, errors.New("empty term")
	}

	idx := strings.IndexByte(term, 'x')
	if idx < 0 {
		coef, err = strconv.ParseFloat(term, 64)
		return coef, 0, err
	}

	coefStr, rest := term[:idx], term[idx+1:]
	switch coefStr {
	case "", "+":
		coef = 1
	case "-":
		coef = -1
	default:
		if coef, err = strconv.ParseFloat(coefStr, 64); err != nil {
			return 0, 0, err
		}
	}

	switch {
	case rest == "":
		exp = 1
	case strings.HasPrefix(rest, "^"):
		if exp, err = strconv.Atoi(rest[1:]); err != nil || exp < 0 {
			return 0, 0, fmt.Errorf("bad exponent %q", rest)
		}
	default:
		return 0, 0, fmt.Errorf("unexpected %q after x", rest)
	}
	return coef, exp, nil
}

// degree returns the highest exponent with a non-zero coefficient, or -1
// for the zero polynomial.
func (p polynomial) degree() int {
	deg := -1
	for exp, coef := range p {
		if coef != 0 && exp > deg {
			deg = exp
		}
	}
	return deg
}

func (p polynomial) coefficient(exp int) float64 { return p[exp] }

func (p polynomial) eval(x float64) float64 {
	sum := 0.0
	for exp, coef := range p {
		sum += coef * math.Pow(x, float64(exp))
	}
	return sum
}

// derive returns the formal derivative.
func (p polynomial) derive() polynomial {
	out := make(polynomial, len(p))
	for exp, coef := range p {
		if exp > 0 {
			out[exp-1] += coef * float64(exp)
		}
	}
	return out
}

// antiderive returns the antiderivative with zero constant term.
func (p polynomial) antiderive() polynomial {
	out := make(polynomial, len(p))
	for exp, coef := range p {
		out[exp+1] += coef / float64(exp+1)
	}
	return out
}

// sub returns p - q.
func (p polynomial) sub(q polynomial) polynomial {
	out := make(polynomial, len(p)+len(q))
	for exp, coef := range p {
		out[exp] += coef
	}
	for exp, coef := range q {
		out[exp] -= coef
	}
	return out
}

// String renders the polynomial with descending exponents, e.g. "x^2 - 9".
func (p polynomial) String() string {
	exps := make([]int, 0, len(p))
	for exp, coef := range p {
		if coef != 0 {
			exps = append(exps, exp)
		}
	}
	if len(exps) == 0 {
		return "0"
	}
	sort.Sort(sort.Reverse(sort.IntSlice(exps)))

	var b strings.Builder
	for i, exp := range exps {
		coef := p[exp]
		if i == 0 {
			if coef < 0 {
				b.WriteString("-")
			}
		} else {
			if coef < 0 {
				b.WriteString(" - ")
			} else {
				b.WriteString(" + ")
			}
		}
		abs := math.Abs(coef)
		if abs != 1 || exp == 0 {
			b.WriteString(strconv.FormatFloat(abs, 'g', -1, 64))
		}
		switch {
		case exp == 1:
			b.WriteString("x")
		case exp > 1:
			b.WriteString("x^" + strconv.Itoa(exp))
		}
	}
	return b.String()
}

// solve finds the real or complex roots of polynomials up to degree two.
func (p polynomial) solve() ([]string, error) {
	switch p.degree() {
	case -1:
		return nil, errors.New("equation holds for every x")
	case 0:
		return nil, errors.New("equation has no solution")
	case 1:
		root := -p.coefficient(0) / p.coefficient(1)
		return []string{formatFloat(root)}, nil
	case 2:
		a, b, c := p.coefficient(2), p.coefficient(1), p.coefficient(0)
		disc := b*b - 4*a*c
		if disc >= 0 {
			sq := math.Sqrt(disc)
			r1 := (-b - sq) / (2 * a)
			r2 := (-b + sq) / (2 * a)
			if r1 == r2 {
				return []string{formatFloat(r1)}, nil
			}
			roots := []float64{r1, r2}
			sort.Float64s(roots)
			return []string{formatFloat(roots[0]), formatFloat(roots[1])}, nil
		}
		re := -b / (2 * a)
		im := math.Sqrt(-disc) / (2 * a)
		return []string{
			fmt.Sprintf("%s - %si", formatFloat(re), formatFloat(math.Abs(im))),
			fmt.Sprintf("%s + %si", formatFloat(re), formatFloat(math.Abs(im))),
		}, nil
	default:
		return nil, fmt.Errorf("degree %d equations are not supported symbolically", p.degree())
	}
}

// trapezoid numerically integrates p over [a, b] with n panels.
func (p polynomial) trapezoid(a, b float64, n int) float64 {
	if n <= 0 {
		n = 1000
	}
	h := (b - a) / float64(n)
	sum := (p.eval(a) + p.eval(b)) / 2
	for i := 1; i < n; i++ {
		sum += p.eval(a + float64(i)*h)
	}
	return sum * h
}

func formatFloat(v float64) string {
	// -0 reads badly in solution lists.
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
