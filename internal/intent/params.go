package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nyxlab/nyx/api/schemas"
)

// Parameter extraction is best-effort slot filling over the original,
// non-lowered query. Each slot is written at most once per call
// (first-match-wins); unparseable fragments leave the slot absent rather
// than aborting the extraction.

var (
	// Mathematics: explicit "f(x) = ..." / "y = ..." definitions, then the
	// looser French "de <expression>" form, bounds and bracket intervals.
	reFuncDef  = regexp.MustCompile(`(?i)(?:f\(x\)|y)\s*=\s*(.+?)(?:\s+|$)`)
	reFuncOf   = regexp.MustCompile(`(?i)de\s+(.+?)(?:\s+de\s+|\s+from\s+|$)`)
	reBounds   = regexp.MustCompile(`(?i)(?:de|from)\s+(\S+)\s+(?:à|to)\s+(\S+)`)
	reInterval = regexp.MustCompile(`[\[\(]([^,]+),\s*([^\]\)]+)[\]\)]`)

	// Physics: mass and velocity with optional units.
	reMass     = regexp.MustCompile(`(?i)masse\s*(?:=|:)?\s*(\d+(?:\.\d+)?)\s*(kg|g)?`)
	reVelocity = regexp.MustCompile(`(?i)vitesse\s*(?:=|:)?\s*(\d+(?:\.\d+)?)\s*(m/s)?`)

	// Electronics: resistance and capacitance with optional units.
	reResistance  = regexp.MustCompile(`(?i)R\s*=\s*(\d+(?:\.\d+)?)\s*(Ω|ohm|k)?`)
	reCapacitance = regexp.MustCompile(`(?i)C\s*=\s*(\d+(?:\.\d+)?)\s*(F|µF|nF|pF)?`)
)

func extractParameters(query string, domain schemas.Domain) map[string]any {
	params := make(map[string]any)

	switch domain {
	case schemas.DomainMathematics:
		if m := reFuncDef.FindStringSubmatch(query); m != nil {
			params["function"] = strings.TrimSpace(m[1])
		} else if m := reFuncOf.FindStringSubmatch(query); m != nil {
			params["function"] = strings.TrimSpace(m[1])
		}
		if m := reBounds.FindStringSubmatch(query); m != nil {
			params["x_min"] = m[1]
			params["x_max"] = m[2]
		}
		if m := reInterval.FindStringSubmatch(query); m != nil {
			params["x_min"] = strings.TrimSpace(m[1])
			params["x_max"] = strings.TrimSpace(m[2])
		}

	case schemas.DomainPhysics:
		if m := reMass.FindStringSubmatch(query); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				params["mass"] = v
				params["mass_unit"] = orDefault(m[2], "kg")
			}
		}
		if m := reVelocity.FindStringSubmatch(query); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				params["velocity"] = v
			}
		}

	case schemas.DomainElectronics:
		if m := reResistance.FindStringSubmatch(query); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				params["resistance"] = v
				params["resistance_unit"] = orDefault(m[2], "Ω")
			}
		}
		if m := reCapacitance.FindStringSubmatch(query); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				params["capacitance"] = v
				params["capacitance_unit"] = orDefault(m[2], "F")
			}
		}
	}

	return params
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
