package providers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyxlab/nyx/api/schemas"
)

func execElectronics(t *testing.T, query string, context map[string]any) (schemas.Result, map[string]any) {
	t.Helper()
	e := NewElectronics()
	require.NoError(t, e.Initialize())

	result, err := e.Execute(query, context)
	require.NoError(t, err)
	inner, ok := result["result"].(map[string]any)
	require.True(t, ok)
	return result, inner
}

func TestElectronicsCanHandle(t *testing.T) {
	t.Parallel()
	e := NewElectronics()

	// Max-weight scoring: several keywords do not stack.
	assert.Equal(t, 0.9, e.CanHandle("un circuit avec une résistance et un condensateur"))
	assert.Equal(t, 0.95, e.CanHandle("polarisation d'un transistor"))
	assert.Equal(t, 0.9, e.CanHandle("constante de temps rc"))
	assert.Zero(t, e.CanHandle("bonjour"))
}

func TestElectronicsRCCircuit(t *testing.T) {
	t.Parallel()

	t.Run("time constant from query values", func(t *testing.T) {
		result, inner := execElectronics(t, "Calculer la constante de temps RC avec R = 1000 et C = 0.001", nil)

		assert.True(t, result.Succeeded())
		assert.Equal(t, "rc_circuit", result["calculation_type"])
		assert.InDelta(t, 1.0, inner["time_constant_s"].(float64), 1e-9)
		assert.InDelta(t, 1/(2*math.Pi), inner["cutoff_frequency_hz"].(float64), 1e-9)
	})

	t.Run("missing values yields the formulas", func(t *testing.T) {
		_, inner := execElectronics(t, "expliquer un circuit rc", nil)
		assert.NotEmpty(t, inner["formulas"])
		assert.Contains(t, inner["required"], "capacitance")
	})
}

func TestElectronicsRLAndRLC(t *testing.T) {
	t.Parallel()

	t.Run("rl time constant", func(t *testing.T) {
		result, inner := execElectronics(t, "constante de temps rl avec R = 100 et L = 0.5", nil)
		assert.Equal(t, "rl_circuit", result["calculation_type"])
		assert.InDelta(t, 0.005, inner["time_constant_s"].(float64), 1e-9)
	})

	t.Run("rlc resonance and quality factor", func(t *testing.T) {
		result, inner := execElectronics(t, "résonance du circuit rlc", map[string]any{
			"resistance": 10.0, "inductance": 0.001, "capacitance": 1e-6,
		})
		assert.Equal(t, "rlc_circuit", result["calculation_type"])
		assert.InDelta(t, 1/(2*math.Pi*math.Sqrt(0.001*1e-6)), inner["resonant_frequency_hz"].(float64), 1e-6)
		assert.InDelta(t, 0.1*math.Sqrt(0.001/1e-6), inner["quality_factor"].(float64), 1e-9)
	})
}

func TestElectronicsOhmsLawAndPower(t *testing.T) {
	t.Parallel()

	t.Run("solves for the missing variable", func(t *testing.T) {
		_, inner := execElectronics(t, "loi d'ohm avec V = 12 et R = 4", nil)
		assert.InDelta(t, 3.0, inner["current_a"].(float64), 1e-9)
		assert.Equal(t, "I = V/R", inner["formula"])
	})

	t.Run("power from voltage and current", func(t *testing.T) {
		result, inner := execElectronics(t, "calculer la puissance avec V = 12 et I = 2", nil)
		assert.Equal(t, "power", result["calculation_type"])
		assert.InDelta(t, 24.0, inner["power_w"].(float64), 1e-9)
	})
}

func TestElectronicsVoltageDivider(t *testing.T) {
	t.Parallel()

	result, inner := execElectronics(t, "diviseur de tension", map[string]any{
		"vin": 9.0, "r1": 1000.0, "r2": 2000.0,
	})
	assert.Equal(t, "divider", result["calculation_type"])
	assert.InDelta(t, 6.0, inner["vout_v"].(float64), 1e-9)
}
