package evaluation

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateNull_DeterministicForSeed(t *testing.T) {
	reference := []float64{10, 20, 15, 25, 30, 12, 18, 22}

	first, err := SimulateNull(reference, 5, 1.5, SimulationOptions{Simulations: 500, Seed: 42}, zerolog.Nop())
	require.NoError(t, err)
	second, err := SimulateNull(reference, 5, 1.5, SimulationOptions{Simulations: 500, Seed: 42}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, first.EmpiricalPValue, second.EmpiricalPValue)
	assert.Equal(t, first.TEdges, second.TEdges)
	assert.Equal(t, first.TCounts, second.TCounts)
}

func TestSimulateNull_PValueRange(t *testing.T) {
	reference := []float64{10, 20, 15, 25, 30, 12, 18, 22}

	outcome, err := SimulateNull(reference, 6, 2.0, SimulationOptions{Simulations: 200, Seed: 1}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 200, outcome.Simulations)
	assert.GreaterOrEqual(t, outcome.EmpiricalPValue, 0.0)
	assert.LessOrEqual(t, outcome.EmpiricalPValue, 1.0)
}

func TestSimulateNull_ExtremeObservedT(t *testing.T) {
	reference := []float64{10, 20, 15, 25, 30, 12, 18, 22}

	// Under the null, a huge observed t is essentially never reproduced
	outcome, err := SimulateNull(reference, 6, 1e6, SimulationOptions{Simulations: 300, Seed: 7}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0.0, outcome.EmpiricalPValue)

	// An observed t of zero is matched or beaten by every draw
	outcome, err = SimulateNull(reference, 6, 0, SimulationOptions{Simulations: 300, Seed: 7}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1.0, outcome.EmpiricalPValue)
}

func TestSimulateNull_DefaultSimulationCount(t *testing.T) {
	reference := []float64{1, 2, 3, 4, 5}

	outcome, err := SimulateNull(reference, 3, 1.0, SimulationOptions{Seed: 3}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, DefaultSimulations, outcome.Simulations)
}

func TestSimulateNull_Histogram(t *testing.T) {
	reference := []float64{10, 20, 15, 25, 30, 12, 18, 22}

	outcome, err := SimulateNull(reference, 6, 1.0, SimulationOptions{Simulations: 400, Seed: 11}, zerolog.Nop())
	require.NoError(t, err)

	require.NotEmpty(t, outcome.TCounts)
	require.Len(t, outcome.TEdges, len(outcome.TCounts)+1)

	counted := 0
	for _, c := range outcome.TCounts {
		counted += c
	}
	assert.Equal(t, 400, counted)

	for i := 1; i < len(outcome.TEdges); i++ {
		assert.Greater(t, outcome.TEdges[i], outcome.TEdges[i-1])
	}
}

func TestSimulateNull_InsufficientData(t *testing.T) {
	var insufficient *InsufficientDataError

	_, err := SimulateNull([]float64{5}, 4, 1.0, SimulationOptions{}, zerolog.Nop())
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, PeriodReference, insufficient.Period)

	_, err = SimulateNull([]float64{5, 6, 7}, 1, 1.0, SimulationOptions{}, zerolog.Nop())
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, PeriodTest, insufficient.Period)
}

func TestSimulateNull_ConstantReference(t *testing.T) {
	// Every draw is flat on both sides; the degenerate t of 0 still counts
	outcome, err := SimulateNull([]float64{50, 50, 50, 50}, 3, 0.5, SimulationOptions{Simulations: 100, Seed: 5}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 0.0, outcome.EmpiricalPValue)
	assert.False(t, math.IsNaN(outcome.EmpiricalPValue))
}
