package evaluation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// Default Monte Carlo configuration.
const (
	DefaultSimulations = 1000
	histogramBins      = 20
)

// SimulationOptions configures the Monte Carlo null-hypothesis simulation.
type SimulationOptions struct {
	Simulations int
	Seed        uint64 // Fixed seed keeps repeated runs bit-identical
}

// SimulateNull estimates an empirical p-value for the observed t statistic
// without assuming normally distributed sales. Both pseudo-periods are drawn
// with replacement from the reference amounts (the null hypothesis: the
// advertising changed nothing), Welch's t is computed per draw, and the
// empirical two-tailed p-value is the fraction of simulated |t| at least as
// extreme as the observed one.
func SimulateNull(referenceAmounts []float64, testN int, observedT float64, opts SimulationOptions, log zerolog.Logger) (*SimulationOutcome, error) {
	if len(referenceAmounts) < 2 {
		return nil, &InsufficientDataError{Period: PeriodReference, N: len(referenceAmounts)}
	}
	if testN < 2 {
		return nil, &InsufficientDataError{Period: PeriodTest, N: testN}
	}
	if opts.Simulations <= 0 {
		opts.Simulations = DefaultSimulations
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))

	tStats := make([]float64, 0, opts.Simulations)
	extreme := 0
	absObserved := math.Abs(observedT)

	refDraw := make([]float64, len(referenceAmounts))
	testDraw := make([]float64, testN)

	for i := 0; i < opts.Simulations; i++ {
		for j := range refDraw {
			refDraw[j] = referenceAmounts[rng.IntN(len(referenceAmounts))]
		}
		for j := range testDraw {
			testDraw[j] = referenceAmounts[rng.IntN(len(referenceAmounts))]
		}

		t, ok := welchTFromSamples(refDraw, testDraw)
		if !ok {
			// Degenerate draw (both sides flat); contributes a zero t
			t = 0
		}
		tStats = append(tStats, t)
		if math.Abs(t) >= absObserved {
			extreme++
		}
	}

	edges, counts := histogram(tStats, histogramBins)

	outcome := &SimulationOutcome{
		Simulations:     opts.Simulations,
		Seed:            opts.Seed,
		EmpiricalPValue: float64(extreme) / float64(opts.Simulations),
		TEdges:          edges,
		TCounts:         counts,
	}

	log.Debug().
		Int("simulations", opts.Simulations).
		Float64("empirical_p_value", outcome.EmpiricalPValue).
		Float64("observed_t", observedT).
		Msg("Completed null-hypothesis simulation")

	return outcome, nil
}

// welchTFromSamples computes Welch's t directly from two samples.
// Returns ok=false when both sample variances are zero.
func welchTFromSamples(a, b []float64) (float64, bool) {
	meanA := stat.Mean(a, nil)
	meanB := stat.Mean(b, nil)
	varA := stat.Variance(a, nil)
	varB := stat.Variance(b, nil)

	seSquared := varA/float64(len(a)) + varB/float64(len(b))
	if seSquared == 0 {
		return 0, false
	}
	return (meanB - meanA) / math.Sqrt(seSquared), true
}

// histogram bins values into equal-width bins, returning len(counts)+1 edges.
func histogram(values []float64, bins int) ([]float64, []int) {
	if len(values) == 0 || bins <= 0 {
		return nil, nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		// All mass in one bin
		return []float64{lo, hi}, []int{len(values)}
	}

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi

	counts := make([]int, bins)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	return edges, counts
}

// String implements fmt.Stringer for log-friendly summaries.
func (s *SimulationOutcome) String() string {
	return fmt.Sprintf("simulations=%d empirical_p=%.4f", s.Simulations, s.EmpiricalPValue)
}
