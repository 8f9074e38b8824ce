package evaluation

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/sales"
)

// WelchTTest runs Welch's unequal-variance two-sample t-test over the two
// period aggregates.
//
//	t  = (mean_test - mean_ref) / sqrt(var_test/n_test + var_ref/n_ref)
//	df = Welch–Satterthwaite approximation
//	p  = two-tailed tail probability of the t-distribution at |t|
//
// The test reports the observed effect size (mean difference and percent
// change) next to the p-value on purpose: a tiny p-value can coexist with a
// commercially negative or negligible difference, and the result must show
// both rather than collapse to a pass/fail verdict.
func WelchTTest(reference, test sales.PeriodAggregate) (*TestOutcome, error) {
	if reference.N < 2 {
		return nil, &InsufficientDataError{Period: PeriodReference, N: reference.N}
	}
	if test.N < 2 {
		return nil, &InsufficientDataError{Period: PeriodTest, N: test.N}
	}

	meanRef, varRef := *reference.Mean, *reference.Variance
	meanTest, varTest := *test.Mean, *test.Variance
	nRef, nTest := float64(reference.N), float64(test.N)

	meanDiff := meanTest - meanRef

	outcome := &TestOutcome{MeanDifference: meanDiff}
	if meanRef != 0 {
		pct := meanDiff / meanRef * 100
		outcome.PercentChange = &pct
	}

	seSquared := varTest/nTest + varRef/nRef
	if seSquared == 0 {
		// Both periods are perfectly flat. Identical means carry no evidence
		// of change; distinct means are unambiguous.
		if meanDiff == 0 {
			outcome.TStatistic = 0
			outcome.PValue = 1
		} else {
			outcome.TStatistic = math.Inf(sign(meanDiff))
			outcome.PValue = 0
		}
		outcome.DegreesOfFreedom = nRef + nTest - 2
		return outcome, nil
	}

	outcome.TStatistic = meanDiff / math.Sqrt(seSquared)
	outcome.DegreesOfFreedom = satterthwaiteDF(varRef, nRef, varTest, nTest)
	outcome.PValue = twoTailedP(outcome.TStatistic, outcome.DegreesOfFreedom)

	return outcome, nil
}

// satterthwaiteDF computes the Welch–Satterthwaite degrees of freedom.
func satterthwaiteDF(varRef, nRef, varTest, nTest float64) float64 {
	a := varRef / nRef
	b := varTest / nTest
	numerator := (a + b) * (a + b)
	denominator := a*a/(nRef-1) + b*b/(nTest-1)
	return numerator / denominator
}

// twoTailedP is the two-tailed tail probability of the t-distribution.
func twoTailedP(t, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))
	// Guard against tiny negative values from floating-point round-off
	return math.Min(1, math.Max(0, p))
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}
