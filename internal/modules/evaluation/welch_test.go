package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/sales"
)

func aggOf(amounts ...float64) sales.PeriodAggregate {
	rows := make([]sales.Transaction, len(amounts))
	for i, a := range amounts {
		rows[i] = sales.Transaction{Amount: a}
	}
	return sales.Aggregate(rows)
}

func TestWelchTTest_KnownValues(t *testing.T) {
	// ref: mean 14, var 10, n 5; test: mean 24, var 10, n 5
	// t = 10 / sqrt(10/5 + 10/5) = 5, df = 8 exactly
	reference := aggOf(10, 12, 14, 16, 18)
	test := aggOf(20, 22, 24, 26, 28)

	outcome, err := WelchTTest(reference, test)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, outcome.TStatistic, 1e-12)
	assert.InDelta(t, 8.0, outcome.DegreesOfFreedom, 1e-12)
	assert.InDelta(t, 10.0, outcome.MeanDifference, 1e-12)
	require.NotNil(t, outcome.PercentChange)
	assert.InDelta(t, 10.0/14.0*100, *outcome.PercentChange, 1e-9)

	// Two-tailed p of t=5 at 8 df is about 0.001
	assert.Less(t, outcome.PValue, 0.01)
	assert.Greater(t, outcome.PValue, 0.0)
}

func TestWelchTTest_ClearLift(t *testing.T) {
	// 60 transactions per period around means 100 and 150
	spread := []float64{-9, -6, -3, 0, 3, 6, 9, -4, 4, 0}
	reference := make([]float64, 0, 60)
	test := make([]float64, 0, 60)
	for i := 0; i < 60; i++ {
		reference = append(reference, 100+spread[i%len(spread)])
		test = append(test, 150+spread[i%len(spread)])
	}

	outcome, err := WelchTTest(aggOf(reference...), aggOf(test...))
	require.NoError(t, err)

	assert.InDelta(t, 50.0, outcome.MeanDifference, 1e-9)
	require.NotNil(t, outcome.PercentChange)
	assert.InDelta(t, 50.0, *outcome.PercentChange, 0.1)
	assert.Less(t, outcome.PValue, 1e-6)
}

func TestWelchTTest_NoEffect(t *testing.T) {
	// Overlapping samples drawn around the same mean
	reference := aggOf(100, 105, 95, 102, 98, 101)
	test := aggOf(99, 103, 97, 104, 96, 100)

	outcome, err := WelchTTest(reference, test)
	require.NoError(t, err)

	assert.Greater(t, outcome.PValue, 0.05)
	assert.InDelta(t, 0, outcome.MeanDifference, 5)
}

func TestWelchTTest_SignificantDecrease(t *testing.T) {
	reference := aggOf(200, 210, 190, 205, 195, 208, 192)
	test := aggOf(100, 110, 90, 105, 95, 108, 92)

	outcome, err := WelchTTest(reference, test)
	require.NoError(t, err)

	// Statistically certain AND commercially negative: both must be visible
	assert.Less(t, outcome.PValue, 0.01)
	assert.Negative(t, outcome.TStatistic)
	assert.InDelta(t, -100.0, outcome.MeanDifference, 1e-9)
	require.NotNil(t, outcome.PercentChange)
	assert.Negative(t, *outcome.PercentChange)
}

func TestWelchTTest_SwapSymmetry(t *testing.T) {
	a := aggOf(10, 20, 30, 40)
	b := aggOf(50, 55, 60, 65, 70)

	forward, err := WelchTTest(a, b)
	require.NoError(t, err)
	backward, err := WelchTTest(b, a)
	require.NoError(t, err)

	assert.InDelta(t, -forward.TStatistic, backward.TStatistic, 1e-12)
	assert.InDelta(t, -forward.MeanDifference, backward.MeanDifference, 1e-12)
	assert.InDelta(t, forward.PValue, backward.PValue, 1e-12)
	assert.InDelta(t, forward.DegreesOfFreedom, backward.DegreesOfFreedom, 1e-12)
}

func TestWelchTTest_PValueRange(t *testing.T) {
	cases := []struct {
		name      string
		reference sales.PeriodAggregate
		test      sales.PeriodAggregate
	}{
		{"tiny difference", aggOf(1, 2, 3), aggOf(1.001, 2.001, 3.001)},
		{"huge difference", aggOf(1, 2, 3), aggOf(1e6, 2e6, 3e6)},
		{"unequal sizes", aggOf(5, 6), aggOf(1, 2, 3, 4, 5, 6, 7, 8, 9)},
		{"unequal variances", aggOf(100, 100.1, 99.9), aggOf(50, 200, 10, 340)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := WelchTTest(tc.reference, tc.test)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, outcome.PValue, 0.0)
			assert.LessOrEqual(t, outcome.PValue, 1.0)
			assert.Greater(t, outcome.DegreesOfFreedom, 0.0)
		})
	}
}

func TestWelchTTest_InsufficientData(t *testing.T) {
	t.Run("empty reference", func(t *testing.T) {
		_, err := WelchTTest(aggOf(), aggOf(1, 2, 3))
		var insufficient *InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, PeriodReference, insufficient.Period)
		assert.Equal(t, 0, insufficient.N)
	})

	t.Run("single test transaction", func(t *testing.T) {
		_, err := WelchTTest(aggOf(1, 2, 3), aggOf(5))
		var insufficient *InsufficientDataError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, PeriodTest, insufficient.Period)
		assert.Equal(t, 1, insufficient.N)
	})
}

func TestWelchTTest_BothPeriodsFlat(t *testing.T) {
	t.Run("identical means", func(t *testing.T) {
		outcome, err := WelchTTest(aggOf(7, 7, 7), aggOf(7, 7))
		require.NoError(t, err)
		assert.Equal(t, 0.0, outcome.TStatistic)
		assert.Equal(t, 1.0, outcome.PValue)
	})

	t.Run("distinct means", func(t *testing.T) {
		outcome, err := WelchTTest(aggOf(7, 7, 7), aggOf(9, 9))
		require.NoError(t, err)
		assert.True(t, math.IsInf(outcome.TStatistic, 1))
		assert.Equal(t, 0.0, outcome.PValue)
		assert.Equal(t, 3.0, outcome.DegreesOfFreedom)
	})
}

func TestWelchTTest_ZeroReferenceMean(t *testing.T) {
	outcome, err := WelchTTest(aggOf(-10, 10), aggOf(5, 15))
	require.NoError(t, err)

	assert.InDelta(t, 10.0, outcome.MeanDifference, 1e-12)
	// Relative change from a zero baseline is not computable
	assert.Nil(t, outcome.PercentChange)
}
