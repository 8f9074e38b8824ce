package sales

import (
	"gonum.org/v1/gonum/stat"
)

// Aggregate reduces a period's transactions to the statistics the hypothesis
// test needs. Mean and variance are nil for an empty period. Variance is the
// Bessel-corrected sample variance and is 0 for a single row (no spread is
// measurable from one point). Total is summed independently of mean*n so
// display values do not accumulate floating-point drift.
func Aggregate(rows []Transaction) PeriodAggregate {
	agg := PeriodAggregate{N: len(rows)}
	if len(rows) == 0 {
		return agg
	}

	amounts := Amounts(rows)
	for _, a := range amounts {
		agg.Total += a
	}

	mean := stat.Mean(amounts, nil)
	agg.Mean = &mean

	variance := 0.0
	if len(amounts) >= 2 {
		variance = stat.Variance(amounts, nil)
	}
	agg.Variance = &variance

	return agg
}

// Amounts extracts the amount column of a transaction slice.
func Amounts(rows []Transaction) []float64 {
	amounts := make([]float64, len(rows))
	for i, row := range rows {
		amounts[i] = row.Amount
	}
	return amounts
}
