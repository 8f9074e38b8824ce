// Package evaluation runs the advertising effectiveness evaluation: Welch's
// two-sample t-test over the reference and test periods of a sales report,
// with effect-size reporting, an empirical Monte Carlo p-value and a daily
// sales series for plotting.
package evaluation

import (
	"fmt"
	"time"

	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/sales"
)

// Period names used in errors and warnings.
const (
	PeriodReference = "reference"
	PeriodTest      = "test"
)

// Warning codes.
const (
	WarnDegenerateBoundary = "degenerate_boundary"
)

// Warning is a non-fatal data-quality finding surfaced with the result.
type Warning struct {
	Code   string `json:"code"`
	Period string `json:"period,omitempty"`
	Detail string `json:"detail"`
}

// InsufficientDataError reports a period too small to test. A hypothesis
// test cannot run on fewer than two observations per period.
type InsufficientDataError struct {
	Period string
	N      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data in %s period: %d transaction(s), need at least 2", e.Period, e.N)
}

// TestOutcome is the result of the hypothesis test over the two periods.
// PercentChange is nil when the reference mean is zero: the relative change
// is then not computable, which is different from a computed zero.
type TestOutcome struct {
	TStatistic       float64  `json:"t_statistic"`
	DegreesOfFreedom float64  `json:"degrees_of_freedom"`
	PValue           float64  `json:"p_value"`
	MeanDifference   float64  `json:"mean_difference"`
	PercentChange    *float64 `json:"percent_change"`
}

// SimulationOutcome is the empirical counterpart of the analytic p-value,
// from resampling the reference period under the null hypothesis.
type SimulationOutcome struct {
	Simulations     int       `json:"simulations"`
	Seed            uint64    `json:"seed"`
	EmpiricalPValue float64   `json:"empirical_p_value"`
	TEdges          []float64 `json:"t_edges"` // Histogram bin edges of the simulated t statistic
	TCounts         []int     `json:"t_counts"`
}

// DailyPoint is one day's total sales. Days without transactions appear
// with a zero total so the series is gap-free for plotting.
type DailyPoint struct {
	Date  time.Time `json:"date"`
	Total float64   `json:"total"`
}

// DailySeries is the per-day sales series with a moving average overlay.
// MovingAverage is aligned with Points; entries are nil while the window has
// not yet filled (an average of zero is a different claim), and the slice is
// empty when the whole series is shorter than the window.
type DailySeries struct {
	Points        []DailyPoint `json:"points"`
	MovingAverage []*float64   `json:"moving_average,omitempty"`
	WindowDays    int          `json:"window_days"`
}

// EvaluationResult packages one full evaluation run. It is assembled once
// and never mutated; presentation rounds for display, the result itself
// carries full precision.
//
// Welch and Simulation are nil when the statistical step could not run
// (insufficient data in a period); the aggregates and warnings are still
// populated so the caller can explain why no comparison was possible.
type EvaluationResult struct {
	RunID     string    `json:"run_id"`
	Input     string    `json:"input"`
	Boundary  time.Time `json:"boundary"`
	CreatedAt time.Time `json:"created_at"`

	Mapping     sales.ColumnMapping `json:"mapping"` // Resolved mapping after inference
	RowsLoaded  int                 `json:"rows_loaded"`
	RowsSkipped []sales.SkippedRow  `json:"rows_skipped,omitempty"`

	Reference sales.PeriodAggregate `json:"reference"`
	Test      sales.PeriodAggregate `json:"test"`

	Welch      *TestOutcome       `json:"welch,omitempty"`
	Simulation *SimulationOutcome `json:"simulation,omitempty"`
	Daily      *DailySeries       `json:"daily,omitempty"`

	Warnings []Warning `json:"warnings,omitempty"`
}
