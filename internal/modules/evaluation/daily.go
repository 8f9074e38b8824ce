package evaluation

import (
	"time"

	"github.com/markcheno/go-talib"

	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/sales"
)

// BuildDailySeries reduces transactions to per-day totals for plotting.
// Days inside the report's date span with no transactions appear with a zero
// total, so a slow week is visible as a dip rather than a missing gap. The
// moving average smooths day-of-week noise; it is omitted when the series is
// shorter than the window.
func BuildDailySeries(rows []sales.Transaction, windowDays int) *DailySeries {
	series := &DailySeries{WindowDays: windowDays}
	if len(rows) == 0 {
		return series
	}

	totals := make(map[time.Time]float64)
	var first, last time.Time
	for i, row := range rows {
		day := row.Date.Truncate(24 * time.Hour)
		totals[day] += row.Amount
		if i == 0 || day.Before(first) {
			first = day
		}
		if i == 0 || day.After(last) {
			last = day
		}
	}

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		series.Points = append(series.Points, DailyPoint{Date: day, Total: totals[day]})
	}

	if windowDays > 1 && len(series.Points) >= windowDays {
		values := make([]float64, len(series.Points))
		for i, p := range series.Points {
			values[i] = p.Total
		}
		// Sma writes zeros into the positions before the window fills.
		// Those are padding, not averages, so they become nil here.
		sma := talib.Sma(values, windowDays)
		series.MovingAverage = make([]*float64, len(sma))
		for i := windowDays - 1; i < len(sma); i++ {
			v := sma[i]
			series.MovingAverage[i] = &v
		}
	}

	return series
}
