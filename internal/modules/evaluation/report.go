package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/sales"
)

// Significance level used only for the plain-language null hypothesis line.
const alphaFisher = 0.05

// RenderReport renders the result as a plain-text report. Rounding happens
// here and nowhere earlier. The report always carries the p-value AND the
// observed effect size: statistical and practical significance diverge
// (a certain change can still be a commercial loss), so the text never
// collapses to a single verdict.
func RenderReport(result *EvaluationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Advertising Effectiveness Evaluation for %s\n", result.Input)
	fmt.Fprintf(&b, "Advertising start date: %s\n", result.Boundary.Format("2006-01-02"))
	fmt.Fprintf(&b, "Evaluated: %s  RUN ID: %s\n", result.CreatedAt.Format("2006-01-02 15:04:05 MST"), result.RunID)
	fmt.Fprintf(&b, "Transactions loaded: %d (skipped: %d)\n", result.RowsLoaded, len(result.RowsSkipped))
	b.WriteString("\n")

	writeAggregate(&b, "No Advertising (reference)", result.Reference)
	writeAggregate(&b, "With Advertising (test)", result.Test)

	for _, w := range result.Warnings {
		fmt.Fprintf(&b, "WARNING: %s\n", w.Detail)
	}

	if result.Welch == nil {
		b.WriteString("\nNo statistical comparison was possible.\n")
		return b.String()
	}

	welch := result.Welch
	b.WriteString("\nWelch's T Test\n")
	fmt.Fprintf(&b, "Welch's T Statistic: %.4f\n", welch.TStatistic)
	fmt.Fprintf(&b, "Degrees of Freedom: %.2f\n", welch.DegreesOfFreedom)
	fmt.Fprintf(&b, "Welch's P Value: %.6f\n", welch.PValue)
	fmt.Fprintf(&b, "According to the T statistic, the probability that the difference in average\n"+
		"sales between the two periods is due to chance is: %5.2f PERCENT\n", welch.PValue*100)

	if result.Simulation != nil {
		sim := result.Simulation
		fmt.Fprintf(&b, "Empirical Distribution P-Value (%d simulations): %.6f\n", sim.Simulations, sim.EmpiricalPValue)
		fmt.Fprintf(&b, "According to the empirical distributions, the probability that the difference\n"+
			"in average sales between the two periods is due to chance is: %5.2f PERCENT\n", sim.EmpiricalPValue*100)
	}

	if welch.PValue < alphaFisher {
		b.WriteString("Null hypothesis (same average sales in both periods) rejected\n")
	} else {
		b.WriteString("Null hypothesis (same average sales in both periods) NOT REJECTED\n")
	}

	b.WriteString("\nObserved Effect\n")
	fmt.Fprintf(&b, "Difference in average sale amount: %+.2f\n", welch.MeanDifference)
	if welch.PercentChange != nil {
		fmt.Fprintf(&b, "Change in average sale amount: %+.2f PERCENT\n", *welch.PercentChange)
	} else {
		b.WriteString("Change in average sale amount: NOT APPLICABLE (reference average is zero)\n")
	}

	switch {
	case welch.MeanDifference < 0:
		b.WriteString("Average sales DECREASED during the advertising period.\n")
	case welch.MeanDifference > 0:
		b.WriteString("Average sales INCREASED during the advertising period.\n")
	default:
		b.WriteString("Average sales were UNCHANGED during the advertising period.\n")
	}

	return b.String()
}

func writeAggregate(b *strings.Builder, label string, agg sales.PeriodAggregate) {
	fmt.Fprintf(b, "%s\n", label)
	fmt.Fprintf(b, "  Transactions: %d\n", agg.N)
	if agg.Mean != nil {
		fmt.Fprintf(b, "  Average sale amount: %.2f\n", *agg.Mean)
	} else {
		b.WriteString("  Average sale amount: NOT COMPUTABLE (no transactions)\n")
	}
	if agg.Variance != nil {
		fmt.Fprintf(b, "  Standard deviation: %.2f\n", math.Sqrt(*agg.Variance))
	}
	fmt.Fprintf(b, "  Total sales: %.2f\n", agg.Total)
}
