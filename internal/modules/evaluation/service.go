package evaluation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/sales"
)

// RunRequest describes one evaluation run. The column mapping, formats and
// boundary date are captured at call time; nothing is read from shared state
// while the pipeline runs, so re-running with changed settings always
// produces an independent result.
type RunRequest struct {
	Source io.Reader // Raw CSV sales report
	Input  string    // Display name of the source (file path, upload name)

	Mapping      sales.ColumnMapping
	DateLayout   string
	DecimalComma bool
	Strict       bool

	Boundary time.Time // First day the advertising ran

	MovingAverageDays int
	Simulations       int
	Seed              uint64
}

// Service runs the evaluation pipeline: load, partition, aggregate, test,
// assemble. One invocation per user-triggered run; no state is kept between
// runs.
type Service struct {
	log zerolog.Logger
}

// NewService creates an evaluation service.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("component", "evaluation").Logger(),
	}
}

// Run executes the full pipeline.
//
// Structural load failures (missing column, unreadable file) return a nil
// result. When only the statistical step fails (a period with fewer than two
// transactions) the partial result is returned together with the
// InsufficientDataError: the aggregates and warnings still explain to the
// user why no comparison was possible.
func (s *Service) Run(ctx context.Context, req RunRequest) (*EvaluationResult, error) {
	if req.Boundary.IsZero() {
		return nil, fmt.Errorf("advertising start date is not set")
	}

	loader := sales.NewLoader(sales.LoadOptions{
		Mapping:      req.Mapping,
		DateLayout:   req.DateLayout,
		DecimalComma: req.DecimalComma,
		Strict:       req.Strict,
	}, s.log)

	loaded, err := loader.Load(req.Source)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reference, test := sales.Partition(loaded.Rows, req.Boundary)

	result := &EvaluationResult{
		RunID:       uuid.New().String(),
		Input:       req.Input,
		Boundary:    req.Boundary,
		CreatedAt:   time.Now().UTC(),
		Mapping:     loaded.Resolved,
		RowsLoaded:  len(loaded.Rows),
		RowsSkipped: loaded.Skipped,
		Reference:   sales.Aggregate(reference),
		Test:        sales.Aggregate(test),
	}

	// A boundary outside the data's span leaves one period empty. That is a
	// wrong-boundary explanation for the user, not a crash.
	if len(reference) == 0 {
		result.Warnings = append(result.Warnings, degenerateBoundaryWarning(PeriodReference, req.Boundary))
	}
	if len(test) == 0 {
		result.Warnings = append(result.Warnings, degenerateBoundaryWarning(PeriodTest, req.Boundary))
	}

	if req.MovingAverageDays > 0 {
		result.Daily = BuildDailySeries(loaded.Rows, req.MovingAverageDays)
	}

	welch, err := WelchTTest(result.Reference, result.Test)
	if err != nil {
		var insufficient *InsufficientDataError
		if errors.As(err, &insufficient) {
			s.log.Warn().
				Str("period", insufficient.Period).
				Int("n", insufficient.N).
				Msg("Statistical step skipped, period too small")
			return result, err
		}
		return nil, err
	}
	result.Welch = welch

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.Simulations != 0 {
		sim, err := SimulateNull(sales.Amounts(reference), len(test), welch.TStatistic, SimulationOptions{
			Simulations: req.Simulations,
			Seed:        req.Seed,
		}, s.log)
		if err != nil {
			return nil, fmt.Errorf("null-hypothesis simulation failed: %w", err)
		}
		result.Simulation = sim
	}

	s.log.Info().
		Str("run_id", result.RunID).
		Int("reference_n", result.Reference.N).
		Int("test_n", result.Test.N).
		Float64("t_statistic", welch.TStatistic).
		Float64("p_value", welch.PValue).
		Float64("mean_difference", welch.MeanDifference).
		Msg("Evaluation completed")

	return result, nil
}

func degenerateBoundaryWarning(period string, boundary time.Time) Warning {
	return Warning{
		Code:   WarnDegenerateBoundary,
		Period: period,
		Detail: fmt.Sprintf("no transactions in the %s period: advertising start date %s falls outside the report's date span", period, boundary.Format("2006-01-02")),
	}
}
