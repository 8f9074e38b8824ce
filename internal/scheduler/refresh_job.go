package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/MathematicalSoftware/AdEvaluator/internal/config"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/evaluation"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/history"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/sales"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/settings"
)

// RefreshJob re-runs the evaluation of the configured sales report and
// stores the result in the run history. Accounting exports are typically
// replaced on a schedule, so the stored evaluation can track the file
// without the user re-triggering it.
type RefreshJob struct {
	cfg          *config.Config
	settingsRepo *settings.Repository
	historyRepo  *history.Repository
	service      *evaluation.Service
	log          zerolog.Logger
}

// NewRefreshJob creates the scheduled re-evaluation job.
func NewRefreshJob(cfg *config.Config, settingsRepo *settings.Repository, historyRepo *history.Repository, service *evaluation.Service, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		cfg:          cfg,
		settingsRepo: settingsRepo,
		historyRepo:  historyRepo,
		service:      service,
		log:          log.With().Str("job", "refresh").Logger(),
	}
}

// Name implements Job.
func (j *RefreshJob) Name() string {
	return "evaluation_refresh"
}

// Run implements Job. Settings are snapshotted at execution time, so edits
// between runs take effect on the next tick.
func (j *RefreshJob) Run() error {
	snapshot, err := j.settingsRepo.Snapshot(j.cfg)
	if err != nil {
		return fmt.Errorf("failed to snapshot settings: %w", err)
	}

	if snapshot.InputFile == "" {
		return fmt.Errorf("no sales report configured for scheduled evaluation")
	}

	boundary, err := snapshot.Boundary()
	if err != nil {
		return err
	}

	f, err := os.Open(snapshot.InputFile)
	if err != nil {
		return fmt.Errorf("failed to open sales report: %w", err)
	}
	defer f.Close()

	result, err := j.service.Run(context.Background(), evaluation.RunRequest{
		Source: f,
		Input:  snapshot.InputFile,
		Mapping: sales.ColumnMapping{
			DateColumn:   snapshot.DateColumn,
			AmountColumn: snapshot.AmountColumn,
			TypeColumn:   snapshot.TypeColumn,
			TypeFilter:   snapshot.TypeFilter,
		},
		DateLayout:        snapshot.DateLayout,
		DecimalComma:      snapshot.DecimalComma,
		Boundary:          boundary,
		MovingAverageDays: snapshot.MovingAverageDays,
		Simulations:       snapshot.Simulations,
	})
	if err != nil {
		var insufficient *evaluation.InsufficientDataError
		if result != nil && errors.As(err, &insufficient) {
			// Still worth recording: the stored run explains why no
			// comparison was possible for this version of the file.
			j.log.Warn().Err(err).Msg("Scheduled evaluation has insufficient data")
		} else {
			return err
		}
	}

	if err := j.historyRepo.Save(result); err != nil {
		return err
	}

	j.log.Info().Str("run_id", result.RunID).Msg("Scheduled evaluation stored")
	return nil
}
