package history

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/evaluation"
	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/sales"
)

func setupTestRepository(t *testing.T) *Repository {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepository(db, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func sampleResult(runID string, createdAt time.Time) *evaluation.EvaluationResult {
	mean := 105.5
	variance := 42.0
	pct := 12.5
	return &evaluation.EvaluationResult{
		RunID:      runID,
		Input:      "sales.csv",
		Boundary:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:  createdAt,
		RowsLoaded: 9,
		Reference:  sales.PeriodAggregate{N: 5, Mean: &mean, Variance: &variance, Total: 527.5},
		Test:       sales.PeriodAggregate{N: 4, Mean: &mean, Variance: &variance, Total: 422.0},
		Welch: &evaluation.TestOutcome{
			TStatistic:       3.2,
			DegreesOfFreedom: 6.8,
			PValue:           0.014,
			MeanDifference:   13.2,
			PercentChange:    &pct,
		},
	}
}

func TestSaveAndGet_RoundTrips(t *testing.T) {
	repo := setupTestRepository(t)
	in := sampleResult("run-1", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Save(in))

	out, err := repo.Get("run-1")
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, in.RunID, out.RunID)
	assert.Equal(t, in.Input, out.Input)
	assert.Equal(t, in.RowsLoaded, out.RowsLoaded)
	require.NotNil(t, out.Welch)
	assert.Equal(t, in.Welch.PValue, out.Welch.PValue)
	require.NotNil(t, out.Reference.Mean)
	assert.Equal(t, *in.Reference.Mean, *out.Reference.Mean)
}

func TestGet_UnknownRun(t *testing.T) {
	repo := setupTestRepository(t)

	out, err := repo.Get("no-such-run")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestList_NewestFirst(t *testing.T) {
	repo := setupTestRepository(t)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(sampleResult("run-old", base)))
	require.NoError(t, repo.Save(sampleResult("run-mid", base.Add(time.Hour))))
	require.NoError(t, repo.Save(sampleResult("run-new", base.Add(2*time.Hour))))

	summaries, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	assert.Equal(t, "run-new", summaries[0].RunID)
	assert.Equal(t, "run-mid", summaries[1].RunID)
	assert.Equal(t, "run-old", summaries[2].RunID)

	assert.Equal(t, "2024-02-01", summaries[0].Boundary)
	require.NotNil(t, summaries[0].PValue)
	assert.Equal(t, 0.014, *summaries[0].PValue)
}

func TestList_RespectsLimit(t *testing.T) {
	repo := setupTestRepository(t)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(sampleResult(
			"run-"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))))
	}

	summaries, err := repo.List(2)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestSave_PartialResultWithoutTest(t *testing.T) {
	repo := setupTestRepository(t)

	partial := sampleResult("run-partial", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	partial.Welch = nil
	partial.Warnings = []evaluation.Warning{{
		Code:   evaluation.WarnDegenerateBoundary,
		Period: evaluation.PeriodTest,
		Detail: "no transactions in the test period",
	}}

	require.NoError(t, repo.Save(partial))

	summaries, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Nil(t, summaries[0].PValue)
	assert.Nil(t, summaries[0].MeanDifference)

	out, err := repo.Get("run-partial")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Nil(t, out.Welch)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, evaluation.WarnDegenerateBoundary, out.Warnings[0].Code)
}

func TestDelete(t *testing.T) {
	repo := setupTestRepository(t)
	require.NoError(t, repo.Save(sampleResult("run-1", time.Now().UTC())))

	require.NoError(t, repo.Delete("run-1"))

	out, err := repo.Get("run-1")
	require.NoError(t, err)
	assert.Nil(t, out)

	// Deleting again is a no-op
	require.NoError(t, repo.Delete("run-1"))
}
