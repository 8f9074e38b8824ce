package settings

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/MathematicalSoftware/AdEvaluator/internal/config"
)

func setupTestRepository(t *testing.T) *Repository {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepository(db, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func testConfig() *config.Config {
	return &config.Config{
		DateColumn:        config.DefaultDateColumn,
		AmountColumn:      config.DefaultAmountColumn,
		DateLayout:        config.DefaultDateLayout,
		MovingAverageDays: config.DefaultMovingAverageDays,
		Simulations:       config.DefaultSimulations,
	}
}

func TestRepository_GetUnsetKey(t *testing.T) {
	repo := setupTestRepository(t)

	v, err := repo.Get(KeyBoundaryDate)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRepository_SetAndGet(t *testing.T) {
	repo := setupTestRepository(t)

	require.NoError(t, repo.Set(KeyDateColumn, "TxnDate"))

	v, err := repo.Get(KeyDateColumn)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "TxnDate", *v)
}

func TestRepository_SetOverwrites(t *testing.T) {
	repo := setupTestRepository(t)

	require.NoError(t, repo.Set(KeyTypeFilter, "Invoice"))
	require.NoError(t, repo.Set(KeyTypeFilter, "Sales Receipt"))

	v, err := repo.GetString(KeyTypeFilter, "")
	require.NoError(t, err)
	assert.Equal(t, "Sales Receipt", v)
}

func TestRepository_DeleteRestoresFallback(t *testing.T) {
	repo := setupTestRepository(t)

	require.NoError(t, repo.Set(KeySimulations, "500"))
	require.NoError(t, repo.Delete(KeySimulations))

	n, err := repo.GetInt(KeySimulations, config.DefaultSimulations)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSimulations, n)
}

func TestRepository_TypedGetters(t *testing.T) {
	repo := setupTestRepository(t)

	require.NoError(t, repo.Set(KeyMovingAverageDays, "14"))
	require.NoError(t, repo.Set(KeyDecimalComma, "true"))

	n, err := repo.GetInt(KeyMovingAverageDays, 30)
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	b, err := repo.GetBool(KeyDecimalComma, false)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestRepository_TypedGettersFallBackOnGarbage(t *testing.T) {
	repo := setupTestRepository(t)

	require.NoError(t, repo.Set(KeySimulations, "lots"))
	require.NoError(t, repo.Set(KeyDecimalComma, "maybe"))

	n, err := repo.GetInt(KeySimulations, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)

	b, err := repo.GetBool(KeyDecimalComma, true)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestSnapshot_FallsBackToConfig(t *testing.T) {
	repo := setupTestRepository(t)

	s, err := repo.Snapshot(testConfig())
	require.NoError(t, err)

	assert.Equal(t, config.DefaultDateColumn, s.DateColumn)
	assert.Equal(t, config.DefaultAmountColumn, s.AmountColumn)
	assert.Equal(t, config.DefaultSimulations, s.Simulations)
	assert.Empty(t, s.BoundaryDate)
}

func TestSnapshot_StoredValuesWin(t *testing.T) {
	repo := setupTestRepository(t)

	require.NoError(t, repo.Set(KeyDateColumn, "DATE"))
	require.NoError(t, repo.Set(KeyBoundaryDate, "2024-02-01"))

	s, err := repo.Snapshot(testConfig())
	require.NoError(t, err)

	assert.Equal(t, "DATE", s.DateColumn)
	assert.Equal(t, "2024-02-01", s.BoundaryDate)
}

func TestSnapshot_Boundary(t *testing.T) {
	s := &Snapshot{DateLayout: "2006-01-02", BoundaryDate: "2024-02-01"}

	boundary, err := s.Boundary()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), boundary)
}

func TestSnapshot_BoundaryUnset(t *testing.T) {
	s := &Snapshot{DateLayout: "2006-01-02"}

	_, err := s.Boundary()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not set")
}

func TestSnapshot_BoundaryWrongLayout(t *testing.T) {
	s := &Snapshot{DateLayout: "2006-01-02", BoundaryDate: "02/01/2024"}

	_, err := s.Boundary()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "02/01/2024")
}

func TestApply_RoundTrips(t *testing.T) {
	repo := setupTestRepository(t)

	in := &Snapshot{
		InputFile:         "/data/sales.csv",
		DateColumn:        "Date",
		AmountColumn:      "Total",
		TypeColumn:        "Type",
		TypeFilter:        "Sales Receipt",
		DateLayout:        "2006-01-02",
		DecimalComma:      true,
		BoundaryDate:      "2024-02-01",
		MovingAverageDays: 14,
		Simulations:       2000,
		Schedule:          "0 6 * * *",
	}
	require.NoError(t, repo.Apply(in))

	out, err := repo.Snapshot(testConfig())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
