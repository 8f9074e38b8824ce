// Package history stores completed evaluation runs so past results can be
// listed, re-rendered and compared without re-reading the source export.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/MathematicalSoftware/AdEvaluator/internal/modules/evaluation"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    uuid            TEXT PRIMARY KEY,
    input           TEXT NOT NULL,
    boundary        TEXT NOT NULL,
    created_at      INTEGER NOT NULL,
    p_value         REAL,
    mean_difference REAL,
    result          BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);`

// RunSummary is the listing view of a stored run. PValue and MeanDifference
// are nil for runs whose statistical step did not complete.
type RunSummary struct {
	RunID          string    `json:"run_id"`
	Input          string    `json:"input"`
	Boundary       string    `json:"boundary"`
	CreatedAt      time.Time `json:"created_at"`
	PValue         *float64  `json:"p_value"`
	MeanDifference *float64  `json:"mean_difference"`
}

// Repository handles run history database operations. The full result is
// serialized with msgpack; the columns duplicated out of it exist only for
// listing and ordering.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository and ensures its schema.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}, nil
}

// Save stores a completed evaluation run.
func (r *Repository) Save(result *evaluation.EvaluationResult) error {
	blob, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result %s: %w", result.RunID, err)
	}

	var pValue, meanDiff *float64
	if result.Welch != nil {
		pValue = &result.Welch.PValue
		meanDiff = &result.Welch.MeanDifference
	}

	_, err = r.db.Exec(`
		INSERT INTO runs (uuid, input, boundary, created_at, p_value, mean_difference, result)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.Input, result.Boundary.Format("2006-01-02"),
		result.CreatedAt.Unix(), pValue, meanDiff, blob)
	if err != nil {
		return fmt.Errorf("failed to store run %s: %w", result.RunID, err)
	}

	r.log.Debug().Str("run_id", result.RunID).Msg("Stored evaluation run")
	return nil
}

// List returns the most recent runs, newest first.
func (r *Repository) List(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT uuid, input, boundary, created_at, p_value, mean_difference
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		var createdAt int64
		if err := rows.Scan(&s.RunID, &s.Input, &s.Boundary, &createdAt, &s.PValue, &s.MeanDifference); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return summaries, nil
}

// Get loads a stored run by id. Returns (nil, nil) when the run is unknown.
func (r *Repository) Get(runID string) (*evaluation.EvaluationResult, error) {
	var blob []byte
	err := r.db.QueryRow("SELECT result FROM runs WHERE uuid = ?", runID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	var result evaluation.EvaluationResult
	if err := msgpack.Unmarshal(blob, &result); err != nil {
		return nil, fmt.Errorf("failed to deserialize run %s: %w", runID, err)
	}
	return &result, nil
}

// Delete removes a stored run. Deleting an unknown run is not an error.
func (r *Repository) Delete(runID string) error {
	if _, err := r.db.Exec("DELETE FROM runs WHERE uuid = ?", runID); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}
