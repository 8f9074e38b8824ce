// Package settings persists the evaluation configuration: column mapping,
// type filter, date formats and the advertising start date. Settings are
// key-value pairs stored in settings.db; they take precedence over
// environment variables so users can reconfigure without restarting.
package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Setting keys.
const (
	KeyInputFile         = "input_file"
	KeyDateColumn        = "date_column"
	KeyAmountColumn      = "amount_column"
	KeyTypeColumn        = "type_column"
	KeyTypeFilter        = "type_filter"
	KeyDateLayout        = "date_layout"
	KeyDecimalComma      = "decimal_comma"
	KeyBoundaryDate      = "boundary_date"
	KeyMovingAverageDays = "moving_average_days"
	KeySimulations       = "simulations"
	KeySchedule          = "schedule"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL,
    description TEXT,
    updated_at  INTEGER NOT NULL
);`

// Repository handles settings database operations.
// Settings are stored as strings and converted to appropriate types when
// retrieved.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository and ensures its schema.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize settings schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "settings").Logger(),
	}, nil
}

// Get retrieves a setting value by key.
// Returns nil if the setting doesn't exist (not an error).
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &value, nil
}

// Set sets a setting value.
func (r *Repository) Set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// Delete removes a setting, restoring its default.
func (r *Repository) Delete(key string) error {
	if _, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// GetString returns the setting value or the fallback when unset.
func (r *Repository) GetString(key, fallback string) (string, error) {
	v, err := r.Get(key)
	if err != nil {
		return fallback, err
	}
	if v == nil {
		return fallback, nil
	}
	return *v, nil
}

// GetInt returns the setting parsed as int, or the fallback when unset or
// unparseable.
func (r *Repository) GetInt(key string, fallback int) (int, error) {
	v, err := r.Get(key)
	if err != nil {
		return fallback, err
	}
	if v == nil {
		return fallback, nil
	}
	i, err := strconv.Atoi(*v)
	if err != nil {
		r.log.Warn().Str("key", key).Str("value", *v).Msg("Setting is not an integer, using fallback")
		return fallback, nil
	}
	return i, nil
}

// GetBool returns the setting parsed as bool, or the fallback when unset or
// unparseable.
func (r *Repository) GetBool(key string, fallback bool) (bool, error) {
	v, err := r.Get(key)
	if err != nil {
		return fallback, err
	}
	if v == nil {
		return fallback, nil
	}
	b, err := strconv.ParseBool(*v)
	if err != nil {
		r.log.Warn().Str("key", key).Str("value", *v).Msg("Setting is not a boolean, using fallback")
		return fallback, nil
	}
	return b, nil
}
