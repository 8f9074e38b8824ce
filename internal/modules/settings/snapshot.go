package settings

import (
	"fmt"
	"time"

	"github.com/MathematicalSoftware/AdEvaluator/internal/config"
)

// Snapshot is the immutable configuration handed to one evaluation run.
// It is resolved once at invocation time; changing stored settings never
// affects a run already in flight.
type Snapshot struct {
	InputFile         string `json:"input_file"`
	DateColumn        string `json:"date_column"`
	AmountColumn      string `json:"amount_column"`
	TypeColumn        string `json:"type_column"`
	TypeFilter        string `json:"type_filter"`
	DateLayout        string `json:"date_layout"`
	DecimalComma      bool   `json:"decimal_comma"`
	BoundaryDate      string `json:"boundary_date"` // In DateLayout format; empty when unset
	MovingAverageDays int    `json:"moving_average_days"`
	Simulations       int    `json:"simulations"`
	Schedule          string `json:"schedule"`
}

// Snapshot resolves the current settings, with the environment configuration
// as fallback for anything unset in the database.
func (r *Repository) Snapshot(cfg *config.Config) (*Snapshot, error) {
	s := &Snapshot{}
	var err error

	if s.InputFile, err = r.GetString(KeyInputFile, cfg.InputFile); err != nil {
		return nil, err
	}
	if s.DateColumn, err = r.GetString(KeyDateColumn, cfg.DateColumn); err != nil {
		return nil, err
	}
	if s.AmountColumn, err = r.GetString(KeyAmountColumn, cfg.AmountColumn); err != nil {
		return nil, err
	}
	if s.TypeColumn, err = r.GetString(KeyTypeColumn, cfg.TypeColumn); err != nil {
		return nil, err
	}
	if s.TypeFilter, err = r.GetString(KeyTypeFilter, cfg.TypeFilter); err != nil {
		return nil, err
	}
	if s.DateLayout, err = r.GetString(KeyDateLayout, cfg.DateLayout); err != nil {
		return nil, err
	}
	if s.DecimalComma, err = r.GetBool(KeyDecimalComma, cfg.DecimalComma); err != nil {
		return nil, err
	}
	if s.BoundaryDate, err = r.GetString(KeyBoundaryDate, ""); err != nil {
		return nil, err
	}
	if s.MovingAverageDays, err = r.GetInt(KeyMovingAverageDays, cfg.MovingAverageDays); err != nil {
		return nil, err
	}
	if s.Simulations, err = r.GetInt(KeySimulations, cfg.Simulations); err != nil {
		return nil, err
	}
	if s.Schedule, err = r.GetString(KeySchedule, cfg.Schedule); err != nil {
		return nil, err
	}

	return s, nil
}

// Boundary parses the stored advertising start date under the snapshot's
// date layout.
func (s *Snapshot) Boundary() (time.Time, error) {
	if s.BoundaryDate == "" {
		return time.Time{}, fmt.Errorf("advertising start date is not set")
	}
	layout := s.DateLayout
	if layout == "" {
		layout = config.DefaultDateLayout
	}
	t, err := time.Parse(layout, s.BoundaryDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid advertising start date %q: %w", s.BoundaryDate, err)
	}
	return t, nil
}

// Apply persists the snapshot's values. Empty strings are stored as-is so a
// user can deliberately clear a column name (enabling header inference).
func (r *Repository) Apply(s *Snapshot) error {
	pairs := map[string]string{
		KeyInputFile:         s.InputFile,
		KeyDateColumn:        s.DateColumn,
		KeyAmountColumn:      s.AmountColumn,
		KeyTypeColumn:        s.TypeColumn,
		KeyTypeFilter:        s.TypeFilter,
		KeyDateLayout:        s.DateLayout,
		KeyDecimalComma:      fmt.Sprintf("%t", s.DecimalComma),
		KeyBoundaryDate:      s.BoundaryDate,
		KeyMovingAverageDays: fmt.Sprintf("%d", s.MovingAverageDays),
		KeySimulations:       fmt.Sprintf("%d", s.Simulations),
		KeySchedule:          s.Schedule,
	}
	for key, value := range pairs {
		if err := r.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}
