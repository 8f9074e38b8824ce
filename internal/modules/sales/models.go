// Package sales loads transaction exports and reduces them to the per-period
// statistics consumed by the evaluation module.
package sales

import (
	"fmt"
	"time"
)

// Transaction is a single parsed row of the sales report.
// Amount can be negative (refunds and returns).
type Transaction struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
	Type   string    `json:"type,omitempty"`
}

// ColumnMapping names the headers of the sales report columns.
// Empty DateColumn/AmountColumn means "infer from well-known headers".
// TypeColumn/TypeFilter are optional; when both resolve, only rows whose
// type field equals the filter value are kept.
type ColumnMapping struct {
	DateColumn   string `json:"date_column"`
	AmountColumn string `json:"amount_column"`
	TypeColumn   string `json:"type_column,omitempty"`
	TypeFilter   string `json:"type_filter,omitempty"`
}

// PeriodAggregate holds the per-period statistics needed for the hypothesis
// test. Mean and Variance are nil when not computable (no rows), never zero:
// "no measurable sales" and "zero average sales" are different claims.
type PeriodAggregate struct {
	N        int      `json:"n"`
	Mean     *float64 `json:"mean"`
	Variance *float64 `json:"variance"`
	Total    float64  `json:"total"`
}

// SkippedRow records a data row excluded from the load, with its 1-based
// line number in the source file.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// LoadResult is the outcome of loading a sales report.
type LoadResult struct {
	Rows     []Transaction `json:"rows"`
	Skipped  []SkippedRow  `json:"skipped,omitempty"`
	Resolved ColumnMapping `json:"resolved"` // Mapping after header/type inference
}

// ColumnNotFoundError reports a configured header that is absent from the
// sales report. The column name is part of the message so the user learns
// which header to fix rather than getting a generic load failure.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found in sales report header", e.Column)
}

// RowParseError reports a data row whose date or amount could not be parsed.
// In strict mode it aborts the load; otherwise the row is skipped and counted.
type RowParseError struct {
	Line   int
	Reason string
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}
