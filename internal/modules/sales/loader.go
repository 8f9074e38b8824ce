package sales

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Header candidates used when a column name is left unconfigured.
// QuickBooks-style exports use Date/Amount or their upper-case variants,
// and sometimes Total instead of Amount.
var (
	dateHeaderCandidates   = []string{"DATE", "Date"}
	amountHeaderCandidates = []string{"AMOUNT", "Amount", "Total", "TOTAL"}
	typeHeaderCandidates   = []string{"Type", "TYPE"}

	// Transaction types that represent actual sales in double-entry exports.
	// Used when a type column exists but no filter value is configured.
	knownSalesTypeValues = []string{"SALES RECEIPT", "PAYMENT", "INVOICE"}
)

// LoadOptions configures a single load. Date layout and decimal format are
// locale-dependent but fixed for the whole run.
type LoadOptions struct {
	Mapping      ColumnMapping
	DateLayout   string // Go reference layout, defaults to 2006-01-02
	DecimalComma bool   // Comma is the decimal separator, period the thousands separator
	Strict       bool   // Fail the load on the first unparseable row instead of skipping it
}

// Loader parses a raw sales report into typed transactions.
type Loader struct {
	opts LoadOptions
	log  zerolog.Logger
}

// NewLoader creates a loader for one run.
func NewLoader(opts LoadOptions, log zerolog.Logger) *Loader {
	if opts.DateLayout == "" {
		opts.DateLayout = "2006-01-02"
	}
	return &Loader{
		opts: opts,
		log:  log.With().Str("component", "loader").Logger(),
	}
}

// Load reads the CSV sales report and returns typed transactions.
// Header resolution is case-sensitive exact match; a configured header that
// is absent fails the whole load with ColumnNotFoundError. Data rows that do
// not parse are skipped and reported unless Strict is set.
func (l *Loader) Load(r io.Reader) (*LoadResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Exports often carry ragged summary rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read sales report: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("sales report is empty")
	}

	headers := records[0]

	dateIdx, dateCol, err := resolveColumn(headers, l.opts.Mapping.DateColumn, "Date", dateHeaderCandidates)
	if err != nil {
		return nil, err
	}
	amountIdx, amountCol, err := resolveColumn(headers, l.opts.Mapping.AmountColumn, "Amount", amountHeaderCandidates)
	if err != nil {
		return nil, err
	}

	typeIdx, typeCol := resolveTypeColumn(headers, l.opts.Mapping.TypeColumn)
	typeFilter := l.opts.Mapping.TypeFilter
	if typeIdx >= 0 && typeFilter == "" {
		typeFilter = inferTypeFilter(records[1:], typeIdx)
		if typeFilter != "" {
			l.log.Debug().Str("type_filter", typeFilter).Msg("Inferred sales type filter from report values")
		}
	}

	result := &LoadResult{
		Resolved: ColumnMapping{
			DateColumn:   dateCol,
			AmountColumn: amountCol,
			TypeColumn:   typeCol,
			TypeFilter:   typeFilter,
		},
	}

	for i, record := range records[1:] {
		line := i + 2 // 1-based, after the header row

		if typeIdx >= 0 && typeFilter != "" {
			// Out-of-scope transaction types are dropped silently, they are
			// not parse errors (double-entry exports mix invoices, payments
			// and receipts for the same sale).
			if typeIdx >= len(record) || strings.TrimSpace(record[typeIdx]) != typeFilter {
				continue
			}
		}

		row, perr := l.parseRow(record, line, dateIdx, amountIdx, typeIdx)
		if perr != nil {
			if l.opts.Strict {
				return nil, perr
			}
			result.Skipped = append(result.Skipped, SkippedRow{Line: perr.Line, Reason: perr.Reason})
			continue
		}
		result.Rows = append(result.Rows, *row)
	}

	if len(result.Skipped) > 0 {
		l.log.Warn().
			Int("skipped_rows", len(result.Skipped)).
			Int("loaded_rows", len(result.Rows)).
			Msg("Skipped unparseable rows in sales report")
	}

	return result, nil
}

func (l *Loader) parseRow(record []string, line, dateIdx, amountIdx, typeIdx int) (*Transaction, *RowParseError) {
	if dateIdx >= len(record) || amountIdx >= len(record) {
		return nil, &RowParseError{Line: line, Reason: "not enough fields"}
	}

	dateStr := strings.TrimSpace(record[dateIdx])
	if dateStr == "" {
		return nil, &RowParseError{Line: line, Reason: "empty date field"}
	}
	date, err := time.Parse(l.opts.DateLayout, dateStr)
	if err != nil {
		return nil, &RowParseError{Line: line, Reason: fmt.Sprintf("invalid date %q for layout %s", dateStr, l.opts.DateLayout)}
	}

	amountStr := strings.TrimSpace(record[amountIdx])
	if amountStr == "" {
		return nil, &RowParseError{Line: line, Reason: "empty amount field"}
	}
	amount, err := parseAmount(amountStr, l.opts.DecimalComma)
	if err != nil {
		return nil, &RowParseError{Line: line, Reason: fmt.Sprintf("invalid amount %q", amountStr)}
	}

	row := &Transaction{Date: date, Amount: amount}
	if typeIdx >= 0 && typeIdx < len(record) {
		row.Type = strings.TrimSpace(record[typeIdx])
	}
	return row, nil
}

// resolveColumn finds the index of a configured header, or infers it from
// well-known candidates when no header is configured. Matching is
// case-sensitive and exact.
func resolveColumn(headers []string, configured, defaultName string, candidates []string) (int, string, error) {
	if configured != "" {
		for i, h := range headers {
			if strings.TrimSpace(h) == configured {
				return i, configured, nil
			}
		}
		return -1, "", &ColumnNotFoundError{Column: configured}
	}

	for _, candidate := range candidates {
		for i, h := range headers {
			if strings.TrimSpace(h) == candidate {
				return i, candidate, nil
			}
		}
	}
	// Report the conventional name, the user never configured one
	return -1, "", &ColumnNotFoundError{Column: defaultName}
}

// resolveTypeColumn is forgiving where resolveColumn is not: the type column
// is optional, so an absent header just disables type filtering.
func resolveTypeColumn(headers []string, configured string) (int, string) {
	candidates := typeHeaderCandidates
	if configured != "" {
		candidates = []string{configured}
	}
	for _, candidate := range candidates {
		for i, h := range headers {
			if strings.TrimSpace(h) == candidate {
				return i, candidate
			}
		}
	}
	return -1, ""
}

// inferTypeFilter picks the first well-known sales type value present in the
// report, preserving the report's original casing. Returns "" when none of
// the known values appear, in which case no filtering happens.
func inferTypeFilter(records [][]string, typeIdx int) string {
	seen := make(map[string]string)
	for _, record := range records {
		if typeIdx >= len(record) {
			continue
		}
		v := strings.TrimSpace(record[typeIdx])
		if v == "" {
			continue
		}
		upper := strings.ToUpper(v)
		if _, ok := seen[upper]; !ok {
			seen[upper] = v
		}
	}
	for _, known := range knownSalesTypeValues {
		if original, ok := seen[known]; ok {
			return original
		}
	}
	return ""
}

// parseAmount parses a decimal amount, tolerating currency-style thousands
// separators. With decimalComma the roles of comma and period are swapped.
func parseAmount(s string, decimalComma bool) (float64, error) {
	if decimalComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return strconv.ParseFloat(s, 64)
}
