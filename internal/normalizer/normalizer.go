// Package normalizer turns raw ledger tables with arbitrary headers into
// records of the fixed ledger schema.
//
// Column resolution runs in two passes. User overrides (canonical column to
// source header) are applied first; the synonym table then claims the
// remaining headers, leftmost match first. Values that cannot be parsed are
// replaced by their default (nil date, zero amount) and reported as
// warnings; only a non-empty table whose key columns cannot be located is
// rejected.
package normalizer

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"gst-reconciliation-service/internal/gstin"
	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/parsers"
	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

// Result holds the normalized records of one table
type Result struct {
	Records  []models.Record
	Warnings []*errors.ReconcilerError

	// Columns maps each resolved canonical column to the source header
	Columns map[string]string
}

// Options configures a Normalizer
type Options struct {
	Source           models.Source
	CleanIdentifiers bool
}

// Normalizer normalizes tables for one ledger
type Normalizer struct {
	opts   Options
	logger logger.Logger
}

// New creates a Normalizer. A nil logger falls back to the global logger.
func New(opts Options, log logger.Logger) *Normalizer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Normalizer{
		opts: opts,
		logger: log.WithComponent("normalizer").WithFields(logger.Fields{
			"source": opts.Source.Name(),
		}),
	}
}

// Source returns the ledger this normalizer produces records for
func (n *Normalizer) Source() models.Source {
	return n.opts.Source
}

// Normalize resolves columns and converts every row of table into a Record.
// overrides maps canonical column names to headers in table.
func (n *Normalizer) Normalize(table *parsers.RawTable, overrides map[string]string) (*Result, error) {
	collector := errors.NewParseWarningCollector(n.opts.Source.Name())
	result := &Result{Columns: make(map[string]string)}

	if table == nil || table.Len() == 0 {
		return result, nil
	}

	index := n.resolveColumns(table, overrides, collector)
	for col, i := range index {
		result.Columns[col] = table.Headers[i]
	}

	var missing []string
	for _, col := range keyColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		err := errors.SchemaError(errors.CodeMissingColumn, n.opts.Source.Name(), missing).
			WithContext("headers", table.Headers)
		n.logger.WithFields(logger.Fields{
			"missing_columns":   missing,
			"available_headers": table.Headers,
		}).Error("Required columns could not be located")
		return nil, err
	}

	result.Records = make([]models.Record, 0, table.Len())
	for row := 0; row < table.Len(); row++ {
		value := func(col string) string {
			i, ok := index[col]
			if !ok {
				return ""
			}
			return table.Cell(row, i)
		}
		result.Records = append(result.Records, n.normalizeRow(row+1, value, collector))
	}

	result.Warnings = collector.Warnings()
	for _, w := range result.Warnings {
		n.logger.WithFields(logger.Fields{
			"code": w.Code,
			"row":  w.Context["row"],
		}).Warn(w.Message)
	}

	n.logger.WithFields(logger.Fields{
		"rows":     len(result.Records),
		"warnings": len(result.Warnings),
		"columns":  len(result.Columns),
	}).Debug("Normalized table")

	return result, nil
}

// resolveColumns returns canonical column -> table column index
func (n *Normalizer) resolveColumns(table *parsers.RawTable, overrides map[string]string, collector *errors.ParseWarningCollector) map[string]int {
	columns := ColumnsFor(n.opts.Source)
	normalized := make([]string, len(table.Headers))
	for i, h := range table.Headers {
		normalized[i] = NormalizeHeader(h)
	}

	index := make(map[string]int)
	used := make(map[int]bool)

	// Overrides in sorted order so warnings are deterministic
	targets := make([]string, 0, len(overrides))
	for target := range overrides {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	for _, target := range targets {
		userCol := overrides[target]
		if strings.TrimSpace(userCol) == "" {
			continue
		}
		if !IsCanonical(n.opts.Source, target) {
			collector.Add(errors.New(errors.CategoryParse, errors.CodeUnknownColumn,
				fmt.Sprintf("%s: '%s' is not a %s column, mapping to '%s' ignored",
					n.opts.Source.Name(), target, n.opts.Source.Name(), userCol)).
				WithContext("column", target).
				WithContext("value", userCol))
			continue
		}

		want := NormalizeHeader(userCol)
		found := -1
		for i, h := range normalized {
			if h == want && !used[i] {
				found = i
				break
			}
		}
		if found < 0 {
			collector.Add(errors.ParseError(errors.CodeUnknownColumn, n.opts.Source.Name(), 0, target, userCol))
			continue
		}

		index[target] = found
		used[found] = true
	}

	reverse := buildReverseSynonyms(columns)
	for i, h := range normalized {
		if used[i] {
			continue
		}
		col, ok := reverse[h]
		if !ok {
			continue
		}
		if _, taken := index[col]; taken {
			continue
		}
		index[col] = i
		used[i] = true
	}

	return index
}

func (n *Normalizer) normalizeRow(row int, value func(string) string, collector *errors.ParseWarningCollector) models.Record {
	source := n.opts.Source.Name()

	rec := models.Record{
		InvoiceNo:     text(value(ColInvoiceNo)),
		PlaceOfSupply: text(value(ColPlaceOfSupply)),
	}

	rawGSTIN := value(ColSupplierGSTIN)
	if n.opts.CleanIdentifiers {
		cleaned := gstin.Clean(rawGSTIN)
		if cleaned.Value != "" && !cleaned.WellFormed {
			collector.Add(errors.ParseError(errors.CodeInvalidIdentifier, source, row, ColSupplierGSTIN, cleaned.Value))
		}
		rec.SupplierGSTIN = cleaned.Value
	} else {
		rec.SupplierGSTIN = gstin.Trim(rawGSTIN).Value
	}

	rec.InvoiceDate = n.date(row, ColInvoiceDate, value(ColInvoiceDate), collector)
	if n.opts.Source == models.SourceB {
		rec.BookEntryDate = n.date(row, ColBookEntryDate, value(ColBookEntryDate), collector)
	}

	rec.TaxableValue = n.amount(row, ColTaxableValue, value(ColTaxableValue), collector)
	rec.CGST = n.amount(row, ColCGST, value(ColCGST), collector)
	rec.SGST = n.amount(row, ColSGST, value(ColSGST), collector)
	rec.IGST = n.amount(row, ColIGST, value(ColIGST), collector)
	rec.TotalAmount = n.amount(row, ColTotalAmount, value(ColTotalAmount), collector)

	return rec
}

func text(raw string) string {
	if models.IsBlank(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}

func (n *Normalizer) date(row int, col, raw string, collector *errors.ParseWarningCollector) *time.Time {
	if models.IsBlank(raw) {
		return nil
	}

	t, ok := ParseDate(raw)
	if !ok {
		collector.Add(errors.ParseError(errors.CodeInvalidDate, n.opts.Source.Name(), row, col, raw))
		return nil
	}
	return &t
}

func (n *Normalizer) amount(row int, col, raw string, collector *errors.ParseWarningCollector) decimal.Decimal {
	if models.IsBlank(raw) {
		return decimal.Zero
	}

	d, err := models.ParseDecimalFromString(raw)
	if err != nil {
		collector.Add(errors.ParseError(errors.CodeInvalidAmount, n.opts.Source.Name(), row, col, raw))
		return decimal.Zero
	}
	return d
}

// excelSerial matches the raw serials excelize yields for date cells. Four
// digits or fewer are read as a year instead.
var excelSerial = regexp.MustCompile(`^[0-9]{5}(\.[0-9]+)?$`)

// maxExcelSerial is 31/12/9999
const maxExcelSerial = 2958465

// ParseDate parses a ledger date. Spreadsheet serial numbers are accepted as
// well as text dates; the time of day is dropped.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)

	if excelSerial.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f >= 1 && f <= maxExcelSerial {
			if t, err := excelize.ExcelDateToTime(f, false); err == nil {
				return dateOnly(t), true
			}
		}
	}

	t, err := models.ParseTimeWithFormats(raw)
	if err != nil {
		return time.Time{}, false
	}
	return dateOnly(t), true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
