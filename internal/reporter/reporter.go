// Package reporter renders reconciliation reports.
//
// Supported output formats:
//   - Console: summary plus one table per issue category for the terminal
//   - JSON: the report and its summary for programmatic consumption
//   - CSV: the discrepancy table, one row per discrepancy
//   - XLSX: a workbook with a Discrepancies sheet and a Summary sheet
//
// Dates are written day-first (dd/mm/yyyy) and amounts with two decimals in
// every format.
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{Format: reporter.FormatCSV})
//	err = generator.GenerateReport(report, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/reconciler"
	"gst-reconciliation-service/internal/summary"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatXLSX    OutputFormat = "xlsx"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV, FormatXLSX:
		return true
	default:
		return false
	}
}

// IsBinary reports whether the format cannot be written to a terminal
func (f OutputFormat) IsBinary() bool {
	return f == FormatXLSX
}

// FormatFromPath picks an output format from a file extension. Unknown
// extensions fall back to console text.
func FormatFromPath(path string) OutputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatConsole
	}
}

// Sheet names of the report workbook
const (
	SheetDiscrepancies = "Discrepancies"
	SheetSummary       = "Summary"
	summaryHeader      = "Reconciliation Summary"
)

// ReportHeaders are the columns of the discrepancy table, in order
var ReportHeaders = []string{
	"Invoice No",
	"Source",
	"Issue Type",
	"GSTR-2A Date",
	"Books Date",
	"GSTR-2A GSTIN",
	"Books GSTIN",
	"Amount Diff",
	"Tax Diff",
	"Details",
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeSummary adds the textual summary to console output and the
	// Summary sheet to XLSX output
	IncludeSummary bool `json:"include_summary"`

	// MaxRowsPerCategory limits console tables; 0 means unlimited
	MaxRowsPerCategory int `json:"max_rows_per_category"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:             FormatConsole,
		IncludeSummary:     true,
		MaxRowsPerCategory: 0,
		CSVDelimiter:       ',',
		CSVHeaders:         true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxRowsPerCategory < 0 {
		return fmt.Errorf("max rows per category cannot be negative, got %d", c.MaxRowsPerCategory)
	}
	if c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n' || c.CSVDelimiter == '\r' {
		return fmt.Errorf("invalid CSV delimiter %q", c.CSVDelimiter)
	}
	return nil
}

// ReportGenerator generates reconciliation reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// Config returns the generator's configuration
func (rg *ReportGenerator) Config() ReportConfig {
	return *rg.config
}

// GenerateReport writes report to writer in the configured format
func (rg *ReportGenerator) GenerateReport(report *reconciler.Report, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("reconciliation report cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report, writer)
	case FormatXLSX:
		return rg.generateXLSXReport(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// Row renders one discrepancy as a table row in ReportHeaders order
func Row(d *models.Discrepancy) []string {
	return []string{
		d.InvoiceNo,
		d.Source.String(),
		d.IssueType(),
		models.FormatDate(d.DateA),
		models.FormatDate(d.DateB),
		d.GSTINA,
		d.GSTINB,
		d.AmountDiff.StringFixed(2),
		d.TaxDiff.StringFixed(2),
		d.Details,
	}
}

func (rg *ReportGenerator) generateConsoleReport(report *reconciler.Report, writer io.Writer) error {
	if rg.config.IncludeSummary {
		if _, err := io.WriteString(writer, summary.Aggregate(report).Text()); err != nil {
			return err
		}
		fmt.Fprintln(writer)
	}

	if report.Len() == 0 {
		_, err := fmt.Fprintln(writer, "No discrepancies found.")
		return err
	}

	fmt.Fprintf(writer, "=== DISCREPANCIES (%d) ===\n", report.Len())
	for _, tag := range models.AllTags {
		rows := report.Filter(tag)
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(writer, "\n--- %s (%d) ---\n", tag.Label(), len(rows))
		if err := rg.printTable(rows, writer); err != nil {
			return err
		}
	}
	return nil
}

func (rg *ReportGenerator) printTable(rows []models.Discrepancy, writer io.Writer) error {
	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Invoice No\tSource\tGSTR-2A Date\tBooks Date\tAmount Diff\tTax Diff\tDetails")

	limit := len(rows)
	if rg.config.MaxRowsPerCategory > 0 && limit > rg.config.MaxRowsPerCategory {
		limit = rg.config.MaxRowsPerCategory
	}
	for i := 0; i < limit; i++ {
		d := &rows[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.InvoiceNo,
			d.Source,
			dash(models.FormatDate(d.DateA)),
			dash(models.FormatDate(d.DateB)),
			d.AmountDiff.StringFixed(2),
			d.TaxDiff.StringFixed(2),
			d.Details,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if limit < len(rows) {
		fmt.Fprintf(writer, "... and %d more\n", len(rows)-limit)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// jsonReport is the JSON document layout
type jsonReport struct {
	Report  *reconciler.Report `json:"report"`
	Summary *summary.Summary   `json:"summary"`
}

func (rg *ReportGenerator) generateJSONReport(report *reconciler.Report, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(jsonReport{Report: report, Summary: summary.Aggregate(report)})
}

func (rg *ReportGenerator) generateCSVReport(report *reconciler.Report, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(ReportHeaders); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for i := range report.Discrepancies {
		if err := csvWriter.Write(Row(&report.Discrepancies[i])); err != nil {
			return fmt.Errorf("failed to write discrepancy record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (rg *ReportGenerator) generateXLSXReport(report *reconciler.Report, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetDiscrepancies); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, report.Len())
	for i := range report.Discrepancies {
		d := &report.Discrepancies[i]
		rows = append(rows, []interface{}{
			d.InvoiceNo,
			d.Source.String(),
			d.IssueType(),
			models.FormatDate(d.DateA),
			models.FormatDate(d.DateB),
			d.GSTINA,
			d.GSTINB,
			amountCell(d.AmountDiff),
			amountCell(d.TaxDiff),
			d.Details,
		})
	}
	if err := writeSheet(f, SheetDiscrepancies, ReportHeaders, rows); err != nil {
		return err
	}

	if rg.config.IncludeSummary {
		if _, err := f.NewSheet(SheetSummary); err != nil {
			return err
		}
		lines := summary.Aggregate(report).Lines()
		summaryRows := make([][]interface{}, len(lines))
		for i, line := range lines {
			summaryRows[i] = []interface{}{line}
		}
		if err := writeSheet(f, SheetSummary, []string{summaryHeader}, summaryRows); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return f.Write(writer)
}

// amountCell stores amounts as numbers rounded to paise so spreadsheets can
// sum them.
func amountCell(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
