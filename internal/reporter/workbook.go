package reporter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"gst-reconciliation-service/internal/ledger"
	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/normalizer"
	"gst-reconciliation-service/internal/parsers"
	"gst-reconciliation-service/internal/reconciler"
	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

// Sheet names of the full export workbook
const (
	SheetLedgerA = "GSTR-2A Data"
	SheetLedgerB = "Books Data"
	SheetResults = "Reconciliation Results"
)

// writeSheet writes a bold header row followed by rows, starting at A1
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

// templateSamples are the example rows written into import templates
var templateSamples = map[models.Source][][]string{
	models.SourceA: {
		{"INV-2023-001", "15/07/2023", "22AAAAA0000A1Z5", "10000.00", "900.00", "900.00", "0.00", "11800.00", "07"},
		{"INV-2023-002", "18/07/2023", "33BBBBB0000B2Z6", "15000.00", "1350.00", "1350.00", "0.00", "17700.00", "07"},
	},
	models.SourceB: {
		{"INV-2023-001", "15/07/2023", "22AAAAA0000A1Z5", "10000.00", "900.00", "900.00", "0.00", "11800.00", "07", "17/07/2023"},
		{"INV-2023-003", "20/07/2023", "44CCCCC0000C3Z7", "20000.00", "1800.00", "1800.00", "0.00", "23600.00", "07", "22/07/2023"},
	},
}

// TemplateHeaders returns the display headers of a ledger's import template
func TemplateHeaders(source models.Source) []string {
	columns := normalizer.ColumnsFor(source)
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = normalizer.DisplayName(col)
	}
	return headers
}

// WriteTemplate writes an XLSX import template for source with two sample
// rows to path.
func WriteTemplate(path string, source models.Source) error {
	if !source.IsValid() {
		return errors.New(errors.CategoryConfiguration, errors.CodeInvalidConfig,
			fmt.Sprintf("cannot create a template for source '%s'", source))
	}

	f := excelize.NewFile()
	defer f.Close()

	samples := templateSamples[source]
	rows := make([][]interface{}, len(samples))
	for i, sample := range samples {
		rows[i] = stringsToCells(sample)
	}
	if err := writeSheet(f, "Sheet1", TemplateHeaders(source), rows); err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}
	return nil
}

// ExportAll writes both ledgers and the report into one workbook. Empty
// datasets get no sheet; when all three are empty nothing is written.
func ExportAll(path string, a, b *ledger.Ledger, report *reconciler.Report, log logger.Logger) error {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("reporter").WithField("file", path)

	f := excelize.NewFile()
	defer f.Close()

	written := 0
	addSheet := func(name string, headers []string, rows [][]interface{}) error {
		if len(rows) == 0 {
			log.WithField("sheet", name).Info("Skipping empty sheet")
			return nil
		}
		if written == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		written++
		return writeSheet(f, name, headers, rows)
	}

	for _, l := range []*ledger.Ledger{a, b} {
		if l == nil {
			continue
		}
		name := SheetLedgerA
		if l.Source() == models.SourceB {
			name = SheetLedgerB
		}
		if err := addSheet(name, TemplateHeaders(l.Source()), ledgerRows(l)); err != nil {
			return errors.FileError(errors.CodeFileWrite, path, err)
		}
	}

	if report != nil {
		rows := make([][]interface{}, report.Len())
		for i := range report.Discrepancies {
			rows[i] = stringsToCells(Row(&report.Discrepancies[i]))
		}
		if err := addSheet(SheetResults, ReportHeaders, rows); err != nil {
			return errors.FileError(errors.CodeFileWrite, path, err)
		}
	}

	if written == 0 {
		return errors.FileError(errors.CodeNothingToExport, path, nil)
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return errors.FileError(errors.CodeFileWrite, path, err)
	}

	log.WithField("sheets", written).Info("Exported all data")
	return nil
}

func ledgerRows(l *ledger.Ledger) [][]interface{} {
	records := l.Records()
	columns := normalizer.ColumnsFor(l.Source())
	rows := make([][]interface{}, len(records))
	for i := range records {
		rows[i] = stringsToCells(normalizer.RowValues(&records[i], columns))
	}
	return rows
}

func stringsToCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// ReadCSVReport reads discrepancy rows back from a CSV report written with
// headers. Columns are located by header name, so their order may differ.
func ReadCSVReport(ctx context.Context, r io.Reader, name string) ([]models.Discrepancy, error) {
	parser := parsers.NewBaseParser(nil)
	table, err := parser.ParseCSVReader(ctx, r, name)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, h := range ReportHeaders {
		if table.ColumnIndex(h) < 0 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, errors.SchemaError(errors.CodeMissingColumn, name, missing)
	}

	out := make([]models.Discrepancy, 0, table.Len())
	for i := 0; i < table.Len(); i++ {
		d, err := parseReportRow(table.RowMap(i))
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryFile, errors.CodeFileCorrupted,
				fmt.Sprintf("%s: row %d is not a valid report row", name, i+1)).
				WithContext("row", i+1)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseReportRow(row map[string]string) (models.Discrepancy, error) {
	var d models.Discrepancy

	source, err := models.ParseSource(strings.TrimSpace(row["Source"]))
	if err != nil {
		return d, err
	}
	tags, err := models.ParseIssueType(row["Issue Type"])
	if err != nil {
		return d, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(row["Amount Diff"]))
	if err != nil {
		return d, fmt.Errorf("amount diff: %w", err)
	}
	tax, err := decimal.NewFromString(strings.TrimSpace(row["Tax Diff"]))
	if err != nil {
		return d, fmt.Errorf("tax diff: %w", err)
	}

	d = models.Discrepancy{
		InvoiceNo:  row["Invoice No"],
		Source:     source,
		Tags:       tags,
		GSTINA:     row["GSTR-2A GSTIN"],
		GSTINB:     row["Books GSTIN"],
		AmountDiff: amount,
		TaxDiff:    tax,
		Details:    row["Details"],
	}
	if d.DateA, err = reportDate(row["GSTR-2A Date"]); err != nil {
		return d, err
	}
	if d.DateB, err = reportDate(row["Books Date"]); err != nil {
		return d, err
	}
	return d, nil
}

func reportDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("date '%s': %w", s, err)
	}
	return &t, nil
}
