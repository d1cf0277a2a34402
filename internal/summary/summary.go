// Package summary reduces a reconciliation report to category counts and its
// financial impact.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/reconciler"
)

// Impact is the absolute net difference of one category
type Impact struct {
	Amount decimal.Decimal `json:"amount"`
	Tax    decimal.Decimal `json:"tax"`
}

// Summary of one reconciliation run
type Summary struct {
	RunID       string    `json:"run_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	RecordsA    int       `json:"records_a"`
	RecordsB    int       `json:"records_b"`

	Total  int                         `json:"total"`
	Counts map[models.IssueTag]int     `json:"counts"`
	Impact map[models.IssueTag]*Impact `json:"impact"`

	TotalAmountDiff decimal.Decimal `json:"total_amount_diff"`
	TotalTaxDiff    decimal.Decimal `json:"total_tax_diff"`

	DateToleranceDays int             `json:"date_tolerance_days"`
	AmountTolerance   decimal.Decimal `json:"amount_tolerance"`
}

// Aggregate summarizes report
func Aggregate(report *reconciler.Report) *Summary {
	s := FromRows(report.Discrepancies, report.Settings)
	s.RunID = report.ID.String()
	s.GeneratedAt = report.GeneratedAt
	s.RecordsA = report.RecordsA
	s.RecordsB = report.RecordsB
	return s
}

// FromRows summarizes discrepancy rows, such as rows read back from an
// exported report. A row counts once, under its first tag. GeneratedAt is
// left zero; Aggregate takes it from the report.
func FromRows(rows []models.Discrepancy, settings reconciler.Settings) *Summary {
	s := &Summary{
		Counts:            make(map[models.IssueTag]int, len(models.AllTags)),
		Impact:            make(map[models.IssueTag]*Impact, len(models.AllTags)),
		TotalAmountDiff:   decimal.Zero,
		TotalTaxDiff:      decimal.Zero,
		DateToleranceDays: settings.DateToleranceDays,
		AmountTolerance:   settings.AmountTolerance,
	}
	for _, tag := range models.AllTags {
		s.Counts[tag] = 0
		s.Impact[tag] = &Impact{Amount: decimal.Zero, Tax: decimal.Zero}
	}

	for i := range rows {
		d := &rows[i]
		s.Total++
		s.TotalAmountDiff = s.TotalAmountDiff.Add(d.AmountDiff)
		s.TotalTaxDiff = s.TotalTaxDiff.Add(d.TaxDiff)

		tag := d.PrimaryTag()
		s.Counts[tag]++
		imp, ok := s.Impact[tag]
		if !ok {
			imp = &Impact{Amount: decimal.Zero, Tax: decimal.Zero}
			s.Impact[tag] = imp
		}
		imp.Amount = imp.Amount.Add(d.AmountDiff)
		imp.Tax = imp.Tax.Add(d.TaxDiff)
	}

	for _, imp := range s.Impact {
		imp.Amount = imp.Amount.Abs()
		imp.Tax = imp.Tax.Abs()
	}
	return s
}

// Count returns the number of rows whose first tag is tag
func (s *Summary) Count(tag models.IssueTag) int {
	return s.Counts[tag]
}

var actionItems = []string{
	"Review and rectify invoices missing in either GSTR-2A or Books.",
	"Investigate and correct amount/tax discrepancies.",
	"Verify and update incorrect GSTINs.",
	"Correct invoice date mismatches.",
	"Address and remove any duplicate entries in source data.",
}

var printer = message.NewPrinter(language.English)

// Rupees formats an amount with two decimals and thousands separators,
// e.g. ₹11,800.00
func Rupees(d decimal.Decimal) string {
	return printer.Sprintf("₹%.2f", d.Round(2).InexactFloat64())
}

// Lines returns the textual summary one line at a time
func (s *Summary) Lines() []string {
	lines := []string{"--- GST Reconciliation Report ---"}
	if !s.GeneratedAt.IsZero() {
		lines = append(lines, "Generated On: "+s.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	if s.RunID != "" {
		lines = append(lines, "Run ID: "+s.RunID)
	}

	lines = append(lines,
		"",
		"Overall Summary:",
		fmt.Sprintf("- Total Discrepancies Found: %d", s.Total),
		fmt.Sprintf("- GSTR-2A Records: %d", s.RecordsA),
		fmt.Sprintf("- Books Records: %d", s.RecordsB),
		"",
		"Breakdown by Discrepancy Type:",
	)
	for _, tag := range models.AllTags {
		lines = append(lines, fmt.Sprintf("- %s: %d", tag.Label(), s.Counts[tag]))
	}

	lines = append(lines,
		"",
		"Financial Impact of Discrepancies:",
		"- Total Amount Difference: "+Rupees(s.TotalAmountDiff),
		"- Total Tax Difference: "+Rupees(s.TotalTaxDiff),
		"",
		"Tolerance Settings Used:",
		fmt.Sprintf("- Date Difference Tolerance: %d days", s.DateToleranceDays),
		"- Amount/Tax Difference Tolerance: "+Rupees(s.AmountTolerance),
		"",
		"Recommended Action Items:",
	)
	for i, item := range actionItems {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return lines
}

// Text renders the summary as a report
func (s *Summary) Text() string {
	return strings.Join(s.Lines(), "\n") + "\n"
}
