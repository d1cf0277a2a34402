package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/reconciler"
)

func row(no string, amount, tax string, tags ...models.IssueTag) models.Discrepancy {
	return models.Discrepancy{
		InvoiceNo:  no,
		Tags:       tags,
		AmountDiff: decimal.RequireFromString(amount),
		TaxDiff:    decimal.RequireFromString(tax),
	}
}

func testReport() *reconciler.Report {
	return &reconciler.Report{
		ID:          uuid.MustParse("2b1f7c1e-8d7a-4b9e-9f5e-0c6d8a1b2c3d"),
		GeneratedAt: time.Date(2023, 8, 1, 10, 30, 0, 0, time.UTC),
		Settings:    reconciler.DefaultSettings(),
		RecordsA:    10,
		RecordsB:    9,
		Discrepancies: []models.Discrepancy{
			row("INV-003", "0", "0", models.TagDuplicateInA),
			row("INV-003", "0", "0", models.TagDuplicateInA),
			row("INV-002", "11800", "1800", models.TagMissingInB),
			row("INV-009", "-2360", "-360", models.TagMissingInA),
			row("INV-001", "0", "0", models.TagDateMismatch),
			row("INV-004", "150.25", "20", models.TagDateMismatch, models.TagAmountMismatch, models.TagTaxMismatch),
			row("INV-005", "-50", "0", models.TagAmountMismatch),
		},
	}
}

func TestAggregate(t *testing.T) {
	s := Aggregate(testReport())

	if s.Total != 7 {
		t.Errorf("Total = %d, want 7", s.Total)
	}

	wantCounts := map[models.IssueTag]int{
		models.TagDuplicateInA:       2,
		models.TagDuplicateInB:       0,
		models.TagMissingInB:         1,
		models.TagMissingInA:         1,
		models.TagDateMismatch:       2,
		models.TagAmountMismatch:     1,
		models.TagTaxMismatch:        0,
		models.TagIdentifierMismatch: 0,
	}
	for tag, want := range wantCounts {
		if got := s.Count(tag); got != want {
			t.Errorf("Count(%s) = %d, want %d", tag, got, want)
		}
	}

	if !s.TotalAmountDiff.Equal(decimal.RequireFromString("9540.25")) {
		t.Errorf("TotalAmountDiff = %s", s.TotalAmountDiff)
	}
	if !s.TotalTaxDiff.Equal(decimal.RequireFromString("1460")) {
		t.Errorf("TotalTaxDiff = %s", s.TotalTaxDiff)
	}
	if s.DateToleranceDays != 3 || !s.AmountTolerance.Equal(decimal.NewFromInt(1)) {
		t.Errorf("tolerances = %d / %s", s.DateToleranceDays, s.AmountTolerance)
	}

	imp := s.Impact[models.TagMissingInA]
	if !imp.Amount.Equal(decimal.NewFromInt(2360)) || !imp.Tax.Equal(decimal.NewFromInt(360)) {
		t.Errorf("missing-in-A impact = %s / %s", imp.Amount, imp.Tax)
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(&reconciler.Report{Settings: reconciler.DefaultSettings()})
	if s.Total != 0 || !s.TotalAmountDiff.IsZero() {
		t.Errorf("unexpected summary for empty report: %+v", s)
	}
	for _, tag := range models.AllTags {
		if s.Count(tag) != 0 {
			t.Errorf("Count(%s) = %d", tag, s.Count(tag))
		}
	}
}

func TestFromRowsIsDeterministic(t *testing.T) {
	report := testReport()

	first := FromRows(report.Discrepancies, report.Settings)
	second := FromRows(report.Discrepancies, report.Settings)

	if !first.GeneratedAt.IsZero() || !second.GeneratedAt.IsZero() {
		t.Errorf("FromRows should not stamp a time, got %v and %v", first.GeneratedAt, second.GeneratedAt)
	}
	if first.Text() != second.Text() {
		t.Errorf("Text() differs between identical inputs:\n%s\n---\n%s", first.Text(), second.Text())
	}
	if strings.Contains(first.Text(), "Generated On") {
		t.Error("summary without a run time should omit Generated On")
	}
}

func TestRupees(t *testing.T) {
	tests := map[string]string{
		"0":           "₹0.00",
		"1":           "₹1.00",
		"11800":       "₹11,800.00",
		"-1234.5":     "₹-1,234.50",
		"1234567.891": "₹1,234,567.89",
	}
	for in, want := range tests {
		if got := Rupees(decimal.RequireFromString(in)); got != want {
			t.Errorf("Rupees(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestText(t *testing.T) {
	text := Aggregate(testReport()).Text()

	for _, want := range []string{
		"--- GST Reconciliation Report ---",
		"Generated On: 2023-08-01 10:30:00",
		"- Total Discrepancies Found: 7",
		"- Duplicates in GSTR-2A: 2",
		"- Invoices Missing in Books: 1",
		"- Invoices Missing in GSTR-2A: 1",
		"- Date Mismatches: 2",
		"- GSTIN Mismatches: 0",
		"- Total Amount Difference: ₹9,540.25",
		"- Total Tax Difference: ₹1,460.00",
		"- Date Difference Tolerance: 3 days",
		"- Amount/Tax Difference Tolerance: ₹1.00",
		"5. Address and remove any duplicate entries in source data.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary text missing %q", want)
		}
	}
}
