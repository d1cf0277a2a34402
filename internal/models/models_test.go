package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildMatchKey(t *testing.T) {
	tests := []struct {
		name      string
		invoiceNo string
		gstin     string
		wantKey   string
		wantOK    bool
	}{
		{"both present", "INV-001", "22AAAAA0000A1Z5", "INV-001_22AAAAA0000A1Z5", true},
		{"trims parts", "  INV-001 ", " 22AAAAA0000A1Z5 ", "INV-001_22AAAAA0000A1Z5", true},
		{"empty invoice", "", "22AAAAA0000A1Z5", "", false},
		{"blank invoice", "   ", "22AAAAA0000A1Z5", "", false},
		{"empty identifier", "INV-001", "", "", false},
		{"nan identifier", "INV-001", "nan", "", false},
		{"None invoice", "None", "22AAAAA0000A1Z5", "", false},
		{"NULL identifier", "INV-001", "NULL", "", false},
		{"NaT invoice", "NaT", "22AAAAA0000A1Z5", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, ok := BuildMatchKey(tt.invoiceNo, tt.gstin)
			if ok != tt.wantOK {
				t.Errorf("BuildMatchKey() ok = %v, want %v", ok, tt.wantOK)
			}
			if key != tt.wantKey {
				t.Errorf("BuildMatchKey() key = %q, want %q", key, tt.wantKey)
			}
		})
	}
}

func TestBuildMatchKeyDeterministic(t *testing.T) {
	first, _ := BuildMatchKey("INV-9", "27ABCDE1234F1Z5")
	for i := 0; i < 10; i++ {
		if key, _ := BuildMatchKey("INV-9", "27ABCDE1234F1Z5"); key != first {
			t.Fatalf("key changed between calls: %q vs %q", first, key)
		}
	}
}

func TestRecordTaxTotalAndKey(t *testing.T) {
	r := Record{
		InvoiceNo:     "INV-001",
		SupplierGSTIN: "22AAAAA0000A1Z5",
		CGST:          decimal.RequireFromString("900"),
		SGST:          decimal.RequireFromString("900"),
		IGST:          decimal.RequireFromString("0.50"),
	}

	if got := r.TaxTotal(); !got.Equal(decimal.RequireFromString("1800.50")) {
		t.Errorf("TaxTotal() = %s, want 1800.50", got)
	}
	if key, ok := r.MatchKey(); !ok || key != "INV-001_22AAAAA0000A1Z5" {
		t.Errorf("MatchKey() = %q, %v", key, ok)
	}
}

func TestRecordCloneDoesNotShareDates(t *testing.T) {
	r := Record{InvoiceNo: "INV-1", InvoiceDate: date(2023, 7, 15)}
	c := r.Clone()
	*c.InvoiceDate = c.InvoiceDate.AddDate(0, 0, 1)

	if r.InvoiceDate.Day() != 15 {
		t.Errorf("original date mutated through clone: %v", r.InvoiceDate)
	}
	if !r.Equals(&r) {
		t.Error("record should equal itself")
	}
	if r.Equals(&c) {
		t.Error("records with different dates should not be equal")
	}
}

func TestRecordMarshalJSON(t *testing.T) {
	r := &Record{
		InvoiceNo:   "INV-001",
		InvoiceDate: date(2023, 7, 15),
		TotalAmount: decimal.RequireFromString("11800"),
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["invoice_date"] != "15/07/2023" {
		t.Errorf("invoice_date = %v", out["invoice_date"])
	}
	if out["total_amount"] != "11800.00" {
		t.Errorf("total_amount = %v", out["total_amount"])
	}
	if _, present := out["book_entry_date"]; present {
		t.Error("book_entry_date should be omitted when absent")
	}
}

func TestParseTimeWithFormats(t *testing.T) {
	tests := []struct {
		input   string
		want    *time.Time
		wantErr bool
	}{
		{"15/07/2023", date(2023, 7, 15), false},
		{"05/07/2023", date(2023, 7, 5), false},
		{"5/7/2023", date(2023, 7, 5), false},
		{"15-07-2023", date(2023, 7, 15), false},
		{"15.07.2023", date(2023, 7, 15), false},
		{"15-Jul-2023", date(2023, 7, 15), false},
		{"2023-07-15", date(2023, 7, 15), false},
		{"07/15/2023", date(2023, 7, 15), false},
		{"Jul 15, 2023", date(2023, 7, 15), false},
		{"Jul 15 2023", date(2023, 7, 15), false},
		{"2023/7/15", date(2023, 7, 15), false},
		{"15.07.23", date(2023, 7, 15), false},
		{"15/7/23 10:30", date(2023, 7, 15), false},
		{"15-07-2023 10:30", date(2023, 7, 15), false},
		{"2023-07-15 10:30", date(2023, 7, 15), false},
		{"15/07/2023 10:30:00 AM", date(2023, 7, 15), false},
		{"2023-07-15 10:30:00 +0530", date(2023, 7, 15), false},
		{"2023", date(2023, 1, 1), false},
		{"31/02/2023", nil, true},
		{"not a date", nil, true},
		{"", nil, true},
		{"nan", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeWithFormats(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeWithFormats(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.want != nil && DaysBetween(got, *tt.want) != 0 {
				t.Errorf("ParseTimeWithFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"11800", "11800", false},
		{"11,800.50", "11800.5", false},
		{"₹ 1,00,000.00", "100000", false},
		{"Rs. 500", "0.5", false},
		{"-250.00", "250", false},
		{"1.2.3", "0", true},
		{"abc", "0", true},
		{"", "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDecimalFromString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimalFromString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseDecimalFromString(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompareWithTolerance(t *testing.T) {
	tol := decimal.RequireFromString("1.00")
	if !CompareAmountsWithTolerance(decimal.RequireFromString("100"), decimal.RequireFromString("101"), tol) {
		t.Error("difference equal to tolerance should be within tolerance")
	}
	if CompareAmountsWithTolerance(decimal.RequireFromString("100"), decimal.RequireFromString("101.01"), tol) {
		t.Error("difference above tolerance should be outside tolerance")
	}

	if !CompareDatesWithTolerance(*date(2023, 7, 15), *date(2023, 7, 18), 3) {
		t.Error("3 days apart should be within a 3 day tolerance")
	}
	if CompareDatesWithTolerance(*date(2023, 7, 15), *date(2023, 7, 19), 3) {
		t.Error("4 days apart should be outside a 3 day tolerance")
	}
	if got := DaysBetween(*date(2023, 7, 15), *date(2023, 7, 20)); got != -5 {
		t.Errorf("DaysBetween() = %d, want -5", got)
	}
}

func TestParseIssueType(t *testing.T) {
	tags, err := ParseIssueType("date-mismatch, amount-mismatch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags) != 2 || tags[0] != TagDateMismatch || tags[1] != TagAmountMismatch {
		t.Errorf("ParseIssueType() = %v", tags)
	}

	if _, err := ParseIssueType("Missing in Books"); err == nil {
		t.Error("expected error for unknown tag")
	}
	if _, err := ParseIssueType(" "); err == nil {
		t.Error("expected error for empty issue type")
	}
}

func TestDiscrepancyIssueType(t *testing.T) {
	d := &Discrepancy{
		InvoiceNo: "INV-001",
		Source:    SourceBoth,
		Tags:      []IssueTag{TagDateMismatch, TagTaxMismatch},
	}

	if d.IssueType() != "date-mismatch, tax-mismatch" {
		t.Errorf("IssueType() = %q", d.IssueType())
	}
	if d.PrimaryTag() != TagDateMismatch {
		t.Errorf("PrimaryTag() = %q", d.PrimaryTag())
	}
	if !d.HasTag(TagTaxMismatch) || d.HasTag(TagAmountMismatch) {
		t.Error("HasTag() returned wrong result")
	}
}

func TestSource(t *testing.T) {
	if SourceA.Name() != "GSTR-2A" || SourceB.Name() != "Books" {
		t.Errorf("unexpected source names %q %q", SourceA.Name(), SourceB.Name())
	}
	if SourceA.Other() != SourceB || SourceB.Other() != SourceA {
		t.Error("Other() should swap ledgers")
	}
	if SourceBoth.IsValid() {
		t.Error("Both is not a ledger source")
	}
	if s, err := ParseSource("Books"); err != nil || s != SourceB {
		t.Errorf("ParseSource(Books) = %v, %v", s, err)
	}
	if _, err := ParseSource("C"); err == nil {
		t.Error("expected error for unknown source")
	}
}
