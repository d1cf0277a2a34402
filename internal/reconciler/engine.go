// Package reconciler compares a GSTR-2A ledger against the purchase books.
//
// A run is one synchronous call that reports, in this order:
//  1. duplicate match keys within each ledger (A first, then B)
//  2. keys present in only one ledger
//  3. field disagreements on keys present in both
//
// Only the first record per key takes part in steps 2 and 3, and records
// without a key are ignored there. Data quality problems never fail a run;
// they were neutralized during normalization.
package reconciler

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gst-reconciliation-service/internal/ledger"
	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

// Detail texts of the presence and duplicate checks
const (
	detailDuplicateA = "Duplicate invoice found in GSTR-2A data."
	detailDuplicateB = "Duplicate invoice found in Books data."
	detailMissingInB = "Invoice found in GSTR-2A but not in Books."
	detailMissingInA = "Invoice found in Books but not in GSTR-2A."

	detailDateMissing     = "One invoice date missing"
	detailDateFormatError = "Date format error in one or both records"
	detailGSTINMismatch   = "GSTIN mismatch"

	detailSeparator = "; "
)

// Report is the ordered result of one reconciliation run. Each run produces
// a new Report; reports are never appended to.
type Report struct {
	ID            uuid.UUID            `json:"id"`
	GeneratedAt   time.Time            `json:"generated_at"`
	Settings      Settings             `json:"settings"`
	RecordsA      int                  `json:"records_a"`
	RecordsB      int                  `json:"records_b"`
	Discrepancies []models.Discrepancy `json:"discrepancies"`
}

// Len returns the number of discrepancies
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Discrepancies)
}

// Filter returns the discrepancies carrying tag, in report order
func (r *Report) Filter(tag models.IssueTag) []models.Discrepancy {
	var out []models.Discrepancy
	for i := range r.Discrepancies {
		if r.Discrepancies[i].HasTag(tag) {
			out = append(out, r.Discrepancies[i])
		}
	}
	return out
}

// Engine runs reconciliations with fixed settings
type Engine struct {
	settings Settings
	logger   logger.Logger
	now      func() time.Time
}

// NewEngine creates an engine. Invalid settings are rejected here so that a
// run itself can never fail on configuration.
func NewEngine(settings Settings, log logger.Logger) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Engine{
		settings: settings,
		logger:   log.WithComponent("reconciler"),
		now:      time.Now,
	}, nil
}

// Settings returns the engine's settings
func (e *Engine) Settings() Settings {
	return e.settings
}

// keyedView is the keep-first reduction of one ledger
type keyedView struct {
	order []string
	first map[string]*models.Record
}

func (v *keyedView) has(key string) bool {
	_, ok := v.first[key]
	return ok
}

// Reconcile compares ledger a (GSTR-2A) with ledger b (Books). The ledgers
// are read through copies, so callers may keep editing them afterwards.
func (e *Engine) Reconcile(a, b *ledger.Ledger) (*Report, error) {
	if err := e.checkLedger(a, models.SourceA); err != nil {
		return nil, err
	}
	if err := e.checkLedger(b, models.SourceB); err != nil {
		return nil, err
	}

	op := logger.NewOperationLogger("reconcile", e.logger)
	recordsA, recordsB := a.Records(), b.Records()

	report := &Report{
		ID:            uuid.New(),
		GeneratedAt:   e.now(),
		Settings:      e.settings,
		RecordsA:      len(recordsA),
		RecordsB:      len(recordsB),
		Discrepancies: []models.Discrepancy{},
	}
	op.WithField("run_id", report.ID.String())

	report.Discrepancies = append(report.Discrepancies, duplicates(recordsA, models.SourceA)...)
	report.Discrepancies = append(report.Discrepancies, duplicates(recordsB, models.SourceB)...)
	op.Step("duplicates", logger.Fields{"found": len(report.Discrepancies)})

	viewA, viewB := reduce(recordsA), reduce(recordsB)

	before := len(report.Discrepancies)
	for _, key := range viewA.order {
		if !viewB.has(key) {
			report.Discrepancies = append(report.Discrepancies, missing(viewA.first[key], models.SourceA))
		}
	}
	for _, key := range viewB.order {
		if !viewA.has(key) {
			report.Discrepancies = append(report.Discrepancies, missing(viewB.first[key], models.SourceB))
		}
	}
	op.Step("presence", logger.Fields{"found": len(report.Discrepancies) - before})

	before = len(report.Discrepancies)
	for _, key := range viewA.order {
		if rb, ok := viewB.first[key]; ok {
			if d, found := e.compare(viewA.first[key], rb); found {
				report.Discrepancies = append(report.Discrepancies, d)
			}
		}
	}
	op.Step("comparison", logger.Fields{"found": len(report.Discrepancies) - before})

	op.WithField("discrepancies", len(report.Discrepancies)).
		WithField("records_a", report.RecordsA).
		WithField("records_b", report.RecordsB).
		Success("Reconciliation completed")

	return report, nil
}

func (e *Engine) checkLedger(l *ledger.Ledger, want models.Source) error {
	if l == nil {
		return errors.ReconciliationError(errors.CodeRunAborted, "ledger validation",
			fmt.Errorf("%s ledger is missing", want.Name()))
	}
	if l.Source() != want {
		return errors.SchemaError(errors.CodeWrongSource, l.Source().Name(), nil).
			WithContext("expected", want.Name())
	}
	// the report states the cleansing mode, so it must match the ledgers'
	if l.CleansIdentifiers() != e.settings.CleanIdentifiers {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "clean_identifiers", e.settings.CleanIdentifiers,
			fmt.Errorf("%s ledger was loaded with GSTIN cleansing %t", want.Name(), l.CleansIdentifiers()))
	}
	return nil
}

// duplicates reports every occurrence of a key seen more than once
func duplicates(records []models.Record, source models.Source) []models.Discrepancy {
	counts := make(map[string]int)
	for i := range records {
		if key, ok := records[i].MatchKey(); ok {
			counts[key]++
		}
	}

	detail := detailDuplicateA
	if source == models.SourceB {
		detail = detailDuplicateB
	}

	var out []models.Discrepancy
	for i := range records {
		key, ok := records[i].MatchKey()
		if !ok || counts[key] < 2 {
			continue
		}
		d := models.Discrepancy{
			InvoiceNo:  records[i].InvoiceNo,
			Source:     source,
			Tags:       []models.IssueTag{models.DuplicateTag(source)},
			AmountDiff: decimal.Zero,
			TaxDiff:    decimal.Zero,
			Details:    detail,
		}
		setSide(&d, source, &records[i])
		out = append(out, d)
	}
	return out
}

// reduce keeps the first record per defined key, in input order
func reduce(records []models.Record) *keyedView {
	v := &keyedView{first: make(map[string]*models.Record, len(records))}
	for i := range records {
		key, ok := records[i].MatchKey()
		if !ok || v.has(key) {
			continue
		}
		v.first[key] = &records[i]
		v.order = append(v.order, key)
	}
	return v
}

// missing reports a record whose key is absent from the other ledger. The
// differences are the record's own values, negated for Books so that every
// difference reads as GSTR-2A minus Books.
func missing(r *models.Record, source models.Source) models.Discrepancy {
	d := models.Discrepancy{
		InvoiceNo:  r.InvoiceNo,
		Source:     source,
		AmountDiff: r.TotalAmount,
		TaxDiff:    r.TaxTotal(),
	}
	if source == models.SourceA {
		d.Tags = []models.IssueTag{models.TagMissingInB}
		d.Details = detailMissingInB
	} else {
		d.Tags = []models.IssueTag{models.TagMissingInA}
		d.Details = detailMissingInA
		d.AmountDiff = d.AmountDiff.Neg()
		d.TaxDiff = d.TaxDiff.Neg()
	}
	setSide(&d, source, r)
	return d
}

func setSide(d *models.Discrepancy, source models.Source, r *models.Record) {
	date := r.Clone().InvoiceDate
	if source == models.SourceA {
		d.DateA, d.GSTINA = date, r.SupplierGSTIN
	} else {
		d.DateB, d.GSTINB = date, r.SupplierGSTIN
	}
}

// compare checks date, identifier, amount and tax of a pair sharing a key
func (e *Engine) compare(ra, rb *models.Record) (models.Discrepancy, bool) {
	var tags []models.IssueTag
	var details []string

	if detail, flagged := e.compareDates(ra.InvoiceDate, rb.InvoiceDate); flagged {
		tags = append(tags, models.TagDateMismatch)
		details = append(details, detail)
	}

	gstinA := strings.ToUpper(strings.TrimSpace(ra.SupplierGSTIN))
	gstinB := strings.ToUpper(strings.TrimSpace(rb.SupplierGSTIN))
	if gstinA != gstinB {
		tags = append(tags, models.TagIdentifierMismatch)
		details = append(details, detailGSTINMismatch)
	}

	amountDiff := ra.TotalAmount.Sub(rb.TotalAmount)
	if !models.CompareAmountsWithTolerance(ra.TotalAmount, rb.TotalAmount, e.settings.AmountTolerance) {
		tags = append(tags, models.TagAmountMismatch)
		details = append(details, "Amount diff: ₹"+amountDiff.StringFixed(2))
	}

	taxDiff := ra.TaxTotal().Sub(rb.TaxTotal())
	if !models.CompareAmountsWithTolerance(ra.TaxTotal(), rb.TaxTotal(), e.settings.AmountTolerance) {
		tags = append(tags, models.TagTaxMismatch)
		details = append(details, "Tax diff: ₹"+taxDiff.StringFixed(2))
	}

	if len(tags) == 0 {
		return models.Discrepancy{}, false
	}

	return models.Discrepancy{
		InvoiceNo:  ra.InvoiceNo,
		Source:     models.SourceBoth,
		Tags:       tags,
		DateA:      ra.Clone().InvoiceDate,
		DateB:      rb.Clone().InvoiceDate,
		GSTINA:     gstinA,
		GSTINB:     gstinB,
		AmountDiff: amountDiff,
		TaxDiff:    taxDiff,
		Details:    strings.Join(details, detailSeparator),
	}, true
}

// compareDates returns the detail text when the dates disagree. A zero time
// stands for a date that could not be read, which is reported rather than
// compared.
func (e *Engine) compareDates(a, b *time.Time) (string, bool) {
	switch {
	case a == nil && b == nil:
		return "", false
	case a == nil || b == nil:
		return detailDateMissing, true
	case a.IsZero() || b.IsZero():
		return detailDateFormatError, true
	}

	if models.CompareDatesWithTolerance(*a, *b, e.settings.DateToleranceDays) {
		return "", false
	}
	days := models.DaysBetween(*a, *b)
	if days < 0 {
		days = -days
	}
	return fmt.Sprintf("Date diff: %d days", days), true
}
