// Package ledger holds the in-memory invoice records of one source.
//
// A ledger only grows by appending (file import or manual entry) and only
// shrinks by filtered removal of whole records; records are never edited in
// place. Readers take snapshots, so a reconciliation never observes a ledger
// half way through an import.
package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gst-reconciliation-service/internal/gstin"
	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/normalizer"
	"gst-reconciliation-service/internal/parsers"
	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

// Options configures how rows entering the ledger are normalized
type Options struct {
	CleanIdentifiers bool
}

// Ledger is an ordered, append-only set of records from one source
type Ledger struct {
	mu         sync.RWMutex
	source     models.Source
	opts       Options
	records    []models.Record
	normalizer *normalizer.Normalizer
	logger     logger.Logger
}

// New creates an empty ledger for source
func New(source models.Source, opts Options, log logger.Logger) *Ledger {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Ledger{
		source:     source,
		opts:       opts,
		normalizer: normalizer.New(normalizer.Options{Source: source, CleanIdentifiers: opts.CleanIdentifiers}, log),
		logger:     log.WithComponent("ledger").WithField("source", source.Name()),
	}
}

// FromRecords creates a ledger holding copies of records, in order
func FromRecords(source models.Source, records []models.Record) *Ledger {
	l := New(source, Options{CleanIdentifiers: true}, logger.NewNopLogger())
	l.Append(records...)
	return l
}

// CleansIdentifiers reports whether GSTINs are cleansed as rows are imported
func (l *Ledger) CleansIdentifiers() bool {
	return l.opts.CleanIdentifiers
}

// Source returns the ledger's source
func (l *Ledger) Source() models.Source {
	return l.source
}

// Len returns the number of records; a nil ledger has none
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Records returns a copy of the records in input order
func (l *Ledger) Records() []models.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneRecords(l.records)
}

// Snapshot returns an independent ledger with the same records
func (l *Ledger) Snapshot() *Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &Ledger{
		source:     l.source,
		opts:       l.opts,
		records:    cloneRecords(l.records),
		normalizer: l.normalizer,
		logger:     l.logger,
	}
}

// Append adds already normalized records
func (l *Ledger) Append(records ...models.Record) {
	if len(records) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, cloneRecords(records)...)
}

// Import normalizes table and appends its records. On a schema error nothing
// is appended.
func (l *Ledger) Import(table *parsers.RawTable, overrides map[string]string) (*normalizer.Result, error) {
	res, err := l.normalizer.Normalize(table, overrides)
	if err != nil {
		return nil, err
	}

	l.Append(res.Records...)
	l.logger.WithFields(logger.Fields{
		"imported": len(res.Records),
		"warnings": len(res.Warnings),
		"total":    l.Len(),
	}).Info("Imported records")

	return res, nil
}

// ImportFile loads a CSV or XLSX file and imports it
func (l *Ledger) ImportFile(ctx context.Context, loader *parsers.Loader, path string, overrides map[string]string) (*normalizer.Result, error) {
	if loader == nil {
		loader = parsers.NewLoader(nil)
	}
	table, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return l.Import(table, overrides)
}

// AddManual normalizes one hand-entered row keyed by canonical column name.
// Fields still holding their placeholder hint count as empty; an entry with
// no values at all is rejected.
func (l *Ledger) AddManual(fields map[string]string) (models.Record, *normalizer.Result, error) {
	columns := normalizer.ColumnsFor(l.source)
	values := make([]string, len(columns))
	empty := true

	for i, col := range columns {
		v := strings.TrimSpace(fields[col])
		if v == normalizer.PlaceholderHints[col] {
			v = ""
		}
		if v != "" {
			empty = false
		}
		values[i] = v
	}

	if empty {
		l.logger.Warn("Attempted to add empty manual entry")
		return models.Record{}, nil, errors.SchemaError(errors.CodeEmptyEntry, l.source.Name(), columns)
	}

	table := parsers.NewRawTable("manual entry", columns...)
	table.AddRow(values...)

	res, err := l.Import(table, nil)
	if err != nil {
		return models.Record{}, nil, err
	}
	return res.Records[0].Clone(), res, nil
}

// KeyFor computes the match key of an invoice number and raw identifier the
// same way imported rows are keyed.
func (l *Ledger) KeyFor(invoiceNo, rawGSTIN string) (string, bool) {
	var id gstin.Result
	if l.opts.CleanIdentifiers {
		id = gstin.Clean(rawGSTIN)
	} else {
		id = gstin.Trim(rawGSTIN)
	}
	return models.BuildMatchKey(invoiceNo, id.Value)
}

// RemoveKeys drops every record whose match key is in keys and returns how
// many were removed. Records without a key are never removed.
func (l *Ledger) RemoveKeys(keys []string) int {
	if len(keys) == 0 {
		return 0
	}
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]models.Record, 0, len(l.records))
	for _, r := range l.records {
		if key, ok := r.MatchKey(); ok && drop[key] {
			continue
		}
		kept = append(kept, r)
	}

	removed := len(l.records) - len(kept)
	l.records = kept
	if removed > 0 {
		l.logger.WithField("removed", removed).Info("Removed records")
	}
	return removed
}

// Clear removes every record
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.logger.Info("Cleared ledger")
}

// Stats summarizes a ledger's contents
type Stats struct {
	Source            models.Source   `json:"source"`
	Records           int             `json:"records"`
	KeyedRecords      int             `json:"keyed_records"`
	TotalTaxableValue decimal.Decimal `json:"total_taxable_value"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	PeriodStart       *time.Time      `json:"period_start,omitempty"`
	PeriodEnd         *time.Time      `json:"period_end,omitempty"`
	UniqueSuppliers   int             `json:"unique_suppliers"`
}

// Stats computes record count, totals, invoice period and supplier count
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{
		Source:            l.source,
		Records:           len(l.records),
		TotalTaxableValue: decimal.Zero,
		TotalTax:          decimal.Zero,
		TotalAmount:       decimal.Zero,
	}
	suppliers := make(map[string]bool)

	for i := range l.records {
		r := &l.records[i]
		s.TotalTaxableValue = s.TotalTaxableValue.Add(r.TaxableValue)
		s.TotalTax = s.TotalTax.Add(r.TaxTotal())
		s.TotalAmount = s.TotalAmount.Add(r.TotalAmount)

		if _, ok := r.MatchKey(); ok {
			s.KeyedRecords++
		}
		if r.SupplierGSTIN != "" {
			suppliers[r.SupplierGSTIN] = true
		}
		if d := r.InvoiceDate; d != nil {
			if s.PeriodStart == nil || d.Before(*s.PeriodStart) {
				v := *d
				s.PeriodStart = &v
			}
			if s.PeriodEnd == nil || d.After(*s.PeriodEnd) {
				v := *d
				s.PeriodEnd = &v
			}
		}
	}

	s.UniqueSuppliers = len(suppliers)
	return s
}

func cloneRecords(in []models.Record) []models.Record {
	out := make([]models.Record, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
