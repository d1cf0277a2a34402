package scenario

import (
	"testing"

	"gst-reconciliation-service/internal/gstin"
	"gst-reconciliation-service/internal/ledger"
	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/normalizer"
	"gst-reconciliation-service/internal/reconciler"
	"gst-reconciliation-service/internal/summary"
	"gst-reconciliation-service/pkg/logger"
)

func reconcile(t *testing.T, a, b *ledger.Ledger) *summary.Summary {
	t.Helper()
	engine, err := reconciler.NewEngine(reconciler.DefaultSettings(), logger.NewNopLogger())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	report, err := engine.Reconcile(a, b)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	return summary.Aggregate(report)
}

func checkCounts(t *testing.T, s *Scenario, got *summary.Summary) {
	t.Helper()
	for _, tag := range models.AllTags {
		if got.Count(tag) != s.Expected[tag] {
			t.Errorf("seed %d: Count(%s) = %d, want %d", s.Seed, tag, got.Count(tag), s.Expected[tag])
		}
	}
	if got.Total != s.Total() {
		t.Errorf("seed %d: Total = %d, want %d", s.Seed, got.Total, s.Total())
	}
}

func TestGeneratedScenarios(t *testing.T) {
	tests := []struct {
		name     string
		seed     int64
		invoices int
	}{
		{"single cycle", 1, 10},
		{"partial cycle", 7, 23},
		{"large", 42, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewGenerator(tt.seed, tt.invoices).Generate()
			got := reconcile(t,
				ledger.FromRecords(models.SourceA, s.A),
				ledger.FromRecords(models.SourceB, s.B))
			checkCounts(t, s, got)
		})
	}
}

func TestGeneratedScenarioSurvivesImport(t *testing.T) {
	s := NewGenerator(99, 40).Generate()

	load := func(source models.Source, records []models.Record) *ledger.Ledger {
		l := ledger.New(source, ledger.Options{CleanIdentifiers: true}, logger.NewNopLogger())
		res, err := l.Import(normalizer.Denormalize(records, source), nil)
		if err != nil {
			t.Fatalf("Import(%s) error = %v", source, err)
		}
		if len(res.Warnings) > 0 {
			t.Errorf("unexpected warnings for %s: %v", source, res.Warnings)
		}
		return l
	}

	checkCounts(t, s, reconcile(t, load(models.SourceA, s.A), load(models.SourceB, s.B)))
}

func TestGenerateIsDeterministic(t *testing.T) {
	first := NewGenerator(5, 30).Generate()
	second := NewGenerator(5, 30).Generate()

	if len(first.A) != len(second.A) || len(first.B) != len(second.B) {
		t.Fatalf("ledger sizes differ: %d/%d vs %d/%d", len(first.A), len(first.B), len(second.A), len(second.B))
	}
	for i := range first.A {
		if !first.A[i].Equals(&second.A[i]) {
			t.Errorf("record %d differs: %s vs %s", i, first.A[i].String(), second.A[i].String())
		}
	}
}

func TestGeneratedGSTINsAreWellFormed(t *testing.T) {
	s := NewGenerator(11, 50).Generate()
	for _, r := range s.A {
		if !gstin.IsWellFormed(r.SupplierGSTIN) {
			t.Errorf("GSTIN %q of %s is not well formed", r.SupplierGSTIN, r.InvoiceNo)
		}
	}
}
