package reconciler

import (
	"testing"

	"github.com/shopspring/decimal"

	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.DateToleranceDays != 3 {
		t.Errorf("DateToleranceDays = %d, want 3", s.DateToleranceDays)
	}
	if !s.AmountTolerance.Equal(decimal.NewFromInt(1)) {
		t.Errorf("AmountTolerance = %s, want 1.00", s.AmountTolerance)
	}
	if !s.CleanIdentifiers {
		t.Error("CleanIdentifiers should default to true")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("default settings invalid: %v", err)
	}
	if err := StrictSettings().Validate(); err != nil {
		t.Errorf("strict settings invalid: %v", err)
	}
}

func TestParseSettings(t *testing.T) {
	prior := Settings{DateToleranceDays: 7, AmountTolerance: decimal.RequireFromString("2.50"), CleanIdentifiers: true}

	tests := []struct {
		name        string
		date        string
		amount      string
		clean       bool
		wantErr     bool
		wantSetting string
		wantDays    int
		wantAmount  string
	}{
		{name: "valid", date: "5", amount: "0.50", wantDays: 5, wantAmount: "0.5"},
		{name: "zero tolerances", date: "0", amount: "0", clean: true, wantDays: 0, wantAmount: "0"},
		{name: "whitespace trimmed", date: " 2 ", amount: " 10 ", wantDays: 2, wantAmount: "10"},
		{name: "negative days", date: "-1", amount: "1", wantErr: true, wantSetting: "date_tolerance"},
		{name: "signed days", date: "+1", amount: "1", wantErr: true, wantSetting: "date_tolerance"},
		{name: "days out of range", date: "10000000", amount: "1", wantErr: true, wantSetting: "date_tolerance"},
		{name: "fractional days", date: "1.5", amount: "1", wantErr: true, wantSetting: "date_tolerance"},
		{name: "non-numeric days", date: "abc", amount: "1", wantErr: true, wantSetting: "date_tolerance"},
		{name: "empty days", date: "", amount: "1", wantErr: true, wantSetting: "date_tolerance"},
		{name: "non-numeric amount", date: "3", amount: "one", wantErr: true, wantSetting: "amount_tolerance"},
		{name: "negative amount", date: "3", amount: "-0.01", wantErr: true, wantSetting: "amount_tolerance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSettings(prior, tt.date, tt.amount, tt.clean)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.IsCategory(err, errors.CategoryConfiguration) {
					t.Errorf("expected configuration error, got %v", err)
				}
				re, _ := errors.AsReconcilerError(err)
				if re.Context["setting"] != tt.wantSetting {
					t.Errorf("setting = %v, want %s", re.Context["setting"], tt.wantSetting)
				}
				if got.DateToleranceDays != prior.DateToleranceDays || !got.AmountTolerance.Equal(prior.AmountTolerance) {
					t.Errorf("prior settings not retained: %+v", got)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseSettings() error = %v", err)
			}
			if got.DateToleranceDays != tt.wantDays {
				t.Errorf("DateToleranceDays = %d, want %d", got.DateToleranceDays, tt.wantDays)
			}
			if !got.AmountTolerance.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("AmountTolerance = %s, want %s", got.AmountTolerance, tt.wantAmount)
			}
			if got.CleanIdentifiers != tt.clean {
				t.Errorf("CleanIdentifiers = %t, want %t", got.CleanIdentifiers, tt.clean)
			}
		})
	}
}

func TestNewEngineRejectsInvalidSettings(t *testing.T) {
	bad := []Settings{
		{DateToleranceDays: -1, AmountTolerance: decimal.Zero},
		{DateToleranceDays: 0, AmountTolerance: decimal.RequireFromString("-1")},
	}
	for _, s := range bad {
		if _, err := NewEngine(s, logger.NewNopLogger()); !errors.IsCategory(err, errors.CategoryConfiguration) {
			t.Errorf("NewEngine(%+v) error = %v, want configuration error", s, err)
		}
	}
}
