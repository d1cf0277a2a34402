package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestReconcilerError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      errors.New("no such file"),
			expectCode: 2,
		},
		{
			name:       "parse error",
			category:   CategoryParse,
			code:       CodeInvalidDate,
			message:    "invalid date",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "schema error",
			category:   CategorySchema,
			code:       CodeMissingColumn,
			message:    "missing column",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidTolerance,
			message:    "invalid tolerance",
			cause:      errors.New("negative"),
			expectCode: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *ReconcilerError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}
			if err.Error() != tt.message {
				t.Errorf("expected error string %s, got %s", tt.message, err.Error())
			}
			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
			if len(err.StackTrace) == 0 {
				t.Error("expected stack trace to be captured")
			}
		})
	}
}

func TestReconcilerErrorWithContext(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "test error").
		WithContext("file", "/path/to/file").
		WithContext("row", 42).
		WithSuggestion("check file path")

	if err.Context["file"] != "/path/to/file" {
		t.Errorf("expected file context '/path/to/file', got %v", err.Context["file"])
	}
	if err.Context["row"] != 42 {
		t.Errorf("expected row context 42, got %v", err.Context["row"])
	}

	expected := "test error (suggestion: check file path)"
	if err.Error() != expected {
		t.Errorf("expected error string '%s', got '%s'", expected, err.Error())
	}
}

func TestSpecificErrorConstructors(t *testing.T) {
	t.Run("FileError", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := FileError(CodeFilePermission, "/test/gstr2a.csv", cause)

		if err.Category != CategoryFile {
			t.Errorf("expected file category, got %s", err.Category)
		}
		if err.Context["file_path"] != "/test/gstr2a.csv" {
			t.Errorf("expected file_path context, got %v", err.Context["file_path"])
		}
		if err.Suggestion == "" {
			t.Error("expected suggestion to be set")
		}
		if err.Cause != cause {
			t.Errorf("expected cause to be %v, got %v", cause, err.Cause)
		}
	})

	t.Run("ParseError", func(t *testing.T) {
		err := ParseError(CodeInvalidAmount, "GSTR-2A", 10, "total_amount", "abc")

		if err.Category != CategoryParse {
			t.Errorf("expected parse category, got %s", err.Category)
		}
		if err.IsFatal() {
			t.Error("expected parse degradation to be non-fatal")
		}
		if err.Context["row"] != 10 {
			t.Errorf("expected row context, got %v", err.Context["row"])
		}
		if !strings.Contains(err.Message, "using 0.00") {
			t.Errorf("expected default noted in message, got %q", err.Message)
		}
	})

	t.Run("SchemaError", func(t *testing.T) {
		err := SchemaError(CodeMissingColumn, "Purchase Books", []string{"invoice_no", "supplier_gstin"})

		if err.Category != CategorySchema {
			t.Errorf("expected schema category, got %s", err.Category)
		}
		if !err.IsFatal() {
			t.Error("expected schema error to be fatal")
		}
		if !strings.Contains(err.Message, "invoice_no, supplier_gstin") {
			t.Errorf("expected columns in message, got %q", err.Message)
		}
	})

	t.Run("ConfigurationError", func(t *testing.T) {
		err := ConfigurationError(CodeInvalidTolerance, "amount_tolerance", "-1", nil)

		if err.Category != CategoryConfiguration {
			t.Errorf("expected configuration category, got %s", err.Category)
		}
		if err.Context["setting"] != "amount_tolerance" {
			t.Errorf("expected setting context, got %v", err.Context["setting"])
		}
		if err.Cause != nil {
			t.Errorf("expected no cause, got %v", err.Cause)
		}
	})

	t.Run("ReconciliationError", func(t *testing.T) {
		cause := errors.New("context canceled")
		err := ReconciliationError(CodeRunDiscarded, "dispatch", cause)

		if err.Category != CategoryReconciliation {
			t.Errorf("expected reconciliation category, got %s", err.Category)
		}
		if !errors.Is(err, cause) {
			t.Error("expected error chain to contain cause")
		}
	})
}

func TestErrorSummary(t *testing.T) {
	errs := []*ReconcilerError{
		New(CategoryFile, CodeFileNotFound, "error 1"),
		New(CategoryFile, CodeFilePermission, "error 2"),
		New(CategoryParse, CodeInvalidDate, "error 3"),
		New(CategoryParse, CodeInvalidAmount, "error 4"),
		New(CategorySchema, CodeMissingColumn, "error 5"),
	}

	summary := NewErrorSummary(errs)

	if summary.Total != 5 {
		t.Errorf("expected total 5, got %d", summary.Total)
	}
	if summary.ByCategory[CategoryFile] != 2 {
		t.Errorf("expected 2 file errors, got %d", summary.ByCategory[CategoryFile])
	}
	if summary.ByCategory[CategoryParse] != 2 {
		t.Errorf("expected 2 parse errors, got %d", summary.ByCategory[CategoryParse])
	}
	if !summary.HasCode(CodeMissingColumn) {
		t.Error("expected to have missing column code")
	}
	if summary.HasCategory(CategoryConfiguration) {
		t.Error("expected not to have configuration category")
	}
	if summary.GetExitCode() != 3 {
		t.Errorf("expected exit code 3, got %d", summary.GetExitCode())
	}
	if !strings.HasPrefix(summary.Error(), "5 errors occurred") {
		t.Errorf("unexpected summary string %q", summary.Error())
	}
}

func TestEmptyErrorSummary(t *testing.T) {
	summary := NewErrorSummary(nil)

	if summary.Total != 0 {
		t.Errorf("expected total 0, got %d", summary.Total)
	}
	if summary.Error() != "no errors" {
		t.Errorf("expected 'no errors', got '%s'", summary.Error())
	}
	if summary.GetExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", summary.GetExitCode())
	}
}

func TestIsReconcilerError(t *testing.T) {
	reconcilerErr := New(CategoryFile, CodeFileNotFound, "test")
	genericErr := errors.New("generic error")

	if !IsReconcilerError(reconcilerErr) {
		t.Error("expected IsReconcilerError to return true for ReconcilerError")
	}
	if IsReconcilerError(genericErr) {
		t.Error("expected IsReconcilerError to return false for generic error")
	}
	if IsReconcilerError(nil) {
		t.Error("expected IsReconcilerError to return false for nil")
	}
}

func TestIsCategory(t *testing.T) {
	schemaErr := SchemaError(CodeMissingColumn, "GSTR-2A", []string{"invoice_no"})

	if !IsCategory(schemaErr, CategorySchema) {
		t.Error("expected schema category match")
	}
	if IsCategory(schemaErr, CategoryFile) {
		t.Error("expected no file category match")
	}
	if IsCategory(errors.New("plain"), CategorySchema) {
		t.Error("expected plain error not to match")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	reconcilerErr := New(CategoryFile, CodeFileNotFound, "test")
	genericErr := errors.New("generic error")

	if result := WrapIfNeeded(reconcilerErr, CategoryInternal, CodeUnexpectedError, "wrapped"); result != reconcilerErr {
		t.Error("expected WrapIfNeeded to return original ReconcilerError")
	}

	result := WrapIfNeeded(genericErr, CategoryInternal, CodeUnexpectedError, "wrapped")
	if result.Cause != genericErr {
		t.Error("expected WrapIfNeeded to wrap generic error")
	}
	if result.Category != CategoryInternal {
		t.Error("expected wrapped error to have correct category")
	}

	if WrapIfNeeded(nil, CategoryInternal, CodeUnexpectedError, "wrapped") != nil {
		t.Error("expected WrapIfNeeded to return nil for nil input")
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		category     ErrorCategory
		expectedCode int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategorySchema, 3},
		{CategoryConfiguration, 4},
		{CategoryReconciliation, 5},
		{CategoryInternal, 5},
		{ErrorCategory("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := New(tt.category, "test_code", "test message")
			if err.GetExitCode() != tt.expectedCode {
				t.Errorf("expected exit code %d for category %s, got %d",
					tt.expectedCode, tt.category, err.GetExitCode())
			}
		})
	}
}

func TestParseWarningCollector(t *testing.T) {
	c := NewParseWarningCollector("GSTR-2A")
	if c.HasWarnings() {
		t.Fatal("expected new collector to be empty")
	}

	c.Add(nil)
	c.Add(ParseError(CodeInvalidDate, "GSTR-2A", 1, "invoice_date", "31/31/2023"))
	c.Add(ParseError(CodeInvalidAmount, "GSTR-2A", 2, "cgst", "n/a"))
	c.Add(ParseError(CodeInvalidAmount, "GSTR-2A", 3, "sgst", "n/a"))

	if got := len(c.Warnings()); got != 3 {
		t.Fatalf("expected 3 warnings, got %d", got)
	}
	if c.Summary().ByCode[CodeInvalidAmount] != 2 {
		t.Errorf("expected 2 amount warnings, got %d", c.Summary().ByCode[CodeInvalidAmount])
	}

	text := FormatWarningsForUser(c.Warnings())
	if !strings.Contains(text, "Found 3 warnings") {
		t.Errorf("unexpected formatted text: %s", text)
	}
	if strings.Index(text, "invalid_amount") > strings.Index(text, "invalid_date") {
		t.Error("expected groups sorted by code")
	}

	c.Clear()
	if c.HasWarnings() {
		t.Error("expected collector to be empty after Clear")
	}
}
