// Package errors defines the categorized error type shared by every layer of
// the reconciliation service.
//
// Errors fall into the families the reconciliation pipeline distinguishes:
// file access, parse degradation, schema problems (a ledger that cannot be
// keyed), invalid settings, and failures inside a reconciliation run. Each
// family maps to its own process exit code so scripts driving the CLI can
// react without parsing messages.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryParse          ErrorCategory = "parse"
	CategorySchema         ErrorCategory = "schema"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound      ErrorCode = "file_not_found"
	CodeFilePermission    ErrorCode = "file_permission"
	CodeFileCorrupted     ErrorCode = "file_corrupted"
	CodeUnsupportedFormat ErrorCode = "unsupported_format"
	CodeFileWrite         ErrorCode = "file_write"
	CodeNothingToExport   ErrorCode = "nothing_to_export"

	// Parse errors (non-fatal degradation)
	CodeInvalidDate       ErrorCode = "invalid_date"
	CodeInvalidAmount     ErrorCode = "invalid_amount"
	CodeInvalidIdentifier ErrorCode = "invalid_identifier"
	CodeUnknownColumn     ErrorCode = "unknown_column"
	CodeEncodingError     ErrorCode = "encoding_error"

	// Schema errors
	CodeMissingColumn ErrorCode = "missing_column"
	CodeWrongSource   ErrorCode = "wrong_source"
	CodeEmptyEntry    ErrorCode = "empty_entry"

	// Configuration errors
	CodeInvalidTolerance ErrorCode = "invalid_tolerance"
	CodeInvalidConfig    ErrorCode = "invalid_config"

	// Reconciliation errors
	CodeRunAborted   ErrorCode = "run_aborted"
	CodeRunDiscarded ErrorCode = "run_discarded"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReconcilerError is the base error type for all application errors
type ReconcilerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconcilerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether the error must stop the operation that raised it.
// Parse degradation is absorbed by the normalizer and never fatal.
func (e *ReconcilerError) IsFatal() bool {
	return e.Category != CategoryParse
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReconcilerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategorySchema:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReconcilerError
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconcilerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ReconcilerError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file could not be read: %s", path)
		suggestion = "verify the file integrity and try re-exporting it"
	case CodeUnsupportedFormat:
		message = fmt.Sprintf("unsupported file format: %s", path)
		suggestion = "use a .csv or .xlsx file"
	case CodeFileWrite:
		message = fmt.Sprintf("could not write file: %s", path)
		suggestion = "check that the directory exists, is writable and has free space"
	case CodeNothingToExport:
		message = fmt.Sprintf("no data to export to %s", path)
		suggestion = "import ledger data or run a reconciliation first"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	return build(err, CategoryFile, code, message).
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError describes a value that could not be parsed and was replaced by
// its default. It is recorded as a warning, never returned as a failure.
func ParseError(code ErrorCode, source string, row int, column string, value string) *ReconcilerError {
	var message string

	switch code {
	case CodeInvalidDate:
		message = fmt.Sprintf("%s row %d: unparseable date in '%s': '%s', left empty", source, row, column, value)
	case CodeInvalidAmount:
		message = fmt.Sprintf("%s row %d: unparseable amount in '%s': '%s', using 0.00", source, row, column, value)
	case CodeInvalidIdentifier:
		message = fmt.Sprintf("%s row %d: GSTIN '%s' appears to be invalid after cleaning", source, row, value)
	case CodeUnknownColumn:
		message = fmt.Sprintf("%s: custom mapped column '%s' for '%s' not found in data, skipping", source, value, column)
	case CodeEncodingError:
		message = fmt.Sprintf("%s row %d: invalid UTF-8 text", source, row)
	default:
		message = fmt.Sprintf("%s row %d: could not parse '%s'", source, row, value)
	}

	return New(CategoryParse, code, message).
		WithContext("source", source).
		WithContext("row", row).
		WithContext("column", column).
		WithContext("value", value)
}

// SchemaError creates an error for a dataset that cannot be brought into the
// fixed ledger schema.
func SchemaError(code ErrorCode, source string, columns []string) *ReconcilerError {
	var message, suggestion string

	switch code {
	case CodeMissingColumn:
		message = fmt.Sprintf("required columns missing in %s data: %s", source, strings.Join(columns, ", "))
		suggestion = "check the column headers or provide a column mapping override"
	case CodeWrongSource:
		message = fmt.Sprintf("ledger for %s was supplied in the wrong position", source)
		suggestion = "pass the regulatory statement as Source A and the books as Source B"
	case CodeEmptyEntry:
		message = fmt.Sprintf("no valid data to add to %s", source)
		suggestion = "fill in at least the invoice number and GSTIN"
	default:
		message = fmt.Sprintf("schema error in %s data", source)
		suggestion = "check your data and mapping"
	}

	return New(CategorySchema, code, message).
		WithSuggestion(suggestion).
		WithContext("source", source).
		WithContext("columns", columns)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ReconcilerError {
	var message, suggestion string

	switch code {
	case CodeInvalidTolerance:
		message = fmt.Sprintf("invalid tolerance for '%s': %v", setting, value)
		suggestion = "use a whole number of days and a non-negative amount"
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration file and flags"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return build(err, CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// ReconciliationError creates a reconciliation-related error
func ReconciliationError(code ErrorCode, operation string, err error) *ReconcilerError {
	var message, suggestion string

	switch code {
	case CodeRunAborted:
		message = fmt.Sprintf("reconciliation aborted during %s", operation)
		suggestion = "fix the reported schema problem and run again"
	case CodeRunDiscarded:
		message = fmt.Sprintf("reconciliation result discarded during %s", operation)
		suggestion = "the run was cancelled by the caller"
	default:
		message = fmt.Sprintf("reconciliation error during %s", operation)
		suggestion = "review the data and configuration"
	}

	return build(err, CategoryReconciliation, code, message).
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ReconcilerError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	return build(err, CategoryInternal, code, message).
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*ReconcilerError    `json:"errors"`
	SampleErrors []*ReconcilerError    `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*ReconcilerError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if summary.Errors == nil {
		summary.Errors = []*ReconcilerError{}
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var codes []string
	for code, count := range es.ByCode {
		codes = append(codes, fmt.Sprintf("%s: %d", code, count))
	}
	sort.Strings(codes)

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(codes, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	return es.ByCategory[category] > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	return es.ByCode[code] > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// IsReconcilerError checks if an error is a ReconcilerError
func IsReconcilerError(err error) bool {
	_, ok := err.(*ReconcilerError)
	return ok
}

// AsReconcilerError extracts a ReconcilerError from an error chain
func AsReconcilerError(err error) (*ReconcilerError, bool) {
	var reconcilerErr *ReconcilerError
	if errors.As(err, &reconcilerErr) {
		return reconcilerErr, true
	}
	return nil, false
}

// IsCategory reports whether err carries a ReconcilerError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	re, ok := AsReconcilerError(err)
	return ok && re.Category == category
}

// WrapIfNeeded wraps an error if it's not already a ReconcilerError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	if reconcilerErr, ok := AsReconcilerError(err); ok {
		return reconcilerErr
	}

	return Wrap(err, category, code, message)
}
