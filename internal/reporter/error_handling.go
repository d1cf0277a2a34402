package reporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gst-reconciliation-service/internal/reconciler"
	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with error handling and fallbacks
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator with error handling
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("Check the report format and CSV delimiter")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely writes report to writer. If a structured format fails,
// the console format is written instead with a notice, unless the format is
// binary.
func (srg *SafeReportGenerator) GenerateReportSafely(report *reconciler.Report, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": getWriterDescription(writer),
	}).Debug("Starting report generation")

	if report == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report_generation",
			fmt.Errorf("no reconciliation report to render"))
	}
	if writer == nil {
		return errors.InternalError(errors.CodeUnexpectedError, "report_generation",
			fmt.Errorf("no output writer"))
	}

	// Render into memory first so a failure never leaves half a report behind
	var buf bytes.Buffer
	err := srg.GenerateReport(report, &buf)
	if err == nil {
		_, err = buf.WriteTo(writer)
		if err != nil {
			return srg.wrapGenerationError(err)
		}
		srg.logger.WithField("discrepancies", report.Len()).Info("Report generated")
		return nil
	}

	srg.logger.WithError(err).Warn("Primary report generation failed")
	if srg.config.Format == FormatConsole || srg.config.Format.IsBinary() {
		return srg.wrapGenerationError(err)
	}
	return srg.generateWithFormatFallback(report, writer, err)
}

func (srg *SafeReportGenerator) generateWithFormatFallback(report *reconciler.Report, writer io.Writer, originalErr error) error {
	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole

	srg.logger.WithField("fallback_format", FormatConsole).Info("Attempting format fallback")

	fallbackGenerator, err := NewReportGenerator(&fallbackConfig)
	if err != nil {
		return srg.wrapGenerationError(originalErr)
	}

	fmt.Fprintf(writer, "NOTE: Report generated in fallback format due to error with requested format\n")
	fmt.Fprintf(writer, "Original error: %v\n\n", originalErr)

	if err := fallbackGenerator.GenerateReport(report, writer); err != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report_fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", originalErr, err),
		)
	}
	return nil
}

// WriteFile renders report to path. When path cannot be created, the report
// goes to a backup file beside it and the backup path is returned.
func (srg *SafeReportGenerator) WriteFile(report *reconciler.Report, path string) (string, error) {
	var buf bytes.Buffer
	if err := srg.GenerateReport(report, &buf); err != nil {
		return "", srg.wrapGenerationError(err)
	}

	err := os.WriteFile(path, buf.Bytes(), 0644)
	if err == nil {
		srg.logger.WithField("file", path).Info("Report written")
		return path, nil
	}
	if !isFileError(err) {
		return "", errors.FileError(errors.CodeFileWrite, path, err)
	}

	backupPath := generateBackupPath(path)
	srg.logger.WithFields(logger.Fields{
		"original_file": path,
		"backup_file":   backupPath,
	}).Warn("Attempting output fallback")

	if backupErr := os.WriteFile(backupPath, buf.Bytes(), 0644); backupErr != nil {
		return "", errors.FileError(errors.CodeFileWrite, path, err).
			WithContext("backup_error", backupErr.Error())
	}
	return backupPath, nil
}

func isFileError(err error) bool {
	return os.IsPermission(err) ||
		os.IsNotExist(err) ||
		os.IsExist(err) ||
		isSpaceError(err)
}

// generateBackupPath places the backup in the working directory when the
// original directory is unusable, e.g. report.csv -> report_backup.csv.
func generateBackupPath(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		dir = "."
	}
	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}

func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if reconcilerErr, ok := errors.AsReconcilerError(err); ok {
		return reconcilerErr
	}

	return errors.InternalError(
		errors.CodeUnexpectedError,
		"report_generation",
		err,
	).WithSuggestion("Check the output destination and report format settings")
}

func getWriterDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}

func isSpaceError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no space left") ||
		strings.Contains(msg, "disk full") ||
		strings.Contains(msg, "device full")
}
