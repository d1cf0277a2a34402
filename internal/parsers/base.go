// Package parsers reads invoice ledgers from disk into raw tables.
//
// A raw table is the untyped form of a ledger: the header row as written by
// whoever produced the file, and every data row as strings. Typing, column
// resolution and identifier cleansing happen later in the normalizer, so the
// parsers only deal with file access, encodings and container formats.
//
// Supported containers:
//   - CSV (any delimiter, UTF-8 with or without BOM)
//   - XLSX workbooks, first sheet by default
//
// Example usage:
//
//	loader := parsers.NewLoader(nil)
//	table, err := loader.Load(ctx, "gstr2a.xlsx")
//
//	// Both ledgers at once
//	results := parsers.NewConcurrentLoader(loader, 2).LoadAll(ctx, paths)
package parsers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

const utf8BOM = "\ufeff"

// ParseConfig holds configuration for reading ledger files
type ParseConfig struct {
	Delimiter        rune
	Comment          rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	ValidateEncoding bool

	// Sheet selects the XLSX worksheet; empty means the first sheet
	Sheet string
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        ',',
		Comment:          0,
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		ValidateEncoding: true,
	}
}

// BaseParser provides common CSV parsing functionality
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser with the given configuration
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("parser")
	log.WithFields(logger.Fields{
		"delimiter":         string(config.Delimiter),
		"validate_encoding": config.ValidateEncoding,
	}).Debug("Created base parser")

	return &BaseParser{
		config: config,
		logger: log,
	}
}

// OpenFile opens a CSV file and returns a configured csv.Reader
func (bp *BaseParser) OpenFile(filePath string) (*os.File, *csv.Reader, error) {
	bp.logger.WithField("file_path", filePath).Debug("Opening CSV file")

	file, err := openForRead(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open CSV file")
		return nil, nil, err
	}

	if bp.config.ValidateEncoding {
		if err := bp.validateEncoding(file, filePath); err != nil {
			file.Close()
			bp.logger.WithError(err).WithField("file_path", filePath).Error("File encoding validation failed")
			return nil, nil, err
		}

		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			return nil, nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
		}
	}

	reader := csv.NewReader(file)
	bp.configureReader(reader)

	return file, reader, nil
}

func openForRead(filePath string) (*os.File, error) {
	file, err := os.Open(filePath)
	if err == nil {
		return file, nil
	}

	switch {
	case os.IsNotExist(err):
		return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
	case os.IsPermission(err):
		return nil, errors.FileError(errors.CodeFilePermission, filePath, err)
	default:
		return nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}
}

func (bp *BaseParser) configureReader(reader *csv.Reader) {
	reader.Comma = bp.config.Delimiter
	reader.Comment = bp.config.Comment
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// validateEncoding checks that the first lines of the file are valid UTF-8
func (bp *BaseParser) validateEncoding(file *os.File, filePath string) error {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() && lineNum < 100 {
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.FileError(errors.CodeFileCorrupted, filePath,
				fmt.Errorf("invalid UTF-8 encoding on line %d", lineNum)).
				WithSuggestion("save the file in UTF-8 encoding and try again")
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	return nil
}

// ParseCSV reads the whole file into a raw table. The first non-empty row is
// the header row.
func (bp *BaseParser) ParseCSV(ctx context.Context, filePath string) (*RawTable, error) {
	file, reader, err := bp.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return bp.readTable(ctx, reader, filePath)
}

// ParseCSVReader reads a raw table from any reader
func (bp *BaseParser) ParseCSVReader(ctx context.Context, r io.Reader, name string) (*RawTable, error) {
	reader := csv.NewReader(r)
	bp.configureReader(reader)
	return bp.readTable(ctx, reader, name)
}

func (bp *BaseParser) readTable(ctx context.Context, reader *csv.Reader, name string) (*RawTable, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	table := &RawTable{Name: name}
	line := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.InternalError(errors.CodeUnexpectedError, "csv_parsing", err)
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			bp.logger.WithError(err).WithField("line_number", line+1).Error("Failed to read CSV record")
			return nil, errors.FileError(errors.CodeFileCorrupted, name, err)
		}
		line++

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}

		if table.Headers == nil {
			table.Headers = cleanHeaders(record)
			continue
		}
		table.Rows = append(table.Rows, trimFields(record))
	}

	bp.logger.WithFields(logger.Fields{
		"source":  name,
		"columns": len(table.Headers),
		"rows":    len(table.Rows),
	}).Debug("Read CSV table")

	return table, nil
}

// cleanHeaders trims whitespace and a leading byte order mark
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, utf8BOM)
		}
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}

func trimFields(record []string) []string {
	out := make([]string, len(record))
	for i, field := range record {
		out[i] = strings.TrimSpace(field)
	}
	return out
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
