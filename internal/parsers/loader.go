package parsers

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

// Format is a supported ledger file container
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the container from the file extension
func DetectFormat(filePath string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", errors.FileError(errors.CodeUnsupportedFormat, filePath, nil)
	}
}

// Loader reads a ledger file of any supported format
type Loader struct {
	csv  *BaseParser
	xlsx *XLSXParser
}

// NewLoader creates a loader sharing one configuration across formats
func NewLoader(config *ParseConfig) *Loader {
	return &Loader{
		csv:  NewBaseParser(config),
		xlsx: NewXLSXParser(config),
	}
}

// Load reads filePath into a raw table
func (l *Loader) Load(ctx context.Context, filePath string) (*RawTable, error) {
	format, err := DetectFormat(filePath)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return l.xlsx.ParseXLSX(ctx, filePath)
	default:
		return l.csv.ParseCSV(ctx, filePath)
	}
}

// ConcurrentLoader loads several files at once with bounded concurrency
type ConcurrentLoader struct {
	loader    *Loader
	semaphore chan struct{}
	logger    logger.Logger
}

// NewConcurrentLoader creates a new concurrent loader
func NewConcurrentLoader(loader *Loader, maxConcurrency int) *ConcurrentLoader {
	if maxConcurrency <= 0 {
		maxConcurrency = 2
	}
	if loader == nil {
		loader = NewLoader(nil)
	}
	return &ConcurrentLoader{
		loader:    loader,
		semaphore: make(chan struct{}, maxConcurrency),
		logger:    logger.GetGlobalLogger(),
	}
}

// WithLogger sets where file loading progress is logged
func (cl *ConcurrentLoader) WithLogger(log logger.Logger) *ConcurrentLoader {
	if log != nil {
		cl.logger = log
	}
	return cl
}

// LoadResult holds the result of loading one file
type LoadResult struct {
	FilePath string
	Table    *RawTable
	Error    error
}

// LoadAll loads every path and returns results in the order of paths
func (cl *ConcurrentLoader) LoadAll(ctx context.Context, paths []string) []*LoadResult {
	results := make([]*LoadResult, len(paths))
	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "load_files",
		Total:     int64(len(paths)),
		Logger:    cl.logger,
	})

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)

		go func(i int, path string) {
			defer wg.Done()

			cl.semaphore <- struct{}{}
			defer func() { <-cl.semaphore }()

			table, err := cl.loader.Load(ctx, path)
			results[i] = &LoadResult{FilePath: path, Table: table, Error: err}
			progress.Increment()
		}(i, path)
	}

	wg.Wait()
	for _, res := range results {
		if res.Error != nil {
			progress.CompleteWithError(res.Error)
			return results
		}
	}
	progress.Complete()
	return results
}
