package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"gst-reconciliation-service/internal/ledger"
	"gst-reconciliation-service/internal/models"
	"gst-reconciliation-service/internal/normalizer"
	"gst-reconciliation-service/internal/parsers"
	"gst-reconciliation-service/internal/reconciler"
	"gst-reconciliation-service/internal/reporter"
	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

// EnvPrefix is the prefix of environment variables read by the CLI,
// e.g. GSTRECON_DATE_TOLERANCE=5
const EnvPrefix = "GSTRECON"

// Keys shared by flags, config file and environment
const (
	KeyDateTolerance   = "date-tolerance"
	KeyAmountTolerance = "amount-tolerance"
	KeyCleanGSTIN      = "clean-gstin"
	KeyWorkers         = "workers"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyLogOutput       = "log.output"
	KeyLogFile         = "log.file"
)

// Config is the CLI configuration after flags, config file and environment
// have been merged.
type Config struct {
	// Tolerances are kept as raw text and validated by
	// reconciler.ParseSettings.
	DateTolerance   string `mapstructure:"date-tolerance"`
	AmountTolerance string `mapstructure:"amount-tolerance"`
	CleanGSTIN      bool   `mapstructure:"clean-gstin"`

	// Workers bounds concurrent file loading
	Workers int `mapstructure:"workers"`

	Log     logger.Config `mapstructure:"log"`
	Mapping Mapping       `mapstructure:"mapping"`
}

// Mapping holds per-ledger column overrides, canonical column -> file header
type Mapping struct {
	A map[string]string `mapstructure:"a"`
	B map[string]string `mapstructure:"b"`
}

// For returns the overrides of source
func (m Mapping) For(source models.Source) map[string]string {
	if source == models.SourceB {
		return m.B
	}
	return m.A
}

// SetDefaults registers the default of every key on v
func SetDefaults(v *viper.Viper) {
	defaults := reconciler.DefaultSettings()
	v.SetDefault(KeyDateTolerance, fmt.Sprintf("%d", defaults.DateToleranceDays))
	v.SetDefault(KeyAmountTolerance, defaults.AmountTolerance.StringFixed(2))
	v.SetDefault(KeyCleanGSTIN, defaults.CleanIdentifiers)
	v.SetDefault(KeyWorkers, 4)

	logDefaults := logger.DefaultConfig()
	v.SetDefault(KeyLogLevel, string(logDefaults.Level))
	v.SetDefault(KeyLogFormat, string(logDefaults.Format))
	v.SetDefault(KeyLogOutput, string(logDefaults.Output))
	v.SetDefault(KeyLogFile, "")
}

// BindEnv makes every key readable from GSTRECON_* variables
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load reads the merged configuration from v. When configFile is set it is
// read first; a missing or malformed file is a configuration error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	BindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", configFile, err).
				WithSuggestion("Check the config file path and YAML syntax")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", v.ConfigFileUsed(), err)
	}
	if cfg.Workers < 1 {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, KeyWorkers, cfg.Workers,
			fmt.Errorf("workers must be at least 1"))
	}
	if err := cfg.Log.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "log", cfg.Log, err)
	}
	return &cfg, nil
}

// Settings validates the configured tolerances, starting from the defaults
func (c *Config) Settings() (reconciler.Settings, error) {
	return reconciler.ParseSettings(reconciler.DefaultSettings(), c.DateTolerance, c.AmountTolerance, c.CleanGSTIN)
}

// NewLedger creates an empty ledger for source using the configured cleaning
func (c *Config) NewLedger(source models.Source, log logger.Logger) *ledger.Ledger {
	return ledger.New(source, ledger.Options{CleanIdentifiers: c.CleanGSTIN}, log)
}

// LoaderConfig returns the parse configuration for ledger files; sheet picks
// an XLSX worksheet and may be empty.
func LoaderConfig(sheet string) *parsers.ParseConfig {
	cfg := parsers.DefaultParseConfig()
	cfg.Sheet = sheet
	return cfg
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format reporter.OutputFormat, maxRows int) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.Format = format
	config.MaxRowsPerCategory = maxRows

	switch format {
	case reporter.FormatCSV:
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	case reporter.FormatXLSX:
		config.IncludeSummary = true
	}

	return config
}

// ValidateMapping reports mapping targets that are not columns of their
// ledger. Such entries would only produce warnings at import time.
func ValidateMapping(m Mapping) error {
	var unknown []string
	for _, source := range []models.Source{models.SourceA, models.SourceB} {
		for target := range m.For(source) {
			if !normalizer.IsCanonical(source, target) {
				unknown = append(unknown, fmt.Sprintf("mapping.%s.%s", strings.ToLower(source.String()), target))
			}
		}
	}
	if len(unknown) > 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "mapping", strings.Join(unknown, ", "),
			fmt.Errorf("unknown column in mapping")).
			WithSuggestion("Use canonical column names such as invoice_no, invoice_date or supplier_gstin")
	}
	return nil
}
