package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gst-reconciliation-service/cmd/reconciler/config"
	"gst-reconciliation-service/pkg/errors"
	"gst-reconciliation-service/pkg/logger"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootOptions is shared by every subcommand. config and log are set by
// initConfig before any subcommand runs.
type rootOptions struct {
	cfgFile string
	verbose bool

	v      *viper.Viper
	config *config.Config
	log    logger.Logger
}

// NewRootCmd builds the command tree with its own configuration registry
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "gstrecon",
		Short: "GST invoice reconciliation tool",
		Long: `gstrecon reconciles supplier invoices reported in GSTR-2A against the
purchase register kept in the books. It reports duplicates, invoices missing
on either side and mismatched dates, amounts, taxes and GSTINs.

Examples:
  gstrecon reconcile --gstr2a gstr2a.xlsx --books purchases.csv
  gstrecon reconcile --gstr2a jul.csv --gstr2a aug.csv --books books.xlsx -o report.xlsx
  gstrecon inspect --books purchases.csv
  gstrecon template --source A -o gstr2a_template.xlsx
  gstrecon version`,
		Version:       getVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file (YAML, optional)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	pf.String("log-level", string(logger.InfoLevel), "log level: debug, info, warn, error")
	pf.String("log-format", string(logger.TextFormat), "log format: text, json")

	opts.v.BindPFlag(config.KeyLogLevel, pf.Lookup("log-level"))
	opts.v.BindPFlag(config.KeyLogFormat, pf.Lookup("log-format"))

	rootCmd.AddCommand(
		newReconcileCmd(opts),
		newInspectCmd(opts),
		newTemplateCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	rootCmd := NewRootCmd()
	err := rootCmd.Execute()
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	return NewCLIErrorHandler(os.Stderr, verbose).HandleError(err)
}

// initConfig merges config file, environment and flags, then installs the
// global logger.
func (o *rootOptions) initConfig() error {
	cfg, err := config.Load(o.v, o.cfgFile)
	if err != nil {
		return err
	}
	if o.verbose {
		cfg.Log.Level = logger.DebugLevel
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "log", cfg.Log.Level, err)
	}
	logger.SetGlobalLogger(log)

	o.config = cfg
	o.log = log.WithComponent("cli")
	if o.cfgFile != "" {
		o.log.WithField("file", o.v.ConfigFileUsed()).Debug("Using config file")
	}
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gstrecon %s\n", getVersionString())
		},
	}
}
