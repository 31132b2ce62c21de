package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/solatis/stemkeeper/internal/core/config"
	"github.com/solatis/stemkeeper/internal/core/logging"
)

const Version = "0.1.0"

var (
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string

	// cfg is loaded by the root PersistentPreRunE before any command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "stemkeeper",
	Short: "Bouquet assembly from a stream of stems",
	Long: `stemkeeper reads bouquet designs followed by a stream of stems and emits a
bouquet record whenever the stock on hand completes a design.

Input is two sections separated by an empty line: design records such as
AS6a4 or BS9a2b9, then stem records such as aS. Any malformed record stops
the run with a non-zero exit status.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runAssemble,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db-url", "", "journal database URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "log format (json, text)")

	rootCmd.Flags().String("input", "-", "input file, - for stdin")
	rootCmd.Flags().String("output", "-", "output file, - for stdout")
	rootCmd.Flags().String("reclip", "numeric", "active counter reclip after a bouquet (numeric, ceiling)")
	rootCmd.Flags().String("metrics-file", "", "write prometheus metrics to this file on exit")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// setup loads configuration, applies persistent flag overrides and installs
// the default logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db-url") {
		loaded.DB.URL = dbURL
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		loaded.Log.Format = logFormat
	}

	logger, err := logging.New(loaded.Log.Level, loaded.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfg = loaded
	return nil
}

func stringFlag(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}
