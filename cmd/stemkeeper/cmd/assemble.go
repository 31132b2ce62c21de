package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/stemkeeper/internal/core/assembly"
	"github.com/solatis/stemkeeper/internal/core/config"
	"github.com/solatis/stemkeeper/internal/core/journal"
	"github.com/solatis/stemkeeper/internal/core/metrics"
	"github.com/solatis/stemkeeper/internal/stock"
)

func runAssemble(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()

	stringFlag(cmd, "input", &cfg.Assembly.Input)
	stringFlag(cmd, "output", &cfg.Assembly.Output)
	stringFlag(cmd, "reclip", &cfg.Assembly.Reclip)
	stringFlag(cmd, "metrics-file", &cfg.Assembly.MetricsFile)
	if err := config.Validate(cfg); err != nil {
		return err
	}
	mode, err := stock.ParseReclipMode(cfg.Assembly.Reclip)
	if err != nil {
		return err
	}

	in, err := openInput(cmd, cfg.Assembly.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := openOutput(cmd, cfg.Assembly.Output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	m := metrics.New(false)
	sink := assembly.NewWriterSink(out)
	opts := []assembly.Option{
		assembly.WithSink(sink),
		assembly.WithMetrics(m),
		assembly.WithLogger(slog.Default()),
		assembly.WithReclipMode(mode),
	}

	var j *journal.Journal
	if cfg.DB.URL != "" {
		database, queries, err := openJournalDB(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		j, err = journal.Start(ctx, queries, mode)
		if err != nil {
			return err
		}
		opts = append(opts, assembly.WithSink(j))
		slog.Info("journal run started", "run_id", j.RunID())
	}

	a := assembly.New(opts...)
	runErr := assembly.Run(ctx, a, in)

	// Bouquets emitted before a failure stay written.
	flushErr := sink.Flush()

	stats := a.Stats()
	slog.Info("assembly finished",
		"designs", stats.Designs,
		"stems", stats.Stems,
		"bouquets", stats.Bouquets,
		"saturated", stats.Saturated,
		"failed", runErr != nil)

	var finishErr error
	if j != nil {
		// The run context may already be cancelled; the final row still goes in.
		finishErr = j.Finish(context.WithoutCancel(ctx), stats.Stems, stats.Bouquets, runErr)
	}

	var metricsErr error
	if cfg.Assembly.MetricsFile != "" {
		metricsErr = m.WriteTextfile(cfg.Assembly.MetricsFile)
	}

	return errors.Join(runErr, flushErr, finishErr, metricsErr)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}

func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, nil
}
