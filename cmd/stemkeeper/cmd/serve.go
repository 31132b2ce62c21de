package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/stemkeeper/internal/core/api"
	"github.com/solatis/stemkeeper/internal/core/assembly"
	"github.com/solatis/stemkeeper/internal/core/auth"
	"github.com/solatis/stemkeeper/internal/core/config"
	"github.com/solatis/stemkeeper/internal/core/journal"
	"github.com/solatis/stemkeeper/internal/core/metrics"
	"github.com/solatis/stemkeeper/internal/core/server"
	"github.com/solatis/stemkeeper/internal/records"
	"github.com/solatis/stemkeeper/internal/stock"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the warehouse over gRPC",
	Long: `serve loads the design section of --designs, opens the warehouse and
accepts stem records through the stemkeeper.v1.Warehouse gRPC service.
All callers share one warehouse; stems are processed in arrival order.
A failed journal write halts the warehouse and stops the server.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
	serveCmd.Flags().String("designs", "", "file whose design section defines the warehouse")
	serveCmd.Flags().String("reclip", "numeric", "active counter reclip after a bouquet (numeric, ceiling)")
	serveCmd.Flags().String("metrics-addr", "", "serve /metrics on this address")
	serveCmd.Flags().Bool("require-auth", false, "require an x-api-key on every call")
	serveCmd.Flags().Duration("request-timeout", 30*time.Second, "per-request deadline")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	stringFlag(cmd, "host", &cfg.Server.Host)
	stringFlag(cmd, "designs", &cfg.Server.DesignsFile)
	stringFlag(cmd, "metrics-addr", &cfg.Server.MetricsAddr)
	stringFlag(cmd, "reclip", &cfg.Assembly.Reclip)
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("require-auth") {
		cfg.Server.RequireAuth, _ = cmd.Flags().GetBool("require-auth")
	}
	if cmd.Flags().Changed("request-timeout") {
		cfg.Server.RequestTimeout, _ = cmd.Flags().GetDuration("request-timeout")
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if cfg.Server.DesignsFile == "" {
		return fmt.Errorf("--designs required")
	}
	mode, err := stock.ParseReclipMode(cfg.Assembly.Reclip)
	if err != nil {
		return err
	}

	m := metrics.New(true)
	opts := []assembly.Option{
		assembly.WithMetrics(m),
		assembly.WithLogger(slog.Default()),
		assembly.WithReclipMode(mode),
	}

	var authenticator *auth.Authenticator
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

		if cfg.Server.RequireAuth {
			secrets, err := config.HMACSecrets()
			if err != nil {
				return fmt.Errorf("failed to load HMAC secrets: %w", err)
			}
			if len(secrets) == 0 {
				return fmt.Errorf("no HMAC secrets configured (set %s_HMAC_SECRET environment variable)", config.EnvPrefix)
			}
			authenticator = auth.NewAuthenticator(secrets, queries)
		}
	} else if cfg.Server.RequireAuth {
		return fmt.Errorf("--require-auth needs --db-url for the key store")
	}

	a := assembly.New(opts...)
	if err := loadDesignFile(ctx, a, cfg.Server.DesignsFile); err != nil {
		return err
	}
	if err := a.Open(); err != nil {
		return err
	}

	service, err := api.NewWarehouseService(a)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	grpcServer, err := server.NewGRPCServer(cfg.Server, service, authenticator, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChan := make(chan error, 2)
	var metricsServer *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	slog.Info("starting stemkeeper warehouse",
		"version", Version,
		"addr", cfg.Server.Addr(),
		"auth", authenticator != nil,
		"journal", j != nil)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	var serveErr error
	select {
	case serveErr = <-errChan:
	case <-a.Halted():
		serveErr = a.Err()
		slog.Error("warehouse halted, shutting down", "error", serveErr)
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
	}

	shutdownCtx := context.WithoutCancel(ctx)
	shutdownErr := grpcServer.Shutdown(shutdownCtx)
	if metricsServer != nil {
		shutdownErr = errors.Join(shutdownErr, metricsServer.Shutdown(shutdownCtx))
	}

	var finishErr error
	if j != nil {
		stats := a.Stats()
		finishErr = j.Finish(shutdownCtx, stats.Stems, stats.Bouquets, serveErr)
	}
	return errors.Join(serveErr, shutdownErr, finishErr)
}

// loadDesignFile registers the design section of path. Anything after the
// first empty line is ignored.
func loadDesignFile(ctx context.Context, a *assembly.Assembler, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open designs: %w", err)
	}
	defer f.Close()

	n, err := assembly.LoadDesigns(ctx, a, records.NewReader(f))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if n == 0 {
		slog.Warn("no designs loaded; every stem will be saturated", "file", path)
	}
	return nil
}
