package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sqfvm/language-server/internal/lsp"
	"github.com/sqfvm/language-server/internal/store"
	"github.com/sqfvm/language-server/internal/workspace"
	"github.com/sqfvm/language-server/pkg/config"
	"github.com/sqfvm/language-server/pkg/observability"
	"github.com/sqfvm/language-server/pkg/version"
)

// metricsShutdownTimeout bounds how long the metrics HTTP listener waits for
// an in-flight scrape to finish during shutdown.
const metricsShutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [workspace-root]",
		Short: "Start the language server on stdio",
		Long:  `Start the language server (stdio transport), analyzing the given workspace root (default: current directory).`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}

			return runServe(cobraCmd.Context(), root)
		},
	}

	return cmd
}

func runServe(ctx context.Context, root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve workspace root: %w", err)
	}

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	providers, err := initServeObservability(cfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	if cfg.Metrics.Enabled {
		stopMetrics := startMetricsServer(cfg.Metrics.Addr, providers)
		defer stopMetrics()
	}

	st, err := store.Open(absRoot)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if _, err := st.Migrate(); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	ws, err := workspace.New(absRoot, cfg, st, providers.Logger, providers.Meter)
	if err != nil {
		return fmt.Errorf("build workspace orchestrator: %w", err)
	}

	if err := ws.Start(ctx); err != nil {
		return fmt.Errorf("start workspace orchestrator: %w", err)
	}
	defer ws.Close()

	srv := lsp.NewServer(absRoot, ws, providers.Logger)

	providers.Logger.Info("sqfvm-lsp starting", "workspace", absRoot, "version", version.Version)

	return srv.Run()
}

func initServeObservability(cfg *config.Config) (observability.Providers, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	obsCfg.Mode = observability.ModeLSP
	obsCfg.LogJSON = cfg.Logging.Format == "json"

	if level, ok := parseLogLevel(cfg.Logging.Level); ok {
		obsCfg.LogLevel = level
	}

	if debug {
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	}

	obsCfg.PrometheusEnabled = cfg.Metrics.Enabled

	return observability.Init(obsCfg)
}

// startMetricsServer serves providers.PrometheusHandler on addr, wrapped in
// the same span/access-log middleware internal/lsp's stdio transport never
// needs. Returns a function that shuts the listener down; failures after
// startup are logged rather than propagated, since a scrape endpoint going
// down must never take the editor session down with it.
func startMetricsServer(addr string, providers observability.Providers) func() {
	if providers.PrometheusHandler == nil {
		providers.Logger.Warn("metrics.enabled is true but no prometheus handler was built")

		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", providers.PrometheusHandler)

	wrapped := observability.HTTPMiddleware(providers.Tracer, providers.Logger, mux)

	srv := &http.Server{Addr: addr, Handler: wrapped}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			providers.Logger.Error("metrics server stopped", "error", err)
		}
	}()

	providers.Logger.Info("metrics endpoint listening", "addr", addr)

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			providers.Logger.Warn("metrics server shutdown failed", "error", err)
		}
	}
}

func parseLogLevel(raw string) (slog.Level, bool) {
	switch raw {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
