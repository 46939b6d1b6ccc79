package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/idom/internal/config"
	"github.com/vango-dev/idom/internal/playground"
	"github.com/vango-dev/idom/pkg/idom"
	"github.com/vango-dev/idom/pkg/patchmetrics"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the patch playground",
		Long: `Run the patch playground server.

Sessions hold a tree and a program; every data update patches the tree
and is pushed to connected WebSocket clients. Prometheus metrics are
served when metrics.enabled is set in idom.json.

Examples:
  idom serve
  idom serve --port=8080
  idom serve --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Serve.Port = port
			}
			if host != "" {
				cfg.Serve.Host = host
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from idom.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from idom.json)")

	return cmd
}

// newPlayground builds the playground handler for cfg, wiring the patch
// metrics collector when metrics are enabled.
func newPlayground(cfg *config.Config, logger *slog.Logger) *playground.Server {
	pcfg := playground.Config{
		AllowedOrigins: cfg.Serve.AllowedOrigins,
		MaxSessions:    cfg.Serve.MaxSessions,
		SessionTTL:     cfg.SessionTTLDuration(),
		Logger:         logger,
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		collector := patchmetrics.New(
			patchmetrics.WithNamespace(cfg.Metrics.Namespace),
			patchmetrics.WithRegistry(reg),
		)
		pcfg.PatcherOptions = append(pcfg.PatcherOptions, idom.WithObserver(collector))
		pcfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
		pcfg.MetricsPath = cfg.Metrics.Path
	}
	return playground.New(pcfg)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	pg := newPlayground(cfg, logger)
	defer pg.Close()
	pg.StartJanitor(ctx, time.Minute)

	srv := &http.Server{
		Addr:              cfg.ServeAddress(),
		Handler:           pg,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	success("Playground listening on http://%s", cfg.ServeAddress())
	if cfg.Metrics.Enabled {
		info("Metrics at http://%s%s", cfg.ServeAddress(), cfg.Metrics.Path)
	}

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
