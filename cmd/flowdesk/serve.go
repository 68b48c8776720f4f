package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jPabloBC/ingenit-flows/internal/cli"
	httpAdapter "github.com/jPabloBC/ingenit-flows/pkg/adapters/http"
	"github.com/jPabloBC/ingenit-flows/pkg/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP editing server",
	Long: `Serves the configured store over a JSON API: flows, nodes, connections,
validation, Mermaid export and a server-sent event stream of changes per flow.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		var metrics *observability.Metrics
		if cfg.HTTP.Metrics {
			metrics = observability.NewMetrics("flowdesk")
		}
		manager, backend, err := openManager(ctx, metrics)
		if err != nil {
			return err
		}
		defer closeBackend(backend)

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithCORSOrigins(cfg.HTTP.CORSOrigins...),
		}
		if metrics != nil {
			opts = append(opts, httpAdapter.WithMetrics(metrics))
		}

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpAdapter.NewHandler(manager, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("HTTP server listening", "address", srv.Addr, "driver", cfg.Storage.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			logger.Info("shutting down", "signal", ctx.Signal())
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		logger.Info("HTTP server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address, overrides http.addr")
}
