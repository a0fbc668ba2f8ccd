package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"tradehub/internal/httpapi"
	"tradehub/internal/metrics"
	"tradehub/internal/store"
	"tradehub/internal/strategy"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	ps, cat, err := openStores()
	if err != nil {
		return err
	}
	defer cat.Close()

	reg := metrics.NewRegistry()
	strategies := newStrategies()
	srv := httpapi.NewDashboardServer(httpapi.Deps{
		Catalog:    cat,
		Backtester: strategy.NewBacktester(store.NewLoader(cat, ps), strategies, reg),
		Strategies: strategies,
		Collector:  newCollector(ps, cat, reg),
		Prober:     newBroker(),
		Metrics:    reg,
		TracksPath: cfg.Storage.TracksPath,
		Defaults:   cfg.Backtest,
	}, logger)

	port := cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx := cmd.Context()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down dashboard server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}
