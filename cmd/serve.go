package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/api"
	"github.com/voidworks/clipcrawl/internal/pipeline"
)

// newServeCmd creates the 'serve' subcommand: the HTTP surface plus an
// optional periodic sync.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the HTTP API and optionally syncs on an interval",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, lister, cleanup, err := buildDriver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(driver, lister, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Server.SyncIntervalMinutes > 0 {
		go runPeriodicSync(ctx, driver, time.Duration(cfg.Server.SyncIntervalMinutes)*time.Minute, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
	}
	return nil
}

func runPeriodicSync(ctx context.Context, driver *pipeline.Driver, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := driver.Run(ctx)
			if err != nil {
				logger.Error("scheduled sync failed", zap.Error(err))
				continue
			}
			logger.Info("scheduled sync finished",
				zap.String("run_id", summary.RunID),
				zap.Int("stored", summary.Stored),
				zap.Int("skipped", summary.Skipped),
			)
		}
	}
}
