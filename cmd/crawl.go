package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCrawlCmd creates the 'crawl' subcommand: one pipeline pass over
// the configured id list.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Runs one acquisition-and-persistence pass",
		Long: `Fetches every configured item id under the concurrency ceiling,
normalizes the results and persists them through the active sink.
Items that fail are logged and skipped; the run itself still succeeds.`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, _, cleanup, err := buildDriver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	logger.Info("crawl finished",
		zap.String("run_id", summary.RunID),
		zap.Int("stored", summary.Stored),
		zap.Int("skipped", summary.Skipped),
	)
	return nil
}
