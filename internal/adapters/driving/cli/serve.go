package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry/internal/adapters/driven/watcher"
	"github.com/quarry-labs/quarry/internal/logger"
)

var serveWatch []string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the processing pipeline",
	Long: `Runs the background worker that drains the job queue. Shares named
with --watch are additionally watched for new and changed files, which are
queued for extraction as they appear. Runs until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringSliceVar(&serveWatch, "watch", nil, "share names to watch for file changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	for _, name := range serveWatch {
		share, err := services.Store.Files().ShareByName(ctx, services.TenantID, name)
		if err != nil {
			return fmt.Errorf("loading share %q: %w", name, err)
		}
		w, err := watcher.New(services.Ingestion, share)
		if err != nil {
			return fmt.Errorf("watching share %q: %w", name, err)
		}
		defer w.Close()

		go func(name string) {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher for share %q stopped: %v", name, err)
			}
		}(name)
		logger.Info("watching share %q at %s", name, share.RootPath)
	}

	workerDone := make(chan error, 1)
	go func() { workerDone <- services.Worker.Start(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cmd.Println("Pipeline running. Press Ctrl+C to stop.")

	select {
	case sig := <-sigCh:
		logger.Info("received %s, shutting down", sig)
		cancel()
		if err := services.Worker.Stop(); err != nil {
			return fmt.Errorf("stopping worker: %w", err)
		}
		err := <-workerDone
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case err := <-workerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("worker stopped: %w", err)
		}
		return nil
	}
}
