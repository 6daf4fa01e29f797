package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dialer-insights-go/internal/dataset"
	"dialer-insights-go/internal/logger"
	"dialer-insights-go/internal/watch"
)

var watchDir string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Analyze every export dropped into a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if watchDir != "" {
			cfg.Watch.Dir = watchDir
		}
		env, err := initEnv(ctx, "")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := startWatcher(ctx, env); err != nil {
			return err
		}
		<-ctx.Done()
		logger.New().Info("watcher stopped")
		return nil
	},
}

// startWatcher ingests exports already in the drop directory, then watches it
// in the background until ctx is done.
func startWatcher(ctx context.Context, env *appEnv) error {
	w := watch.New(cfg.Watch.Dir, cfg.MaxWait(), func(ctx context.Context, path string) error {
		res, err := env.Pipeline.Ingest(ctx, []dataset.Source{dataset.FileSource(path)})
		if err != nil {
			return err
		}
		logger.New().WithField("id", res.ID).
			WithField("file", res.FileName).
			WithField("anis", res.TotalANIs).
			Info("analysis stored")
		return nil
	})
	if err := w.Start(ctx); err != nil {
		return err
	}
	go func() {
		if err := w.Backfill(ctx); err != nil {
			logger.New().WithError(err).Warn("backfill failed")
		}
	}()
	return nil
}

func init() {
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "drop directory (default from config)")
	rootCmd.AddCommand(watchCmd)
}
