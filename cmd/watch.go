package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filekeeper/internal/daemon"
	"filekeeper/internal/logger"
	"filekeeper/internal/model"
	"filekeeper/internal/restorer"
	"filekeeper/internal/watcher"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start the daemon and keep every configured target restored",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	targets, err := cfg.WatchTargets()
	if err != nil {
		logger.Log.Error("invalid target configuration",
			zap.String("kind", string(model.KindOf(err))),
			zap.Error(err))
		return err
	}

	if len(targets) == 0 {
		logger.Log.Info("no targets configured, add them under 'targets' in the config file")
	}

	history := openHistory(cfg.DBPath)
	registry := daemon.NewRegistry(targets, history)
	r := restorer.New()
	loop := daemon.NewLoop(r, watcher.New(cfg.BufferSize), cfg.Debounce,
		daemon.WithObserver(registry))

	srv := daemon.NewServer(registry, r, history, cfg.DaemonPort)
	srv.Start()

	logger.Log.Info("filekeeper daemon started",
		zap.Int("targets", len(targets)),
		zap.Duration("debounce", cfg.Debounce),
		zap.Int("port", cfg.DaemonPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx, targets)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	}

	cancel()
	if err := <-done; err != nil {
		logger.Log.Error("watch loop stopped with error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
