package cmd

import (
	"fmt"
	"os"

	"filekeeper/internal/config"
	"filekeeper/internal/daemon"
	"filekeeper/internal/db"
	"filekeeper/internal/logger"
	"filekeeper/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg     *config.Config
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:           "filekeeper",
	Short:         "Keep files restored from their persistent sources",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load(cfgPath)
		return err
	},
}

// openHistory opens the history database. Restoring does not depend on it,
// so a database that cannot be opened only disables history.
func openHistory(dbPath string) daemon.HistoryStore {
	if err := db.Init(dbPath); err != nil {
		logger.Log.Warn("history disabled",
			zap.String("db", dbPath),
			zap.Error(err))
		return nil
	}

	return repository.NewHistoryRepository()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DaemonPort, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default ~/.filekeeper/config.yaml)")
}
