package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"filekeeper/internal/autostart"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the daemon to start on login",
	RunE: func(cmd *cobra.Command, args []string) error {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		configPath := ""
		if cfgPath != "" {
			if configPath, err = filepath.Abs(cfgPath); err != nil {
				return fmt.Errorf("failed to resolve config path: %w", err)
			}
		}

		as := autostart.New()
		if installed, err := as.IsInstalled(); err == nil && installed {
			fmt.Println("autostart entry already present, replacing it")
		}

		if err := as.Install(execPath, configPath); err != nil {
			return err
		}

		fmt.Println("filekeeper daemon registered for autostart")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
