package autostart

import (
	"fmt"
	"os/exec"
)

const taskName = "FilekeeperDaemon"

type WindowsAutoStarter struct{}

func taskCommand(execPath, configPath string) string {
	if configPath == "" {
		return fmt.Sprintf(`"%s" watch`, execPath)
	}
	return fmt.Sprintf(`"%s" watch --config "%s"`, execPath, configPath)
}

func (w *WindowsAutoStarter) Install(execPath, configPath string) error {
	cmd := exec.Command("schtasks", "/create",
		"/TN", taskName,
		"/TR", taskCommand(execPath, configPath),
		"/SC", "ONLOGON",
		"/F")

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to register task: %w\n%s", err, out)
	}

	return nil
}

func (w *WindowsAutoStarter) Uninstall() error {
	cmd := exec.Command("schtasks", "/DELETE", "/TN", taskName, "/F")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to remove task: %w\n%s", err, out)
	}

	return nil
}

func (w *WindowsAutoStarter) IsInstalled() (bool, error) {
	cmd := exec.Command("schtasks", "/Query", "/TN", taskName)
	if err := cmd.Run(); err != nil {
		return false, nil
	}

	return true, nil
}
