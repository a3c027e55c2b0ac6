package autostart

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"
)

const unitName = "filekeeper.service"

var unitTemplate = template.Must(template.New("service").Parse(`[Unit]
Description=filekeeper file restoration daemon
After=default.target

[Service]
ExecStart="{{.ExecPath}}" watch{{if .ConfigPath}} --config "{{.ConfigPath}}"{{end}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`))

type LinuxAutoStarter struct {
	// dir overrides ~/.config/systemd/user.
	dir string
	// run executes systemctl; nil means exec.Command.
	run func(args ...string) ([]byte, error)
}

func renderUnit(w io.Writer, execPath, configPath string) error {
	return unitTemplate.Execute(w, map[string]string{
		"ExecPath":   execPath,
		"ConfigPath": configPath,
	})
}

func (l *LinuxAutoStarter) servicePath() (string, error) {
	dir := l.dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config", "systemd", "user")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(dir, unitName), nil
}

func (l *LinuxAutoStarter) systemctl(args ...string) ([]byte, error) {
	args = append([]string{"--user"}, args...)
	if l.run != nil {
		return l.run(args...)
	}
	return exec.Command("systemctl", args...).CombinedOutput()
}

func (l *LinuxAutoStarter) Install(execPath, configPath string) error {
	path, err := l.servicePath()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create service file: %w", err)
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if err := renderUnit(f, execPath, configPath); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	cmds := [][]string{
		{"daemon-reload"},
		{"enable", unitName},
		{"start", unitName},
	}

	for _, args := range cmds {
		if out, err := l.systemctl(args...); err != nil {
			return fmt.Errorf("failed to run systemctl %v: %w\n%s", args, err, out)
		}
	}

	return nil
}

func (l *LinuxAutoStarter) Uninstall() error {
	_, _ = l.systemctl("stop", unitName)
	_, _ = l.systemctl("disable", unitName)

	path, err := l.servicePath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove service file: %w", err)
	}

	return nil
}

func (l *LinuxAutoStarter) IsInstalled() (bool, error) {
	path, err := l.servicePath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	return err == nil, nil
}
