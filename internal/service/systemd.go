// Package service installs the watcher as a systemd user unit.
package service

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const (
	unitName = "clickerwatch.service"

	unitTemplate = `[Unit]
Description=Clicker question watcher
Documentation=https://github.com/labi-le/clickerwatch

PartOf=graphical-session.target
After=graphical-session.target network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=%s
Environment="PATH=%s"
Environment="DBUS_SESSION_BUS_ADDRESS=%s"
Restart=on-failure
RestartSec=10

StandardOutput=journal
StandardError=journal

[Install]
WantedBy=graphical-session.target
`
)

var (
	ErrNoPath = errors.New("PATH is empty, cannot install service")
	// ErrNoSessionBus means desktop notifications would not reach the user session.
	ErrNoSessionBus = errors.New("DBUS_SESSION_BUS_ADDRESS is empty, cannot install service")
)

// Unit renders the unit file. args are appended to the executable.
func Unit(exe string, args []string, envPath, envDbus string) string {
	cmd := make([]string, 0, len(args)+1)
	for _, part := range append([]string{exe}, args...) {
		if strings.ContainsAny(part, " \t") {
			part = fmt.Sprintf("%q", part)
		}
		cmd = append(cmd, part)
	}
	return fmt.Sprintf(unitTemplate, strings.Join(cmd, " "), envPath, envDbus)
}

func InstallService(logger zerolog.Logger, args []string) error {
	envPath := os.Getenv("PATH")
	if envPath == "" {
		return ErrNoPath
	}

	envDbus := os.Getenv("DBUS_SESSION_BUS_ADDRESS")
	if envDbus == "" {
		return ErrNoSessionBus
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("detect executable path: %w", err)
	}
	if exePath, err = filepath.EvalSymlinks(exePath); err != nil {
		return fmt.Errorf("resolve symlinks: %w", err)
	}
	if exePath, err = filepath.Abs(exePath); err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}

	systemdDir := filepath.Join(configDir, "systemd", "user")
	unitFile := filepath.Join(systemdDir, unitName)

	logger.Info().Msg("try to delete the old service instance")
	_ = runSystemctl(logger, "disable", "--now", unitName)

	if err := os.MkdirAll(systemdDir, 0o755); err != nil {
		return fmt.Errorf("create systemd directory: %w", err)
	}

	//nolint:gosec //unit files are world readable
	if err := os.WriteFile(unitFile, []byte(Unit(exePath, args, envPath, envDbus)), 0o644); err != nil {
		return fmt.Errorf("write unit file: %w", err)
	}
	logger.Info().Str("path", unitFile).Msg("unit file created")

	for _, step := range [][]string{{"daemon-reload"}, {"enable", unitName}, {"restart", unitName}} {
		if err := runSystemctl(logger, step...); err != nil {
			return err
		}
	}

	logger.Info().Msg("service installed and started")
	return nil
}

func runSystemctl(logger zerolog.Logger, args ...string) error {
	logger.Debug().Strs("args", args).Msg("executing systemctl")

	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
