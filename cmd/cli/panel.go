package main

import (
	"errors"
	"fmt"

	"github.com/labi-le/clickerwatch/internal/panel"
	"github.com/labi-le/clickerwatch/internal/service"
	"github.com/labi-le/clickerwatch/internal/settings"
	"github.com/spf13/cobra"
)

var settingNames = map[string]string{
	"sound":         settings.KeySound,
	"notifications": settings.KeyNotifications,
}

// openPanel wires the settings surface. The returned func closes the store.
func openPanel(cmd *cobra.Command, configPath string) (*panel.Panel, func(), error) {
	cfg, logger, err := setup(cmd, configPath)
	if err != nil {
		return nil, nil, err
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := settings.OpenSQLite(cmd.Context(), cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("close settings store")
		}
	}

	return panel.New(store, client, newPlayer(cfg), logger), closeStore, nil
}

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the watcher state and current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, done, err := openPanel(cmd, *configPath)
			if err != nil {
				return err
			}
			defer done()

			report := p.Status(cmd.Context())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), report)

			if report.Status == nil {
				current, err := p.Load(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sound: %t\nNotifications: %t\n",
					current.SoundEnabled, current.NotificationsEnabled)
			}
			return nil
		},
	}
}

func newSetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "set {sound|notifications} {on|off}",
		Short:     "Change a setting and push it to the running watcher",
		Args:      cobra.ExactArgs(2), //nolint:mnd //shut up
		ValidArgs: []string{"sound", "notifications"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := settingNames[args[0]]
			if !ok {
				return fmt.Errorf("%w %q", panel.ErrUnknownKey, args[0])
			}

			var value bool
			switch args[1] {
			case "on", "true", "1":
				value = true
			case "off", "false", "0":
			default:
				return fmt.Errorf("expected on or off, got %q", args[1])
			}

			p, done, err := openPanel(cmd, *configPath)
			if err != nil {
				return err
			}
			defer done()

			current, err := p.Toggle(cmd.Context(), key, value)
			if errors.Is(err, panel.ErrNotPushed) {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Saved. The watcher is not running; it will pick the setting up on start.")
			} else if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Sound: %t\nNotifications: %t\n",
				current.SoundEnabled, current.NotificationsEnabled)
			return nil
		},
	}
}

func newTestCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Play the sound cue and raise a test notification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, done, err := openPanel(cmd, *configPath)
			if err != nil {
				return err
			}
			defer done()

			res, err := p.Test(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.SoundError != nil {
				_, _ = fmt.Fprintln(out, "Could not play sound:", res.SoundError)
			} else if res.SoundPlayed {
				_, _ = fmt.Fprintln(out, "Sound played")
			}
			if res.Notified {
				_, _ = fmt.Fprintln(out, "Test notification sent")
			}
			if res.Warning != "" {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), res.Warning)
			}
			return nil
		},
	}
}

func newInstallServiceCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "install-service",
		Short: "Install a systemd user unit running the watcher and start it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, logger, err := setup(cmd, *configPath)
			if err != nil {
				return err
			}

			var args []string
			if *configPath != "" {
				args = append(args, "--config", *configPath)
			}
			return service.InstallService(logger, args)
		},
	}
}
