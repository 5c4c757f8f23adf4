package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labi-le/clickerwatch/internal/config"
	"github.com/labi-le/clickerwatch/internal/metadata"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "clickerwatch:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "clickerwatch",
		Short: "Watch a clicker page and alert when a new question opens",
		Long: "clickerwatch samples the clicker page on a fixed period and, when the question\n" +
			"choices switch from closed to open, plays a sound cue and raises a desktop notification.\n" +
			"Run without a subcommand to start the watcher.",
		Version:       metadata.Build{}.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, configPath)
			if err != nil {
				return err
			}
			return watch(cmd.Context(), cfg, logger)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default "+config.DefaultPath()+")")
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newStatusCmd(&configPath),
		newSetCmd(&configPath),
		newTestCmd(&configPath),
		newInstallServiceCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func setup(cmd *cobra.Command, configPath string) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return cfg, zerolog.Nop(), err
	}

	applyTagsOverrides(&cfg)
	logger := initLogger(cfg.Verbose)

	if cfg.Verbose {
		logger.Debug().Object("build", metadata.Build{}).Msg("verbose mode enabled")
	}
	return cfg, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), metadata.Build{})
		},
	}
}

func initLogger(verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	if verbose {
		zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
			short := file
			for i := len(file) - 1; i > 0; i-- {
				if file[i] == '/' {
					short = file[i+1:]
					break
				}
			}
			return fmt.Sprintf("%s:%d", short, line)
		}
		return zerolog.New(output).
			Level(zerolog.TraceLevel).
			With().
			Timestamp().
			Caller().
			Logger()
	}

	return zerolog.New(output).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}
