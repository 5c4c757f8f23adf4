package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/labi-le/clickerwatch/internal/config"
	"github.com/labi-le/clickerwatch/internal/control"
	"github.com/labi-le/clickerwatch/internal/dispatcher"
	"github.com/labi-le/clickerwatch/internal/lock"
	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/internal/metadata"
	"github.com/labi-le/clickerwatch/internal/notification"
	"github.com/labi-le/clickerwatch/internal/observer"
	"github.com/labi-le/clickerwatch/internal/page"
	"github.com/labi-le/clickerwatch/internal/security"
	"github.com/labi-le/clickerwatch/internal/settings"
	"github.com/labi-le/clickerwatch/internal/sound"
	"github.com/labi-le/clickerwatch/internal/transport/quic"
	"github.com/rs/zerolog"
)

const appName = "Clicker Watch"

func watch(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	logger.Info().Object("build", metadata.Build{}).Str("url", cfg.URL).Send()

	unlock := lock.Must(logger)
	defer unlock()

	store, err := settings.OpenSQLite(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("close settings store")
		}
	}()

	if cfg.Icon == "" {
		if cfg.Icon, err = dispatcher.WriteIcon(filepath.Dir(cfg.DB)); err != nil {
			logger.Warn().Err(err).Msg("bundled icon unavailable, notifying without one")
		}
	}

	disp := dispatcher.New(
		notification.NewDesktop(appName, cfg.Alert),
		dispatcher.WithIcon(cfg.Icon),
		dispatcher.WithLogger(logger),
	)
	if err := disp.Install(ctx, store); err != nil {
		return err
	}

	bus := message.NewBus(0)
	go disp.Serve(ctx, bus)

	sampler, err := newSampler(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := sampler.Close(); err != nil {
			logger.Warn().Err(err).Msg("close sampler")
		}
	}()

	obs := observer.New(
		sampler,
		newPlayer(cfg),
		bus,
		store,
		observer.WithInterval(cfg.Interval),
		observer.WithSampleTimeout(cfg.SampleTimeout),
		observer.WithText(cfg.Title, cfg.Message),
		observer.WithLogger(logger),
	)

	tlsConf, err := security.MakeTLSConfig(cfg.Secret, logger)
	if err != nil {
		return fmt.Errorf("tls config: %w", err)
	}
	srv := control.NewServer(
		quic.New(tlsConf, quic.DefaultOptions),
		obs,
		bus,
		control.WithAddr(cfg.Control),
		control.WithServerLogger(logger),
	)
	if _, err := srv.Listen(ctx); err != nil {
		return err
	}

	obs.Start(ctx)
	go obs.Follow(ctx, sampler.Events())

	serveErr := srv.Serve(ctx)

	obs.Stop()
	obs.Wait()
	logger.Info().Msg("stopped")
	return serveErr
}

func newSampler(cfg config.Config, logger zerolog.Logger) (page.Sampler, error) {
	selector, err := page.ParseSelector(cfg.Selector, cfg.OpenClass)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverBrowser {
		browser, err := page.NewBrowserSampler(cfg.URL, selector, page.BrowserOptions{
			Headless:     cfg.Headless,
			StorageState: cfg.StorageState,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("browser sampler: %w", err)
		}
		return browser, nil
	}

	header := make(http.Header)
	if cfg.Cookie != "" {
		header.Set("Cookie", cfg.Cookie)
	}
	return page.NewHTTPSampler(cfg.URL, selector, &http.Client{Timeout: cfg.SampleTimeout}, header), nil
}

func newPlayer(cfg config.Config) sound.Player {
	if cfg.Sound == "" {
		return sound.NewBeeper()
	}
	return sound.NewFilePlayer(cfg.Sound, cfg.Volume)
}

func newClient(cfg config.Config, logger zerolog.Logger) (*control.Client, error) {
	tlsConf, err := security.MakeTLSConfig(cfg.Secret, logger)
	if err != nil {
		return nil, fmt.Errorf("tls config: %w", err)
	}
	return control.NewClient(quic.New(tlsConf, quic.DefaultOptions), cfg.Control), nil
}
