// Package panel is the settings surface: it edits the shared settings,
// reports the watcher status and triggers a test alert.
package panel

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/internal/settings"
	"github.com/labi-le/clickerwatch/internal/sound"
	"github.com/labi-le/clickerwatch/pkg/ctxlog"
	"github.com/rs/zerolog"
)

const (
	StatusActive   = "Active & Monitoring"
	StatusIdle     = "Connected but idle"
	StatusNoData   = "Connected but no data"
	StatusNotReady = "Content script not ready"

	WarnSendFailed = "Error sending notification. Please check if notifications are enabled in your system settings."
	WarnBlocked    = "Notification may be blocked. Check system notification settings."
)

var (
	ErrUnknownKey = errors.New("unknown setting")
	// ErrNotPushed means the value was saved but the running watcher did not take it.
	ErrNotPushed = errors.New("watcher did not receive the new settings")
)

// Sender reaches the running watcher.
type Sender interface {
	Send(ctx context.Context, req message.Request) (message.Response, error)
}

type Panel struct {
	store  settings.Store
	sender Sender
	player sound.Player
	logger zerolog.Logger
}

func New(store settings.Store, sender Sender, player sound.Player, logger zerolog.Logger) *Panel {
	return &Panel{store: store, sender: sender, player: player, logger: logger}
}

// Load returns the stored settings, writing the default of every key that has none.
func (p *Panel) Load(ctx context.Context) (settings.Settings, error) {
	if _, err := settings.EnsureDefaults(ctx, p.store); err != nil {
		return settings.Default(), err
	}
	return settings.Load(ctx, p.store)
}

// Toggle persists one setting and pushes the full set to the watcher. A failed
// push is returned wrapped in ErrNotPushed; the stored value stays.
func (p *Panel) Toggle(ctx context.Context, key string, value bool) (settings.Settings, error) {
	logger := ctxlog.Op(p.logger, "panel.Toggle")

	if !slices.Contains(settings.Keys, key) {
		return settings.Settings{}, fmt.Errorf("%w %q, expected one of %s", ErrUnknownKey, key, strings.Join(settings.Keys, ", "))
	}

	if err := p.store.Set(ctx, map[string]bool{key: value}); err != nil {
		return settings.Settings{}, fmt.Errorf("save %s: %w", key, err)
	}

	current, err := p.Load(ctx)
	if err != nil {
		return current, err
	}
	logger.Debug().Object("settings", current).Msg("saved")

	resp, err := p.sender.Send(ctx, message.UpdateSettings(current))
	if err != nil {
		logger.Info().Err(err).Msg("could not update settings")
		return current, fmt.Errorf("%w: %w", ErrNotPushed, err)
	}
	if resp.Ack != nil {
		logger.Debug().Str("status", resp.Ack.Status).Msg("settings pushed")
	}
	return current, nil
}

// Report is the classified watcher state.
type Report struct {
	Text   string
	Status *message.Status
}

func (r Report) String() string {
	if r.Status == nil {
		return "Status: " + r.Text
	}

	var b strings.Builder
	b.WriteString("Status: ")
	b.WriteString(r.Text)
	fmt.Fprintf(&b, "\nChecks: %s", humanize.Comma(int64(r.Status.CheckCount))) //nolint:gosec //shut up

	switch last := r.Status.LastOpenState; {
	case last == nil:
		b.WriteString("\nQuestion: unknown")
	case *last:
		b.WriteString("\nQuestion: open")
	default:
		b.WriteString("\nQuestion: closed")
	}

	fmt.Fprintf(&b, "\nSound: %s\nNotifications: %s",
		onOff(r.Status.Settings.SoundEnabled),
		onOff(r.Status.Settings.NotificationsEnabled),
	)
	return b.String()
}

func (p *Panel) Status(ctx context.Context) Report {
	resp, err := p.sender.Send(ctx, message.Request{Action: message.ActionGetStatus})
	if err != nil {
		logger := ctxlog.Op(p.logger, "panel.Status")
		logger.Debug().Err(err).Msg("communication error")
		return Report{Text: StatusNotReady}
	}

	switch {
	case resp.Status == nil:
		return Report{Text: StatusNoData}
	case resp.Status.IsMonitoring:
		return Report{Text: StatusActive, Status: resp.Status}
	default:
		return Report{Text: StatusIdle, Status: resp.Status}
	}
}

// TestResult describes what a test alert did.
type TestResult struct {
	SoundPlayed bool
	SoundError  error
	Notified    bool
	// Warning is set when the notification did not go through.
	Warning string
}

// Test plays the cue locally if sound is enabled and asks the watcher for a
// test notification if notifications are enabled.
func (p *Panel) Test(ctx context.Context) (TestResult, error) {
	logger := ctxlog.Op(p.logger, "panel.Test")

	current, err := p.Load(ctx)
	if err != nil {
		return TestResult{}, err
	}

	var res TestResult
	if current.SoundEnabled {
		res.SoundError = p.playCue(ctx)
		res.SoundPlayed = res.SoundError == nil
		if res.SoundError != nil {
			logger.Info().Err(res.SoundError).Msg("could not play sound")
		}
	}

	if !current.NotificationsEnabled {
		return res, nil
	}

	resp, err := p.sender.Send(ctx, message.Request{Action: message.ActionTestNotification})
	switch {
	case err != nil:
		logger.Info().Err(err).Msg("error sending test notification")
		res.Warning = WarnSendFailed
	case resp.Notification == nil || !resp.Notification.Success:
		res.Warning = WarnBlocked
	default:
		res.Notified = true
		logger.Debug().Object("result", resp.Notification).Msg("test notification sent")
	}
	return res, nil
}

func (p *Panel) playCue(ctx context.Context) error {
	if err := p.player.Init(); err != nil {
		return err
	}
	return p.player.Play(ctx)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
