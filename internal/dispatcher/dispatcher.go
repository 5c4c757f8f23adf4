package dispatcher

import (
	"context"
	"fmt"

	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/internal/notification"
	"github.com/labi-le/clickerwatch/internal/settings"
	"github.com/labi-le/clickerwatch/pkg/ctxlog"
	"github.com/labi-le/clickerwatch/pkg/id"
	"github.com/rs/zerolog"
)

const (
	DefaultTitle   = "Clicker Notification"
	DefaultMessage = "Question status has changed"

	TestTitle   = "Test Notification"
	TestMessage = "This is a test notification from Clicker Watch"
)

type Options struct {
	// Icon is a path to the image shown next to every notification.
	Icon   string
	Logger zerolog.Logger
	// NewID names each raised notification.
	NewID func() string
}

type Option func(*Options)

var DefaultOptions = Options{
	Logger: zerolog.Nop(),
	NewID:  id.NewString,
}

func WithIcon(path string) Option {
	return func(o *Options) { o.Icon = path }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func WithIDs(fn func() string) Option {
	return func(o *Options) { o.NewID = fn }
}

// Dispatcher is the only component allowed to raise system notifications.
type Dispatcher struct {
	notifier notification.Notifier
	opts     Options
}

func New(notifier notification.Notifier, opts ...Option) *Dispatcher {
	options := DefaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	return &Dispatcher{notifier: notifier, opts: options}
}

var _ message.Handler = (*Dispatcher)(nil)

// Handle always answers: a notifier failure, or a panic inside it, becomes
// an unsuccessful result instead of an error.
func (d *Dispatcher) Handle(_ context.Context, req message.Request) message.Response {
	logger := ctxlog.Action(d.opts.Logger, "dispatcher.Handle", req.Action.String())
	logger.Debug().Object("request", req).Msg("message received")

	var n notification.Notification
	switch req.Action {
	case message.ActionShowNotification:
		n = notification.Notification{
			Title:   orDefault(req.Title, DefaultTitle),
			Message: orDefault(req.Message, DefaultMessage),
		}
	case message.ActionTestNotification:
		n = notification.Notification{Title: TestTitle, Message: TestMessage}
	default:
		return message.Acked(message.StatusUnknownAction)
	}
	n.Icon = d.opts.Icon
	n.Priority = notification.PriorityHigh

	resp := d.raise(n)
	if resp.Notification.Success {
		logger.Info().Object("result", resp.Notification).Msg("notification created")
	} else {
		logger.Error().Object("result", resp.Notification).Msg("error creating notification")
	}
	return resp
}

func (d *Dispatcher) raise(n notification.Notification) (resp message.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = message.NotifyFailed(fmt.Sprintf("notifier panic: %v", r))
		}
	}()

	if err := d.notifier.Notify(n); err != nil {
		return message.NotifyFailed(err.Error())
	}
	return message.Notified(d.opts.NewID())
}

// Serve answers bus requests until ctx ends.
func (d *Dispatcher) Serve(ctx context.Context, bus *message.Bus) {
	bus.Serve(ctx, d)
}

// Install writes the default value of every missing settings key. Keys that
// already hold a value are left untouched.
func (d *Dispatcher) Install(ctx context.Context, store settings.Store) error {
	logger := ctxlog.Op(d.opts.Logger, "dispatcher.Install")

	written, err := settings.EnsureDefaults(ctx, store)
	if err != nil {
		return fmt.Errorf("install defaults: %w", err)
	}

	if len(written) == 0 {
		logger.Debug().Msg("settings already initialized")
		return nil
	}
	logger.Info().Interface("defaults", written).Msg("default settings written")
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
