package observer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/internal/page"
	"github.com/labi-le/clickerwatch/internal/settings"
	"github.com/labi-le/clickerwatch/internal/sound"
	"github.com/labi-le/clickerwatch/pkg/ctxlog"
	"github.com/rs/zerolog"
)

// Sender delivers a request to the notification dispatcher.
type Sender interface {
	Send(ctx context.Context, req message.Request) (message.Response, error)
}

type Options struct {
	Interval      time.Duration
	SampleTimeout time.Duration
	EffectTimeout time.Duration
	Title         string
	Message       string
	Logger        zerolog.Logger
}

type Option func(*Options)

//nolint:mnd //shut up
var DefaultOptions = Options{
	Interval:      500 * time.Millisecond,
	SampleTimeout: 5 * time.Second,
	EffectTimeout: 10 * time.Second,
	Title:         "Clicker Question Opened!",
	Message:       "A new question is now open for responses.",
	Logger:        zerolog.Nop(),
}

func WithInterval(d time.Duration) Option {
	return func(o *Options) { o.Interval = d }
}

func WithSampleTimeout(d time.Duration) Option {
	return func(o *Options) { o.SampleTimeout = d }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

func WithText(title, msg string) Option {
	return func(o *Options) {
		o.Title = title
		o.Message = msg
	}
}

// Observer owns the monitoring session: it samples the page on a fixed
// period and fires the sound and notification effects on every Closed -> Open edge.
type Observer struct {
	sampler page.Sampler
	player  sound.Player
	sender  Sender
	store   settings.Store
	opts    Options

	mu         sync.Mutex
	session    *session
	last       page.State
	settings   settings.Settings
	audioReady bool

	checkCount atomic.Uint64
	effects    sync.WaitGroup
}

type session struct {
	cancel   context.CancelFunc
	detector Detector
	failing  bool
}

func New(
	sampler page.Sampler,
	player sound.Player,
	sender Sender,
	store settings.Store,
	opts ...Option,
) *Observer {
	options := DefaultOptions
	for _, opt := range opts {
		opt(&options)
	}

	return &Observer{
		sampler:  sampler,
		player:   player,
		sender:   sender,
		store:    store,
		opts:     options,
		settings: settings.Default(),
	}
}

// Start (re)initializes audio and settings, drops any running session and
// starts a new one with a fresh baseline. The session lives until Stop or
// until ctx ends.
func (o *Observer) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.startLocked(ctx)
}

// EnsureRunning starts monitoring only when no session is active.
func (o *Observer) EnsureRunning(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		return false
	}
	o.startLocked(ctx)
	return true
}

func (o *Observer) startLocked(ctx context.Context) {
	logger := ctxlog.Op(o.opts.Logger, "observer.Start")

	o.stopLocked()

	if err := o.player.Init(); err != nil {
		o.audioReady = false
		logger.Error().Err(err).Msg("error initializing audio")
	} else {
		o.audioReady = true
		logger.Debug().Msg("audio initialized")
	}

	loaded, err := settings.Load(ctx, o.store)
	if err != nil {
		logger.Warn().Err(err).Object("settings", o.settings).Msg("keeping current settings")
	} else {
		o.settings = loaded
		logger.Debug().Object("settings", loaded).Msg("settings loaded")
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &session{cancel: cancel}
	o.session = s
	o.last = page.Unknown

	go o.run(sctx, s)

	logger.Info().Dur("interval", o.opts.Interval).Msg("monitoring started")
}

// Stop halts future ticks. Effects already in flight are left to finish.
func (o *Observer) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopLocked()
}

func (o *Observer) stopLocked() {
	if o.session == nil {
		return
	}
	o.session.cancel()
	o.session = nil
}

func (o *Observer) run(ctx context.Context, s *session) {
	ticker := time.NewTicker(o.opts.Interval)
	defer func() {
		ticker.Stop()

		o.mu.Lock()
		if o.session == s {
			o.session = nil
		}
		o.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.tick(ctx, s)
		}
	}
}

func (o *Observer) tick(ctx context.Context, s *session) {
	logger := ctxlog.Op(o.opts.Logger, "observer.tick")
	o.checkCount.Add(1)

	sctx, cancel := context.WithTimeout(ctx, o.opts.SampleTimeout)
	cur, err := o.sampler.Sample(sctx)
	cancel()

	o.mu.Lock()
	if o.session != s {
		o.mu.Unlock()
		return
	}

	if err != nil {
		if !s.failing {
			logger.Warn().Err(err).Msg("error checking question state, treating as closed")
		} else {
			logger.Trace().Err(err).Msg("sample failed")
		}
		s.failing = true
		cur = page.Closed
	} else {
		s.failing = false
	}

	baseline := s.detector.Last() == page.Unknown
	edge := s.detector.Observe(cur)
	o.last = cur

	// effects are registered under the lock so Stop followed by Wait sees them.
	if edge {
		logger.Info().Msg("question opened")
		o.fire(ctx, o.settings, o.audioReady)
	}
	o.mu.Unlock()

	if baseline {
		logger.Info().Stringer("state", cur).Msg("initial state recorded")
	}
}

// fire runs the effects detached from the session so stopping monitoring
// does not abort them. Called with o.mu held; it only spawns goroutines.
func (o *Observer) fire(ctx context.Context, current settings.Settings, audioReady bool) {
	ectx := context.WithoutCancel(ctx)

	if current.SoundEnabled && audioReady {
		o.effects.Add(1)
		go func() {
			defer o.effects.Done()
			o.playCue(ectx)
		}()
	}

	if current.NotificationsEnabled {
		o.effects.Add(1)
		go func() {
			defer o.effects.Done()
			o.notify(ectx)
		}()
	}
}

func (o *Observer) playCue(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.EffectTimeout)
	defer cancel()

	if err := o.player.Play(ctx); err != nil {
		logger := ctxlog.Op(o.opts.Logger, "observer.playCue")
		logger.Error().Err(err).Msg("could not play notification sound")
	}
}

func (o *Observer) notify(ctx context.Context) {
	logger := ctxlog.Op(o.opts.Logger, "observer.notify")

	ctx, cancel := context.WithTimeout(ctx, o.opts.EffectTimeout)
	defer cancel()

	resp, err := o.sender.Send(ctx, message.ShowNotification(o.opts.Title, o.opts.Message))
	if err != nil {
		logger.Error().Err(err).Msg("error sending notification")
		return
	}
	if resp.Notification == nil {
		logger.Error().Msg("dispatcher answered without a notification result")
		return
	}
	logger.Info().Object("result", resp.Notification).Msg("notification result")
}

// Wait blocks until every effect fired so far has finished.
func (o *Observer) Wait() {
	o.effects.Wait()
}

func (o *Observer) Monitoring() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session != nil
}

// Follow restarts monitoring on page load and visibility events, but only
// when no session is active.
func (o *Observer) Follow(ctx context.Context, events <-chan page.Event) {
	logger := ctxlog.Op(o.opts.Logger, "observer.Follow")

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if o.EnsureRunning(ctx) {
				logger.Info().Stringer("event", ev).Msg("restarted monitoring")
			} else {
				logger.Trace().Stringer("event", ev).Msg("monitoring already active")
			}
		}
	}
}
