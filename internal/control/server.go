// Package control carries settings-surface requests to the running watcher
// over a loopback QUIC channel.
package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/internal/protocol"
	"github.com/labi-le/clickerwatch/internal/transport"
	"github.com/labi-le/clickerwatch/pkg/ctxlog"
	"github.com/labi-le/clickerwatch/pkg/network"
	"github.com/rs/zerolog"
)

const DefaultAddr = "127.0.0.1:7311"

var (
	// ErrNotReady means the watcher is not running or cannot be reached.
	ErrNotReady      = message.ErrNotReady
	ErrUnknownAction = errors.New("unknown action")
)

// Sender forwards notification requests to the dispatcher.
type Sender interface {
	Send(ctx context.Context, req message.Request) (message.Response, error)
}

type ServerOptions struct {
	Addr     string
	Deadline network.Deadline
	Logger   zerolog.Logger
}

type ServerOption func(*ServerOptions)

//nolint:mnd //shut up
var DefaultServerOptions = ServerOptions{
	Addr:     DefaultAddr,
	Deadline: network.Deadline{Read: 5 * time.Second, Write: 15 * time.Second},
	Logger:   zerolog.Nop(),
}

func WithAddr(addr string) ServerOption {
	return func(o *ServerOptions) { o.Addr = addr }
}

func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(o *ServerOptions) { o.Logger = logger }
}

func WithDeadline(dd network.Deadline) ServerOption {
	return func(o *ServerOptions) { o.Deadline = dd }
}

// Server answers one request per stream. Status, settings and sound requests
// go to the observer; notification requests go to the dispatcher.
type Server struct {
	tr       transport.Transport
	observer message.Handler
	notifier Sender
	opts     ServerOptions

	mu sync.Mutex
	l  transport.Listener
}

func NewServer(tr transport.Transport, observer message.Handler, notifier Sender, opts ...ServerOption) *Server {
	options := DefaultServerOptions
	for _, opt := range opts {
		opt(&options)
	}

	return &Server{tr: tr, observer: observer, notifier: notifier, opts: options}
}

// Listen binds the control address. Serve must follow.
func (s *Server) Listen(ctx context.Context) (net.Addr, error) {
	l, err := s.tr.Listen(ctx, s.opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("control listen %s: %w", s.opts.Addr, err)
	}

	s.mu.Lock()
	s.l = l
	s.mu.Unlock()

	return l.Addr(), nil
}

// Serve accepts connections until ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	logger := ctxlog.Op(s.opts.Logger, "control.Serve")

	s.mu.Lock()
	l := s.l
	s.mu.Unlock()
	if l == nil {
		return errors.New("control: Serve called before Listen")
	}

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	logger.Info().Stringer("addr", l.Addr()).Msg("listening")

	for {
		conn, err := l.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("control accept: %w", err)
		}

		logger.Trace().Stringer("remote", conn.RemoteAddr()).Msg("accepted connection")
		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn transport.Connection) {
	defer conn.Close()

	if !network.IsLoopback(conn.RemoteAddr()) {
		logger := ctxlog.Op(s.opts.Logger, "control.handleConnection")
		logger.Warn().Stringer("remote", conn.RemoteAddr()).Msg("rejected non-loopback client")
		return
	}

	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			return
		}
		go s.handleStream(ctx, stream)
	}
}

func (s *Server) handleStream(ctx context.Context, stream transport.Stream) {
	logger := ctxlog.Op(s.opts.Logger, "control.handleStream")
	defer stream.Close()

	if err := s.opts.Deadline.Apply(stream); err != nil {
		logger.Warn().Err(err).Msg("set deadline")
	}

	req, err := protocol.ReadRequest(stream)
	if err != nil {
		logger.Warn().Err(err).Msg("malformed request")
		_ = stream.Reset()
		return
	}

	resp := s.route(ctx, req)
	if err := protocol.WriteResponse(stream, resp); err != nil {
		logger.Warn().Err(err).Object("request", req).Msg("write response")
	}
}

func (s *Server) route(ctx context.Context, req message.Request) message.Response {
	switch req.Action {
	case message.ActionGetStatus, message.ActionUpdateSettings, message.ActionTestSound:
		return s.observer.Handle(ctx, req)

	case message.ActionShowNotification, message.ActionTestNotification:
		resp, err := s.notifier.Send(ctx, req)
		if err != nil {
			return message.NotifyFailed(err.Error())
		}
		return resp

	default:
		logger := ctxlog.Op(s.opts.Logger, "control.route")
		logger.Warn().Err(ErrUnknownAction).Stringer("action", req.Action).Send()
		return message.Acked(message.StatusUnknownAction)
	}
}
