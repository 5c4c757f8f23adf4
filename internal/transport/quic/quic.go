package quic

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"time"

	"github.com/labi-le/clickerwatch/internal/transport"
	"github.com/quic-go/quic-go"
)

type Options struct {
	KeepAlive time.Duration
	// IdleTimeout closes connections the panel forgot about.
	IdleTimeout      time.Duration
	HandshakeTimeout time.Duration
}

//nolint:mnd //shut up
var DefaultOptions = Options{
	KeepAlive:        10 * time.Second,
	IdleTimeout:      30 * time.Second,
	HandshakeTimeout: 3 * time.Second,
}

type Transport struct {
	tlsConf  *tls.Config
	quicConf *quic.Config
}

func New(tlsConf *tls.Config, opts Options) *Transport {
	return &Transport{
		tlsConf: tlsConf,
		quicConf: &quic.Config{
			KeepAlivePeriod:      opts.KeepAlive,
			MaxIdleTimeout:       opts.IdleTimeout,
			HandshakeIdleTimeout: opts.HandshakeTimeout,
		},
	}
}

var _ transport.Transport = (*Transport)(nil)

func (t *Transport) Listen(_ context.Context, addr string) (transport.Listener, error) {
	l, err := quic.ListenAddr(addr, t.tlsConf, t.quicConf)
	if err != nil {
		return nil, mapQuicError(err)
	}
	return &listener{l}, nil
}

func (t *Transport) Dial(ctx context.Context, addr string) (transport.Connection, error) {
	conn, err := quic.DialAddr(ctx, addr, t.tlsConf, t.quicConf)
	if err != nil {
		return nil, mapQuicError(err)
	}
	return &connection{conn: conn}, nil
}

type listener struct {
	l *quic.Listener
}

func (a *listener) Accept(ctx context.Context) (transport.Connection, error) {
	conn, err := a.l.Accept(ctx)
	if err != nil {
		return nil, mapQuicError(err)
	}
	return &connection{conn: conn}, nil
}

func (a *listener) Close() error   { return mapQuicError(a.l.Close()) }
func (a *listener) Addr() net.Addr { return a.l.Addr() }

type connection struct {
	conn *quic.Conn
}

func (c *connection) OpenStream(ctx context.Context) (transport.Stream, error) {
	s, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, mapQuicError(err)
	}
	return stream{s}, nil
}

func (c *connection) AcceptStream(ctx context.Context) (transport.Stream, error) {
	s, err := c.conn.AcceptStream(ctx)
	if err != nil {
		return nil, mapQuicError(err)
	}
	return stream{s}, nil
}

func (c *connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *connection) Close() error {
	return c.conn.CloseWithError(codeDone, "done")
}

type stream struct {
	*quic.Stream
}

func (s stream) Read(p []byte) (int, error) {
	n, err := s.Stream.Read(p)
	return n, mapQuicError(err)
}

func (s stream) Write(p []byte) (int, error) {
	n, err := s.Stream.Write(p)
	return n, mapQuicError(err)
}

func (s stream) Reset() error {
	s.CancelRead(codeCanceled)
	s.CancelWrite(codeCanceled)
	return nil
}

const (
	codeCanceled quic.StreamErrorCode      = 0
	codeDone     quic.ApplicationErrorCode = 0
)

func mapQuicError(err error) error {
	if err == nil {
		return nil
	}

	var streamErr *quic.StreamError
	if errors.As(err, &streamErr) && streamErr.ErrorCode == codeCanceled {
		return transport.ErrStreamCanceled
	}

	var appErr *quic.ApplicationError
	if errors.As(err, &appErr) && appErr.ErrorCode == codeDone {
		return errors.Join(transport.ErrConnectionClosed, err)
	}

	return err
}
