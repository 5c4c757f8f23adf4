// Package transport is the connection layer under the control channel. The
// CLI and the running watcher only ever talk over loopback, one short stream
// per command.
package transport

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/labi-le/clickerwatch/pkg/network"
)

var (
	ErrStreamCanceled   = errors.New("control stream canceled by peer")
	ErrConnectionClosed = errors.New("control connection closed")
)

// Stream carries exactly one control request and its response.
type Stream interface {
	io.ReadWriter
	// Close ends the write direction; the peer reads io.EOF after the last frame.
	io.Closer
	network.DeadlineSetter
	// Reset abandons the exchange, used when a request cannot be decoded.
	Reset() error
}

// Connection is one CLI invocation. The client opens a single stream, the
// watcher accepts it.
type Connection interface {
	OpenStream(ctx context.Context) (Stream, error)
	AcceptStream(ctx context.Context) (Stream, error)

	// RemoteAddr is checked against loopback before any stream is served.
	RemoteAddr() net.Addr
	Close() error
}

type Listener interface {
	Accept(ctx context.Context) (Connection, error)
	Close() error
	Addr() net.Addr
}

type Transport interface {
	Listen(ctx context.Context, addr string) (Listener, error)
	Dial(ctx context.Context, addr string) (Connection, error)
}
