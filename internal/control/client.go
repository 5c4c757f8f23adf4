package control

import (
	"context"
	"fmt"
	"time"

	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/internal/protocol"
	"github.com/labi-le/clickerwatch/internal/transport"
	"github.com/labi-le/clickerwatch/pkg/network"
)

type Client struct {
	tr       transport.Transport
	addr     string
	deadline network.Deadline
	dialWait time.Duration
}

type ClientOption func(*Client)

// WithDialTimeout bounds how long an unreachable watcher is waited for.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.dialWait = d }
}

//nolint:mnd //shut up
func NewClient(tr transport.Transport, addr string, opts ...ClientOption) *Client {
	c := &Client{
		tr:       tr,
		addr:     addr,
		deadline: network.Deadline{Read: 15 * time.Second, Write: 5 * time.Second},
		dialWait: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send delivers one request to the watcher. Any failure to reach it is
// reported as ErrNotReady.
func (c *Client) Send(ctx context.Context, req message.Request) (message.Response, error) {
	dctx, cancel := context.WithTimeout(ctx, c.dialWait)
	defer cancel()

	conn, err := c.tr.Dial(dctx, c.addr)
	if err != nil {
		return message.Response{}, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	defer conn.Close()

	stream, err := conn.OpenStream(dctx)
	if err != nil {
		return message.Response{}, fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	if err := c.deadline.Apply(stream); err != nil {
		return message.Response{}, err
	}

	if err := protocol.WriteRequest(stream, req); err != nil {
		return message.Response{}, fmt.Errorf("%w: send %s: %w", ErrNotReady, req.Action, err)
	}
	_ = stream.Close()

	resp, err := protocol.ReadResponse(stream)
	if err != nil {
		return message.Response{}, fmt.Errorf("%w: receive %s: %w", ErrNotReady, req.Action, err)
	}
	return resp, nil
}
