package message

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotReady is returned when the receiving context is not serving requests.
var ErrNotReady = errors.New("receiver not ready")

// Handler answers a request. Implementations must always return a terminal response.
type Handler interface {
	Handle(ctx context.Context, req Request) Response
}

type HandlerFunc func(ctx context.Context, req Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Envelope carries a request together with its one-shot reply.
type Envelope struct {
	Request Request

	reply chan Response
	once  sync.Once
}

func NewEnvelope(req Request) *Envelope {
	return &Envelope{
		Request: req,
		reply:   make(chan Response, 1),
	}
}

// Respond completes the envelope. Only the first call has an effect; it reports
// whether this call was the one that completed it.
func (e *Envelope) Respond(resp Response) bool {
	sent := false
	e.once.Do(func() {
		e.reply <- resp
		sent = true
	})
	return sent
}

// Reply waits for the response or the end of ctx.
func (e *Envelope) Reply(ctx context.Context) (Response, error) {
	select {
	case resp := <-e.reply:
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Bus is an in-process request/response channel between two contexts.
// Every request is independent; there is no correlation between in-flight envelopes.
type Bus struct {
	inbox   chan *Envelope
	serving atomic.Int32
}

func NewBus(buffer int) *Bus {
	return &Bus{inbox: make(chan *Envelope, buffer)}
}

// Send delivers req and waits for its single response.
func (b *Bus) Send(ctx context.Context, req Request) (Response, error) {
	if b.serving.Load() == 0 {
		return Response{}, ErrNotReady
	}

	env := NewEnvelope(req)
	select {
	case b.inbox <- env:
	case <-ctx.Done():
		return Response{}, errors.Join(ErrNotReady, ctx.Err())
	}

	return env.Reply(ctx)
}

// Serve hands every envelope to h until ctx ends. Each envelope is answered
// on its own goroutine so a slow notification does not hold up the next one.
func (b *Bus) Serve(ctx context.Context, h Handler) {
	b.serving.Add(1)
	defer b.serving.Add(-1)

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-b.inbox:
			go func() {
				env.Respond(h.Handle(ctx, env.Request))
			}()
		}
	}
}

// Ready reports whether a receiver is serving.
func (b *Bus) Ready() bool {
	return b.serving.Load() > 0
}
