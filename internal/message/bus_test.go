package message_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/stretchr/testify/require"
)

func TestBus_NotReadyWithoutReceiver(t *testing.T) {
	bus := message.NewBus(0)

	_, err := bus.Send(t.Context(), message.Request{Action: message.ActionTestNotification})
	if !errors.Is(err, message.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestBus_RequestResponse(t *testing.T) {
	bus := message.NewBus(0)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	go bus.Serve(ctx, message.HandlerFunc(func(_ context.Context, req message.Request) message.Response {
		return message.Notified("id-" + req.Title)
	}))
	require.Eventually(t, bus.Ready, time.Second, time.Millisecond)

	resp, err := bus.Send(t.Context(), message.ShowNotification("a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Notification == nil || resp.Notification.ID != "id-a" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestBus_IndependentRequests(t *testing.T) {
	bus := message.NewBus(0)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var calls atomic.Int64
	go bus.Serve(ctx, message.HandlerFunc(func(_ context.Context, req message.Request) message.Response {
		calls.Add(1)
		return message.Notified(req.Title)
	}))
	require.Eventually(t, bus.Ready, time.Second, time.Millisecond)

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			title := string(rune('A' + i%26))
			resp, err := bus.Send(t.Context(), message.ShowNotification(title, ""))
			if err != nil {
				t.Errorf("send: %v", err)
				return
			}
			if resp.Notification.ID != title {
				t.Errorf("response crossed requests: want %s got %s", title, resp.Notification.ID)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != n {
		t.Errorf("expected %d handler calls, got %d", n, calls.Load())
	}
}

func TestEnvelope_RespondsOnce(t *testing.T) {
	env := message.NewEnvelope(message.Request{Action: message.ActionTestSound})

	if !env.Respond(message.Acked("first")) {
		t.Fatal("first respond must complete the envelope")
	}
	if env.Respond(message.Acked("second")) {
		t.Fatal("second respond must be ignored")
	}

	resp, err := env.Reply(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if resp.Ack.Status != "first" {
		t.Fatalf("expected first response, got %q", resp.Ack.Status)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	if _, err := env.Reply(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("no second response expected, got %v", err)
	}
}
