package control_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/labi-le/clickerwatch/internal/control"
	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/internal/security"
	"github.com/labi-le/clickerwatch/internal/settings"
	"github.com/labi-le/clickerwatch/internal/transport/quic"
	"github.com/labi-le/clickerwatch/pkg/ptr"
	"github.com/rs/zerolog"
)

type recording struct {
	mu   sync.Mutex
	seen []message.Action
	resp message.Response
	err  error
}

func (r *recording) record(a message.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, a)
}

func (r *recording) actions() []message.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]message.Action(nil), r.seen...)
}

func (r *recording) Handle(_ context.Context, req message.Request) message.Response {
	r.record(req.Action)
	return r.resp
}

func (r *recording) Send(_ context.Context, req message.Request) (message.Response, error) {
	r.record(req.Action)
	return r.resp, r.err
}

func transportFor(t *testing.T, secret string) *quic.Transport {
	t.Helper()

	conf, err := security.MakeTLSConfig(secret, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return quic.New(conf, quic.DefaultOptions)
}

func startServer(t *testing.T, observer, notifier *recording, opts ...control.ServerOption) string {
	t.Helper()

	opts = append([]control.ServerOption{control.WithAddr("127.0.0.1:0")}, opts...)
	srv := control.NewServer(transportFor(t, "s3cret"), observer, notifier, opts...)
	addr, err := srv.Listen(t.Context())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("serve: %v", err)
		}
	})

	return addr.String()
}

func TestControl_Routing(t *testing.T) {
	status := message.Response{Status: &message.Status{
		IsMonitoring:  true,
		LastOpenState: ptr.Of(false),
		Settings:      settings.Default(),
		CheckCount:    12,
	}}

	observer := &recording{resp: status}
	notifier := &recording{resp: message.Notified("7")}
	client := control.NewClient(transportFor(t, "s3cret"), startServer(t, observer, notifier))

	type testCase struct {
		name string
		req  message.Request
		want message.Response
	}

	testCases := []testCase{
		{name: "status", req: message.Request{Action: message.ActionGetStatus}, want: status},
		{name: "notify", req: message.ShowNotification("t", "m"), want: message.Notified("7")},
		{name: "test notification", req: message.Request{Action: message.ActionTestNotification}, want: message.Notified("7")},
		{name: "unknown", req: message.Request{Action: "reload"}, want: message.Acked(message.StatusUnknownAction)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := client.Send(t.Context(), tc.req)
			if err != nil {
				t.Fatalf("send: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}

	wantObserved := []message.Action{message.ActionGetStatus}
	if diff := cmp.Diff(wantObserved, observer.actions()); diff != "" {
		t.Errorf("observer routing (-want +got):\n%s", diff)
	}
	wantNotified := []message.Action{message.ActionShowNotification, message.ActionTestNotification}
	if diff := cmp.Diff(wantNotified, notifier.actions()); diff != "" {
		t.Errorf("dispatcher routing (-want +got):\n%s", diff)
	}
}

type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestControl_UnknownActionIsLogged(t *testing.T) {
	var logs logBuffer
	addr := startServer(t, &recording{}, &recording{}, control.WithServerLogger(zerolog.New(&logs)))
	client := control.NewClient(transportFor(t, "s3cret"), addr)

	got, err := client.Send(t.Context(), message.Request{Action: "reload"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if diff := cmp.Diff(message.Acked(message.StatusUnknownAction), got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	out := logs.String()
	for _, want := range []string{`"level":"warn"`, `"op":"control.route"`, `"action":"reload"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %s", out, want)
		}
	}
}

func TestControl_DispatcherUnavailable(t *testing.T) {
	notifier := &recording{err: message.ErrNotReady}
	client := control.NewClient(transportFor(t, "s3cret"), startServer(t, new(recording), notifier))

	got, err := client.Send(t.Context(), message.ShowNotification("t", "m"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Notification == nil || got.Notification.Success || got.Notification.Error == "" {
		t.Fatalf("expected failed notification result, got %+v", got)
	}
}

func TestControl_NotReady(t *testing.T) {
	type testCase struct {
		name   string
		secret string
		addr   func(t *testing.T) string
	}

	testCases := []testCase{
		{
			name:   "nothing listening",
			secret: "s3cret",
			addr:   func(*testing.T) string { return "127.0.0.1:1" },
		},
		{
			name:   "wrong secret",
			secret: "other",
			addr: func(t *testing.T) string {
				return startServer(t, new(recording), new(recording))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := control.NewClient(
				transportFor(t, tc.secret),
				tc.addr(t),
				control.WithDialTimeout(300*time.Millisecond),
			)

			_, err := client.Send(t.Context(), message.Request{Action: message.ActionGetStatus})
			if !errors.Is(err, control.ErrNotReady) {
				t.Fatalf("expected ErrNotReady, got %v", err)
			}
		})
	}
}
