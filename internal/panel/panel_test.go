package panel_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/internal/panel"
	"github.com/labi-le/clickerwatch/internal/settings"
	"github.com/labi-le/clickerwatch/internal/sound"
	"github.com/labi-le/clickerwatch/pkg/ptr"
	"github.com/rs/zerolog"
)

type watcher struct {
	reqs []message.Request
	resp message.Response
	err  error
}

func (w *watcher) Send(_ context.Context, req message.Request) (message.Response, error) {
	w.reqs = append(w.reqs, req)
	return w.resp, w.err
}

type player struct {
	plays int
	err   error
}

func (p *player) Init() error { return nil }

func (p *player) Play(context.Context) error {
	p.plays++
	return p.err
}

func TestPanel_LoadWritesMissingDefaults(t *testing.T) {
	store := settings.NewMemoryStore(map[string]bool{settings.KeySound: false})
	p := panel.New(store, new(watcher), sound.Null{}, zerolog.Nop())

	got, err := p.Load(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	want := settings.Settings{SoundEnabled: false, NotificationsEnabled: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}

	stored, _ := store.Get(t.Context(), settings.Keys...)
	if diff := cmp.Diff(map[string]bool{settings.KeySound: false, settings.KeyNotifications: true}, stored); diff != "" {
		t.Errorf("store mismatch (-want +got):\n%s", diff)
	}
}

func TestPanel_Toggle(t *testing.T) {
	t.Run("persists and pushes", func(t *testing.T) {
		store := settings.NewMemoryStore(nil)
		w := &watcher{resp: message.Acked("Settings updated successfully")}
		p := panel.New(store, w, sound.Null{}, zerolog.Nop())

		got, err := p.Toggle(t.Context(), settings.KeySound, false)
		if err != nil {
			t.Fatal(err)
		}

		want := settings.Settings{SoundEnabled: false, NotificationsEnabled: true}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("settings mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]message.Request{message.UpdateSettings(want)}, w.reqs); diff != "" {
			t.Errorf("push mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("watcher down keeps saved value", func(t *testing.T) {
		store := settings.NewMemoryStore(nil)
		p := panel.New(store, &watcher{err: message.ErrNotReady}, sound.Null{}, zerolog.Nop())

		_, err := p.Toggle(t.Context(), settings.KeyNotifications, false)
		if !errors.Is(err, panel.ErrNotPushed) || !errors.Is(err, message.ErrNotReady) {
			t.Fatalf("expected ErrNotPushed wrapping ErrNotReady, got %v", err)
		}

		loaded, _ := settings.Load(t.Context(), store)
		if loaded.NotificationsEnabled {
			t.Fatal("value must stay persisted when the push fails")
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		store := settings.NewMemoryStore(nil)
		w := new(watcher)
		p := panel.New(store, w, sound.Null{}, zerolog.Nop())

		if _, err := p.Toggle(t.Context(), "volume", true); !errors.Is(err, panel.ErrUnknownKey) {
			t.Fatalf("expected ErrUnknownKey, got %v", err)
		}
		if store.Writes() != 0 || len(w.reqs) != 0 {
			t.Fatal("unknown key must not touch store or watcher")
		}
	})
}

func TestPanel_Status(t *testing.T) {
	type testCase struct {
		name string
		w    *watcher
		want string
	}

	testCases := []testCase{
		{
			name: "monitoring",
			w:    &watcher{resp: message.Response{Status: &message.Status{IsMonitoring: true}}},
			want: panel.StatusActive,
		},
		{
			name: "idle",
			w:    &watcher{resp: message.Response{Status: &message.Status{}}},
			want: panel.StatusIdle,
		},
		{
			name: "empty answer",
			w:    &watcher{resp: message.Response{}},
			want: panel.StatusNoData,
		},
		{
			name: "unreachable",
			w:    &watcher{err: message.ErrNotReady},
			want: panel.StatusNotReady,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := panel.New(settings.NewMemoryStore(nil), tc.w, sound.Null{}, zerolog.Nop())

			if got := p.Status(t.Context()).Text; got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestReport_String(t *testing.T) {
	r := panel.Report{
		Text: panel.StatusActive,
		Status: &message.Status{
			IsMonitoring:  true,
			LastOpenState: ptr.Of(true),
			Settings:      settings.Settings{SoundEnabled: true},
			CheckCount:    12345,
		},
	}

	want := strings.Join([]string{
		"Status: Active & Monitoring",
		"Checks: 12,345",
		"Question: open",
		"Sound: on",
		"Notifications: off",
	}, "\n")
	if diff := cmp.Diff(want, r.String()); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}

	if got := (panel.Report{Text: panel.StatusNotReady}).String(); got != "Status: Content script not ready" {
		t.Errorf("unexpected %q", got)
	}
}

func TestPanel_Test(t *testing.T) {
	type testCase struct {
		name      string
		stored    map[string]bool
		w         *watcher
		playErr   error
		wantPlays int
		wantSent  int
		want      panel.TestResult
	}

	testCases := []testCase{
		{
			name:      "both enabled",
			w:         &watcher{resp: message.Notified("1")},
			wantPlays: 1,
			wantSent:  1,
			want:      panel.TestResult{SoundPlayed: true, Notified: true},
		},
		{
			name:     "sound disabled",
			stored:   map[string]bool{settings.KeySound: false},
			w:        &watcher{resp: message.Notified("1")},
			wantSent: 1,
			want:     panel.TestResult{Notified: true},
		},
		{
			name:      "notifications disabled",
			stored:    map[string]bool{settings.KeyNotifications: false},
			w:         new(watcher),
			wantPlays: 1,
			want:      panel.TestResult{SoundPlayed: true},
		},
		{
			name:      "notification denied",
			w:         &watcher{resp: message.NotifyFailed("permission denied")},
			wantPlays: 1,
			wantSent:  1,
			want:      panel.TestResult{SoundPlayed: true, Warning: panel.WarnBlocked},
		},
		{
			name:      "watcher down",
			w:         &watcher{err: message.ErrNotReady},
			wantPlays: 1,
			wantSent:  1,
			want:      panel.TestResult{SoundPlayed: true, Warning: panel.WarnSendFailed},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pl := &player{err: tc.playErr}
			p := panel.New(settings.NewMemoryStore(tc.stored), tc.w, pl, zerolog.Nop())

			got, err := p.Test(t.Context())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
			if pl.plays != tc.wantPlays {
				t.Errorf("expected %d plays, got %d", tc.wantPlays, pl.plays)
			}
			if len(tc.w.reqs) != tc.wantSent {
				t.Errorf("expected %d requests, got %d", tc.wantSent, len(tc.w.reqs))
			}
		})
	}
}

func TestPanel_TestSoundFailure(t *testing.T) {
	pl := &player{err: sound.ErrNoPlayer}
	p := panel.New(settings.NewMemoryStore(nil), &watcher{resp: message.Notified("1")}, pl, zerolog.Nop())

	got, err := p.Test(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if got.SoundPlayed || !errors.Is(got.SoundError, sound.ErrNoPlayer) {
		t.Fatalf("expected sound failure, got %+v", got)
	}
	if !got.Notified {
		t.Fatal("notification must still go out")
	}
}
