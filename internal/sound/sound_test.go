package sound_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/labi-le/clickerwatch/internal/sound"
)

func lookup(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestCommand(t *testing.T) {
	type testCase struct {
		name      string
		goos      string
		available []string
		volume    float64
		want      []string
		wantErr   error
	}

	testCases := []testCase{
		{
			name:      "linux paplay",
			goos:      "linux",
			available: []string{"paplay", "aplay"},
			volume:    0.5,
			want:      []string{"/usr/bin/paplay", "--volume=32768", "cue.mp3"},
		},
		{
			name:      "linux falls back to ffplay",
			goos:      "linux",
			available: []string{"ffplay"},
			volume:    0.7,
			want:      []string{"/usr/bin/ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", "70", "cue.mp3"},
		},
		{
			name:      "linux aplay last",
			goos:      "linux",
			available: []string{"aplay"},
			volume:    1,
			want:      []string{"/usr/bin/aplay", "-q", "cue.mp3"},
		},
		{
			name:      "darwin clamps volume",
			goos:      "darwin",
			available: []string{"afplay"},
			volume:    3,
			want:      []string{"/usr/bin/afplay", "-v", "1.00", "cue.mp3"},
		},
		{
			name:      "nothing installed",
			goos:      "freebsd",
			available: nil,
			wantErr:   sound.ErrNoPlayer,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := sound.Command(tc.goos, "cue.mp3", tc.volume, lookup(tc.available...))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("argv mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilePlayer_Init(t *testing.T) {
	dir := t.TempDir()

	unsupported := filepath.Join(dir, "cue.txt")
	if err := os.WriteFile(unsupported, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := sound.NewFilePlayer(filepath.Join(dir, "missing.mp3"), 0.7).Init(); err == nil {
		t.Error("missing file must fail")
	}
	if err := sound.NewFilePlayer(dir, 0.7).Init(); err == nil {
		t.Error("directory must fail")
	}
	if err := sound.NewFilePlayer(unsupported, 0.7).Init(); !errors.Is(err, sound.ErrUnsupportedAudio) {
		t.Errorf("expected ErrUnsupportedAudio, got %v", err)
	}
}

func TestFilePlayer_PlayBeforeInit(t *testing.T) {
	p := sound.NewFilePlayer("cue.mp3", 0.7)
	if err := p.Play(t.Context()); !errors.Is(err, sound.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}
