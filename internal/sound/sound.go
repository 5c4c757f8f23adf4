// Package sound plays the local audio cue raised when a question opens.
package sound

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/gen2brain/beeep"
)

var (
	ErrNotInitialized   = errors.New("audio not initialized")
	ErrUnsupportedAudio = errors.New("unsupported audio format")
	ErrNoPlayer         = errors.New("no audio player available")
)

// Player plays a pre-loaded cue. Init may be called again to reload it.
type Player interface {
	Init() error
	Play(ctx context.Context) error
}

// Beeper plays a plain tone through the platform speaker.
type Beeper struct {
	Freq     float64
	Duration int
}

func NewBeeper() *Beeper {
	return &Beeper{Freq: beeep.DefaultFreq, Duration: beeep.DefaultDuration}
}

func (b *Beeper) Init() error { return nil }

func (b *Beeper) Play(context.Context) error {
	return beeep.Beep(b.Freq, b.Duration)
}

var supportedExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".aiff": true,
	".m4a":  true,
}

// FilePlayer plays an audio file through the platform's command line player.
type FilePlayer struct {
	Path string
	// Volume in the 0..1 range.
	Volume float64

	goos string
	argv []string
}

func NewFilePlayer(path string, volume float64) *FilePlayer {
	return &FilePlayer{Path: path, Volume: volume, goos: runtime.GOOS}
}

// Init validates the file and resolves the player binary.
func (f *FilePlayer) Init() error {
	f.argv = nil

	info, err := os.Stat(f.Path)
	if err != nil {
		return fmt.Errorf("sound file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("sound file %s is a directory", f.Path)
	}

	ext := strings.ToLower(filepath.Ext(f.Path))
	if !supportedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedAudio, ext)
	}

	argv, err := Command(f.goos, f.Path, f.Volume, exec.LookPath)
	if err != nil {
		return err
	}
	f.argv = argv
	return nil
}

func (f *FilePlayer) Play(ctx context.Context) error {
	if len(f.argv) == 0 {
		return ErrNotInitialized
	}

	//nolint:gosec // argv is built from a resolved player and a validated path
	cmd := exec.CommandContext(ctx, f.argv[0], f.argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", f.argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Command builds the argv that plays path at volume on goos, using lookPath
// to pick the first available player.
func Command(goos, path string, volume float64, lookPath func(string) (string, error)) ([]string, error) {
	volume = min(max(volume, 0), 1)

	switch goos {
	case "darwin":
		if bin, err := lookPath("afplay"); err == nil {
			return []string{bin, "-v", strconv.FormatFloat(volume, 'f', 2, 64), path}, nil
		}
	case "windows":
		if bin, err := lookPath("powershell"); err == nil {
			script := fmt.Sprintf(
				"$p = New-Object System.Windows.Media.MediaPlayer; $p.Open([uri]'%s'); $p.Volume = %s; $p.Play(); Start-Sleep -s 3",
				strings.ReplaceAll(path, "'", "''"),
				strconv.FormatFloat(volume, 'f', 2, 64),
			)
			return []string{bin, "-NoProfile", "-Command", "Add-Type -AssemblyName presentationCore; " + script}, nil
		}
	default:
		if bin, err := lookPath("paplay"); err == nil {
			// paplay volume is linear, 65536 is 100%.
			return []string{bin, "--volume=" + strconv.Itoa(int(volume*65536)), path}, nil
		}
		if bin, err := lookPath("ffplay"); err == nil {
			return []string{bin, "-nodisp", "-autoexit", "-loglevel", "quiet",
				"-volume", strconv.Itoa(int(volume * 100)), path}, nil
		}
		if bin, err := lookPath("aplay"); err == nil {
			return []string{bin, "-q", path}, nil
		}
	}

	return nil, fmt.Errorf("%w on %s", ErrNoPlayer, goos)
}

// Null never plays anything.
type Null struct{}

func (Null) Init() error                { return nil }
func (Null) Play(context.Context) error { return nil }
