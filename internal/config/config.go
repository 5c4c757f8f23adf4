// Package config resolves the watcher configuration from defaults, a JSON
// file, CLICKERWATCH_* environment variables and command line flags, in that
// order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/labi-le/clickerwatch/internal/control"
	"github.com/labi-le/clickerwatch/internal/page"
	flag "github.com/spf13/pflag"
)

const (
	EnvPrefix = "CLICKERWATCH_"
	appDir    = "clickerwatch"

	DriverHTTP    = "http"
	DriverBrowser = "browser"
)

type Config struct {
	URL       string `koanf:"url" validate:"required,url"`
	Selector  string `koanf:"selector" validate:"required"`
	OpenClass string `koanf:"open_class" validate:"required"`
	Driver    string `koanf:"driver" validate:"oneof=http browser"`
	// Cookie is sent with every HTTP sample, for pages behind a login.
	Cookie string `koanf:"cookie"`
	// StorageState is a playwright storage state file with the browser session.
	StorageState string `koanf:"storage_state" validate:"omitempty,file"`
	Headless     bool   `koanf:"headless"`

	Interval      time.Duration `koanf:"interval" validate:"min=50ms"`
	SampleTimeout time.Duration `koanf:"sample_timeout" validate:"min=100ms"`

	Sound  string  `koanf:"sound"`
	Volume float64 `koanf:"volume" validate:"gte=0,lte=1"`
	Icon   string  `koanf:"icon"`
	Alert  bool    `koanf:"alert"`

	Title   string `koanf:"title" validate:"required"`
	Message string `koanf:"message"`

	DB      string `koanf:"db" validate:"required"`
	Control string `koanf:"control" validate:"required,hostname_port"`
	Secret  string `koanf:"secret"`

	Verbose bool `koanf:"verbose"`
}

//nolint:mnd //shut up
func Default() Config {
	return Config{
		URL:           "https://clicker.mit.edu/6.102/",
		Selector:      page.DefaultSelector,
		OpenClass:     page.DefaultOpenClass,
		Driver:        DriverHTTP,
		Headless:      true,
		Interval:      500 * time.Millisecond,
		SampleTimeout: 5 * time.Second,
		Volume:        0.7,
		Title:         "Clicker Question Opened!",
		Message:       "A new question is now open for responses.",
		DB:            filepath.Join(baseDir(), "settings.db"),
		Control:       control.DefaultAddr,
	}
}

// DefaultPath is where Load looks for a config file when none is given.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.json")
}

func baseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, appDir)
}

// BindFlags registers every option on fs, with Default values as help defaults.
func BindFlags(fs *flag.FlagSet) {
	def := Default()

	fs.String("url", def.URL, "Page to watch")
	fs.String("selector", def.Selector, "Element holding the question choices (tag.class)")
	fs.String("open_class", def.OpenClass, "Class present on the element while a question is open")
	fs.String("driver", def.Driver, "How the page is sampled: http or browser")
	fs.String("cookie", "", "Cookie header sent with every http sample")
	fs.String("storage_state", "", "Playwright storage state file for the browser driver")
	fs.Bool("headless", def.Headless, "Run the browser driver without a window")
	fs.Duration("interval", def.Interval, "Sampling period")
	fs.Duration("sample_timeout", def.SampleTimeout, "Upper bound for a single sample")
	fs.String("sound", "", "Audio file played on a new question (empty=system beep)")
	fs.Float64("volume", def.Volume, "Playback volume, 0..1")
	fs.String("icon", "", "Notification icon path (empty=bundled icon)")
	fs.Bool("alert", false, "Use the platform alert variant for notifications")
	fs.String("title", def.Title, "Notification title")
	fs.String("message", def.Message, "Notification body")
	fs.String("db", def.DB, "Settings database")
	fs.String("control", def.Control, "Loopback address of the control channel")
	fs.String("secret", "", "Shared secret pinning the control channel (empty=any local client)")
	fs.BoolP("verbose", "V", false, "Verbose logs")
}

// Load resolves the configuration. An explicit path must exist; the default
// path is optional. Only flags the user changed override lower layers.
func Load(path string, flags *flag.FlagSet) (Config, error) {
	k := koanf.New(".")

	def := Default()
	for key, value := range defaults(def) {
		if err := k.Set(key, value); err != nil {
			return Config{}, fmt.Errorf("config defaults: %w", err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config env: %w", err)
	}

	if flags != nil {
		var setErr error
		flags.Visit(func(f *flag.Flag) {
			if !k.Exists(f.Name) || setErr != nil {
				return
			}
			setErr = k.Set(f.Name, f.Value.String())
		})
		if setErr != nil {
			return Config{}, fmt.Errorf("config flags: %w", setErr)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config unmarshal: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}

	cfg.DB = expandHome(cfg.DB)
	cfg.Sound = expandHome(cfg.Sound)
	cfg.StorageState = expandHome(cfg.StorageState)
	return cfg, nil
}

func defaults(c Config) map[string]any {
	return map[string]any{
		"url":            c.URL,
		"selector":       c.Selector,
		"open_class":     c.OpenClass,
		"driver":         c.Driver,
		"cookie":         c.Cookie,
		"storage_state":  c.StorageState,
		"headless":       c.Headless,
		"interval":       c.Interval,
		"sample_timeout": c.SampleTimeout,
		"sound":          c.Sound,
		"volume":         c.Volume,
		"icon":           c.Icon,
		"alert":          c.Alert,
		"title":          c.Title,
		"message":        c.Message,
		"db":             c.DB,
		"control":        c.Control,
		"secret":         c.Secret,
		"verbose":        c.Verbose,
	}
}

// envKey maps CLICKERWATCH_SAMPLE_TIMEOUT to sample_timeout.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
