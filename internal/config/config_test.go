package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/labi-le/clickerwatch/internal/config"
	flag "github.com/spf13/pflag"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return dir
}

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func flags(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := config.Load("", flags(t))
	if err != nil {
		t.Fatal(err)
	}

	want := config.Default()
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.DB != filepath.Join(dir, "clickerwatch", "settings.db") {
		t.Errorf("unexpected db path %s", cfg.DB)
	}
}

func TestLoad_Layers(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, `{
		"interval": "1s",
		"sound": "~/cue.mp3",
		"title": "from file",
		"driver": "browser"
	}`)

	t.Setenv("CLICKERWATCH_VOLUME", "0.25")
	t.Setenv("CLICKERWATCH_TITLE", "from env")

	cfg, err := config.Load(path, flags(t, "--interval=2s", "--secret", "s3cret"))
	if err != nil {
		t.Fatal(err)
	}

	type got struct {
		Interval time.Duration
		Sound    string
		Title    string
		Driver   string
		Volume   float64
		Secret   string
	}
	want := got{
		Interval: 2 * time.Second,
		Sound:    filepath.Join(dir, "cue.mp3"),
		Title:    "from env",
		Driver:   config.DriverBrowser,
		Volume:   0.25,
		Secret:   "s3cret",
	}
	actual := got{cfg.Interval, cfg.Sound, cfg.Title, cfg.Driver, cfg.Volume, cfg.Secret}
	if diff := cmp.Diff(want, actual); diff != "" {
		t.Errorf("layering mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_UnchangedFlagsKeepFileValues(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, `{"volume": 0.1}`)

	cfg, err := config.Load(path, flags(t))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Volume != 0.1 {
		t.Fatalf("flag default must not override file, got %v", cfg.Volume)
	}
}

func TestLoad_FlagNamesMatchKeys(t *testing.T) {
	isolate(t)

	cfg, err := config.Load("", flags(t, "--sample_timeout=3s", "--open_class=live"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SampleTimeout != 3*time.Second || cfg.OpenClass != "live" {
		t.Fatalf("flags not applied: timeout=%s open=%s", cfg.SampleTimeout, cfg.OpenClass)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	config.BindFlags(fs)
	fs.VisitAll(func(f *flag.Flag) {
		if strings.Contains(f.Name, "-") {
			t.Errorf("flag %s must use the config key spelling", f.Name)
		}
	})
}

func TestLoad_Errors(t *testing.T) {
	type testCase struct {
		name string
		body string
		args []string
	}

	testCases := []testCase{
		{name: "unknown driver", args: []string{"--driver=ftp"}},
		{name: "loud volume", args: []string{"--volume=2"}},
		{name: "tiny interval", args: []string{"--interval=1ms"}},
		{name: "bad url", body: `{"url": "not a url"}`},
		{name: "bad control address", args: []string{"--control=localhost"}},
		{name: "broken json", body: `{"url":`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := isolate(t)
			path := ""
			if tc.body != "" {
				path = writeFile(t, dir, tc.body)
			}

			if _, err := config.Load(path, flags(t, tc.args...)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	dir := isolate(t)

	if _, err := config.Load(filepath.Join(dir, "missing.json"), nil); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}
