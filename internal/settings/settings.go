package settings

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

const (
	KeySound         = "soundEnabled"
	KeyNotifications = "notificationsEnabled"
)

// Keys lists every persisted key, in storage order.
var Keys = []string{KeySound, KeyNotifications}

type Settings struct {
	SoundEnabled         bool `json:"soundEnabled"`
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

func Default() Settings {
	return Settings{
		SoundEnabled:         true,
		NotificationsEnabled: true,
	}
}

func (s Settings) MarshalZerologObject(e *zerolog.Event) {
	e.Bool(KeySound, s.SoundEnabled)
	e.Bool(KeyNotifications, s.NotificationsEnabled)
}

// Values returns the settings keyed by their storage names.
func (s Settings) Values() map[string]bool {
	return map[string]bool{
		KeySound:         s.SoundEnabled,
		KeyNotifications: s.NotificationsEnabled,
	}
}

// Store is a shared key-value store. Get returns only keys that have a stored value.
type Store interface {
	Get(ctx context.Context, keys ...string) (map[string]bool, error)
	Set(ctx context.Context, values map[string]bool) error
}

// FromValues fills every key missing from values with its default, independently.
func FromValues(values map[string]bool) Settings {
	s := Default()
	if v, ok := values[KeySound]; ok {
		s.SoundEnabled = v
	}
	if v, ok := values[KeyNotifications]; ok {
		s.NotificationsEnabled = v
	}
	return s
}

// Load reads the settings, using defaults for missing keys without persisting them.
func Load(ctx context.Context, store Store) (Settings, error) {
	values, err := store.Get(ctx, Keys...)
	if err != nil {
		return Default(), fmt.Errorf("settings load: %w", err)
	}
	return FromValues(values), nil
}

// EnsureDefaults persists the default of every key that has no stored value.
// Keys that already hold a user choice are never overwritten.
// It returns the values it wrote.
func EnsureDefaults(ctx context.Context, store Store) (map[string]bool, error) {
	values, err := store.Get(ctx, Keys...)
	if err != nil {
		return nil, fmt.Errorf("settings defaults: %w", err)
	}

	defaults := Default().Values()
	missing := make(map[string]bool, len(Keys))
	for _, key := range Keys {
		if _, ok := values[key]; !ok {
			missing[key] = defaults[key]
		}
	}

	if len(missing) == 0 {
		return missing, nil
	}

	if err := store.Set(ctx, missing); err != nil {
		return nil, fmt.Errorf("settings defaults: %w", err)
	}
	return missing, nil
}
