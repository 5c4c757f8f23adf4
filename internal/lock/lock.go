// Package lock keeps a single watcher per user.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nightlyone/lockfile"
	"github.com/rs/zerolog"
)

const file = "clickerwatch.lck"

var ErrAlreadyRunning = errors.New("clickerwatch is already running")

// Path is the lock file location shared by every watcher of this user.
func Path() string {
	return filepath.Join(os.TempDir(), file)
}

// Acquire takes the lock at path. The returned func releases it.
func Acquire(path string) (func() error, error) {
	lock, err := lockfile.New(path)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	if lockErr := lock.TryLock(); lockErr != nil {
		owner, ownerErr := lock.GetOwner()
		if ownerErr != nil {
			return nil, fmt.Errorf("lock %s: %w", path, errors.Join(lockErr, ownerErr))
		}
		return nil, fmt.Errorf("%w: pid %d", ErrAlreadyRunning, owner.Pid)
	}

	return lock.Unlock, nil
}

func Must(logger zerolog.Logger) func() {
	unlock, err := Acquire(Path())
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start watcher")
	}

	return func() {
		if err := unlock(); err != nil {
			logger.Error().Err(err).Msg("cannot unlock process")
		}
	}
}
