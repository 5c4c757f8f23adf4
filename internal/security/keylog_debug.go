//go:build debug

package security

import (
	"crypto/tls"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	keyLogOnce sync.Once
	keyLog     *os.File
)

// populateKeyLog opens the key log once per process; both control ends share it.
func populateKeyLog(logger zerolog.Logger, conf *tls.Config) {
	keyLogOnce.Do(func() {
		f, err := os.OpenFile(KeyLogPath(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			logger.Error().Err(err).Msg("control key log unavailable")
			return
		}
		keyLog = f
		logger.Debug().Str("path", f.Name()).Msg("logging control tls secrets")
	})

	if keyLog != nil {
		conf.KeyLogWriter = keyLog
	}
}
