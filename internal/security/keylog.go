package security

import (
	"os"
	"path/filepath"
)

const keyLogEnv = "SSLKEYLOGFILE"

// KeyLogPath is where debug builds append the control channel's TLS secrets
// so a loopback capture can be decrypted. SSLKEYLOGFILE wins when set.
func KeyLogPath() string {
	if p := os.Getenv(keyLogEnv); p != "" {
		return p
	}
	return filepath.Join(os.TempDir(), "clickerwatch-quic-keys.log")
}
