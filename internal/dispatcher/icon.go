package dispatcher

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

const iconFile = "icon.png"

// Icon is the bundled notification image, used when no icon is configured.
//
//go:embed icon.png
var Icon []byte

// WriteIcon places the bundled icon in dir and returns its path. Desktop
// notifiers take a file path, so the image has to live on disk.
func WriteIcon(dir string) (string, error) {
	path := filepath.Join(dir, iconFile)
	if current, err := os.ReadFile(path); err == nil && bytes.Equal(current, Icon) {
		return path, nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("icon dir: %w", err)
	}
	if err := os.WriteFile(path, Icon, 0o600); err != nil {
		return "", fmt.Errorf("write icon: %w", err)
	}
	return path, nil
}
