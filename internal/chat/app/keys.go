package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/elxora/elxora/pkg/cryptox"
)

// loadOrCreateSessionKey reads the session signing key file, generating one on
// first run. The key only needs to outlive the database rows it signs, so a
// lost file simply logs the profile out.
func loadOrCreateSessionKey(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		key := strings.TrimSpace(string(raw))
		if key == "" {
			return nil, fmt.Errorf("session key file %s is empty", path)
		}
		return []byte(key), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read session key file: %w", err)
	}

	key, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write session key file: %w", err)
	}
	return []byte(key), nil
}
