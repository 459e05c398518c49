// Package credential holds the small secrets the app shares with local
// collaborators, such as the notification agent's webhook secret. Values
// live in the platform keyring, with an encrypted file under the app's
// config directory as the headless fallback.
package credential

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"
)

const service = "neuropilot"

var (
	openOnce sync.Once
	ring     keyring.Keyring
	openErr  error
)

func fileFallbackDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", service, "credentials")
	}
	return filepath.Join(dir, service, "credentials")
}

// open resolves the backend once and reuses it for the process lifetime.
func open() (keyring.Keyring, error) {
	openOnce.Do(func() {
		ring, openErr = keyring.Open(keyring.Config{
			ServiceName: service,
			AllowedBackends: []keyring.BackendType{
				keyring.KeychainBackend,
				keyring.SecretServiceBackend,
				keyring.WinCredBackend,
				keyring.PassBackend,
				keyring.FileBackend,
			},
			FileDir:                  fileFallbackDir(),
			FilePasswordFunc:         keyring.FixedStringPrompt(service + "-file-key"),
			KeychainTrustApplication: true,
		})
	})
	if openErr != nil {
		return nil, fmt.Errorf("opening keyring: %w", openErr)
	}
	return ring, nil
}

// Get reads a stored secret.
func Get(key string) (string, error) {
	r, err := open()
	if err != nil {
		return "", err
	}
	item, err := r.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set writes a secret, replacing any existing value under the key.
func Set(key, value string) error {
	r, err := open()
	if err != nil {
		return err
	}
	if err := r.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a stored secret.
func Delete(key string) error {
	r, err := open()
	if err != nil {
		return err
	}
	if err := r.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}
