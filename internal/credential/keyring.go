// Package credential stores the API token in the system keyring.
package credential

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/cristianoliveira/hostel-intray/internal/config"
)

const (
	serviceName = "hostel-intray"
	// TokenKey is the keyring entry holding the API token.
	TokenKey = "auth_token"
)

// open returns the keyring used by this package. Tests replace it.
var open = openKeyring

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(config.Get("state_dir", "~/.local/state/hostel-intray"), "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("hostel-intray-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       "hostel-intray " + key,
		Description: "hostel notification feed credential",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Token resolves the API token. The auth_token config key (and so the
// HOSTEL_INTRAY_AUTH_TOKEN variable) wins over the keyring. A missing entry
// or a disabled keyring yields an empty token and no error.
func Token() (string, error) {
	if token := config.Get("auth_token", ""); token != "" {
		return token, nil
	}
	if !config.GetBool("keyring_enabled", true) {
		return "", nil
	}
	token, err := Get(TokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	return token, err
}

// SaveToken stores the API token in the keyring.
func SaveToken(token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if !config.GetBool("keyring_enabled", true) {
		return errors.New("keyring is disabled; set HOSTEL_INTRAY_AUTH_TOKEN instead")
	}
	return Set(TokenKey, token)
}

// DeleteToken removes the stored API token. A missing entry is not an error.
func DeleteToken() error {
	return Delete(TokenKey)
}
