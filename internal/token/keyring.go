package token

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// service is the keyring service name all Relaypoint credentials share.
const service = "relaypoint"

// KeyringStore keeps the credential in the operating system keyring
// (Secret Service on Linux, Keychain on macOS, Credential Manager on Windows).
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed credential store.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

// Save overwrites the stored credential.
func (s *KeyringStore) Save(token string) error {
	if err := keyring.Set(service, Key, token); err != nil {
		return fmt.Errorf("failed to write credential to keyring: %w", err)
	}
	return nil
}

// Get returns the stored credential, or ErrNotFound when absent.
func (s *KeyringStore) Get() (string, error) {
	value, err := keyring.Get(service, Key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential from keyring: %w", err)
	}
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

// Clear removes the stored credential. A missing entry is not an error.
func (s *KeyringStore) Clear() error {
	err := keyring.Delete(service, Key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to remove credential from keyring: %w", err)
	}
	return nil
}
