// Package token persists the single opaque credential that identifies the
// current session to the Relaypoint API.
package token

import (
	"errors"
	"fmt"
	"os"
)

// Key is the fixed identifier the credential is stored under. Writing replaces
// any previous value; there is never more than one stored credential.
const Key = "auth_token"

// EnvVar overrides every backend when set. It is read-only: credentials
// supplied through the environment cannot be saved or cleared.
const EnvVar = "RELAYPOINT_TOKEN"

// ErrNotFound is returned by Get when no credential has been saved, or after
// Clear.
var ErrNotFound = errors.New("no credential stored")

// ErrReadOnly is returned when Save or Clear is called while the credential
// comes from the environment.
var ErrReadOnly = errors.New("credential is provided by " + EnvVar + "; unset it to manage stored credentials")

// Store persists a single opaque credential string.
type Store interface {
	// Save overwrites any existing credential. No format validation is
	// performed; the value is opaque.
	Save(token string) error
	// Get returns the stored credential, or ErrNotFound when absent.
	Get() (string, error)
	// Clear removes the credential unconditionally. Clearing an absent
	// credential is not an error.
	Clear() error
}

// Backend selects where credentials are persisted.
type Backend string

const (
	BackendKeyring Backend = "keyring" // system keyring (default)
	BackendFile    Backend = "file"    // ~/.relaypoint/credentials.json
)

// ValidateBackend checks if the given string is a valid Backend.
func ValidateBackend(backend string) (Backend, error) {
	switch Backend(backend) {
	case BackendKeyring, "":
		return BackendKeyring, nil
	case BackendFile:
		return BackendFile, nil
	default:
		return "", fmt.Errorf("invalid store %q: must be 'keyring' or 'file'", backend)
	}
}

// Open returns the credential store for the given backend. When EnvVar is set
// it takes precedence over any persisted credential and the returned store is
// read-only.
func Open(backend Backend) (Store, error) {
	if os.Getenv(EnvVar) != "" {
		return &envStore{}, nil
	}

	switch backend {
	case BackendKeyring, "":
		return NewKeyringStore(), nil
	case BackendFile:
		path, err := DefaultFilePath()
		if err != nil {
			return nil, err
		}
		return NewFileStore(path), nil
	default:
		return nil, fmt.Errorf("unknown store: %s", backend)
	}
}

// Source reports where the credential a Store would return actually comes
// from. Used by `auth status` to explain the current state.
func Source(backend Backend) string {
	if os.Getenv(EnvVar) != "" {
		return "environment (" + EnvVar + ")"
	}
	return string(backend)
}

// envStore serves a credential from the environment. Writes are rejected so a
// login cannot silently land somewhere the next Get will not look.
type envStore struct{}

func (e *envStore) Get() (string, error) {
	v := os.Getenv(EnvVar)
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

func (e *envStore) Save(string) error { return ErrReadOnly }

func (e *envStore) Clear() error { return ErrReadOnly }
