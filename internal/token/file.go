package token

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// credentialsFile is the JSON file name for file-backed storage
const credentialsFile = "credentials.json"

// DefaultFilePath returns ~/.relaypoint/credentials.json.
func DefaultFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".relaypoint", credentialsFile), nil
}

// FileStore keeps the credential in a JSON dotfile with owner-only
// permissions. It exists for hosts without a keyring daemon (CI runners,
// containers); the keyring backend is preferred everywhere else.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed credential store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type credentialsRecord struct {
	AuthToken string `json:"auth_token"`
}

// Save overwrites the stored credential.
func (s *FileStore) Save(token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(credentialsRecord{AuthToken: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials to %s: %w", s.path, err)
	}

	return nil
}

// Get returns the stored credential, or ErrNotFound when absent.
func (s *FileStore) Get() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credentials from %s: %w", s.path, err)
	}

	var record credentialsRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return "", fmt.Errorf("failed to parse credentials from %s: %w", s.path, err)
	}

	if record.AuthToken == "" {
		return "", ErrNotFound
	}

	return record.AuthToken, nil
}

// Clear removes the credentials file. A missing file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", s.path, err)
	}
	return nil
}
