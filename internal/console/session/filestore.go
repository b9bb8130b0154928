package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const credentialsFile = "credentials.json"

// ErrNotLoggedIn is returned when no credential has been saved yet.
var ErrNotLoggedIn = errors.New("session: not logged in")

type credentials struct {
	Token string `json:"token"`
}

// FileStore implements CredentialStore using a JSON file under the user's
// home directory.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore rooted at ~/.fasops.
func NewFileStore() (*FileStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("session: resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".fasops")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: create %s: %w", dir, err)
	}
	return &FileStore{path: filepath.Join(dir, credentialsFile)}, nil
}

// NewFileStoreAt creates a FileStore at an explicit path. Used by tests and
// by the --config flag.
func NewFileStoreAt(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted token.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotLoggedIn
		}
		return "", fmt.Errorf("session: read credentials: %w", err)
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("session: parse credentials: %w", err)
	}
	if creds.Token == "" {
		return "", ErrNotLoggedIn
	}
	return creds.Token, nil
}

// Save writes the token with owner-only permissions.
func (s *FileStore) Save(token string) error {
	data, err := json.MarshalIndent(credentials{Token: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal credentials: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Clear removes the credentials file. Clearing an absent file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
