// Package client is the programmatic client for the worklog server: a
// session guard that owns the token pair and a reconciler that keeps one
// day's entry grid consistent with the remote store.
package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// User is the signed-in profile as the server reports it.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Provider  string `json:"provider"`
}

// Credential is the access/refresh token pair plus the user it belongs to.
// It is owned exclusively by the session guard.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// CredentialStore is the small persistence capability the guard depends on,
// so it can be tested with an in-memory stub.
type CredentialStore interface {
	Get() (*Credential, error)
	Set(*Credential) error
	Remove() error
}

// FileStore keeps the credential as JSON under the user's home directory.
type FileStore struct{ path string }

// NewFileStore stores credentials at ~/.worklog/credentials.json unless an
// explicit path is given.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, ".worklog", "credentials.json")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Get() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credential file: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("corrupt credential file (delete %s to sign in again): %w", s.path, err)
	}
	return &cred, nil
}

func (s *FileStore) Set(cred *Credential) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credential: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("saving credential file: %w", err)
	}
	return nil
}

func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credential file: %w", err)
	}
	return nil
}

// MemStore is an in-memory CredentialStore for tests.
type MemStore struct {
	mu   sync.Mutex
	cred *Credential
}

func (s *MemStore) Get() (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return nil, nil
	}
	c := *s.cred
	return &c, nil
}

func (s *MemStore) Set(cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cred
	s.cred = &c
	return nil
}

func (s *MemStore) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}
