package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// FileStore keeps the account in a small YAML file, written atomically.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type accountFile struct {
	Username      string    `yaml:"username"`
	LinkedAccount string    `yaml:"linked_account,omitempty"`
	UpdatedAt     time.Time `yaml:"updated_at"`
}

// NewFileStore creates a store backed by the file at path. The file and its
// directory are created on first save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("account file path is required")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) LoadAccount(ctx context.Context) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account file: %w", err)
	}

	var af accountFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("failed to parse account file %s: %w", s.path, err)
	}
	if af.Username == "" {
		return nil, ErrNotFound
	}

	return &Account{
		Username:      af.Username,
		LinkedAccount: af.LinkedAccount,
		UpdatedAt:     af.UpdatedAt,
	}, nil
}

func (s *FileStore) SaveAccount(ctx context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(accountFile{
		Username:      account.Username,
		LinkedAccount: account.LinkedAccount,
		UpdatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create account directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".account-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write account: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write account: %w", err)
	}

	return os.Rename(tmp.Name(), s.path)
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
