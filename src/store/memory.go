// Package store provides an in-memory store implementation.
package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of AccountStore.
// Useful for testing and for processes that do not persist anything.
type MemoryStore struct {
	mu      sync.RWMutex
	account *Account
	now     func() time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// LoadAccount returns a copy of the saved account.
func (s *MemoryStore) LoadAccount(ctx context.Context) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.account == nil {
		return nil, ErrNotFound
	}

	accountCopy := *s.account
	return &accountCopy, nil
}

// SaveAccount replaces the saved account.
func (s *MemoryStore) SaveAccount(ctx context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account.UpdatedAt = s.now()
	s.account = &account
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
