// Package store defines the interface for the persisted account and provides implementations.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no account has been saved yet.
var ErrNotFound = errors.New("no saved account")

// Account is the long-lived identity saved by the owning process.
type Account struct {
	Username string
	// LinkedAccount is the external account the username was adopted from, if any.
	LinkedAccount string
	UpdatedAt     time.Time
}

// AccountStore persists a single account. Save overwrites any prior value.
// Implementations must be safe for concurrent use.
type AccountStore interface {
	// LoadAccount returns the saved account or ErrNotFound
	LoadAccount(ctx context.Context) (*Account, error)

	// SaveAccount replaces the saved account
	SaveAccount(ctx context.Context, account Account) error

	// Close closes the store connection
	Close() error
}
