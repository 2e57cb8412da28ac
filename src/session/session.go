// Package session resolves who the current user is.
//
// A transient user attached to a request context always wins over the
// persisted account. The linked GitHub CLI account is only ever offered as a
// hint and is never adopted as the identity without an explicit save.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"travisjr/src/logger"
	"travisjr/src/store"
)

// User is a resolved identity.
type User struct {
	Username      string
	LinkedAccount string
}

type transientKey struct{}

// WithTransientUser returns a copy of ctx carrying u for the lifetime of one
// request. An empty username leaves ctx unchanged.
func WithTransientUser(ctx context.Context, u User) context.Context {
	if u.Username == "" {
		return ctx
	}
	return context.WithValue(ctx, transientKey{}, u)
}

// TransientUser returns the request-scoped user, if any.
func TransientUser(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(transientKey{}).(User)
	return u, ok
}

// MissingCredentialsError means no usable identity could be resolved.
type MissingCredentialsError struct {
	// Linked is the username of a discoverable linked account, if any.
	Linked string
	Err    error
}

func (e *MissingCredentialsError) Error() string {
	msg := "cannot resolve account: no GitHub username configured"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingCredentialsError) Unwrap() error { return e.Err }

// Hint suggests how to fix the missing identity.
func (e *MissingCredentialsError) Hint() string {
	if e.Linked != "" {
		return fmt.Sprintf("Run 'travisjr login %s' to use your linked GitHub account, or pass --user.", e.Linked)
	}
	return "Run 'travisjr login USERNAME' or pass --user."
}

// LinkedSource reads a username from an external account integration.
type LinkedSource interface {
	LinkedUsername(ctx context.Context) (string, error)
}

// Context resolves the current user. It is safe for concurrent use; writers
// to the persisted account are serialized and the last write wins.
type Context struct {
	mu     sync.Mutex
	store  store.AccountStore
	linked LinkedSource
	logger logger.Logger
}

// New creates a session context over a persisted account store. linked may be nil.
func New(accounts store.AccountStore, linked LinkedSource, log logger.Logger) *Context {
	return &Context{
		store:  accounts,
		linked: linked,
		logger: logger.OrSilent(log),
	}
}

// CurrentUser returns the transient user in ctx, else the persisted account.
func (c *Context) CurrentUser(ctx context.Context) (*User, error) {
	if u, ok := TransientUser(ctx); ok {
		return &u, nil
	}

	account, err := c.store.LoadAccount(ctx)
	if err == nil && account.Username != "" {
		return &User{Username: account.Username, LinkedAccount: account.LinkedAccount}, nil
	}

	missing := &MissingCredentialsError{}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		missing.Err = err
	}
	if c.linked != nil {
		if name, lerr := c.linked.LinkedUsername(ctx); lerr == nil {
			missing.Linked = name
		}
	}
	return nil, missing
}

// SetGitHubUsername persists username, replacing any prior value. A transient
// user already attached to a request is not affected.
func (c *Context) SetGitHubUsername(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	account := store.Account{Username: username}
	if c.linked != nil {
		if linked, err := c.linked.LinkedUsername(ctx); err == nil && linked == username {
			account.LinkedAccount = linked
		}
	}

	if err := c.store.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to save username: %w", err)
	}
	c.logger.Debug("[Session] Saved GitHub username %s", username)
	return nil
}

// QueryLinkedAccount reads the username of the linked GitHub account.
func (c *Context) QueryLinkedAccount(ctx context.Context) (string, error) {
	if c.linked == nil {
		return "", &MissingCredentialsError{Err: errors.New("no linked account source")}
	}
	name, err := c.linked.LinkedUsername(ctx)
	if err != nil {
		return "", &MissingCredentialsError{Err: err}
	}
	if name == "" {
		return "", &MissingCredentialsError{Err: errors.New("linked account has no username")}
	}
	return name, nil
}

// SettingsAvailable reports whether the persisted account may be edited.
// Settings are hidden while a transient user is in scope.
func (c *Context) SettingsAvailable(ctx context.Context) bool {
	_, transient := TransientUser(ctx)
	return !transient
}
