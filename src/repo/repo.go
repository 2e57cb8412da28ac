// Package repo lists the repositories the CI provider tracks for a user and
// partitions them by ownership.
package repo

import (
	"context"
	"errors"
	"fmt"

	"travisjr/src/logger"
	"travisjr/src/provider"
	"travisjr/src/session"
)

// AccessError means the repository listing could not be retrieved or
// contained malformed data.
type AccessError struct {
	Username string
	Err      error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("failed to list repositories for %s: %v", e.Username, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// FilterError reports invalid filter input.
type FilterError struct {
	Reason string
}

func (e *FilterError) Error() string {
	return "invalid repository filter: " + e.Reason
}

var errEmptyUser = &FilterError{Reason: "user must have a non-empty username"}

// Lister fetches the repositories tracked for a username.
type Lister interface {
	FetchRepos(ctx context.Context, username string) ([]provider.Repo, error)
}

// UserSource resolves the current user.
type UserSource interface {
	CurrentUser(ctx context.Context) (*session.User, error)
}

// Resolver resolves repositories for a user.
type Resolver struct {
	lister Lister
	users  UserSource
	logger logger.Logger
}

func NewResolver(lister Lister, users UserSource, log logger.Logger) *Resolver {
	return &Resolver{lister: lister, users: users, logger: logger.OrSilent(log)}
}

// ListAll returns every repository tracked for user, in provider order.
// A nil user means the current session user.
func (r *Resolver) ListAll(ctx context.Context, user *session.User) ([]provider.Repo, error) {
	_, repos, err := r.listAll(ctx, user)
	return repos, err
}

func (r *Resolver) listAll(ctx context.Context, user *session.User) (*session.User, []provider.Repo, error) {
	if user == nil {
		u, err := r.users.CurrentUser(ctx)
		if err != nil {
			return nil, nil, err
		}
		user = u
	}
	if user.Username == "" {
		return nil, nil, &session.MissingCredentialsError{Err: errors.New("empty username")}
	}

	r.logger.Debug("[Repos] Listing repositories for %s", user.Username)
	fetched, err := r.lister.FetchRepos(ctx, user.Username)
	if err != nil {
		return nil, nil, &AccessError{Username: user.Username, Err: err}
	}

	repos := make([]provider.Repo, 0, len(fetched))
	for i, repo := range fetched {
		if repo.Owner == "" || repo.Name == "" {
			return nil, nil, &AccessError{
				Username: user.Username,
				Err:      fmt.Errorf("%w: repository %d has no owner or name", provider.ErrMalformedResponse, i),
			}
		}
		repos = append(repos, repo)
	}

	r.logger.Debug("[Repos] %d repositories for %s", len(repos), user.Username)
	return user, repos, nil
}

// ListByOwner returns the repositories owned by user.
func (r *Resolver) ListByOwner(ctx context.Context, user *session.User) ([]provider.Repo, error) {
	u, repos, err := r.listAll(ctx, user)
	if err != nil {
		return nil, err
	}
	return FilterCreated(u, repos)
}

// ListByMember returns the repositories user contributes to but does not own.
func (r *Resolver) ListByMember(ctx context.Context, user *session.User) ([]provider.Repo, error) {
	u, repos, err := r.listAll(ctx, user)
	if err != nil {
		return nil, err
	}
	return FilterContributed(u, repos)
}

// FilterCreated keeps repositories whose owner equals the username exactly.
func FilterCreated(user *session.User, repos []provider.Repo) ([]provider.Repo, error) {
	owned, _, err := Partition(user, repos)
	return owned, err
}

// FilterContributed keeps every repository FilterCreated drops.
func FilterContributed(user *session.User, repos []provider.Repo) ([]provider.Repo, error) {
	_, member, err := Partition(user, repos)
	return member, err
}

// Partition splits repos into owned and member sets in one pass. Every repo
// lands in exactly one of the two; order is preserved.
func Partition(user *session.User, repos []provider.Repo) (owned, member []provider.Repo, err error) {
	if user == nil || user.Username == "" {
		return nil, nil, errEmptyUser
	}

	owned = []provider.Repo{}
	member = []provider.Repo{}
	for _, repo := range repos {
		if repo.Owner == user.Username {
			owned = append(owned, repo)
		} else {
			member = append(member, repo)
		}
	}
	return owned, member, nil
}

// FindByName returns the first repository named name (case-sensitive).
func FindByName(name string, repos []provider.Repo) (provider.Repo, bool) {
	for _, repo := range repos {
		if repo.Name == name {
			return repo, true
		}
	}
	return provider.Repo{}, false
}
