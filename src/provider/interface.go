package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"sync"
)

var (
	ErrInvalidURL      = errors.New("invalid build URL")
	ErrProviderUnknown = errors.New("unknown CI provider")
)

// Provider defines the interface for CI platform integrations
type Provider interface {
	// Name returns the provider name (e.g., "travis")
	Name() string

	// FetchRepos lists the repositories the provider tracks for a user
	FetchRepos(ctx context.Context, username string) ([]Repo, error)

	// FetchBuild retrieves build metadata and jobs
	FetchBuild(ctx context.Context, owner, repo string, buildID int64) (*Build, error)

	// FetchJobLog streams raw log content for a job into w
	FetchJobLog(ctx context.Context, jobID int64, w io.Writer) error
}

// Factory builds a provider from an API base URL and token.
type Factory func(baseURL, token string) Provider

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// RegisterProvider makes a provider factory available by name.
func RegisterProvider(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// GetProvider returns the provider registered under name.
func GetProvider(name, baseURL, token string) (Provider, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnknown, name)
	}
	return f(baseURL, token), nil
}

// Registered lists registered provider names in sorted order.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var travisURLPattern = regexp.MustCompile(`^https://(?:www\.)?travis-ci\.(?:org|com)/([^/]+)/([^/]+)/builds/(\d+)`)

// ParseURL parses a build reference from a build page URL
func ParseURL(url string) (*BuildRef, error) {
	matches := travisURLPattern.FindStringSubmatch(url)
	if matches == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}

	id, err := strconv.ParseInt(matches[3], 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, url)
	}

	return &BuildRef{
		Provider: "travis",
		Owner:    matches[1],
		Repo:     matches[2],
		BuildID:  id,
	}, nil
}
