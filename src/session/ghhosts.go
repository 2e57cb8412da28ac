package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const githubHost = "github.com"

// GHHosts reads the account logged in through the GitHub CLI from its
// hosts.yml file.
type GHHosts struct {
	Dir string
}

// NewGHHosts uses dir, or the GitHub CLI default config directory when empty.
func NewGHHosts(dir string) *GHHosts {
	if dir == "" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "gh")
		} else if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config", "gh")
		}
	}
	return &GHHosts{Dir: dir}
}

type ghHost struct {
	User string `yaml:"user"`
}

func (g *GHHosts) LinkedUsername(ctx context.Context) (string, error) {
	if g.Dir == "" {
		return "", errors.New("gh config directory unknown")
	}

	path := filepath.Join(g.Dir, "hosts.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	var hosts map[string]ghHost
	if err := yaml.Unmarshal(data, &hosts); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}

	host, ok := hosts[githubHost]
	if !ok || host.User == "" {
		return "", fmt.Errorf("no %s account in %s", githubHost, path)
	}
	return host.User, nil
}
