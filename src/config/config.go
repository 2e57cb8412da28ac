// Package config provides configuration management for the travisjr application.
//
// Values are resolved in order: built-in defaults, then an optional YAML file,
// then environment variables. Later sources take precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultTravisAPIURL is the public Travis CI API endpoint.
	DefaultTravisAPIURL = "https://api.travis-ci.org"
	// DefaultGitHubWebURL is the base used for commit and repository links.
	DefaultGitHubWebURL = "https://github.com"
	// DefaultStateTopic carries build view state events.
	DefaultStateTopic = "travisjr.build.states"
)

// Config holds the application configuration.
type Config struct {
	// TravisAPIURL is the base URL of the CI provider API.
	TravisAPIURL string `yaml:"travis_api_url"`
	// TravisToken authenticates API calls. Optional for public repositories.
	TravisToken string `yaml:"travis_token"`
	// GitHubWebURL is the base for commit and repository activation links.
	GitHubWebURL string `yaml:"github_web_url"`

	// PostgresDSN selects the Postgres account store when set.
	PostgresDSN string `yaml:"postgres_dsn"`
	// AccountFile is the YAML account store used when PostgresDSN is empty.
	AccountFile string `yaml:"account_file"`
	// GHConfigDir locates the GitHub CLI hosts.yml used as the linked account.
	GHConfigDir string `yaml:"gh_config_dir"`

	// RedpandaBrokers enables publishing build state events to Kafka/Redpanda.
	RedpandaBrokers []string `yaml:"redpanda_brokers"`
	StateTopic      string   `yaml:"state_topic"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Timezone is the IANA zone used for build start date/time display.
	Timezone string `yaml:"timezone"`

	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	LogConcurrency int           `yaml:"log_concurrency"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	cfg := &Config{
		TravisAPIURL:   DefaultTravisAPIURL,
		GitHubWebURL:   DefaultGitHubWebURL,
		StateTopic:     DefaultStateTopic,
		LogLevel:       "info",
		LogFormat:      "console",
		Timezone:       "Local",
		HTTPTimeout:    30 * time.Second,
		LogConcurrency: 4,
	}

	if home, err := os.UserHomeDir(); err == nil {
		cfg.AccountFile = filepath.Join(home, ".config", "travisjr", "account.yaml")
		cfg.GHConfigDir = filepath.Join(home, ".config", "gh")
	}

	return cfg
}

// LoadFromEnv loads configuration from defaults and environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// Load reads defaults, overlays the YAML file at path (or TRAVISJR_CONFIG when
// path is empty), then overlays environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TRAVISJR_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// This is useful for initialization in main() where configuration errors should be fatal.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	setString(&c.TravisAPIURL, "TRAVIS_API_URL")
	setString(&c.TravisToken, "TRAVIS_TOKEN")
	setString(&c.GitHubWebURL, "GITHUB_WEB_URL")
	setString(&c.PostgresDSN, "POSTGRES_DSN")
	setString(&c.AccountFile, "TRAVISJR_ACCOUNT_FILE")
	setString(&c.GHConfigDir, "GH_CONFIG_DIR")
	setString(&c.StateTopic, "TRAVISJR_STATE_TOPIC")
	setString(&c.LogLevel, "TRAVISJR_LOG_LEVEL")
	setString(&c.LogFormat, "TRAVISJR_LOG_FORMAT")
	setString(&c.Timezone, "TRAVISJR_TIMEZONE")

	if v := os.Getenv("REDPANDA_BROKERS"); v != "" {
		c.RedpandaBrokers = splitList(v)
	}

	if v := os.Getenv("TRAVISJR_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TRAVISJR_HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}

	if v := os.Getenv("TRAVISJR_LOG_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRAVISJR_LOG_CONCURRENCY: %w", err)
		}
		c.LogConcurrency = n
	}

	return nil
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	var errs []error

	if c.TravisAPIURL == "" {
		errs = append(errs, errors.New("travis_api_url must not be empty"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.LogConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("log_concurrency must be positive, got %d", c.LogConcurrency))
	}
	switch c.LogFormat {
	case "console", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log_format must be console, json or text, got %q", c.LogFormat))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves Timezone for display formatting.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// EventsEnabled reports whether build state events go to Redpanda.
func (c *Config) EventsEnabled() bool {
	return len(c.RedpandaBrokers) > 0
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
