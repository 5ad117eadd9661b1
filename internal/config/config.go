// Package config loads the digest configuration from defaults, an optional
// YAML file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/naka-gawa/github-digest/internal/domain"
	"gopkg.in/yaml.v3"
)

// Review sources understood by the collector.
const (
	ReviewSourceREST    = "rest"
	ReviewSourceGraphQL = "graphql"
)

const (
	defaultDigestRepo    = "anombyte93/copilot"
	defaultLookbackHours = 24
	defaultDigestLabel   = "digest"
	defaultConcurrency   = 4
)

// Config holds application configuration.
type Config struct {
	GitHubToken   string   `yaml:"-"`
	DigestRepo    string   `yaml:"digest_repo"`
	LookbackHours int      `yaml:"lookback_hours"`
	ExcludeRepos  []string `yaml:"exclude_repos"`
	DigestLabel   string   `yaml:"digest_label"`
	Concurrency   int      `yaml:"concurrency"`
	ReviewSource  string   `yaml:"review_source"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DigestRepo:    defaultDigestRepo,
		LookbackHours: defaultLookbackHours,
		DigestLabel:   defaultDigestLabel,
		Concurrency:   defaultConcurrency,
		ReviewSource:  ReviewSourceREST,
	}
}

// Load builds a Config. path names an optional YAML file; an empty path skips it.
// A missing .env file is not an error. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg.GitHubToken = os.Getenv("GITHUB_TOKEN")
	if v := os.Getenv("DIGEST_REPO"); v != "" {
		cfg.DigestRepo = v
	}
	if v := os.Getenv("LOOKBACK_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: LOOKBACK_HOURS must be a positive integer", domain.ErrInvalidConfig)
		}
		cfg.LookbackHours = n
	}
	if v := os.Getenv("EXCLUDE_REPOS"); v != "" {
		cfg.ExcludeRepos = SplitList(v)
	}
	if v := os.Getenv("DIGEST_LABEL"); v != "" {
		cfg.DigestLabel = v
	}
	if v := os.Getenv("DIGEST_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: DIGEST_CONCURRENCY must be a positive integer", domain.ErrInvalidConfig)
		}
		cfg.Concurrency = n
	}
	if v := os.Getenv("REVIEW_SOURCE"); v != "" {
		cfg.ReviewSource = strings.ToLower(v)
	}
	return cfg, nil
}

// Validate checks the configuration before a run.
func (c Config) Validate() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("%w: GITHUB_TOKEN environment variable is required", domain.ErrInvalidConfig)
	}
	if c.LookbackHours <= 0 {
		return fmt.Errorf("%w: LOOKBACK_HOURS must be a positive integer", domain.ErrInvalidConfig)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: concurrency must be a positive integer", domain.ErrInvalidConfig)
	}
	if _, _, err := domain.SplitFullName(c.DigestRepo); err != nil {
		return fmt.Errorf("%w: DIGEST_REPO must be owner/repo, got %q", domain.ErrInvalidConfig, c.DigestRepo)
	}
	if c.DigestLabel == "" {
		return fmt.Errorf("%w: DIGEST_LABEL must not be empty", domain.ErrInvalidConfig)
	}
	switch c.ReviewSource {
	case ReviewSourceREST, ReviewSourceGraphQL:
	default:
		return fmt.Errorf("%w: unknown review source %q", domain.ErrInvalidConfig, c.ReviewSource)
	}
	return nil
}

// IsExcluded reports whether fullName is listed in ExcludeRepos.
func (c Config) IsExcluded(fullName string) bool {
	for _, r := range c.ExcludeRepos {
		if r == fullName {
			return true
		}
	}
	return false
}

// SplitList splits a comma-separated list, trimming blanks and dropping empty entries.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
