package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Feedback proxy defaults.
const (
	DefaultFeedbackPort   = 8080
	DefaultGitHubAPIURL   = "https://api.github.com"
	DefaultTrackerTimeout = 10 * time.Second
)

// FeedbackConfig configures the feedback proxy. It is read from the
// environment once at startup.
type FeedbackConfig struct {
	Port           int
	Token          string
	Repo           string // owner/name
	APIURL         string
	AllowedOrigin  string
	TrackerTimeout time.Duration
}

// String omits the token.
func (c FeedbackConfig) String() string {
	return fmt.Sprintf("FeedbackConfig{Port: %d, Repo: %s, APIURL: %s, AllowedOrigin: %s, TrackerTimeout: %s}",
		c.Port, c.Repo, c.APIURL, c.AllowedOrigin, c.TrackerTimeout)
}

// FeedbackFromEnv builds a FeedbackConfig from environment lookups. getenv is
// usually os.Getenv.
func FeedbackFromEnv(getenv func(string) string) (FeedbackConfig, error) {
	cfg := FeedbackConfig{
		Port:           DefaultFeedbackPort,
		Token:          strings.TrimSpace(getenv("GITHUB_TOKEN")),
		Repo:           strings.TrimSpace(getenv("GITHUB_REPO")),
		APIURL:         strings.TrimSpace(getenv("GITHUB_API_URL")),
		AllowedOrigin:  strings.TrimSpace(getenv("FEEDBACK_ALLOWED_ORIGIN")),
		TrackerTimeout: DefaultTrackerTimeout,
	}

	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return FeedbackConfig{}, fmt.Errorf("config error: PORT must be an integer: %w", err)
		}
		cfg.Port = p
	}
	if timeout := strings.TrimSpace(getenv("TRACKER_TIMEOUT")); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return FeedbackConfig{}, fmt.Errorf("config error: TRACKER_TIMEOUT must be a duration: %w", err)
		}
		cfg.TrackerTimeout = d
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultGitHubAPIURL
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}

	return cfg, cfg.Validate()
}

// Validate checks required values and ranges.
func (c FeedbackConfig) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("config error: GITHUB_TOKEN environment variable is required")
	}
	owner, name, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("config error: GITHUB_REPO must be in owner/name form, got %q", c.Repo)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT out of range: %d", c.Port)
	}
	if c.TrackerTimeout <= 0 {
		return fmt.Errorf("config error: TRACKER_TIMEOUT must be positive")
	}
	return checkAbsoluteURL("GITHUB_API_URL", c.APIURL)
}
