// Package config provides configuration loading and validation for the CLI.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by MergeWithDefaults when neither file nor flag sets a value.
const (
	DefaultData     = "data"
	DefaultOutput   = "output"
	DefaultSiteName = "Permit Index"
)

// SiteConfig represents the generator configuration that can be loaded from a
// YAML or JSON file. All fields are optional; CLI flags override file values.
type SiteConfig struct {
	// Paths
	Data   string `yaml:"data,omitempty" json:"data,omitempty"`     // CSV file, directory, or glob
	Output string `yaml:"output,omitempty" json:"output,omitempty"` // Output directory

	// Site
	BaseURL          string `yaml:"base_url,omitempty" json:"base_url,omitempty"`                   // Absolute URL the site is served from
	SiteName         string `yaml:"site_name,omitempty" json:"site_name,omitempty"`                 // Shown in titles and the header
	FeedbackEndpoint string `yaml:"feedback_endpoint,omitempty" json:"feedback_endpoint,omitempty"` // Feedback proxy URL; empty hides the form

	// Behavior
	StrictRefs   bool   `yaml:"strict_refs,omitempty" json:"strict_refs,omitempty"`     // Treat dangling related_pages as fatal
	SkipFavicons bool   `yaml:"skip_favicons,omitempty" json:"skip_favicons,omitempty"` // Do not emit favicon PNGs
	LogFormat    string `yaml:"log_format,omitempty" json:"log_format,omitempty"`       // "dev" or "prod"
	Verbose      bool   `yaml:"verbose,omitempty" json:"verbose,omitempty"`             // Print debug logs
}

// LoadConfig loads configuration from a YAML (.yaml, .yml) or JSON (.json) file.
// Unknown keys are rejected.
func LoadConfig(path string) (*SiteConfig, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg SiteConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .json)", ext)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: base_url is only required once flags and file are merged, see RequireBaseURL.
func (c *SiteConfig) Validate() error {
	if c.BaseURL != "" {
		if err := checkAbsoluteURL("base_url", c.BaseURL); err != nil {
			return err
		}
	}
	if c.FeedbackEndpoint != "" {
		if err := checkAbsoluteURL("feedback_endpoint", c.FeedbackEndpoint); err != nil {
			return err
		}
	}
	switch c.LogFormat {
	case "", "dev", "development", "prod", "production", "json":
	default:
		return fmt.Errorf("config error: 'log_format' must be dev or prod, got %q", c.LogFormat)
	}
	if c.Output != "" && filepath.Clean(c.Output) == "." {
		return fmt.Errorf("config error: 'output' must not be the working directory")
	}
	return nil
}

// RequireBaseURL reports an error when no base URL has been configured.
func (c *SiteConfig) RequireBaseURL() error {
	if c.BaseURL == "" {
		return fmt.Errorf("config error: 'base_url' is required (set it in the config file or pass --base-url)")
	}
	return nil
}

// MergeWithDefaults returns a new SiteConfig with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *SiteConfig) MergeWithDefaults(defaults SiteConfig) SiteConfig {
	result := *c

	if result.Data == "" {
		result.Data = defaults.Data
	}
	if result.Output == "" {
		result.Output = defaults.Output
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.SiteName == "" {
		result.SiteName = defaults.SiteName
	}
	if result.FeedbackEndpoint == "" {
		result.FeedbackEndpoint = defaults.FeedbackEndpoint
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	// Last-resort defaults
	if result.Data == "" {
		result.Data = DefaultData
	}
	if result.Output == "" {
		result.Output = DefaultOutput
	}
	if result.SiteName == "" {
		result.SiteName = DefaultSiteName
	}

	// Bool fields: cannot distinguish unset from false, so we OR them
	result.StrictRefs = result.StrictRefs || defaults.StrictRefs
	result.SkipFavicons = result.SkipFavicons || defaults.SkipFavicons
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

func checkAbsoluteURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config error: '%s' is not a valid URL: %w", field, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config error: '%s' must be an absolute http(s) URL, got %q", field, raw)
	}
	return nil
}
