package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfig(t, "site.yaml", `
data: data/**/*.csv
output: public
base_url: https://permits.example.org
site_name: Permit Index
strict_refs: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "data/**/*.csv", cfg.Data)
	assert.Equal(t, "public", cfg.Output)
	assert.Equal(t, "https://permits.example.org", cfg.BaseURL)
	assert.True(t, cfg.StrictRefs)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, "site.json", `{
		"base_url": "https://permits.example.org",
		"feedback_endpoint": "https://feedback.example.org/feedback",
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://feedback.example.org/feedback", cfg.FeedbackEndpoint)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, "site.yaml", "base_ulr: https://typo.example.org\n")

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, "site.json", `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_UnsupportedExtension(t *testing.T) {
	path := writeConfig(t, "site.toml", `base_url = "x"`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/site.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SiteConfig
		wantErr string
	}{
		{name: "empty is valid", cfg: SiteConfig{}},
		{name: "relative base url", cfg: SiteConfig{BaseURL: "/site"}, wantErr: "absolute http(s) URL"},
		{name: "ftp base url", cfg: SiteConfig{BaseURL: "ftp://example.org"}, wantErr: "absolute http(s) URL"},
		{name: "bad feedback endpoint", cfg: SiteConfig{FeedbackEndpoint: "feedback"}, wantErr: "feedback_endpoint"},
		{name: "bad log format", cfg: SiteConfig{LogFormat: "xml"}, wantErr: "log_format"},
		{name: "output is cwd", cfg: SiteConfig{Output: "./"}, wantErr: "working directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireBaseURL(t *testing.T) {
	assert.Error(t, (&SiteConfig{}).RequireBaseURL())
	assert.NoError(t, (&SiteConfig{BaseURL: "https://x.example"}).RequireBaseURL())
}

func TestMergeWithDefaults(t *testing.T) {
	flags := SiteConfig{Output: "dist"}
	file := SiteConfig{Output: "public", BaseURL: "https://permits.example.org", StrictRefs: true}

	merged := flags.MergeWithDefaults(file)

	assert.Equal(t, "dist", merged.Output, "flags win over file")
	assert.Equal(t, "https://permits.example.org", merged.BaseURL)
	assert.Equal(t, DefaultData, merged.Data)
	assert.Equal(t, DefaultSiteName, merged.SiteName)
	assert.True(t, merged.StrictRefs)
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFeedbackFromEnv(t *testing.T) {
	cfg, err := FeedbackFromEnv(envMap(map[string]string{
		"GITHUB_TOKEN": "ghp_secret",
		"GITHUB_REPO":  "civic/permits",
		"PORT":         "9090",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "civic/permits", cfg.Repo)
	assert.Equal(t, DefaultGitHubAPIURL, cfg.APIURL)
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Equal(t, DefaultTrackerTimeout, cfg.TrackerTimeout)
	assert.NotContains(t, cfg.String(), "ghp_secret")
}

func TestFeedbackFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "missing token", env: map[string]string{"GITHUB_REPO": "a/b"}, wantErr: "GITHUB_TOKEN"},
		{name: "bad repo", env: map[string]string{"GITHUB_TOKEN": "t", "GITHUB_REPO": "permits"}, wantErr: "GITHUB_REPO"},
		{name: "bad port", env: map[string]string{"GITHUB_TOKEN": "t", "GITHUB_REPO": "a/b", "PORT": "http"}, wantErr: "PORT"},
		{name: "bad timeout", env: map[string]string{"GITHUB_TOKEN": "t", "GITHUB_REPO": "a/b", "TRACKER_TIMEOUT": "soon"}, wantErr: "TRACKER_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FeedbackFromEnv(envMap(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFeedbackFromEnv_Timeout(t *testing.T) {
	cfg, err := FeedbackFromEnv(envMap(map[string]string{
		"GITHUB_TOKEN":    "t",
		"GITHUB_REPO":     "a/b",
		"TRACKER_TIMEOUT": "3s",
	}))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.TrackerTimeout)
}
