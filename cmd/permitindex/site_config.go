package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/permitindex/internal/config"
)

// siteFlags are the config-backed flags shared by generate and the validators.
type siteFlags struct {
	configPath       string
	data             string
	output           string
	baseURL          string
	siteName         string
	feedbackEndpoint string
}

func (f *siteFlags) register(cmd *cobra.Command, withBuild bool) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a YAML or JSON config file (values can be overridden by other flags)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output directory (default \"output\")")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Absolute URL the site is served from")
	if withBuild {
		cmd.Flags().StringVarP(&f.data, "data", "d", "", "CSV file, directory, or glob such as data/**/*.csv (default \"data\")")
		cmd.Flags().StringVar(&f.siteName, "site-name", "", "Site name shown in titles (default \"Permit Index\")")
		cmd.Flags().StringVar(&f.feedbackEndpoint, "feedback-endpoint", "", "Feedback proxy URL; the form is hidden when empty")
	}
}

// resolve loads the config file if given, applies explicitly set flags on top
// and fills defaults.
func (f *siteFlags) resolve(cmd *cobra.Command) (config.SiteConfig, error) {
	var cfg config.SiteConfig
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return config.SiteConfig{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.SiteConfig{}, err
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data = f.data
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = f.baseURL
	}
	if flags.Changed("site-name") {
		cfg.SiteName = f.siteName
	}
	if flags.Changed("feedback-endpoint") {
		cfg.FeedbackEndpoint = f.feedbackEndpoint
	}

	cfg = cfg.MergeWithDefaults(config.SiteConfig{})
	if err := cfg.Validate(); err != nil {
		return config.SiteConfig{}, err
	}
	return cfg, nil
}
