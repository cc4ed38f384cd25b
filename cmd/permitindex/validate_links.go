package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/permitindex/internal/linkcheck"
	"github.com/jonathan/permitindex/internal/observability"
)

var validateLinksCmd = &cobra.Command{
	Use:   "validate-links",
	Short: "Check that internal links resolve",
	Long: `Checks internal links in the generated site. Local mode maps every href in the
output directory to a file. Production mode crawls the deployed site from "/" and
requests every same-host link.`,
	RunE: runValidateLinks,
}

var (
	validateLinksSite        siteFlags
	validateLinksMode        string
	validateLinksMaxPages    int
	validateLinksConcurrency int
	validateLinksReport      string
)

func init() {
	validateLinksSite.register(validateLinksCmd, false)
	validateLinksCmd.Flags().StringVar(&validateLinksMode, "mode", "local", "What to check: local, production or both")
	validateLinksCmd.Flags().IntVar(&validateLinksMaxPages, "max-pages", linkcheck.DefaultMaxPages, "Maximum pages to crawl in production mode")
	validateLinksCmd.Flags().IntVar(&validateLinksConcurrency, "concurrency", linkcheck.DefaultConcurrency, "Concurrent link checks per page in production mode")
	validateLinksCmd.Flags().StringVar(&validateLinksReport, "report", "", "Write the JSON report(s) to this file (optional)")

	rootCmd.AddCommand(validateLinksCmd)
}

func runValidateLinks(cmd *cobra.Command, _ []string) error {
	local, production, err := parseMode(validateLinksMode)
	if err != nil {
		return err
	}

	cfg, err := validateLinksSite.resolve(cmd)
	if err != nil {
		return err
	}
	if production {
		if err := cfg.RequireBaseURL(); err != nil {
			return err
		}
	}

	log, err := newLogger(cfg.LogFormat, cfg.Verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	printer := observability.NewPrinter(os.Stdout)
	var reports []*linkcheck.Report

	if local {
		report, err := linkcheck.Local(ctx, cfg.Output, log)
		if err != nil {
			return fmt.Errorf("local link check failed: %w", err)
		}
		printer.PrintLinkReport(report)
		reports = append(reports, report)
	}

	if production {
		report, err := linkcheck.Production(ctx, linkcheck.ProductionOptions{
			BaseURL:     cfg.BaseURL,
			MaxPages:    validateLinksMaxPages,
			Concurrency: validateLinksConcurrency,
			Log:         log,
		})
		if err != nil {
			return fmt.Errorf("production link check failed: %w", err)
		}
		printer.PrintLinkReport(report)
		reports = append(reports, report)
	}

	if validateLinksReport != "" {
		if err := writeJSON(validateLinksReport, reports); err != nil {
			return err
		}
	}

	broken := 0
	for _, r := range reports {
		broken += len(r.Broken)
	}
	if broken > 0 {
		return fmt.Errorf("found %d broken link(s)", broken)
	}
	return nil
}

// parseMode maps --mode to which checks run.
func parseMode(mode string) (local, production bool, err error) {
	switch mode {
	case "local":
		return true, false, nil
	case "production":
		return false, true, nil
	case "both":
		return true, true, nil
	default:
		return false, false, fmt.Errorf("invalid --mode %q (want local, production or both)", mode)
	}
}

// writeJSON writes v as indented JSON, creating parent directories.
func writeJSON(path string, v any) error {
	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := os.WriteFile(path, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
