package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/permitindex/internal/observability"
	"github.com/jonathan/permitindex/internal/seo"
)

var validateSEOCmd = &cobra.Command{
	Use:   "validate-seo",
	Short: "Audit pages for search engine signals",
	Long: `Audits canonical links, meta descriptions, headings, the above-the-fold summary,
FAQ content and structured data, breadcrumbs, content depth and the mobile viewport.
Local mode audits every page in the output directory; production mode audits the
deployed pages listed in its sitemap (or those given with --path).`,
	RunE: runValidateSEO,
}

var (
	validateSEOSite     siteFlags
	validateSEOMode     string
	validateSEOPaths    []string
	validateSEOMaxPages int
	validateSEOBrowser  bool
	validateSEOTimeout  time.Duration
	validateSEOReport   string
)

func init() {
	validateSEOSite.register(validateSEOCmd, false)
	validateSEOCmd.Flags().StringVar(&validateSEOMode, "mode", "local", "What to audit: local, production or both")
	validateSEOCmd.Flags().StringSliceVar(&validateSEOPaths, "path", nil, "Site path to audit in production mode (repeatable; defaults to the sitemap)")
	validateSEOCmd.Flags().IntVar(&validateSEOMaxPages, "max-pages", seo.DefaultMaxPages, "Maximum pages to audit in production mode")
	validateSEOCmd.Flags().BoolVar(&validateSEOBrowser, "use-browser", false, "Render production pages in headless Chrome before auditing")
	validateSEOCmd.Flags().DurationVar(&validateSEOTimeout, "timeout", 30*time.Second, "Per-page timeout in production mode")
	validateSEOCmd.Flags().StringVar(&validateSEOReport, "report", "", "Write the JSON report(s) to this file (optional)")

	rootCmd.AddCommand(validateSEOCmd)
}

func runValidateSEO(cmd *cobra.Command, _ []string) error {
	local, production, err := parseMode(validateSEOMode)
	if err != nil {
		return err
	}

	cfg, err := validateSEOSite.resolve(cmd)
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
	var reports []*seo.Report

	if local {
		report, err := seo.Local(ctx, cfg.Output, cfg.BaseURL, log)
		if err != nil {
			return fmt.Errorf("local SEO audit failed: %w", err)
		}
		printer.PrintSEOReport(report)
		reports = append(reports, report)
	}

	if production {
		report, err := seo.Production(ctx, seo.ProductionOptions{
			BaseURL:  cfg.BaseURL,
			Paths:    validateSEOPaths,
			MaxPages: validateSEOMaxPages,
			Browser:  validateSEOBrowser,
			Timeout:  validateSEOTimeout,
			Log:      log,
		})
		if err != nil {
			return fmt.Errorf("production SEO audit failed: %w", err)
		}
		printer.PrintSEOReport(report)
		reports = append(reports, report)
	}

	if validateSEOReport != "" {
		if err := writeJSON(validateSEOReport, reports); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range reports {
		failed += r.Count(seo.SeverityFail)
	}
	if failed > 0 {
		return fmt.Errorf("SEO audit found %d critical issue(s)", failed)
	}
	return nil
}
