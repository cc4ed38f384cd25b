package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/permitindex/internal/config"
	"github.com/jonathan/permitindex/internal/generator"
	"github.com/jonathan/permitindex/internal/logging"
	"github.com/jonathan/permitindex/internal/observability"
	"github.com/jonathan/permitindex/internal/types"
	"github.com/jonathan/permitindex/internal/watch"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build the static site from the CSV dataset",
	Long: `Loads every permit record, assigns URLs, renders permit, hub and home pages and
writes them with sitemap.xml, robots.txt, permits.json and favicons. Output is staged
and only replaces the output directory once the whole build has succeeded.

Configuration can be loaded from a YAML or JSON file using --config. Command-line
flags override config file values.`,
	RunE: runGenerate,
}

var (
	generateSite         siteFlags
	generateStrictRefs   bool
	generateSkipFavicons bool
	generateCheck        bool
	generateWatch        bool
)

func init() {
	generateSite.register(generateCmd, true)
	generateCmd.Flags().BoolVar(&generateStrictRefs, "strict-refs", false, "Fail when related_pages name a slug that does not exist")
	generateCmd.Flags().BoolVar(&generateSkipFavicons, "skip-favicons", false, "Do not write favicon PNGs")
	generateCmd.Flags().BoolVar(&generateCheck, "check", false, "Build in memory and report how the output directory differs; write nothing")
	generateCmd.Flags().BoolVar(&generateWatch, "watch", false, "Rebuild whenever a dataset CSV changes")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if generateCheck && generateWatch {
		return fmt.Errorf("--check and --watch are mutually exclusive; provide only one")
	}

	cfg, err := generateSite.resolve(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strict-refs") {
		cfg.StrictRefs = generateStrictRefs
	}
	if cmd.Flags().Changed("skip-favicons") {
		cfg.SkipFavicons = generateSkipFavicons
	}
	if err := cfg.RequireBaseURL(); err != nil {
		return err
	}

	log, err := newLogger(cfg.LogFormat, cfg.Verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := observability.NewPrinter(os.Stdout)
	if err := build(ctx, cfg, log, printer); err != nil && !generateWatch {
		return err
	}
	if !generateWatch {
		return nil
	}

	root := watch.Root(cfg.Data)
	w, err := watch.New(root, watch.DefaultDebounce, log)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	defer func() { _ = w.Close() }()

	_, _ = fmt.Fprintf(os.Stdout, "Watching %s for changes (Ctrl+C to stop)\n", root)
	err = w.Run(ctx, func(ctx context.Context, _ []string) error {
		return build(ctx, cfg, log, printer)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// build runs one generator pass and prints its reports.
func build(ctx context.Context, cfg config.SiteConfig, log *logging.Logger, printer *observability.Printer) error {
	opts := generator.Options{
		Data:             cfg.Data,
		Output:           cfg.Output,
		BaseURL:          cfg.BaseURL,
		SiteName:         cfg.SiteName,
		FeedbackEndpoint: cfg.FeedbackEndpoint,
		StrictRefs:       cfg.StrictRefs,
		SkipFavicons:     cfg.SkipFavicons,
		Check:            generateCheck,
		Log:              log,
		OnProgress: func(e generator.ProgressEvent) {
			_, _ = fmt.Fprintf(os.Stdout, "[%s] %s\n", e.Step, e.Message)
		},
	}

	result, err := generator.Run(ctx, opts)
	if err != nil {
		var dataErr *types.DataError
		var refErr *generator.ReferenceError
		switch {
		case errors.As(err, &dataErr):
			printer.PrintDataError(dataErr)
		case errors.As(err, &refErr):
			printer.PrintReferenceReport(refErr.Report())
		}
		return fmt.Errorf("build failed: %w", err)
	}

	printer.PrintReferenceReport(result.Report)
	printer.PrintBuildStats(result.Stats)

	if generateCheck {
		printer.PrintDiff(result.Diff)
		if !result.Diff.Clean() {
			return fmt.Errorf("output %s is out of date: %d file(s) differ", cfg.Output, len(result.Diff.Changes))
		}
	}
	return nil
}
