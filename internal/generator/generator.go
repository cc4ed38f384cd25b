// Package generator runs the static-site build: load, slug, resolve, render,
// stage and publish. Each stage finishes before the next starts and any error
// aborts the run before anything is published.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/permitindex/internal/favicon"
	"github.com/jonathan/permitindex/internal/loader"
	"github.com/jonathan/permitindex/internal/logging"
	"github.com/jonathan/permitindex/internal/rendering"
	"github.com/jonathan/permitindex/internal/site"
	"github.com/jonathan/permitindex/internal/slugs"
	"github.com/jonathan/permitindex/internal/types"
)

// ProgressEvent represents a progress update during a build
type ProgressEvent struct {
	Step    string
	Message string
}

// ProgressCallback is called when build progress occurs
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for one build
type Options struct {
	Data             string // CSV file, directory, or doublestar glob
	Output           string
	BaseURL          string
	SiteName         string
	FeedbackEndpoint string
	StrictRefs       bool // dangling related_pages abort the build
	SkipFavicons     bool
	Check            bool // compare against Output instead of publishing
	Log              *logging.Logger
	OnProgress       ProgressCallback
}

// Stats summarises a build for the final report
type Stats struct {
	Records       int
	Permits       int
	Hubs          int
	Pages         int
	Files         int
	DanglingRefs  int
	DuplicateRefs int
	Duration      time.Duration
	Output        string
	Published     bool
}

// Result is everything a build produced
type Result struct {
	Stats    Stats
	Report   *slugs.Report
	Manifest *types.SiteManifest
	Sitemap  string
	Diff     *site.DiffReport // set in check mode
}

// ReferenceError is returned in strict mode when related_pages point at
// slugs that do not exist
type ReferenceError struct {
	Warnings []types.ReferenceWarning
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%d dangling related_pages reference(s), first: %s", len(e.Warnings), e.Warnings[0].String())
}

// Report wraps the dangling references for printing.
func (e *ReferenceError) Report() *slugs.Report {
	return &slugs.Report{Warnings: e.Warnings}
}

func emitProgress(opts *Options, step, message string) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Step: step, Message: message})
	}
}

// Run performs one full build. ctx is checked between stages.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	// Step 1: load and validate the dataset
	emitProgress(&opts, "load", fmt.Sprintf("Loading records from %s", opts.Data))
	records, err := loader.New(log).Load(ctx, opts.Data)
	if err != nil {
		return nil, err
	}
	log.Info("loaded records", "count", len(records))

	// Step 2: assign slugs, halting on the first collision
	emitProgress(&opts, "slugs", fmt.Sprintf("Assigning slugs to %d records", len(records)))
	idx, err := slugs.BuildIndex(records)
	if err != nil {
		return nil, err
	}

	// Step 3: resolve relations and derive hubs and the manifest
	emitProgress(&opts, "resolve", "Resolving related pages")
	relations, report := slugs.ResolveAll(idx)
	dangling := report.Dangling()
	for _, w := range report.Warnings {
		log.Warn("reference warning", "kind", string(w.Kind), "source", w.Source, "target", w.Target)
	}
	if opts.StrictRefs && len(dangling) > 0 {
		return nil, &ReferenceError{Warnings: dangling}
	}

	groups := slugs.GroupByJurisdiction(idx)
	manifest, err := slugs.BuildManifest(idx, groups)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: render every page into the assembler
	emitProgress(&opts, "render", fmt.Sprintf("Rendering %d pages", len(manifest.Entries)))
	asm := site.NewAssembler(opts.Output, opts.BaseURL, log)
	info := rendering.SiteInfo{Name: opts.SiteName, BaseURL: opts.BaseURL, FeedbackEndpoint: opts.FeedbackEndpoint}
	if err := renderPages(asm, info, idx, relations, groups); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 5: data export and favicons
	emitProgress(&opts, "assets", "Writing data export and favicons")
	export, err := site.BuildExport(idx, relations)
	if err != nil {
		return nil, err
	}
	if err := asm.WriteFile(site.ExportFile, export); err != nil {
		return nil, err
	}
	if !opts.SkipFavicons {
		if err := writeFavicons(asm, opts.SiteName); err != nil {
			return nil, err
		}
	}

	// Step 6: sitemap and robots.txt, then publish or compare
	sitemap, err := asm.Finalize(manifest)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Report:   report,
		Manifest: manifest,
		Sitemap:  sitemap,
		Stats: Stats{
			Records:       len(records),
			Permits:       idx.Len(),
			Hubs:          len(groups),
			Pages:         asm.Pages(),
			Files:         len(asm.Files()),
			DanglingRefs:  len(dangling),
			DuplicateRefs: len(report.Warnings) - len(dangling),
			Output:        opts.Output,
		},
	}

	if opts.Check {
		emitProgress(&opts, "check", fmt.Sprintf("Comparing against %s", opts.Output))
		diff, err := asm.Diff()
		if err != nil {
			return nil, err
		}
		result.Diff = diff
	} else {
		emitProgress(&opts, "publish", fmt.Sprintf("Publishing to %s", opts.Output))
		if err := asm.Commit(); err != nil {
			return nil, err
		}
		result.Stats.Published = true
	}

	result.Stats.Duration = time.Since(start)
	return result, nil
}

func renderPages(asm *site.Assembler, info rendering.SiteInfo, idx *slugs.Index, relations map[string]types.ResolvedRelations, groups []types.JurisdictionGroup) error {
	r, err := rendering.New()
	if err != nil {
		return err
	}

	hubOf := make(map[*types.PermitRecord]*types.JurisdictionGroup, idx.Len())
	for i := range groups {
		for _, rec := range groups[i].Members {
			hubOf[rec] = &groups[i]
		}
	}

	for _, rec := range idx.Records() {
		slug := idx.SlugOf(rec)
		page, err := rendering.NewPermitPage(info, slug, rec, relations[slug], hubOf[rec])
		if err != nil {
			return err
		}
		if err := renderTo(asm, r, rendering.TemplatePermit, slugs.CanonicalPath(slug), page); err != nil {
			return err
		}
	}

	for i := range groups {
		page, err := rendering.NewHubPage(info, &groups[i], idx.SlugOf)
		if err != nil {
			return err
		}
		if err := renderTo(asm, r, rendering.TemplateHub, groups[i].Path, page); err != nil {
			return err
		}
	}

	home, err := rendering.NewHomePage(info, groups, idx.Records(), idx.SlugOf)
	if err != nil {
		return err
	}
	return renderTo(asm, r, rendering.TemplateHome, "/", home)
}

func renderTo(asm *site.Assembler, r *rendering.Renderer, templateID, path string, data any) error {
	html, err := r.Render(templateID, data)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	return asm.Write(path, html)
}

func writeFavicons(asm *site.Assembler, siteName string) error {
	letter := "P"
	if name := strings.TrimSpace(siteName); name != "" {
		letter = strings.ToUpper(string([]rune(name)[0:1]))
	}
	gen, err := favicon.New(letter)
	if err != nil {
		return err
	}
	files, err := gen.All()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := asm.WriteFile(f.Name, f.Data); err != nil {
			return err
		}
	}
	return nil
}
