package seo

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jonathan/permitindex/internal/fetch"
	"github.com/jonathan/permitindex/internal/logging"
	"github.com/jonathan/permitindex/internal/site"
	"github.com/jonathan/permitindex/internal/slugs"
)

// DefaultMaxPages caps how many sitemap pages a production audit visits.
const DefaultMaxPages = 20

// Local audits every index.html under outDir. Canonical URLs are expected to be
// baseURL joined with the page's directory.
func Local(ctx context.Context, outDir, baseURL string, log *logging.Logger) (*Report, error) {
	if log == nil {
		log = logging.Nop()
	}
	if _, err := os.Stat(outDir); err != nil {
		return nil, fmt.Errorf("output directory not found: %w", err)
	}

	files, err := doublestar.Glob(os.DirFS(outDir), "**/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	sort.Strings(files)
	log.Info("auditing local pages", "dir", outDir, "pages", len(files))

	report := &Report{Mode: "local"}
	base := strings.TrimRight(baseURL, "/")

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(f)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}

		sitePath := sitePathOf(f)
		expected := ""
		if base != "" {
			expected = base + slugs.EscapePath(sitePath)
		}
		audit, err := AuditPage(string(content), sitePath, expected)
		if err != nil {
			return nil, err
		}
		report.Pages = append(report.Pages, *audit)
	}

	report.Site = append(report.Site, checkLocalSitemap(outDir))
	return report, nil
}

// sitePathOf maps "ca-dmv/index.html" to "/ca-dmv/" and "index.html" to "/".
func sitePathOf(file string) string {
	dir := path.Dir(file)
	if dir == "." {
		return "/"
	}
	return "/" + dir + "/"
}

func checkLocalSitemap(outDir string) Check {
	data, err := os.ReadFile(filepath.Join(outDir, site.SitemapFile))
	if err != nil {
		return Check{Name: "sitemap", Severity: SeverityFail, Message: "sitemap.xml missing"}
	}
	return sitemapCheck(data)
}

func sitemapCheck(data []byte) Check {
	locs, err := site.SitemapLocs(data)
	if err != nil {
		return Check{Name: "sitemap", Severity: SeverityFail, Message: err.Error()}
	}
	if len(locs) == 0 {
		return Check{Name: "sitemap", Severity: SeverityWarn, Message: "sitemap has no URLs"}
	}
	return Check{Name: "sitemap", Severity: SeverityPass, Message: fmt.Sprintf("%d URLs", len(locs))}
}

// ProductionOptions configures an audit of a deployed site.
type ProductionOptions struct {
	BaseURL  string
	Paths    []string // pages to audit; read from sitemap.xml when empty
	MaxPages int
	Browser  bool // render pages in headless Chrome before auditing
	Timeout  time.Duration
	Fetch    *fetch.Options
	Log      *logging.Logger
}

// Production audits pages of a deployed site. Pages come from opts.Paths or,
// when none are given, from the site's sitemap.
func Production(ctx context.Context, opts ProductionOptions) (*Report, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Timeout <= 0 {
		opts.Timeout = fetch.DefaultTimeout
	}
	if opts.Fetch == nil {
		opts.Fetch = fetch.DefaultOptions()
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	root := strings.TrimRight(base.String(), "/")

	report := &Report{Mode: "production"}

	paths := opts.Paths
	sitemapURL := root + "/" + site.SitemapFile
	res, err := fetch.URL(ctx, sitemapURL, opts.Fetch)
	if err != nil {
		report.Site = append(report.Site, Check{Name: "sitemap", Severity: SeverityFail, Message: err.Error()})
	} else {
		check := sitemapCheck([]byte(res.HTML))
		report.Site = append(report.Site, check)
		if len(paths) == 0 && check.Severity == SeverityPass {
			locs, _ := site.SitemapLocs([]byte(res.HTML))
			paths = pathsOnHost(locs, base.Host)
		}
	}
	if len(paths) == 0 {
		paths = []string{"/"}
	}
	if len(paths) > opts.MaxPages {
		paths = paths[:opts.MaxPages]
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageURL := root + slugs.EscapePath(p)
		opts.Log.Info("auditing page", "url", pageURL)

		html, err := load(ctx, pageURL, opts)
		if err != nil {
			audit := PageAudit{Path: p}
			audit.add("load", SeverityFail, "%v", err)
			report.Pages = append(report.Pages, audit)
			continue
		}
		audit, err := AuditPage(html, p, pageURL)
		if err != nil {
			return nil, err
		}
		report.Pages = append(report.Pages, *audit)
	}
	return report, nil
}

func load(ctx context.Context, pageURL string, opts ProductionOptions) (string, error) {
	if opts.Browser {
		return fetch.WithBrowser(ctx, pageURL, opts.Timeout, opts.Log)
	}
	res, err := fetch.URL(ctx, pageURL, opts.Fetch)
	if err != nil {
		return "", err
	}
	return res.HTML, nil
}

// pathsOnHost converts absolute sitemap locations to site paths, dropping any
// that point at another host.
func pathsOnHost(locs []string, host string) []string {
	var paths []string
	for _, loc := range locs {
		u, err := url.Parse(loc)
		if err != nil || !strings.EqualFold(u.Host, host) {
			continue
		}
		p := u.Path
		if p == "" {
			p = "/"
		}
		paths = append(paths, p)
	}
	return paths
}
