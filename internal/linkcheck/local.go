package linkcheck

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jonathan/permitindex/internal/logging"
)

// Local checks every internal link in the HTML files under outDir.
// A link resolves when it maps to an existing file:
//
//	/        -> index.html
//	/x/      -> x/index.html
//	/x       -> x, x.html or x/index.html
func Local(ctx context.Context, outDir string, log *logging.Logger) (*Report, error) {
	if log == nil {
		log = logging.Nop()
	}

	info, err := os.Stat(outDir)
	if err != nil {
		return nil, fmt.Errorf("output directory not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output path %s is not a directory", outDir)
	}

	pages, err := doublestar.Glob(os.DirFS(outDir), "**/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list HTML files: %w", err)
	}
	sort.Strings(pages)
	log.Info("checking local links", "dir", outDir, "pages", len(pages))

	report := &Report{Mode: "local", Pages: len(pages)}
	unique := make(map[string]bool)

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(filepath.Join(outDir, filepath.FromSlash(page)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", page, err)
		}

		links, err := ExtractLinks(string(content), "/"+pageDir(page))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", page, err)
		}

		for _, link := range links {
			report.Checked++
			ok, seen := unique[link]
			if !seen {
				ok = ResolveLocal(outDir, link) != ""
				unique[link] = ok
			}
			if !ok {
				report.Broken = append(report.Broken, Broken{Source: page, Link: link, Reason: "no matching file"})
			}
		}
	}

	report.Unique = len(unique)
	report.sortBroken()
	return report, nil
}

// ResolveLocal maps a site path to the file serving it under outDir and returns
// that file path, or "" when none exists.
func ResolveLocal(outDir, link string) string {
	clean := strings.Trim(path.Clean("/"+link), "/")
	if strings.HasPrefix(clean, "..") {
		return ""
	}
	rel := filepath.FromSlash(clean)

	var candidates []string
	switch {
	case clean == "":
		candidates = []string{"index.html"}
	case strings.HasSuffix(link, "/"):
		candidates = []string{filepath.Join(rel, "index.html")}
	default:
		candidates = []string{rel, rel + ".html", filepath.Join(rel, "index.html")}
	}

	for _, c := range candidates {
		full := filepath.Join(outDir, c)
		if info, err := os.Stat(full); err == nil && !info.IsDir() {
			return full
		}
	}
	return ""
}

// pageDir returns the site directory of an output file, with a trailing slash
// ("ca-dmv/index.html" -> "ca-dmv/", "index.html" -> "").
func pageDir(page string) string {
	dir := path.Dir(page)
	if dir == "." {
		return ""
	}
	return dir + "/"
}
