// Package linkcheck verifies that internal links in the generated site resolve,
// either against the output tree on disk or against a deployed copy over HTTP.
package linkcheck

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Broken is one unresolved link found on a page.
type Broken struct {
	Source string `json:"source"` // page the link appears on
	Link   string `json:"link"`   // site path the link points to
	Status int    `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Report summarises a link check run.
type Report struct {
	Mode    string   `json:"mode"` // "local" or "production"
	Pages   int      `json:"pages"`
	Checked int      `json:"checked"` // link references examined
	Unique  int      `json:"unique"`  // distinct link targets
	Broken  []Broken `json:"broken"`
}

// OK reports whether no broken links were found.
func (r *Report) OK() bool {
	return len(r.Broken) == 0
}

// BySource groups broken links by the page they were found on, sorted by page.
func (r *Report) BySource() ([]string, map[string][]Broken) {
	groups := make(map[string][]Broken)
	for _, b := range r.Broken {
		groups[b.Source] = append(groups[b.Source], b)
	}
	sources := make([]string, 0, len(groups))
	for s, links := range groups {
		sort.Slice(links, func(i, j int) bool { return links[i].Link < links[j].Link })
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return sources, groups
}

func (r *Report) sortBroken() {
	sort.Slice(r.Broken, func(i, j int) bool {
		if r.Broken[i].Source != r.Broken[j].Source {
			return r.Broken[i].Source < r.Broken[j].Source
		}
		return r.Broken[i].Link < r.Broken[j].Link
	})
}

var skippedSchemes = []string{"http://", "https://", "mailto:", "tel:", "#", "javascript:", "data:", "//"}

// ExtractLinks returns the internal link paths referenced by any href attribute
// in html. Relative links are resolved against basePath (a site directory such as
// "/ca-dmv-title-transfer/"). Query strings and fragments are dropped. The result
// is sorted and deduplicated.
func ExtractLinks(html, basePath string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base path %q: %w", basePath, err)
	}

	seen := make(map[string]struct{})
	doc.Find("[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || hasSkippedScheme(href) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		path := ref.Path
		if !strings.HasPrefix(path, "/") {
			if basePath == "" {
				return
			}
			path = base.ResolveReference(ref).Path
		}
		if path == "" {
			return
		}
		seen[path] = struct{}{}
	})

	links := make([]string, 0, len(seen))
	for l := range seen {
		links = append(links, l)
	}
	sort.Strings(links)
	return links, nil
}

func hasSkippedScheme(href string) bool {
	lower := strings.ToLower(href)
	for _, p := range skippedSchemes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
