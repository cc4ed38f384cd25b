package site

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/jonathan/permitindex/internal/slugs"
	"github.com/jonathan/permitindex/internal/types"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

// BuildSitemap renders the manifest as a sitemaps.org urlset in manifest order.
func BuildSitemap(manifest *types.SiteManifest, baseURL string) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")
	set := urlSet{Xmlns: sitemapNS, URLs: make([]sitemapURL, 0, len(manifest.Entries))}
	for _, e := range manifest.Entries {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     base + slugs.EscapePath(e.Path),
			LastMod: e.LastMod.Format(types.DateLayout),
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, &AssembleError{Path: SitemapFile, Message: "failed to encode sitemap", Cause: err}
	}
	return []byte(xml.Header + string(body) + "\n"), nil
}

// BuildRobots allows every crawler and points them at the sitemap.
func BuildRobots(baseURL string) []byte {
	return []byte(fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s/%s\n", strings.TrimRight(baseURL, "/"), SitemapFile))
}

// SitemapLocs parses a sitemap and returns its loc values in document order.
func SitemapLocs(data []byte) ([]string, error) {
	var set urlSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, &AssembleError{Path: SitemapFile, Message: "failed to parse sitemap", Cause: err}
	}
	locs := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs, nil
}
