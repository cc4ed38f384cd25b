package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/permitindex/internal/fetch"
	"github.com/jonathan/permitindex/internal/logging"
)

// Production crawl defaults.
const (
	DefaultMaxPages    = 20
	DefaultConcurrency = 4
	DefaultLinkTimeout = 10 * time.Second
)

// Paths with these extensions are checked but never crawled.
var nonPageExtensions = []string{".xml", ".txt", ".json"}

// ProductionOptions configures a crawl of a deployed site.
type ProductionOptions struct {
	BaseURL     string
	MaxPages    int
	Concurrency int
	Fetch       *fetch.Options
	Log         *logging.Logger
}

// Production crawls a deployed site breadth-first from "/", visiting at most
// MaxPages pages on the same host. Every same-host link on a visited page is
// requested once; any non-200 answer or transport failure marks it broken.
func Production(ctx context.Context, opts ProductionOptions) (*Report, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Fetch == nil {
		opts.Fetch = fetch.DefaultOptions()
		opts.Fetch.Timeout = DefaultLinkTimeout
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}

	c := &crawler{
		base:    base,
		fetcher: fetch.NewCachedFetcher(opts.Fetch),
		log:     opts.Log,
		status:  make(map[string]int),
		report:  &Report{Mode: "production"},
	}

	queue := []string{"/"}
	queued := map[string]bool{"/": true}
	visited := 0

	for len(queue) > 0 && visited < opts.MaxPages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]
		visited++

		next, err := c.visit(ctx, current, opts.Concurrency)
		if err != nil {
			return nil, err
		}
		for _, p := range next {
			if !queued[p] {
				queued[p] = true
				queue = append(queue, p)
			}
		}
	}

	c.report.Pages = visited
	c.report.Unique = len(c.status)
	c.report.sortBroken()
	return c.report, nil
}

type crawler struct {
	base    *url.URL
	fetcher *fetch.CachedFetcher
	log     *logging.Logger

	mu     sync.Mutex
	status map[string]int // site path -> last status, 0 on transport failure
	report *Report
}

// visit loads one page, checks its links concurrently and returns the
// crawlable pages it links to.
func (c *crawler) visit(ctx context.Context, page string, concurrency int) ([]string, error) {
	c.log.Info("checking page", "path", page)

	res, err := c.fetcher.Fetch(ctx, c.absolute(page))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.log.Warn("page failed to load", "path", page, "error", err)
		return nil, nil
	}
	if !fetch.IsHTML(res.ContentType) {
		return nil, nil
	}

	links, err := c.sameHostLinks(res.HTML, res.URL)
	if err != nil {
		c.log.Warn("page could not be parsed", "path", page, "error", err)
		return nil, nil
	}

	var (
		mu   sync.Mutex
		next []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, link := range links {
		g.Go(func() error {
			status, isHTML, reason := c.check(gctx, link)
			if gctx.Err() != nil {
				return gctx.Err()
			}

			c.mu.Lock()
			c.report.Checked++
			c.status[link] = status
			if status != http.StatusOK {
				c.report.Broken = append(c.report.Broken, Broken{Source: page, Link: link, Status: status, Reason: reason})
			}
			c.mu.Unlock()

			if status == http.StatusOK && isHTML && crawlable(link) {
				mu.Lock()
				next = append(next, link)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Goroutines finish in any order; keep the crawl order stable.
	sort.Strings(next)
	return next, nil
}

// check requests a link and returns its status, whether it served HTML, and a
// reason when it failed.
func (c *crawler) check(ctx context.Context, link string) (int, bool, string) {
	res, err := c.fetcher.Fetch(ctx, c.absolute(link))
	if res != nil && res.Result != nil {
		reason := ""
		if err != nil {
			reason = err.Error()
		}
		return res.StatusCode, fetch.IsHTML(res.ContentType), reason
	}
	if err != nil {
		var fe *fetch.Error
		if errors.As(err, &fe) {
			return 0, false, fe.Message
		}
		return 0, false, err.Error()
	}
	return 0, false, "no response"
}

func (c *crawler) absolute(p string) string {
	return c.base.ResolveReference(&url.URL{Path: p}).String()
}

// sameHostLinks extracts a[href] links from a fetched page, keeping only paths on
// the crawled host.
func (c *crawler) sameHostLinks(html, pageURL string) ([]string, error) {
	pu, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		hrefs = append(hrefs, s.AttrOr("href", ""))
	})

	seen := make(map[string]struct{})
	for _, href := range hrefs {
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		abs := pu.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		if !sameHost(abs.Host, c.base.Host) {
			continue
		}
		p := abs.Path
		if p == "" {
			p = "/"
		}
		seen[p] = struct{}{}
	}

	links := make([]string, 0, len(seen))
	for p := range seen {
		links = append(links, p)
	}
	sort.Strings(links)
	return links, nil
}

// sameHost treats the bare and www hosts as one site.
func sameHost(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "www.")
	b = strings.TrimPrefix(strings.ToLower(b), "www.")
	return a == b
}

func crawlable(p string) bool {
	lower := strings.ToLower(p)
	for _, ext := range nonPageExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}
