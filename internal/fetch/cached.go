package fetch

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachedFetcher fetches each URL at most once for its lifetime. Concurrent
// requests for the same URL share one HTTP round trip. It is meant to live
// for a single crawl, not across runs.
type CachedFetcher struct {
	options *Options
	group   singleflight.Group

	mu      sync.Mutex
	results map[string]cachedEntry
}

type cachedEntry struct {
	result *Result
	err    error
}

// NewCachedFetcher creates a new cached fetcher.
func NewCachedFetcher(options *Options) *CachedFetcher {
	if options == nil {
		options = DefaultOptions()
	}
	return &CachedFetcher{
		options: options,
		results: make(map[string]cachedEntry),
	}
}

// CachedResult extends Result with cache metadata.
type CachedResult struct {
	*Result
	FromCache bool
}

// Fetch retrieves a URL, returning the stored outcome if it was fetched before.
// Errors are cached too: a broken link stays broken for the whole crawl.
func (f *CachedFetcher) Fetch(ctx context.Context, urlStr string) (*CachedResult, error) {
	f.mu.Lock()
	entry, ok := f.results[urlStr]
	f.mu.Unlock()
	if ok {
		return &CachedResult{Result: entry.result, FromCache: true}, entry.err
	}

	v, err, shared := f.group.Do(urlStr, func() (any, error) {
		result, err := URL(ctx, urlStr, f.options)
		f.mu.Lock()
		f.results[urlStr] = cachedEntry{result: result, err: err}
		f.mu.Unlock()
		return result, err
	})
	result, _ := v.(*Result)
	return &CachedResult{Result: result, FromCache: shared}, err
}

// Len returns the number of distinct URLs fetched.
func (f *CachedFetcher) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}
