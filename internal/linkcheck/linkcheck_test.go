package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	html := `<html><head>
		<link rel="canonical" href="https://permitindex.com/ca-dmv/">
		<link rel="icon" href="/favicon-32x32.png">
	</head><body>
		<a href="/">Home</a>
		<a href="/california/#top">Hub</a>
		<a href="../other-permit/">Relative</a>
		<a href="mailto:help@example.gov">Mail</a>
		<a href="#faq">FAQ</a>
		<a href="javascript:void(0)">JS</a>
		<a href="//cdn.example.com/x.js">CDN</a>
		<a href="/california/">Hub again</a>
	</body></html>`

	links, err := ExtractLinks(html, "/ca-dmv/")
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/california/", "/favicon-32x32.png", "/other-permit/"}, links)
}

func TestExtractLinks_RelativeWithoutBaseIgnored(t *testing.T) {
	links, err := ExtractLinks(`<a href="page.html">x</a><a href="/abs">y</a>`, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/abs"}, links)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func TestResolveLocal(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":        "home",
		"ca-dmv/index.html": "permit",
		"about.html":        "about",
		"robots.txt":        "robots",
		"california/x.html": "nested",
		"favicon-16x16.png": "png",
	})

	tests := []struct {
		link string
		ok   bool
	}{
		{"/", true},
		{"/ca-dmv/", true},
		{"/ca-dmv", true},
		{"/about", true},
		{"/robots.txt", true},
		{"/favicon-16x16.png", true},
		{"/california/x", true},
		{"/missing/", false},
		{"/missing", false},
		{"/california/", false},
		{"/../etc/passwd", false},
	}
	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got := ResolveLocal(dir, tt.link)
			if tt.ok {
				assert.NotEmpty(t, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestLocal_ReportsBrokenLinks(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":            `<a href="/ca-dmv/">ok</a><a href="/gone/">broken</a>`,
		"ca-dmv/index.html":     `<a href="/">home</a><a href="../california/">hub</a><a href="/also-gone">x</a>`,
		"california/index.html": `<a href="/ca-dmv/">permit</a><a href="/gone/">broken</a>`,
	})

	report, err := Local(context.Background(), dir, nil)
	require.NoError(t, err)

	assert.Equal(t, "local", report.Mode)
	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 7, report.Checked)
	assert.Equal(t, 5, report.Unique)
	assert.False(t, report.OK())

	require.Len(t, report.Broken, 3)
	assert.Equal(t, Broken{Source: "ca-dmv/index.html", Link: "/also-gone", Reason: "no matching file"}, report.Broken[0])
	assert.Equal(t, "california/index.html", report.Broken[1].Source)
	assert.Equal(t, "/gone/", report.Broken[1].Link)
	assert.Equal(t, "index.html", report.Broken[2].Source)

	sources, groups := report.BySource()
	assert.Equal(t, []string{"ca-dmv/index.html", "california/index.html", "index.html"}, sources)
	assert.Len(t, groups["index.html"], 1)
}

func TestLocal_AllValid(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":        `<a href="/ca-dmv/">ok</a>`,
		"ca-dmv/index.html": `<a href="/">home</a>`,
	})

	report, err := Local(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestLocal_MissingDirectory(t *testing.T) {
	_, err := Local(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output directory not found")
}

func newSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if filepath.Ext(r.URL.Path) == ".xml" {
			w.Header().Set("Content-Type", "application/xml")
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestProduction_CrawlsAndReports(t *testing.T) {
	server := newSite(t, map[string]string{
		"/":            `<a href="/ca-dmv/">permit</a><a href="/sitemap.xml">sitemap</a><a href="https://external.example/">ext</a>`,
		"/ca-dmv/":     `<a href="/">home</a><a href="/california/">hub</a><a href="/missing/">broken</a>`,
		"/california/": `<a href="/ca-dmv/">permit</a>`,
		"/sitemap.xml": `<urlset></urlset>`,
	})

	report, err := Production(context.Background(), ProductionOptions{BaseURL: server.URL})
	require.NoError(t, err)

	assert.Equal(t, "production", report.Mode)
	assert.Equal(t, 3, report.Pages, "home, permit and hub are crawled; sitemap is not")
	require.Len(t, report.Broken, 1)
	assert.Equal(t, "/ca-dmv/", report.Broken[0].Source)
	assert.Equal(t, "/missing/", report.Broken[0].Link)
	assert.Equal(t, http.StatusNotFound, report.Broken[0].Status)
}

func TestProduction_RespectsMaxPages(t *testing.T) {
	server := newSite(t, map[string]string{
		"/":   `<a href="/a/">a</a><a href="/b/">b</a>`,
		"/a/": `<a href="/c/">c</a>`,
		"/b/": `ok`,
		"/c/": `ok`,
	})

	report, err := Production(context.Background(), ProductionOptions{BaseURL: server.URL, MaxPages: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pages)
	assert.True(t, report.OK())
}

func TestProduction_InvalidBaseURL(t *testing.T) {
	_, err := Production(context.Background(), ProductionOptions{BaseURL: "not a url"})
	require.Error(t, err)
}

func TestSameHost(t *testing.T) {
	assert.True(t, sameHost("permitindex.com", "www.permitindex.com"))
	assert.True(t, sameHost("PermitIndex.com", "permitindex.com"))
	assert.False(t, sameHost("evil.com", "permitindex.com"))
}

func TestCrawlable(t *testing.T) {
	assert.True(t, crawlable("/ca-dmv/"))
	assert.False(t, crawlable("/sitemap.xml"))
	assert.False(t, crawlable("/robots.txt"))
	assert.False(t, crawlable("/permits.json"))
}
