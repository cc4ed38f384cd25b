// Package seo audits generated pages for the on-page signals search engines
// rely on: canonical links, descriptions, headings, structured data and depth.
package seo

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/permitindex/internal/fetch"
	"github.com/jonathan/permitindex/internal/rendering"
	"github.com/jonathan/permitindex/internal/types"
)

// Severity grades a single check.
type Severity string

// Check outcomes. Only SeverityFail makes an audit unsuccessful.
const (
	SeverityPass Severity = "pass"
	SeverityWarn Severity = "warn"
	SeverityFail Severity = "fail"
)

// Thresholds applied by the audit.
const (
	MinSummaryChars = 50
	MinFAQQuestions = 5
	GoodWordCount   = 800
	MinWordCount    = 500
	MinBreadcrumbs  = 2
)

// Check is the outcome of one audit rule on one page.
type Check struct {
	Name     string   `json:"name"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// PageAudit holds every check run against one page.
type PageAudit struct {
	Path   string         `json:"path"`
	Kind   types.PageKind `json:"kind"`
	Checks []Check        `json:"checks"`
}

// Count returns how many checks on the page have severity s.
func (p *PageAudit) Count(s Severity) int {
	n := 0
	for _, c := range p.Checks {
		if c.Severity == s {
			n++
		}
	}
	return n
}

func (p *PageAudit) add(name string, sev Severity, format string, args ...any) {
	p.Checks = append(p.Checks, Check{Name: name, Severity: sev, Message: fmt.Sprintf(format, args...)})
}

// Report aggregates page audits plus site-wide checks.
type Report struct {
	Mode  string      `json:"mode"`
	Site  []Check     `json:"site,omitempty"`
	Pages []PageAudit `json:"pages"`
}

// Count returns how many checks across the report have severity s.
func (r *Report) Count(s Severity) int {
	n := 0
	for _, c := range r.Site {
		if c.Severity == s {
			n++
		}
	}
	for i := range r.Pages {
		n += r.Pages[i].Count(s)
	}
	return n
}

// OK reports whether no check failed.
func (r *Report) OK() bool {
	return r.Count(SeverityFail) == 0
}

// AuditPage runs every rule applicable to the page at sitePath. expectedCanonical
// is the absolute URL the page should declare as canonical.
func AuditPage(html, sitePath, expectedCanonical string) (*PageAudit, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", sitePath, err)
	}

	ld := jsonLDTypes(doc)
	audit := &PageAudit{Path: sitePath, Kind: classify(sitePath, ld)}

	checkCanonical(audit, doc, expectedCanonical)
	checkDescription(audit, doc)
	checkH1(audit, doc)
	checkViewport(audit, doc)

	if audit.Kind != types.PageHome {
		checkBreadcrumbs(audit, doc)
	}
	if audit.Kind == types.PagePermit {
		checkSummary(audit, doc)
		checkFAQ(audit, doc, ld)
		checkSection(audit, doc, "community tips", "Tips from the Community")
		checkSection(audit, doc, "common mistakes", "Common Mistakes")
		if err := checkWordCount(audit, html); err != nil {
			return nil, err
		}
	}
	return audit, nil
}

// classify infers the page kind from its path and structured data.
func classify(sitePath string, ld map[string]int) types.PageKind {
	switch {
	case sitePath == "/":
		return types.PageHome
	case ld["GovernmentService"] > 0:
		return types.PagePermit
	default:
		return types.PageHub
	}
}

// jsonLDTypes counts the @type values of every parseable JSON-LD block.
func jsonLDTypes(doc *goquery.Document) map[string]int {
	counts := make(map[string]int)
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var block struct {
			Type       string `json:"@type"`
			MainEntity []any  `json:"mainEntity"`
		}
		if err := json.Unmarshal([]byte(s.Text()), &block); err != nil || block.Type == "" {
			return
		}
		counts[block.Type]++
		if block.Type == "FAQPage" {
			counts["FAQPage.questions"] += len(block.MainEntity)
		}
	})
	return counts
}

func checkCanonical(a *PageAudit, doc *goquery.Document, expected string) {
	href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href")
	switch {
	case !ok:
		a.add("canonical", SeverityFail, "no canonical link")
	case expected != "" && href != expected:
		a.add("canonical", SeverityFail, "canonical is %s, expected %s", href, expected)
	default:
		a.add("canonical", SeverityPass, "canonical is %s", href)
	}
}

func checkDescription(a *PageAudit, doc *goquery.Document) {
	content, ok := doc.Find(`meta[name="description"]`).First().Attr("content")
	n := utf8.RuneCountInString(strings.TrimSpace(content))
	switch {
	case !ok:
		a.add("meta description", SeverityFail, "no meta description")
	case n == 0:
		a.add("meta description", SeverityFail, "meta description is empty")
	case n < rendering.MinDescription || n > rendering.MaxDescription:
		a.add("meta description", SeverityWarn, "%d chars (want %d-%d)", n, rendering.MinDescription, rendering.MaxDescription)
	default:
		a.add("meta description", SeverityPass, "%d chars", n)
	}
}

func checkH1(a *PageAudit, doc *goquery.Document) {
	switch n := doc.Find("h1").Length(); n {
	case 0:
		a.add("h1", SeverityFail, "no h1")
	case 1:
		a.add("h1", SeverityPass, "%q", strings.TrimSpace(doc.Find("h1").Text()))
	default:
		a.add("h1", SeverityWarn, "%d h1 elements", n)
	}
}

func checkViewport(a *PageAudit, doc *goquery.Document) {
	content, ok := doc.Find(`meta[name="viewport"]`).First().Attr("content")
	switch {
	case !ok:
		a.add("viewport", SeverityFail, "no viewport meta tag")
	case !strings.Contains(content, "width=device-width"):
		a.add("viewport", SeverityWarn, "viewport lacks width=device-width")
	default:
		a.add("viewport", SeverityPass, "mobile viewport set")
	}
}

func checkBreadcrumbs(a *PageAudit, doc *goquery.Document) {
	nav := doc.Find(`nav[aria-label="Breadcrumb"]`)
	if nav.Length() == 0 {
		a.add("breadcrumbs", SeverityFail, "no breadcrumb nav")
		return
	}
	if n := nav.Find("a").Length(); n < MinBreadcrumbs {
		a.add("breadcrumbs", SeverityWarn, "only %d breadcrumb links", n)
		return
	}
	a.add("breadcrumbs", SeverityPass, "%d breadcrumb links", nav.Find("a").Length())
}

func checkSummary(a *PageAudit, doc *goquery.Document) {
	summary := doc.Find(".bg-blue-50").First()
	if summary.Length() == 0 {
		a.add("summary", SeverityFail, "no above-the-fold summary")
		return
	}
	n := utf8.RuneCountInString(strings.TrimSpace(summary.Text()))
	if n <= MinSummaryChars {
		a.add("summary", SeverityWarn, "summary is only %d chars", n)
		return
	}
	a.add("summary", SeverityPass, "%d chars", n)
}

func checkFAQ(a *PageAudit, doc *goquery.Document, ld map[string]int) {
	heading := headingWith(doc, "h2", "Frequently Asked Questions")
	switch {
	case heading.Length() == 0:
		a.add("faq section", SeverityFail, "no FAQ heading")
	case doc.Find("h3").Length() < MinFAQQuestions:
		a.add("faq section", SeverityWarn, "only %d questions", doc.Find("h3").Length())
	default:
		a.add("faq section", SeverityPass, "%d questions", doc.Find("h3").Length())
	}

	if ld["FAQPage"] == 0 {
		a.add("faq schema", SeverityFail, "no FAQPage structured data")
		return
	}
	a.add("faq schema", SeverityPass, "FAQPage with %d questions", ld["FAQPage.questions"])
}

func checkSection(a *PageAudit, doc *goquery.Document, name, heading string) {
	if headingWith(doc, "h2", heading).Length() == 0 {
		a.add(name, SeverityWarn, "no %q section", heading)
		return
	}
	a.add(name, SeverityPass, "section present")
}

func checkWordCount(a *PageAudit, html string) error {
	text, err := fetch.ExtractMainText(html, fetch.DefaultTextSelectors())
	if err != nil {
		return err
	}
	n := len(strings.Fields(text))
	switch {
	case n >= GoodWordCount:
		a.add("word count", SeverityPass, "%d words", n)
	case n >= MinWordCount:
		a.add("word count", SeverityWarn, "%d words (target %d+)", n, GoodWordCount)
	default:
		a.add("word count", SeverityFail, "thin content: %d words", n)
	}
	return nil
}

// headingWith finds tag elements whose text contains text, ignoring case.
func headingWith(doc *goquery.Document, tag, text string) *goquery.Selection {
	want := strings.ToLower(text)
	return doc.Find(tag).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(s.Text()), want)
	})
}
