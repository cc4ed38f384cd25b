package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// chromeSelector matches page furniture that never counts as content.
const chromeSelector = "nav, footer, header, script, style, noscript, template, form"

// DefaultTextSelectors returns the selectors that hold page content, in
// priority order.
func DefaultTextSelectors() []string {
	return []string{"main", "article", "#content"}
}

// ExtractMainText returns the visible text of the first element matching one
// of contentSelectors, or of <body> when none match. Elements matching
// noiseSelectors are dropped first. Blank lines are removed.
func ExtractMainText(html string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(chromeSelector).Remove()
	if noise := strings.Join(noiseSelectors, ", "); noise != "" {
		doc.Find(noise).Remove()
	}

	root := doc.Find("body")
	for _, sel := range contentSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			root = found.First()
			break
		}
	}
	return squashLines(root.Text()), nil
}

func squashLines(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}
