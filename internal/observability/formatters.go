// Package observability provides formatted output utilities for CLI reports.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/permitindex/internal/generator"
	"github.com/jonathan/permitindex/internal/linkcheck"
	"github.com/jonathan/permitindex/internal/seo"
	"github.com/jonathan/permitindex/internal/site"
	"github.com/jonathan/permitindex/internal/slugs"
	"github.com/jonathan/permitindex/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted report output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// printBanner prints a single-line box.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBanner(text string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(text))
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads a line to the box's inner width, counting runes
// so that box-drawing and accented characters line up.
func pad(line string) string {
	width := boxWidth - 4
	n := utf8.RuneCountInString(line)
	if n > width {
		runes := []rune(line)
		return string(runes[:width-3]) + "..."
	}
	return line + strings.Repeat(" ", width-n)
}

// shorten truncates s to at most n runes.
func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// PrintBuildStats outputs a summary of a generator run.
func (p *Printer) PrintBuildStats(stats generator.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Records:        %d\n", stats.Records))
	sb.WriteString(fmt.Sprintf("Permit pages:   %d\n", stats.Permits))
	sb.WriteString(fmt.Sprintf("Hub pages:      %d\n", stats.Hubs))
	sb.WriteString(fmt.Sprintf("Total pages:    %d\n", stats.Pages))
	sb.WriteString(fmt.Sprintf("Files written:  %d\n", stats.Files))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", stats.Duration.Round(time.Millisecond)))
	if stats.Published {
		sb.WriteString(fmt.Sprintf("Output:         %s", stats.Output))
	} else {
		sb.WriteString("Output:         not written (check mode)")
	}

	p.printBox("BUILD COMPLETE", sb.String())
}

// PrintReferenceReport outputs the related_pages warnings collected during resolution.
func (p *Printer) PrintReferenceReport(report *slugs.Report) {
	if report == nil || report.Empty() {
		p.printBanner("✅ ALL RELATED PAGES RESOLVED")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d reference warnings:\n\n", len(report.Warnings)))

	count := min(len(report.Warnings), maxItemsToShow)
	for i := 0; i < count; i++ {
		w := report.Warnings[i]
		sb.WriteString(fmt.Sprintf("⚠ %s\n", w.Kind))
		sb.WriteString(fmt.Sprintf("  %s -> %s\n", shorten(w.Source, 40), shorten(w.Target, 40)))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(report.Warnings) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more warnings", len(report.Warnings)-maxItemsToShow))
	}

	p.printBox("REFERENCE WARNINGS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDataError outputs a fatal dataset error with every row it names.
func (p *Printer) PrintDataError(err *types.DataError) {
	if err == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Kind:    %s\n", err.Kind))
	sb.WriteString(fmt.Sprintf("Detail:  %s\n", err.Message))
	for _, r := range err.Rows {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("  %s:%d\n", r.File, r.Line))
		if r.Key != "" {
			sb.WriteString(fmt.Sprintf("  key %s\n", r.Key))
		}
	}

	p.printBox("DATASET ERROR", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDiff outputs how a check-mode build differs from the published output.
func (p *Printer) PrintDiff(diff *site.DiffReport) {
	if diff == nil || diff.Clean() {
		p.printBanner("✅ OUTPUT IS UP TO DATE")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Added:    %d\n", diff.Count(site.Added)))
	sb.WriteString(fmt.Sprintf("Removed:  %d\n", diff.Count(site.Removed)))
	sb.WriteString(fmt.Sprintf("Changed:  %d\n\n", diff.Count(site.Changed)))

	count := min(len(diff.Changes), maxItemsToShow*2)
	for i := 0; i < count; i++ {
		c := diff.Changes[i]
		sb.WriteString(fmt.Sprintf("%s %s\n", changeMark(c.Kind), c.Path))
	}
	if len(diff.Changes) > count {
		sb.WriteString(fmt.Sprintf("... and %d more files\n", len(diff.Changes)-count))
	}

	p.printBox("OUTPUT DRIFT", strings.TrimSuffix(sb.String(), "\n"))
}

func changeMark(k site.ChangeKind) string {
	switch k {
	case site.Added:
		return "+"
	case site.Removed:
		return "-"
	default:
		return "~"
	}
}

// PrintLinkReport outputs the result of a link check.
func (p *Printer) PrintLinkReport(report *linkcheck.Report) {
	if report == nil {
		return
	}
	title := strings.ToUpper(report.Mode) + " LINK VALIDATION"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pages:          %d\n", report.Pages))
	sb.WriteString(fmt.Sprintf("Links checked:  %d\n", report.Checked))
	sb.WriteString(fmt.Sprintf("Unique links:   %d\n", report.Unique))

	if report.OK() {
		sb.WriteString("\n✅ All links valid")
		p.printBox(title, sb.String())
		return
	}

	sb.WriteString(fmt.Sprintf("\n❌ %d broken links\n", len(report.Broken)))
	sources, groups := report.BySource()
	shown := 0
	for _, src := range sources {
		if shown >= maxItemsToShow {
			break
		}
		sb.WriteString(fmt.Sprintf("\n%s\n", shorten(src, boxWidth-4)))
		for _, b := range groups[src] {
			line := "  ✗ " + b.Link
			if b.Status != 0 {
				line += fmt.Sprintf(" (%d)", b.Status)
			}
			sb.WriteString(line + "\n")
		}
		shown++
	}
	if len(sources) > shown {
		sb.WriteString(fmt.Sprintf("\n... and %d more pages\n", len(sources)-shown))
	}

	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSEOReport outputs failures and warnings from an SEO audit.
func (p *Printer) PrintSEOReport(report *seo.Report) {
	if report == nil {
		return
	}
	title := strings.ToUpper(report.Mode) + " SEO AUDIT"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Pages:     %d\n", len(report.Pages)))
	sb.WriteString(fmt.Sprintf("Passed:    %d\n", report.Count(seo.SeverityPass)))
	sb.WriteString(fmt.Sprintf("Failed:    %d\n", report.Count(seo.SeverityFail)))
	sb.WriteString(fmt.Sprintf("Warnings:  %d\n", report.Count(seo.SeverityWarn)))

	for _, c := range report.Site {
		if c.Severity != seo.SeverityPass {
			sb.WriteString(fmt.Sprintf("\nsite\n  %s %s: %s\n", severityMark(c.Severity), c.Name, c.Message))
		}
	}

	shown := 0
	for _, page := range report.Pages {
		if page.Count(seo.SeverityFail)+page.Count(seo.SeverityWarn) == 0 {
			continue
		}
		if shown >= maxItemsToShow {
			sb.WriteString("\n... more pages with issues\n")
			break
		}
		sb.WriteString(fmt.Sprintf("\n%s\n", shorten(page.Path, boxWidth-4)))
		for _, c := range page.Checks {
			if c.Severity != seo.SeverityPass {
				sb.WriteString(fmt.Sprintf("  %s %s: %s\n", severityMark(c.Severity), c.Name, c.Message))
			}
		}
		shown++
	}

	if report.OK() {
		sb.WriteString("\n✅ No critical issues")
	}

	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

func severityMark(s seo.Severity) string {
	switch s {
	case seo.SeverityFail:
		return "✗"
	case seo.SeverityWarn:
		return "⚠"
	default:
		return "✓"
	}
}
