package rendering

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/permitindex/internal/types"
)

// Search engines truncate descriptions past MaxDescription and treat those
// shorter than MinDescription as thin.
const (
	MinDescription = 100
	MaxDescription = 160
)

// FormatEffort renders an effort_hours cell, appending a unit to bare numbers.
func FormatEffort(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Not specified"
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f == 1 {
			return "1 hour"
		}
		return s + " hours"
	}
	return s
}

// PermitDescription builds the meta description for a permit page.
func PermitDescription(rec *types.PermitRecord) string {
	online := "Apply in person or by mail."
	if rec.OnlineAvailable {
		online = "You can apply online."
	}
	return composeDescription(
		fmt.Sprintf("How to get a %s from %s.", rec.RequestType, rec.AgencyFull),
		fmt.Sprintf("Cost: %s.", strings.TrimSuffix(rec.Cost, ".")),
		online,
		fmt.Sprintf("Expect about %s of effort.", FormatEffort(rec.EffortHours)),
		fmt.Sprintf("Eligibility: %s.", strings.TrimSuffix(rec.Eligibility, ".")),
		fmt.Sprintf("Applies to %s.", rec.LocationApplicability),
	)
}

// HubDescription builds the meta description for a jurisdiction hub.
func HubDescription(name string, total, online int) string {
	return composeDescription(
		fmt.Sprintf("Every government permit and license we track for %s.", name),
		fmt.Sprintf("%d requests listed, %d of them available online.", total, online),
		"Compare costs, deadlines and required documents in one place.",
	)
}

// HomeDescription builds the meta description for the home page.
func HomeDescription(siteName string, permits, jurisdictions int) string {
	return composeDescription(
		fmt.Sprintf("%s explains how to get government permits and licenses.", siteName),
		fmt.Sprintf("Browse %d requests across %d jurisdictions.", permits, jurisdictions),
		"See the cost, effort and documents for each one before you apply.",
	)
}

// composeDescription appends sentences while the result stays within
// MaxDescription, then keeps adding until MinDescription is reached,
// truncating on a word boundary if needed.
func composeDescription(sentences ...string) string {
	var out string
	for _, s := range sentences {
		candidate := strings.TrimSpace(out + " " + s)
		if utf8.RuneCountInString(candidate) <= MaxDescription {
			out = candidate
			continue
		}
		if utf8.RuneCountInString(out) >= MinDescription {
			break
		}
		out = truncateWords(candidate, MaxDescription)
		break
	}
	return out
}

func truncateWords(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:limit-1])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// BuildFAQ derives the permit page FAQ from the record's fields. It always
// yields at least five entries.
func BuildFAQ(rec *types.PermitRecord) []FAQItem {
	name := rec.RequestType
	items := []FAQItem{
		{
			Question: fmt.Sprintf("How much does a %s cost?", name),
			Answer:   fmt.Sprintf("The %s lists the cost as: %s.", rec.AgencyFull, strings.TrimSuffix(rec.Cost, ".")),
		},
		{
			Question: fmt.Sprintf("How long does it take to get a %s?", name),
			Answer:   fmt.Sprintf("Plan for about %s of effort to prepare and submit the request.", FormatEffort(rec.EffortHours)),
		},
		{
			Question: fmt.Sprintf("Can I apply for a %s online?", name),
			Answer:   onlineAnswer(rec),
		},
		{
			Question: fmt.Sprintf("Who is eligible for a %s?", name),
			Answer:   rec.Eligibility,
		},
		{
			Question: fmt.Sprintf("What documents do I need for a %s?", name),
			Answer:   documentsAnswer(rec),
		},
		{
			Question: fmt.Sprintf("How do I apply for a %s?", name),
			Answer:   rec.HowToDescription,
		},
	}
	if rec.DeadlineWindow != "" {
		items = append(items, FAQItem{
			Question: fmt.Sprintf("Is there a deadline for a %s?", name),
			Answer:   rec.DeadlineWindow,
		})
	}
	return items
}

func onlineAnswer(rec *types.PermitRecord) string {
	switch {
	case rec.OnlineAvailable && rec.PaymentFormURL != "":
		return fmt.Sprintf("Yes. The %s accepts applications online at %s.", rec.AgencyShort, rec.PaymentFormURL)
	case rec.OnlineAvailable:
		return fmt.Sprintf("Yes. The %s accepts applications online.", rec.AgencyShort)
	default:
		return fmt.Sprintf("No. The %s does not currently accept this request online.", rec.AgencyShort)
	}
}

func documentsAnswer(rec *types.PermitRecord) string {
	docs := SplitList(rec.DocumentRequirements)
	if len(docs) == 0 {
		return "No documents are listed for this request."
	}
	return strings.Join(docs, "; ")
}
