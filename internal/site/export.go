package site

import (
	"encoding/json"
	"time"

	"github.com/jonathan/permitindex/internal/schemas"
	"github.com/jonathan/permitindex/internal/slugs"
	"github.com/jonathan/permitindex/internal/types"
	rootschemas "github.com/jonathan/permitindex/schemas"
)

// ExportDocument is the shape of permits.json.
type ExportDocument struct {
	GeneratedFrom string         `json:"generated_from"`
	Count         int            `json:"count"`
	Permits       []ExportPermit `json:"permits"`
}

// ExportPermit holds the public fields of one record. Provenance and
// source_url stay internal.
type ExportPermit struct {
	Slug                   string   `json:"slug"`
	URL                    string   `json:"url"`
	AgencyShort            string   `json:"agency_short"`
	AgencyFull             string   `json:"agency_full"`
	RequestType            string   `json:"request_type"`
	Cost                   string   `json:"cost"`
	HowToDescription       string   `json:"how_to_description"`
	PaymentFormURL         string   `json:"payment_form_url,omitempty"`
	EstimatedMonthlyVolume string   `json:"estimated_monthly_volume"`
	DeadlineWindow         string   `json:"deadline_window,omitempty"`
	EffortHours            string   `json:"effort_hours"`
	OnlineAvailable        bool     `json:"online_available"`
	APIAvailable           bool     `json:"api_available"`
	MCPAvailable           bool     `json:"mcp_available"`
	DateExtracted          string   `json:"date_extracted"`
	Eligibility            string   `json:"eligibility"`
	LocationApplicability  string   `json:"location_applicability"`
	Jurisdiction           string   `json:"jurisdiction"`
	DocumentRequirements   string   `json:"document_requirements"`
	Related                []string `json:"related"`
}

// BuildExport serializes every indexed record in slug order and validates the
// result against the embedded export schema. Only resolved relations are listed.
func BuildExport(idx *slugs.Index, relations map[string]types.ResolvedRelations) ([]byte, error) {
	doc := ExportDocument{Permits: make([]ExportPermit, 0, idx.Len())}

	var latest time.Time
	for _, rec := range idx.Records() {
		slug := idx.SlugOf(rec)
		if rec.DateExtracted.After(latest) {
			latest = rec.DateExtracted
		}

		related := make([]string, 0)
		for _, rel := range relations[slug].Links() {
			related = append(related, rel.Slug)
		}

		doc.Permits = append(doc.Permits, ExportPermit{
			Slug:                   slug,
			URL:                    slugs.CanonicalPath(slug),
			AgencyShort:            rec.AgencyShort,
			AgencyFull:             rec.AgencyFull,
			RequestType:            rec.RequestType,
			Cost:                   rec.Cost,
			HowToDescription:       rec.HowToDescription,
			PaymentFormURL:         rec.PaymentFormURL,
			EstimatedMonthlyVolume: rec.EstimatedMonthlyVolume,
			DeadlineWindow:         rec.DeadlineWindow,
			EffortHours:            rec.EffortHours,
			OnlineAvailable:        rec.OnlineAvailable,
			APIAvailable:           rec.APIAvailable,
			MCPAvailable:           rec.MCPAvailable,
			DateExtracted:          rec.DateExtracted.Format(types.DateLayout),
			Eligibility:            rec.Eligibility,
			LocationApplicability:  rec.LocationApplicability,
			Jurisdiction:           slugs.JurisdictionName(rec.LocationApplicability),
			DocumentRequirements:   rec.DocumentRequirements,
			Related:                related,
		})
	}
	doc.Count = len(doc.Permits)
	doc.GeneratedFrom = latest.Format(types.DateLayout)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &AssembleError{Path: ExportFile, Message: "failed to encode export", Cause: err}
	}
	data = append(data, '\n')

	if err := schemas.ValidateJSONBytes(rootschemas.PermitExport, data); err != nil {
		return nil, &AssembleError{Path: ExportFile, Message: "export does not match schema", Cause: err}
	}
	return data, nil
}
