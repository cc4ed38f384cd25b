package rendering

import (
	"encoding/json"
	"html/template"

	"github.com/jonathan/permitindex/internal/types"
)

// structured data is marshaled, never string-built, so values with quotes
// or angle brackets stay valid JSON. encoding/json escapes <, > and & which
// keeps the payload safe inside a script element.

func marshalJSONLD(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", &RenderError{Message: "failed to marshal structured data", Cause: err}
	}
	return template.JS(b), nil
}

// GovernmentServiceJSONLD describes a permit as a schema.org GovernmentService.
func GovernmentServiceJSONLD(site SiteInfo, rec *types.PermitRecord, path string) (template.JS, error) {
	doc := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "GovernmentService",
		"name":        rec.RequestType,
		"description": rec.HowToDescription,
		"url":         site.URL(path),
		"provider": map[string]any{
			"@type":         "GovernmentOrganization",
			"name":          rec.AgencyFull,
			"alternateName": rec.AgencyShort,
		},
		"areaServed": rec.LocationApplicability,
		"audience": map[string]any{
			"@type":        "Audience",
			"audienceType": rec.Eligibility,
		},
		"offers": map[string]any{
			"@type":       "Offer",
			"description": rec.Cost,
		},
		"dateModified": rec.DateExtracted.Format(types.DateLayout),
	}
	return marshalJSONLD(doc)
}

// FAQPageJSONLD mirrors the visible FAQ section.
func FAQPageJSONLD(items []FAQItem) (template.JS, error) {
	entities := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entities = append(entities, map[string]any{
			"@type": "Question",
			"name":  item.Question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  item.Answer,
			},
		})
	}
	return marshalJSONLD(map[string]any{
		"@context":   "https://schema.org",
		"@type":      "FAQPage",
		"mainEntity": entities,
	})
}

// BreadcrumbJSONLD mirrors the visible breadcrumb trail.
func BreadcrumbJSONLD(site SiteInfo, crumbs []Crumb) (template.JS, error) {
	items := make([]map[string]any, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Name,
			"item":     site.URL(c.Path),
		})
	}
	return marshalJSONLD(map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	})
}

// WebSiteJSONLD describes the site itself for the home page.
func WebSiteJSONLD(site SiteInfo) (template.JS, error) {
	return marshalJSONLD(map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      site.URL("/"),
	})
}
