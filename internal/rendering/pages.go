package rendering

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"github.com/jonathan/permitindex/internal/slugs"
	"github.com/jonathan/permitindex/internal/types"
)

// SiteInfo carries the site-wide values every page needs
type SiteInfo struct {
	Name             string
	BaseURL          string
	FeedbackEndpoint string
}

// URL joins the base URL and a percent-encoded site path.
func (s SiteInfo) URL(path string) string {
	return strings.TrimRight(s.BaseURL, "/") + slugs.EscapePath(path)
}

// Crumb is one breadcrumb entry
type Crumb struct {
	Name string
	Path string
}

// PageMeta holds the head and navigation values shared by all templates
type PageMeta struct {
	Title        string
	Description  string
	CanonicalURL string
	Site         SiteInfo
	Breadcrumbs  []Crumb
	JSONLD       []template.JS
}

// FAQItem is a question and answer shown on permit pages
type FAQItem struct {
	Question string
	Answer   string
}

// PermitSummary is the short form of a permit used in listings
type PermitSummary struct {
	Title           string
	Path            string
	Agency          string
	Cost            string
	OnlineAvailable bool
}

// PermitPage is the template data for one permit page
type PermitPage struct {
	Meta         PageMeta
	Slug         string
	Record       *types.PermitRecord
	Effort       string
	Documents    []string
	Related      []types.ResolvedRelation
	FAQ          []FAQItem
	Jurisdiction Crumb
}

// HubPage is the template data for a jurisdiction hub page
type HubPage struct {
	Meta        PageMeta
	Name        string
	Permits     []PermitSummary
	OnlineCount int
	APICount    int
}

// HubSummary is one jurisdiction entry on the home page
type HubSummary struct {
	Name  string
	Path  string
	Count int
}

// HomePage is the template data for the site root
type HomePage struct {
	Meta          PageMeta
	Jurisdictions []HubSummary
	Recent        []PermitSummary
	TotalPermits  int
}

// recentLimit caps the "recently updated" list on the home page.
const recentLimit = 10

// NewPermitPage builds permit page data. relations must already be resolved;
// only resolved targets are linked.
func NewPermitPage(site SiteInfo, slug string, rec *types.PermitRecord, relations types.ResolvedRelations, hub *types.JurisdictionGroup) (PermitPage, error) {
	path := "/" + slug + "/"
	page := PermitPage{
		Slug:      slug,
		Record:    rec,
		Effort:    FormatEffort(rec.EffortHours),
		Documents: SplitList(rec.DocumentRequirements),
		Related:   relations.Links(),
		FAQ:       BuildFAQ(rec),
	}

	crumbs := []Crumb{{Name: "Home", Path: "/"}}
	if hub != nil {
		page.Jurisdiction = Crumb{Name: hub.Name, Path: hub.Path}
		crumbs = append(crumbs, page.Jurisdiction)
	}
	crumbs = append(crumbs, Crumb{Name: rec.RequestType, Path: path})

	govService, err := GovernmentServiceJSONLD(site, rec, path)
	if err != nil {
		return PermitPage{}, err
	}
	faq, err := FAQPageJSONLD(page.FAQ)
	if err != nil {
		return PermitPage{}, err
	}
	bc, err := BreadcrumbJSONLD(site, crumbs)
	if err != nil {
		return PermitPage{}, err
	}

	page.Meta = PageMeta{
		Title:        rec.Title(),
		Description:  PermitDescription(rec),
		CanonicalURL: site.URL(path),
		Site:         site,
		Breadcrumbs:  crumbs,
		JSONLD:       []template.JS{govService, faq, bc},
	}
	return page, nil
}

// NewHubPage builds hub page data for a jurisdiction group.
func NewHubPage(site SiteInfo, group *types.JurisdictionGroup, slugOf func(*types.PermitRecord) string) (HubPage, error) {
	page := HubPage{Name: group.Name}
	for _, rec := range group.Members {
		page.Permits = append(page.Permits, summarize(rec, slugOf(rec)))
		if rec.OnlineAvailable {
			page.OnlineCount++
		}
		if rec.APIAvailable {
			page.APICount++
		}
	}
	sortSummaries(page.Permits)

	crumbs := []Crumb{{Name: "Home", Path: "/"}, {Name: group.Name, Path: group.Path}}
	bc, err := BreadcrumbJSONLD(site, crumbs)
	if err != nil {
		return HubPage{}, err
	}

	page.Meta = PageMeta{
		Title:        fmt.Sprintf("%s Permits and Licenses", group.Name),
		Description:  HubDescription(group.Name, len(group.Members), page.OnlineCount),
		CanonicalURL: site.URL(group.Path),
		Site:         site,
		Breadcrumbs:  crumbs,
		JSONLD:       []template.JS{bc},
	}
	return page, nil
}

// NewHomePage builds the home page data.
func NewHomePage(site SiteInfo, groups []types.JurisdictionGroup, records []*types.PermitRecord, slugOf func(*types.PermitRecord) string) (HomePage, error) {
	page := HomePage{TotalPermits: len(records)}
	for _, g := range groups {
		page.Jurisdictions = append(page.Jurisdictions, HubSummary{Name: g.Name, Path: g.Path, Count: len(g.Members)})
	}

	recent := make([]*types.PermitRecord, len(records))
	copy(recent, records)
	sort.SliceStable(recent, func(i, j int) bool {
		if !recent[i].DateExtracted.Equal(recent[j].DateExtracted) {
			return recent[i].DateExtracted.After(recent[j].DateExtracted)
		}
		return slugOf(recent[i]) < slugOf(recent[j])
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	for _, rec := range recent {
		page.Recent = append(page.Recent, summarize(rec, slugOf(rec)))
	}

	website, err := WebSiteJSONLD(site)
	if err != nil {
		return HomePage{}, err
	}

	page.Meta = PageMeta{
		Title:        site.Name,
		Description:  HomeDescription(site.Name, len(records), len(groups)),
		CanonicalURL: site.URL("/"),
		Site:         site,
		JSONLD:       []template.JS{website},
	}
	return page, nil
}

func summarize(rec *types.PermitRecord, slug string) PermitSummary {
	return PermitSummary{
		Title:           rec.RequestType,
		Path:            "/" + slug + "/",
		Agency:          rec.AgencyFull,
		Cost:            rec.Cost,
		OnlineAvailable: rec.OnlineAvailable,
	}
}

func sortSummaries(s []PermitSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Title != s[j].Title {
			return s[i].Title < s[j].Title
		}
		return s[i].Path < s[j].Path
	})
}
