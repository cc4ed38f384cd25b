package rendering

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/permitindex/internal/types"
)

var testSite = SiteInfo{
	Name:             "Permit Index",
	BaseURL:          "https://permits.example.org/",
	FeedbackEndpoint: "https://feedback.example.org/feedback",
}

func testRecord() *types.PermitRecord {
	return &types.PermitRecord{
		AgencyShort:            "CA DPH",
		AgencyFull:             `California Department of "Public" Health`,
		RequestType:            "Food Truck Operating Permit",
		Cost:                   "$250 annually",
		HowToDescription:       "Submit the application with a plan check <b>before</b> operating.",
		PaymentFormURL:         "https://dph.example.gov/apply",
		EstimatedMonthlyVolume: "1200",
		EffortHours:            "6",
		OnlineAvailable:        true,
		DateExtracted:          time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		SourceURL:              "https://dph.example.gov/food-trucks",
		Eligibility:            "Mobile food vendors operating in California",
		LocationApplicability:  "Statewide (California)",
		DocumentRequirements:   "Health plan check; Vehicle registration\nProof of insurance",
	}
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestNew_ParsesAllTemplates(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.Equal(t, []string{TemplateHome, TemplateHub, TemplatePermit}, r.Templates())
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	_, err = r.Render("missing", nil)
	require.Error(t, err)
	var tmplErr *TemplateError
	require.ErrorAs(t, err, &tmplErr)
	assert.Equal(t, "missing", tmplErr.Template)
}

func TestRender_PermitPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	rec := testRecord()
	hub := &types.JurisdictionGroup{Key: "california", Name: "California", Path: "/california/", Members: []*types.PermitRecord{rec}}
	relations := types.ResolvedRelations{
		Source: "ca-dph-food-truck-operating-permit",
		Relations: []types.ResolvedRelation{
			{Slug: "ca-dmv-title-transfer", Resolved: true, Path: "/ca-dmv-title-transfer/", Title: "Title Transfer (CA DMV)"},
			{Slug: "missing-slug", Resolved: false},
		},
	}

	page, err := NewPermitPage(testSite, "ca-dph-food-truck-operating-permit", rec, relations, hub)
	require.NoError(t, err)

	html, err := r.Render(TemplatePermit, page)
	require.NoError(t, err)
	doc := parseDoc(t, html)

	assert.Equal(t, 1, doc.Find("h1").Length())
	assert.Equal(t, "Food Truck Operating Permit", doc.Find("h1").Text())

	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, "https://permits.example.org/ca-dph-food-truck-operating-permit/", canonical)

	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	assert.Equal(t, page.Meta.Description, desc)

	// only resolved relations are linked
	assert.Equal(t, 1, doc.Find(`a[href="/ca-dmv-title-transfer/"]`).Length())
	assert.Equal(t, 0, doc.Find(`a[href="/missing-slug/"]`).Length())

	crumbs := doc.Find(`nav[aria-label="Breadcrumb"] a`)
	assert.Equal(t, 3, crumbs.Length())

	// markup in data is escaped, not injected
	assert.Equal(t, 0, doc.Find(".bg-blue-50 b").Length())
	assert.Contains(t, doc.Find(".bg-blue-50").Text(), "<b>before</b>")

	assert.Equal(t, 3, doc.Find(`h2:contains("Documents you will need") + ul li`).Length())

	assert.NotContains(t, html, "https://dph.example.gov/food-trucks", "source_url is internal only")

	assert.Equal(t, 1, doc.Find("#feedback-form").Length())
	slug, _ := doc.Find("#feedback-form").Attr("data-slug")
	assert.Equal(t, "ca-dph-food-truck-operating-permit", slug)
}

func TestRender_PermitJSONLDIsValid(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	page, err := NewPermitPage(testSite, "ca-dph-food-truck-operating-permit", testRecord(), types.ResolvedRelations{}, nil)
	require.NoError(t, err)
	html, err := r.Render(TemplatePermit, page)
	require.NoError(t, err)

	scripts := parseDoc(t, html).Find(`script[type="application/ld+json"]`)
	require.Equal(t, 3, scripts.Length())

	var typesSeen []string
	scripts.Each(func(_ int, s *goquery.Selection) {
		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(s.Text()), &doc))
		typesSeen = append(typesSeen, doc["@type"].(string))
		if doc["@type"] == "GovernmentService" {
			provider := doc["provider"].(map[string]any)
			assert.Equal(t, `California Department of "Public" Health`, provider["name"])
		}
		if doc["@type"] == "FAQPage" {
			assert.GreaterOrEqual(t, len(doc["mainEntity"].([]any)), 5)
		}
	})
	assert.Equal(t, []string{"GovernmentService", "FAQPage", "BreadcrumbList"}, typesSeen)
}

func TestRender_PermitWithoutFeedbackEndpoint(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	site := testSite
	site.FeedbackEndpoint = ""
	page, err := NewPermitPage(site, "x", testRecord(), types.ResolvedRelations{}, nil)
	require.NoError(t, err)
	html, err := r.Render(TemplatePermit, page)
	require.NoError(t, err)

	doc := parseDoc(t, html)
	assert.Equal(t, 0, doc.Find("#feedback-form").Length())
	assert.Equal(t, 2, doc.Find(`nav[aria-label="Breadcrumb"] a`).Length())
}

func TestRender_HubAndHome(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	a := testRecord()
	b := testRecord()
	b.RequestType = "Catering Permit"
	b.OnlineAvailable = false
	b.DateExtracted = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	slugs := map[*types.PermitRecord]string{a: "food-truck", b: "catering"}
	slugOf := func(rec *types.PermitRecord) string { return slugs[rec] }

	group := &types.JurisdictionGroup{Key: "california", Name: "California", Path: "/california/", Members: []*types.PermitRecord{a, b}}

	hub, err := NewHubPage(testSite, group, slugOf)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.OnlineCount)
	require.Len(t, hub.Permits, 2)
	assert.Equal(t, "Catering Permit", hub.Permits[0].Title)

	html, err := r.Render(TemplateHub, hub)
	require.NoError(t, err)
	doc := parseDoc(t, html)
	assert.Equal(t, "California Permits and Licenses", doc.Find("h1").Text())
	assert.Equal(t, 2, doc.Find("tbody tr").Length())

	home, err := NewHomePage(testSite, []types.JurisdictionGroup{*group}, []*types.PermitRecord{a, b}, slugOf)
	require.NoError(t, err)
	require.Len(t, home.Recent, 2)
	assert.Equal(t, "/catering/", home.Recent[0].Path, "newest first")

	html, err = r.Render(TemplateHome, home)
	require.NoError(t, err)
	doc = parseDoc(t, html)
	assert.Equal(t, 1, doc.Find(`a[href="/california/"]`).Length())
	assert.Equal(t, "Permit Index", doc.Find("title").Text())
	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, "https://permits.example.org/", canonical)
}

func TestRender_Deterministic(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	page, err := NewPermitPage(testSite, "x", testRecord(), types.ResolvedRelations{}, nil)
	require.NoError(t, err)
	first, err := r.Render(TemplatePermit, page)
	require.NoError(t, err)
	second, err := r.Render(TemplatePermit, page)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
