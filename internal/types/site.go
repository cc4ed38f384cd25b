package types

import "time"

// ResolvedRelation is one related_pages entry after resolution against the slug index.
type ResolvedRelation struct {
	Slug     string
	Resolved bool
	Path     string // canonical path, empty when dangling
	Title    string // display title, empty when dangling
}

// ResolvedRelations holds a record's relations in declaration order.
type ResolvedRelations struct {
	Source    string
	Relations []ResolvedRelation
	Warnings  []ReferenceWarning
}

// Links returns only the resolved relations.
func (r ResolvedRelations) Links() []ResolvedRelation {
	links := make([]ResolvedRelation, 0, len(r.Relations))
	for _, rel := range r.Relations {
		if rel.Resolved {
			links = append(links, rel)
		}
	}
	return links
}

// PageKind identifies what a manifest entry points at.
type PageKind string

// Page kinds in the manifest.
const (
	PageHome   PageKind = "home"
	PageHub    PageKind = "hub"
	PagePermit PageKind = "permit"
)

// ManifestEntry is one page to be published.
type ManifestEntry struct {
	Path    string
	LastMod time.Time
	Kind    PageKind
}

// SiteManifest is the ordered list of every page to be published, sorted by Path.
type SiteManifest struct {
	Entries []ManifestEntry
}

// Paths returns the manifest paths in order.
func (m *SiteManifest) Paths() []string {
	paths := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		paths[i] = e.Path
	}
	return paths
}

// JurisdictionGroup is the set of records sharing a jurisdiction.
type JurisdictionGroup struct {
	Key     string // slug used in the hub path
	Name    string // display name
	Path    string
	Members []*PermitRecord
}

// LastMod returns the latest extraction date among the group's members.
func (g *JurisdictionGroup) LastMod() time.Time {
	var latest time.Time
	for _, m := range g.Members {
		if m.DateExtracted.After(latest) {
			latest = m.DateExtracted
		}
	}
	return latest
}
