package slugs

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/permitindex/internal/types"
)

var parenthesised = regexp.MustCompile(`\(([^()]+)\)\s*$`)

// JurisdictionName extracts the jurisdiction from a location_applicability value.
// "Statewide (California)" yields "California"; values without parentheses are used as-is.
func JurisdictionName(locationApplicability string) string {
	loc := strings.TrimSpace(locationApplicability)
	if m := parenthesised.FindStringSubmatch(loc); m != nil {
		if inner := strings.TrimSpace(m[1]); inner != "" {
			return inner
		}
	}
	return loc
}

// GroupByJurisdiction groups indexed records into jurisdiction hubs, sorted by key.
// Records whose jurisdiction normalises to an empty key are left out of every hub.
func GroupByJurisdiction(idx *Index) []types.JurisdictionGroup {
	groups := make(map[string]*types.JurisdictionGroup)
	for _, rec := range idx.Records() {
		name := JurisdictionName(rec.LocationApplicability)
		key := Normalize(name)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &types.JurisdictionGroup{Key: key, Name: name, Path: CanonicalPath(key)}
			groups[key] = g
		}
		if name < g.Name {
			g.Name = name
		}
		g.Members = append(g.Members, rec)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.JurisdictionGroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, *groups[k])
	}
	return out
}

// BuildManifest lists every page to publish: home, one hub per jurisdiction, one page
// per slug. Entries are sorted by path so the sitemap is reproducible.
func BuildManifest(idx *Index, groups []types.JurisdictionGroup) (*types.SiteManifest, error) {
	entries := make([]types.ManifestEntry, 0, idx.Len()+len(groups)+1)

	var latest time.Time
	for _, slug := range idx.sorted {
		rec := idx.bySlug[slug]
		if rec.DateExtracted.After(latest) {
			latest = rec.DateExtracted
		}
		entries = append(entries, types.ManifestEntry{
			Path:    CanonicalPath(slug),
			LastMod: rec.DateExtracted,
			Kind:    types.PagePermit,
		})
	}

	for _, g := range groups {
		if rec, clash := idx.Lookup(g.Key); clash {
			return nil, &types.DataError{
				Kind:    types.KindDuplicateSlug,
				Message: fmt.Sprintf("jurisdiction hub %q collides with permit page %s", g.Path, rec.Key()),
				Rows:    []types.RowRef{types.RefOf(rec)},
			}
		}
		entries = append(entries, types.ManifestEntry{
			Path:    g.Path,
			LastMod: g.LastMod(),
			Kind:    types.PageHub,
		})
	}

	entries = append(entries, types.ManifestEntry{Path: "/", LastMod: latest, Kind: types.PageHome})

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return &types.SiteManifest{Entries: entries}, nil
}
