package slugs

import (
	"strings"

	"github.com/jonathan/permitindex/internal/types"
)

// ResolveRelations resolves a record's related_pages against the index.
// Order and duplicates are preserved; dangling and repeated entries add warnings.
func ResolveRelations(rec *types.PermitRecord, idx *Index) types.ResolvedRelations {
	out := types.ResolvedRelations{Source: idx.SlugOf(rec)}

	seen := make(map[string]bool)
	for _, raw := range SplitRelated(rec.RelatedPages) {
		if seen[raw] {
			out.Warnings = append(out.Warnings, types.ReferenceWarning{
				Kind:   types.WarnDuplicate,
				Source: out.Source,
				Target: raw,
			})
		}
		seen[raw] = true

		target, ok := idx.Lookup(raw)
		if !ok {
			out.Relations = append(out.Relations, types.ResolvedRelation{Slug: raw})
			out.Warnings = append(out.Warnings, types.ReferenceWarning{
				Kind:   types.WarnDangling,
				Source: out.Source,
				Target: raw,
			})
			continue
		}
		out.Relations = append(out.Relations, types.ResolvedRelation{
			Slug:     raw,
			Resolved: true,
			Path:     CanonicalPath(raw),
			Title:    target.Title(),
		})
	}
	return out
}

// SplitRelated splits a related_pages cell into slugs, skipping empty segments.
func SplitRelated(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Report accumulates reference warnings across the whole build.
type Report struct {
	Warnings []types.ReferenceWarning
}

// Add appends the warnings of one record's resolution.
func (r *Report) Add(rr types.ResolvedRelations) {
	r.Warnings = append(r.Warnings, rr.Warnings...)
}

// Dangling returns only the dangling-reference warnings.
func (r *Report) Dangling() []types.ReferenceWarning {
	var out []types.ReferenceWarning
	for _, w := range r.Warnings {
		if w.Kind == types.WarnDangling {
			out = append(out, w)
		}
	}
	return out
}

// Empty reports whether no warnings were collected.
func (r *Report) Empty() bool {
	return len(r.Warnings) == 0
}

// ResolveAll resolves every record in slug order and returns the relations by slug
// together with the accumulated report.
func ResolveAll(idx *Index) (map[string]types.ResolvedRelations, *Report) {
	report := &Report{}
	resolved := make(map[string]types.ResolvedRelations, idx.Len())
	for _, rec := range idx.Records() {
		rr := ResolveRelations(rec, idx)
		resolved[rr.Source] = rr
		report.Add(rr)
	}
	return resolved, report
}
