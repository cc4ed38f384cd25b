package slugs

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jonathan/permitindex/internal/types"
)

// Index maps slugs to records. It is built once by AssignSlugs and read-only afterwards.
type Index struct {
	bySlug map[string]*types.PermitRecord
	slugOf map[*types.PermitRecord]string
	sorted []string
}

// Collision describes two distinct records that produced the same slug.
type Collision struct {
	Slug   string
	First  types.RowRef
	Second types.RowRef
}

// DataError converts the collision into a fatal duplicate-slug DataError naming both rows.
func (c Collision) DataError() *types.DataError {
	return &types.DataError{
		Kind:    types.KindDuplicateSlug,
		Message: fmt.Sprintf("slug %q is produced by %s and %s", c.Slug, c.First.Key, c.Second.Key),
		Rows:    []types.RowRef{c.First, c.Second},
	}
}

// AssignSlugs computes every record's slug and builds the index.
// Collisions are returned in record order; the first record keeps the slug in the
// index so lookups stay deterministic, but callers must treat any collision as fatal.
// An error is returned only when a record's key cannot be slugged at all.
func AssignSlugs(records []types.PermitRecord) (*Index, []Collision, error) {
	idx := &Index{
		bySlug: make(map[string]*types.PermitRecord, len(records)),
		slugOf: make(map[*types.PermitRecord]string, len(records)),
	}

	var collisions []Collision
	for i := range records {
		rec := &records[i]
		slug, err := ComputeSlug(rec.AgencyShort, rec.RequestType)
		if err != nil {
			var dataErr *types.DataError
			if errors.As(err, &dataErr) {
				dataErr.Rows = append(dataErr.Rows, types.RefOf(rec))
			}
			return nil, nil, err
		}

		if existing, ok := idx.bySlug[slug]; ok {
			collisions = append(collisions, Collision{
				Slug:   slug,
				First:  types.RefOf(existing),
				Second: types.RefOf(rec),
			})
			continue
		}
		idx.bySlug[slug] = rec
		idx.slugOf[rec] = slug
		idx.sorted = append(idx.sorted, slug)
	}

	sort.Strings(idx.sorted)
	return idx, collisions, nil
}

// BuildIndex is AssignSlugs with collisions promoted to a fatal error.
func BuildIndex(records []types.PermitRecord) (*Index, error) {
	idx, collisions, err := AssignSlugs(records)
	if err != nil {
		return nil, err
	}
	if len(collisions) > 0 {
		return nil, collisions[0].DataError()
	}
	return idx, nil
}

// Lookup returns the record for a slug.
func (idx *Index) Lookup(slug string) (*types.PermitRecord, bool) {
	rec, ok := idx.bySlug[slug]
	return rec, ok
}

// SlugOf returns the slug assigned to a record in this index.
func (idx *Index) SlugOf(rec *types.PermitRecord) string {
	return idx.slugOf[rec]
}

// Slugs returns all slugs in lexicographic order.
func (idx *Index) Slugs() []string {
	out := make([]string, len(idx.sorted))
	copy(out, idx.sorted)
	return out
}

// Records returns the indexed records ordered by slug.
func (idx *Index) Records() []*types.PermitRecord {
	out := make([]*types.PermitRecord, len(idx.sorted))
	for i, slug := range idx.sorted {
		out[i] = idx.bySlug[slug]
	}
	return out
}

// Len returns the number of distinct slugs.
func (idx *Index) Len() int {
	return len(idx.sorted)
}
