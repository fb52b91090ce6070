// Package metadata provides an inverted index over record metadata for
// search-time filtering.
//
// The index maps string-valued metadata fields (source, type, sender, ...) to
// roaring bitmaps of record IDs, so a query can be restricted to e.g.
// transaction SMS without scanning metadata during the distance pass.
package metadata

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/msgvault/msgvault/record"
)

// Filter is an equality predicate over one metadata field.
type Filter struct {
	Field string
	Value string
}

// Eq creates an equality filter.
func Eq(field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// Index is an inverted index from metadata field values to record IDs.
// Record IDs follow the corpus insertion order, matching the vector index.
type Index struct {
	mu     sync.RWMutex
	fields map[string]map[string]*roaring.Bitmap
	count  uint32
}

// NewIndex creates an empty metadata index.
func NewIndex() *Index {
	return &Index{
		fields: make(map[string]map[string]*roaring.Bitmap),
	}
}

// Add indexes the string-valued fields of one metadata object under the given
// record ID. IDs are expected to arrive in corpus order.
func (ix *Index) Add(id uint32, meta record.Metadata) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for field, v := range meta {
		value, ok := v.(string)
		if !ok || value == "" {
			continue
		}

		values, ok := ix.fields[field]
		if !ok {
			values = make(map[string]*roaring.Bitmap)
			ix.fields[field] = values
		}

		bm, ok := values[value]
		if !ok {
			bm = roaring.New()
			values[value] = bm
		}
		bm.Add(id)
	}

	if id >= ix.count {
		ix.count = id + 1
	}
}

// Rebuild replaces the index contents from a full metadata sequence.
func (ix *Index) Rebuild(metas []record.Metadata) {
	ix.mu.Lock()
	ix.fields = make(map[string]map[string]*roaring.Bitmap)
	ix.count = 0
	ix.mu.Unlock()

	for i, meta := range metas {
		ix.Add(uint32(i), meta)
	}
}

// Count returns the number of indexed records.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return int(ix.count)
}

// Match returns the bitmap of record IDs satisfying all filters
// (intersection). An unknown field or value yields an empty bitmap.
func (ix *Index) Match(filters ...Filter) *roaring.Bitmap {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	result := roaring.New()
	for i, f := range filters {
		values, ok := ix.fields[f.Field]
		if !ok {
			return roaring.New()
		}
		bm, ok := values[f.Value]
		if !ok {
			return roaring.New()
		}

		if i == 0 {
			result = bm.Clone()
		} else {
			result.And(bm)
		}
	}
	return result
}

// Predicate converts filters into the per-ID callback shape the vector index
// consumes. With no filters it returns nil, meaning no restriction.
func (ix *Index) Predicate(filters ...Filter) func(id uint32) bool {
	if len(filters) == 0 {
		return nil
	}
	bm := ix.Match(filters...)
	return bm.Contains
}
