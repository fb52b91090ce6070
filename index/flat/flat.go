// Package flat provides an exact nearest-neighbor index over a dense vector matrix.
//
// A flat index compares the query against every stored vector, which yields
// 100% recall. At personal-corpus sizes this is both fast enough and removes
// the recall-tuning concerns of approximate structures.
package flat

import (
	"context"
	"sync"

	"github.com/msgvault/msgvault/distance"
	"github.com/msgvault/msgvault/index"
	"github.com/msgvault/msgvault/internal/queue"
)

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// It must be > 0 and is enforced for all inserts and searches.
	Dimension int

	// Metric is the distance metric used for vector comparison.
	Metric distance.Metric
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Dimension: 0,
	Metric:    distance.MetricL2,
}

// Flat represents a flat index for vector storage and exact search.
//
// IDs are dense, 0-based and assigned in insertion order; the index is
// append-only. A single write mutex serializes mutations, reads take the
// shared lock.
type Flat struct {
	mu           sync.RWMutex
	vectors      [][]float32
	distanceFunc distance.Func
	opts         Options
}

// New creates a new instance of the flat index.
// Dimension is required and must be set at creation time; it never changes
// for the lifetime of the index.
func New(optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := index.ValidateDimension(opts.Dimension); err != nil {
		return nil, err
	}

	distanceFunc, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	return &Flat{
		vectors:      make([][]float32, 0),
		distanceFunc: distanceFunc,
		opts:         opts,
	}, nil
}

// WithDimension sets the vector dimensionality.
func WithDimension(dimension int) func(o *Options) {
	return func(o *Options) { o.Dimension = dimension }
}

// WithMetric sets the distance metric.
func WithMetric(m distance.Metric) func(o *Options) {
	return func(o *Options) { o.Metric = m }
}

func (*Flat) Name() string { return "Flat" }

// Dimension returns the fixed vector dimensionality of the index.
func (f *Flat) Dimension() int { return f.opts.Dimension }

// Count returns the number of vectors in the index.
func (f *Flat) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Insert appends a vector to the index and returns its insertion-order ID.
func (f *Flat) Insert(ctx context.Context, v []float32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, index.ErrEmptyVector
	}
	if len(v) != f.opts.Dimension {
		return 0, &index.ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(v)}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Copy so later mutations by the caller cannot corrupt the index.
	vec := make([]float32, len(v))
	copy(vec, v)

	id := uint32(len(f.vectors))
	f.vectors = append(f.vectors, vec)
	return id, nil
}

// BatchInsert appends multiple vectors in one operation.
//
// Dimensions are validated up front: if any vector disagrees with the index
// dimensionality, nothing is inserted and the mismatch is returned. This keeps
// the no-partial-insert contract for bulk builds.
func (f *Flat) BatchInsert(ctx context.Context, vectors [][]float32) ([]uint32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, v := range vectors {
		if len(v) == 0 {
			return nil, index.ErrEmptyVector
		}
		if len(v) != f.opts.Dimension {
			return nil, &index.ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(v)}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]uint32, len(vectors))
	for i, v := range vectors {
		vec := make([]float32, len(v))
		copy(vec, v)
		ids[i] = uint32(len(f.vectors))
		f.vectors = append(f.vectors, vec)
	}
	return ids, nil
}

// VectorByID returns a copy of the vector stored for the given ID.
func (f *Flat) VectorByID(ctx context.Context, id uint32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if int(id) >= len(f.vectors) {
		return nil, &index.ErrNodeNotFound{ID: id}
	}

	out := make([]float32, len(f.vectors[id]))
	copy(out, f.vectors[id])
	return out, nil
}

// BruteSearch performs an exact K-nearest-neighbor search.
//
// Results are ordered by ascending distance; equal distances rank by
// insertion order (lower ID wins). k greater than the vector count is
// clamped rather than rejected. An empty index yields an empty result.
func (f *Flat) BruteSearch(ctx context.Context, q []float32, k int, filter func(id uint32) bool) ([]index.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	if len(q) != f.opts.Dimension {
		return nil, &index.ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(q)}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.vectors) == 0 {
		return nil, nil
	}

	actualK := min(k, len(f.vectors))

	topCandidates := queue.NewMax(actualK)

	for id, vec := range f.vectors {
		if filter != nil && !filter(uint32(id)) {
			continue
		}

		item := queue.Item{Node: uint32(id), Distance: f.distanceFunc(q, vec)}

		if topCandidates.Len() < actualK {
			topCandidates.Push(item)
			continue
		}

		if worst, ok := topCandidates.Top(); ok && queue.Before(worst, item) {
			topCandidates.Pop()
			topCandidates.Push(item)
		}
	}

	// The heap pops worst-first; fill backwards for ascending order.
	results := make([]index.SearchResult, topCandidates.Len())
	for i := len(results) - 1; i >= 0; i-- {
		item, _ := topCandidates.Pop()
		results[i] = index.SearchResult{ID: item.Node, Distance: item.Distance}
	}
	return results, nil
}
