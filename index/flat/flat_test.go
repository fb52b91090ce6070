package flat

import (
	"bytes"
	"context"
	"encoding/gob"
	"testing"

	"github.com/msgvault/msgvault/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, dim int) *Flat {
	t.Helper()
	f, err := New(WithDimension(dim))
	require.NoError(t, err)
	return f
}

func TestNew(t *testing.T) {
	t.Run("RequiresDimension", func(t *testing.T) {
		_, err := New()
		assert.Error(t, err)
		assert.IsType(t, &index.ErrInvalidDimension{}, err)
	})

	t.Run("Valid", func(t *testing.T) {
		f, err := New(WithDimension(3))
		require.NoError(t, err)
		assert.Equal(t, 3, f.Dimension())
		assert.Equal(t, 0, f.Count())
	})
}

func TestFlatInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("SequentialIDs", func(t *testing.T) {
		f := newTestIndex(t, 3)

		id, err := f.Insert(ctx, []float32{1.0, 2.0, 3.0})
		require.NoError(t, err)
		assert.Equal(t, uint32(0), id)

		id, err = f.Insert(ctx, []float32{4.0, 5.0, 6.0})
		require.NoError(t, err)
		assert.Equal(t, uint32(1), id)
		assert.Equal(t, 2, f.Count())
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		f := newTestIndex(t, 3)

		_, err := f.Insert(ctx, []float32{1.0, 2.0})
		require.Error(t, err)

		var dm *index.ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 3, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
		assert.Equal(t, 0, f.Count())
	})

	t.Run("EmptyVector", func(t *testing.T) {
		f := newTestIndex(t, 3)
		_, err := f.Insert(ctx, nil)
		assert.ErrorIs(t, err, index.ErrEmptyVector)
	})

	t.Run("CallerMutationDoesNotLeak", func(t *testing.T) {
		f := newTestIndex(t, 2)
		v := []float32{1.0, 2.0}
		_, err := f.Insert(ctx, v)
		require.NoError(t, err)

		v[0] = 99.0

		stored, err := f.VectorByID(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, []float32{1.0, 2.0}, stored)
	})
}

func TestFlatBatchInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("AllOrNothing", func(t *testing.T) {
		f := newTestIndex(t, 2)

		_, err := f.BatchInsert(ctx, [][]float32{
			{1.0, 2.0},
			{1.0, 2.0, 3.0}, // wrong width
		})
		require.Error(t, err)
		assert.Equal(t, 0, f.Count())
	})

	t.Run("IDsInOrder", func(t *testing.T) {
		f := newTestIndex(t, 2)

		ids, err := f.BatchInsert(ctx, [][]float32{
			{1.0, 2.0},
			{3.0, 4.0},
			{5.0, 6.0},
		})
		require.NoError(t, err)
		assert.Equal(t, []uint32{0, 1, 2}, ids)
		assert.Equal(t, 3, f.Count())
	})
}

func TestFlatBruteSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("OrderedByDistance", func(t *testing.T) {
		f := newTestIndex(t, 3)

		_, err := f.BatchInsert(ctx, [][]float32{
			{1.0, 2.0, 3.0},
			{4.0, 5.0, 6.0},
			{7.0, 8.0, 9.0},
		})
		require.NoError(t, err)

		results, err := f.BruteSearch(ctx, []float32{0.0, 0.0, 0.0}, 2, nil)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, uint32(0), results[0].ID)
		assert.Equal(t, uint32(1), results[1].ID)
		assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
	})

	t.Run("ExactMatchDistanceZero", func(t *testing.T) {
		f := newTestIndex(t, 2)
		_, err := f.Insert(ctx, []float32{0.5, -0.5})
		require.NoError(t, err)

		results, err := f.BruteSearch(ctx, []float32{0.5, -0.5}, 1, nil)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, float32(0), results[0].Distance)
	})

	t.Run("TieBreakByInsertionOrder", func(t *testing.T) {
		f := newTestIndex(t, 2)
		// Equidistant from the origin query.
		_, err := f.BatchInsert(ctx, [][]float32{
			{1.0, 0.0},
			{0.0, 1.0},
			{-1.0, 0.0},
			{0.0, -1.0},
		})
		require.NoError(t, err)

		results, err := f.BruteSearch(ctx, []float32{0.0, 0.0}, 3, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, uint32(0), results[0].ID)
		assert.Equal(t, uint32(1), results[1].ID)
		assert.Equal(t, uint32(2), results[2].ID)
	})

	t.Run("ClampK", func(t *testing.T) {
		f := newTestIndex(t, 2)
		_, err := f.Insert(ctx, []float32{1.0, 1.0})
		require.NoError(t, err)

		results, err := f.BruteSearch(ctx, []float32{0.0, 0.0}, 10, nil)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("EmptyIndex", func(t *testing.T) {
		f := newTestIndex(t, 2)
		results, err := f.BruteSearch(ctx, []float32{0.0, 0.0}, 3, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("InvalidK", func(t *testing.T) {
		f := newTestIndex(t, 2)
		_, err := f.BruteSearch(ctx, []float32{0.0, 0.0}, 0, nil)
		assert.ErrorIs(t, err, index.ErrInvalidK)
	})

	t.Run("QueryDimensionMismatch", func(t *testing.T) {
		f := newTestIndex(t, 2)
		_, err := f.BruteSearch(ctx, []float32{0.0}, 1, nil)
		var dm *index.ErrDimensionMismatch
		assert.ErrorAs(t, err, &dm)
	})

	t.Run("Filter", func(t *testing.T) {
		f := newTestIndex(t, 2)
		_, err := f.BatchInsert(ctx, [][]float32{
			{0.0, 0.0},
			{1.0, 1.0},
		})
		require.NoError(t, err)

		results, err := f.BruteSearch(ctx, []float32{0.0, 0.0}, 2, func(id uint32) bool {
			return id == 1
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, uint32(1), results[0].ID)
	})
}

func TestFlatGob(t *testing.T) {
	ctx := context.Background()

	f := newTestIndex(t, 3)
	_, err := f.BatchInsert(ctx, [][]float32{
		{1.0, 2.0, 3.0},
		{4.0, 5.0, 6.0},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(f))

	restored := &Flat{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(restored))

	assert.Equal(t, 3, restored.Dimension())
	assert.Equal(t, 2, restored.Count())

	results, err := restored.BruteSearch(ctx, []float32{1.0, 2.0, 3.0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint32(0), results[0].ID)
	assert.Equal(t, float32(0), results[0].Distance)
}
