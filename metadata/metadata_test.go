package metadata

import (
	"testing"

	"github.com/msgvault/msgvault/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetas() []record.Metadata {
	return []record.Metadata{
		{"source": "sms", "sender": "Google Pay", "type": "transaction"},
		{"source": "sms", "sender": "BookMyShow", "type": "general"},
		{"source": "email", "from": "hr@acme.com", "type": "offer"},
	}
}

func TestIndexMatch(t *testing.T) {
	ix := NewIndex()
	ix.Rebuild(testMetas())

	t.Run("SingleFilter", func(t *testing.T) {
		bm := ix.Match(Eq("source", "sms"))
		assert.Equal(t, uint64(2), bm.GetCardinality())
		assert.True(t, bm.Contains(0))
		assert.True(t, bm.Contains(1))
	})

	t.Run("Intersection", func(t *testing.T) {
		bm := ix.Match(Eq("source", "sms"), Eq("type", "transaction"))
		require.Equal(t, uint64(1), bm.GetCardinality())
		assert.True(t, bm.Contains(0))
	})

	t.Run("UnknownValue", func(t *testing.T) {
		bm := ix.Match(Eq("type", "missing"))
		assert.True(t, bm.IsEmpty())
	})

	t.Run("UnknownField", func(t *testing.T) {
		bm := ix.Match(Eq("nope", "x"))
		assert.True(t, bm.IsEmpty())
	})
}

func TestIndexPredicate(t *testing.T) {
	ix := NewIndex()
	ix.Rebuild(testMetas())

	t.Run("NoFiltersMeansNil", func(t *testing.T) {
		assert.Nil(t, ix.Predicate())
	})

	t.Run("FiltersRecordIDs", func(t *testing.T) {
		pred := ix.Predicate(Eq("source", "email"))
		require.NotNil(t, pred)
		assert.False(t, pred(0))
		assert.True(t, pred(2))
	})
}

func TestIndexAppend(t *testing.T) {
	ix := NewIndex()
	ix.Rebuild(testMetas())
	require.Equal(t, 3, ix.Count())

	ix.Add(3, record.Metadata{"source": "sms", "type": "transaction"})

	assert.Equal(t, 4, ix.Count())
	bm := ix.Match(Eq("type", "transaction"))
	assert.Equal(t, uint64(2), bm.GetCardinality())
}

func TestIndexIgnoresNonStringFields(t *testing.T) {
	ix := NewIndex()
	ix.Add(0, record.Metadata{
		"type":    "transaction",
		"details": map[string]any{"amount": 250.0},
	})

	bm := ix.Match(Eq("type", "transaction"))
	assert.True(t, bm.Contains(0))
	assert.Empty(t, ix.Match(Eq("details", "x")).ToArray())
}
