package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msgvault/msgvault/index/flat"
	"github.com/msgvault/msgvault/internal/fs"
	"github.com/msgvault/msgvault/record"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeState(t *testing.T, rows, dim int) *State {
	t.Helper()

	idx, err := flat.New(flat.WithDimension(dim))
	require.NoError(t, err)

	st := &State{Index: idx}
	for i := 0; i < rows; i++ {
		vec := make([]float32, dim)
		vec[i%dim] = float32(i + 1)

		_, err := idx.Insert(context.Background(), vec)
		require.NoError(t, err)

		st.Vectors = append(st.Vectors, vec)
		st.Texts = append(st.Texts, fmt.Sprintf("message %d", i))
		st.Metadata = append(st.Metadata, record.Metadata{
			"source": "sms",
			"sender": fmt.Sprintf("sender-%d", i),
		})
	}

	return st
}

func TestSetSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	set, err := NewSet(dir, WithLogger(discardLogger()))
	require.NoError(t, err)

	st := makeState(t, 3, 4)
	require.NoError(t, set.Save(st))
	assert.Equal(t, uint64(1), set.Generation())

	loaded, err := set.Load()
	require.NoError(t, err)

	assert.Equal(t, 3, loaded.Index.Count())
	assert.Equal(t, st.Texts, loaded.Texts)
	assert.Equal(t, st.Vectors, loaded.Vectors)
	assert.Equal(t, st.Metadata, loaded.Metadata)

	// The restored index must answer queries, not just hold rows.
	results, err := loaded.Index.BruteSearch(context.Background(), st.Vectors[1], 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint32(1), results[0].ID)
	assert.Equal(t, float32(0), results[0].Distance)
}

func TestSetLoadMissingArtifact(t *testing.T) {
	dir := t.TempDir()

	set, err := NewSet(dir, WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, set.Save(makeState(t, 2, 4)))

	require.NoError(t, os.Remove(filepath.Join(dir, MetadataFileName)))

	_, err = set.Load()

	var missing *ErrMissingArtifact
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, MetadataFileName, missing.Name)
}

func TestSetLoadEmptyDir(t *testing.T) {
	set, err := NewSet(t.TempDir(), WithLogger(discardLogger()))
	require.NoError(t, err)

	assert.False(t, set.Exists())

	_, err = set.Load()

	var missing *ErrMissingArtifact
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, IndexFileName, missing.Name)
}

func TestSetSaveRowMismatch(t *testing.T) {
	set, err := NewSet(t.TempDir(), WithLogger(discardLogger()))
	require.NoError(t, err)

	st := makeState(t, 2, 4)
	st.Texts = st.Texts[:1]

	assert.Error(t, set.Save(st))
}

func TestSetLoadRowsDisagree(t *testing.T) {
	dir := t.TempDir()

	set, err := NewSet(dir, WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, set.Save(makeState(t, 3, 4)))

	// Shrink the texts artifact behind the set's back, as a torn write would.
	short, err := json.Marshal([]string{"only one"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, MessagesFileName), short, 0o644))

	_, err = set.Load()

	var corrupt *ErrCorruptArtifact
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Detail, "rows disagree")
}

func TestSetLoadTruncatedVectors(t *testing.T) {
	dir := t.TempDir()

	set, err := NewSet(dir, WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, set.Save(makeState(t, 3, 4)))

	path := filepath.Join(dir, VectorsFileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0o644))

	_, err = set.Load()

	var corrupt *ErrCorruptArtifact
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Detail, VectorsFileName)
}

func TestSetSaveFaultBeforeFirstRenameKeepsOldGeneration(t *testing.T) {
	dir := t.TempDir()

	set, err := NewSet(dir, WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, set.Save(makeState(t, 2, 4)))

	// A second save dies while writing the index. The failed bytes only ever
	// reach a temp file, so the first generation stays fully intact.
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule(IndexFileName, fs.Fault{FailAfterBytes: 10})

	faultySet, err := NewSet(dir, WithFS(faulty), WithLogger(discardLogger()))
	require.NoError(t, err)
	require.Error(t, faultySet.Save(makeState(t, 5, 4)))

	loaded, err := set.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Index.Count())
	assert.Equal(t, uint64(1), set.Generation())
}

func TestSetSaveFaultMidwayIsDetectedOnLoad(t *testing.T) {
	dir := t.TempDir()

	set, err := NewSet(dir, WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, set.Save(makeState(t, 2, 4)))

	// This save dies after the new index is already in place but before the
	// vector matrix is rewritten. The set is now torn across generations,
	// and Load must report that instead of serving mismatched rows.
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule(VectorsFileName, fs.Fault{FailAfterBytes: 10})

	faultySet, err := NewSet(dir, WithFS(faulty), WithLogger(discardLogger()))
	require.NoError(t, err)
	require.Error(t, faultySet.Save(makeState(t, 5, 4)))

	_, err = set.Load()

	var corrupt *ErrCorruptArtifact
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Detail, "rows disagree")
}

func TestSetLoadWithoutManifest(t *testing.T) {
	dir := t.TempDir()

	set, err := NewSet(dir, WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, set.Save(makeState(t, 2, 4)))

	// Manifest is advisory. Without it the cross-checks still carry the load.
	require.NoError(t, os.Remove(filepath.Join(dir, CurrentFileName)))

	loaded, err := set.Load()
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Index.Count())
}

func TestSetLoadManifestRowMismatch(t *testing.T) {
	dir := t.TempDir()

	set, err := NewSet(dir, WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, set.Save(makeState(t, 2, 4)))

	current, err := os.ReadFile(filepath.Join(dir, CurrentFileName))
	require.NoError(t, err)

	manifestPath := filepath.Join(dir, string(current))
	data, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	m.Rows = 99

	tampered, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(manifestPath, tampered, 0o644))

	_, err = set.Load()

	var corrupt *ErrCorruptArtifact
	require.ErrorAs(t, err, &corrupt)
	assert.Contains(t, corrupt.Detail, "manifest")
}

func TestSetGenerationContinuesAcrossProcesses(t *testing.T) {
	dir := t.TempDir()

	first, err := NewSet(dir, WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, first.Save(makeState(t, 1, 4)))
	require.NoError(t, first.Save(makeState(t, 2, 4)))
	assert.Equal(t, uint64(2), first.Generation())

	// A fresh set over the same directory picks the counter back up.
	second, err := NewSet(dir, WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, second.Save(makeState(t, 3, 4)))
	assert.Equal(t, uint64(3), second.Generation())

	loaded, err := second.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Index.Count())
	assert.Equal(t, uint64(3), second.Generation())
}
