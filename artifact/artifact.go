// Package artifact persists the four co-located files that make up an index
// snapshot: the serialized index, the raw vector matrix, the message texts and
// the per-message metadata. The files are only meaningful together, so Save
// writes all of them and Load refuses to serve a partial or disagreeing set.
package artifact

import (
	"encoding/gob"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/msgvault/msgvault/codec"
	"github.com/msgvault/msgvault/index/flat"
	"github.com/msgvault/msgvault/internal/fs"
	"github.com/msgvault/msgvault/record"
)

const (
	IndexFileName    = "index.gob"
	VectorsFileName  = "vectors.vmx"
	MessagesFileName = "messages.json"
	MetadataFileName = "metadata.json"
)

// Options configures a Set.
type Options struct {
	// FS is the file system the set reads and writes through.
	FS fs.FileSystem

	// Codec encodes the JSON artifacts and the manifest.
	Codec codec.Codec

	// Logger receives advisory warnings, e.g. a missing manifest.
	Logger *slog.Logger
}

// State is one snapshot of the artifact set, held in memory.
//
// The slices are parallel: Vectors[i], Texts[i] and Metadata[i] all describe
// the message stored under index ID i.
type State struct {
	Index    *flat.Flat
	Vectors  [][]float32
	Texts    []string
	Metadata []record.Metadata
}

// Rows returns the number of messages in the snapshot.
func (st *State) Rows() int {
	return len(st.Texts)
}

// Set manages the artifact files in a single directory.
// It is not safe for concurrent use; callers serialize Save and Load.
type Set struct {
	fs         fs.FileSystem
	dir        string
	codec      codec.Codec
	logger     *slog.Logger
	generation uint64
}

// NewSet opens (and creates if needed) the artifact directory.
func NewSet(dir string, optFns ...func(o *Options)) (*Set, error) {
	opts := Options{
		FS:     fs.Default,
		Codec:  codec.Default,
		Logger: slog.Default(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.FS.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}

	return &Set{
		fs:     opts.FS,
		dir:    dir,
		codec:  opts.Codec,
		logger: opts.Logger,
	}, nil
}

// WithFS sets the file system the set operates on.
func WithFS(fsys fs.FileSystem) func(o *Options) {
	return func(o *Options) { o.FS = fsys }
}

// WithCodec sets the codec for the JSON artifacts.
func WithCodec(c codec.Codec) func(o *Options) {
	return func(o *Options) { o.Codec = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Dir returns the artifact directory.
func (s *Set) Dir() string { return s.dir }

// Generation returns the generation stamped by the last Save or Load.
func (s *Set) Generation() uint64 { return s.generation }

// Exists reports whether a serialized index is present in the directory.
func (s *Set) Exists() bool {
	_, err := s.fs.Stat(filepath.Join(s.dir, IndexFileName))
	return err == nil
}

// Save persists the snapshot. Every artifact is rewritten, each through a
// temp-file + rename, and the manifest is stamped last so a crash mid-save
// leaves the previous generation's manifest pointing at whatever survived.
// A crash between individual renames can still leave the files disagreeing;
// Load detects that and reports ErrCorruptArtifact rather than guessing.
func (s *Set) Save(st *State) error {
	if st.Index == nil {
		return fmt.Errorf("save: nil index")
	}

	rows := st.Index.Count()
	if len(st.Vectors) != rows || len(st.Texts) != rows || len(st.Metadata) != rows {
		return fmt.Errorf("save: artifact rows disagree: index=%d vectors=%d texts=%d metadata=%d",
			rows, len(st.Vectors), len(st.Texts), len(st.Metadata))
	}

	dim := st.Index.Dimension()

	if err := s.writeFileAtomic(IndexFileName, func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(st.Index)
	}); err != nil {
		return fmt.Errorf("write %s: %w", IndexFileName, err)
	}

	if err := s.writeFileAtomic(VectorsFileName, func(w io.Writer) error {
		return encodeVectors(w, st.Vectors, dim)
	}); err != nil {
		return fmt.Errorf("write %s: %w", VectorsFileName, err)
	}

	if err := s.writeJSON(MessagesFileName, st.Texts); err != nil {
		return err
	}
	if err := s.writeJSON(MetadataFileName, st.Metadata); err != nil {
		return err
	}

	if _, err := s.ensureGeneration(); err != nil {
		return err
	}
	s.generation++

	if err := s.saveManifest(&Manifest{
		Generation: s.generation,
		Rows:       rows,
		Dimension:  dim,
		Codec:      s.codec.Name(),
	}); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	s.logger.Debug("artifact set saved",
		slog.String("dir", s.dir),
		slog.Uint64("generation", s.generation),
		slog.Int("rows", rows),
	)

	return nil
}

// Load reads all four artifacts and cross-checks them against each other.
// Any absent file yields ErrMissingArtifact; disagreeing row counts or
// dimensions yield ErrCorruptArtifact. A missing manifest is advisory only.
func (s *Set) Load() (*State, error) {
	idx := &flat.Flat{}
	if err := s.loadArtifact(IndexFileName, func(r io.Reader) error {
		return gob.NewDecoder(r).Decode(idx)
	}); err != nil {
		return nil, err
	}

	var (
		vectors [][]float32
		dim     int
	)
	if err := s.loadArtifact(VectorsFileName, func(r io.Reader) error {
		var derr error
		vectors, dim, derr = decodeVectors(r)
		return derr
	}); err != nil {
		return nil, err
	}

	var texts []string
	if err := s.loadJSON(MessagesFileName, &texts); err != nil {
		return nil, err
	}

	var metas []record.Metadata
	if err := s.loadJSON(MetadataFileName, &metas); err != nil {
		return nil, err
	}

	rows := idx.Count()
	if len(vectors) != rows || len(texts) != rows || len(metas) != rows {
		return nil, &ErrCorruptArtifact{
			Detail: fmt.Sprintf("artifact rows disagree: index=%d vectors=%d texts=%d metadata=%d",
				rows, len(vectors), len(texts), len(metas)),
		}
	}
	if rows > 0 && dim != idx.Dimension() {
		return nil, &ErrCorruptArtifact{
			Detail: fmt.Sprintf("vector matrix dimension %d disagrees with index dimension %d",
				dim, idx.Dimension()),
		}
	}

	m, found, err := s.loadManifest()
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.Warn("artifact manifest absent, proceeding on cross-checks alone",
			slog.String("dir", s.dir))
	} else {
		if m.Rows != rows {
			return nil, &ErrCorruptArtifact{
				Detail: fmt.Sprintf("manifest records %d rows, artifacts hold %d", m.Rows, rows),
			}
		}
		s.generation = m.Generation
	}

	return &State{
		Index:    idx,
		Vectors:  vectors,
		Texts:    texts,
		Metadata: metas,
	}, nil
}

func (s *Set) loadArtifact(name string, read func(r io.Reader) error) error {
	f, err := s.fs.OpenFile(filepath.Join(s.dir, name), os.O_RDONLY, 0)
	if os.IsNotExist(err) {
		return &ErrMissingArtifact{Name: name, cause: err}
	}
	if err != nil {
		return err
	}
	defer f.Close()

	if err := read(f); err != nil {
		return &ErrCorruptArtifact{Detail: fmt.Sprintf("%s does not decode", name), cause: err}
	}
	return nil
}

func (s *Set) loadJSON(name string, v any) error {
	return s.loadArtifact(name, func(r io.Reader) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		return s.codec.Unmarshal(data, v)
	})
}

func (s *Set) writeJSON(name string, v any) error {
	data, err := s.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.writeFileAtomic(name, func(w io.Writer) error {
		_, werr := w.Write(data)
		return werr
	}); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ensureGeneration seeds the in-memory generation counter from the manifest
// on disk, so a fresh Set appending to an existing directory keeps counting
// where the previous process stopped.
func (s *Set) ensureGeneration() (uint64, error) {
	if s.generation != 0 {
		return s.generation, nil
	}
	m, found, err := s.loadManifest()
	if err != nil {
		return 0, err
	}
	if found {
		s.generation = m.Generation
	}
	return s.generation, nil
}
