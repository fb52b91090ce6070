// Package msgvault is a semantic search and privacy-masking store for
// personal messages.
//
// Messages are embedded into a vector space and indexed for exact
// nearest-neighbor search. The store keeps the index, the raw vectors, the
// message texts and their metadata synchronized on disk as one artifact set,
// and supports incremental appends without a full rebuild. Retrieved texts
// can be rewritten with privacy placeholders before they leave the process.
package msgvault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/msgvault/msgvault/artifact"
	"github.com/msgvault/msgvault/codec"
	"github.com/msgvault/msgvault/embedding"
	"github.com/msgvault/msgvault/entity"
	"github.com/msgvault/msgvault/index/flat"
	"github.com/msgvault/msgvault/internal/fs"
	"github.com/msgvault/msgvault/mask"
	"github.com/msgvault/msgvault/metadata"
	"github.com/msgvault/msgvault/reason"
	"github.com/msgvault/msgvault/record"
)

// DefaultTopK is the result count used when a search asks for k <= 0.
const DefaultTopK = 3

// Match is one search hit.
type Match struct {
	// Rank is 1-based, ordered by ascending distance.
	Rank int

	// ID is the corpus position of the matched message.
	ID uint32

	Text     string
	Metadata record.Metadata

	// Distance is the squared L2 distance to the query. Zero only for an
	// identical vector.
	Distance float32
}

// Answer is the outcome of a full query round: retrieval, masking and the
// best-effort reasoning call.
type Answer struct {
	Matches      []Match
	Masked       []string
	Placeholders mask.PlaceholderMap
	Reasoning    reason.Result
}

// Options configures a Store.
type Options struct {
	// FS is the file system the artifact set lives on.
	FS fs.FileSystem

	// Codec encodes the JSON artifacts.
	Codec codec.Codec

	// Extractor recognizes sensitive spans for masking.
	Extractor *entity.Extractor

	// TopK is the default search result count.
	TopK int

	// Logger receives structured output.
	Logger *Logger
}

// Store ties the vector index, the message corpus and the artifact set
// together. All operations are serialized through one mutex; the process
// model is single writer, single reader.
type Store struct {
	mu        sync.Mutex
	set       *artifact.Set
	state     *artifact.State
	meta      *metadata.Index
	embedder  embedding.Embedder
	extractor *entity.Extractor
	topK      int
	logger    *Logger
}

// Open prepares a Store over the artifact directory. Artifacts are not read
// until the first operation that needs them.
func Open(dir string, embedder embedding.Embedder, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{
		FS:        fs.Default,
		Codec:     codec.Default,
		Extractor: entity.NewExtractor(),
		TopK:      DefaultTopK,
		Logger:    NewLogger(nil),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	set, err := artifact.NewSet(dir,
		artifact.WithFS(opts.FS),
		artifact.WithCodec(opts.Codec),
		artifact.WithLogger(opts.Logger.Logger),
	)
	if err != nil {
		return nil, err
	}

	return &Store{
		set:       set,
		meta:      metadata.NewIndex(),
		embedder:  embedder,
		extractor: opts.Extractor,
		topK:      opts.TopK,
		logger:    opts.Logger,
	}, nil
}

// WithFS sets the file system.
func WithFS(fsys fs.FileSystem) func(o *Options) {
	return func(o *Options) { o.FS = fsys }
}

// WithCodec sets the codec for the JSON artifacts.
func WithCodec(c codec.Codec) func(o *Options) {
	return func(o *Options) { o.Codec = c }
}

// WithExtractor sets the entity extractor used for masking.
func WithExtractor(e *entity.Extractor) func(o *Options) {
	return func(o *Options) { o.Extractor = e }
}

// WithTopK sets the default search result count.
func WithTopK(k int) func(o *Options) {
	return func(o *Options) { o.TopK = k }
}

// WithLogger sets the logger.
func WithLogger(logger *Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Count returns the number of indexed messages, zero before the first load.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return 0
	}
	return s.state.Rows()
}

// Build embeds the records and constructs a fresh index over them, replacing
// whatever the artifact directory held before. The index dimensionality is
// fixed by the first embedding and never changes afterwards.
func (s *Store) Build(ctx context.Context, records []record.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	texts := make([]string, len(records))
	metas := make([]record.Metadata, len(records))
	for i, rec := range records {
		texts[i] = rec.SearchText()
		metas[i] = rec.Metadata()
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed records: %w", err)
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("embed records: got %d vectors for %d texts", len(vectors), len(records))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := flat.New(flat.WithDimension(len(vectors[0])))
	if err != nil {
		return err
	}
	if _, err := idx.BatchInsert(ctx, vectors); err != nil {
		return err
	}

	state := &artifact.State{
		Index:    idx,
		Vectors:  vectors,
		Texts:    texts,
		Metadata: metas,
	}
	if err := s.set.Save(state); err != nil {
		return err
	}

	s.state = state
	s.meta.Rebuild(metas)

	s.logger.Info("index built",
		slog.Int("messages", len(records)),
		slog.Int("dimension", idx.Dimension()),
		slog.Uint64("generation", s.set.Generation()),
	)

	return nil
}

// Load reads the artifact set from disk, replacing any resident state.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(_ context.Context) error {
	state, err := s.set.Load()
	if err != nil {
		return err
	}

	s.state = state
	s.meta.Rebuild(state.Metadata)

	s.logger.Debug("index loaded",
		slog.Int("messages", state.Rows()),
		slog.Uint64("generation", s.set.Generation()),
	)

	return nil
}

// ensureLoaded lazily pulls the artifacts into memory. A store that has
// never been built and has no artifacts on disk stays nil-state; callers
// decide whether that is an error.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.state != nil {
		return nil
	}
	if !s.set.Exists() {
		return nil
	}
	return s.load(ctx)
}

// Search embeds the query text and returns the k nearest messages.
func (s *Store) Search(ctx context.Context, query string, k int, filters ...metadata.Filter) ([]Match, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors for one text", len(vectors))
	}

	return s.SearchVector(ctx, vectors[0], k, filters...)
}

// SearchVector returns the k nearest messages to a pre-computed query vector,
// ordered by ascending distance with ties broken by insertion order. k is
// clamped to the corpus size; k <= 0 selects the store default.
func (s *Store) SearchVector(ctx context.Context, query []float32, k int, filters ...metadata.Filter) ([]Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if s.state == nil || s.state.Rows() == 0 {
		return nil, ErrEmptyIndex
	}

	if k <= 0 {
		k = s.topK
	}

	results, err := s.state.Index.BruteSearch(ctx, query, k, s.meta.Predicate(filters...))
	if err != nil {
		return nil, err
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{
			Rank:     i + 1,
			ID:       r.ID,
			Text:     s.state.Texts[r.ID],
			Metadata: s.state.Metadata[r.ID],
			Distance: r.Distance,
		}
	}

	return matches, nil
}

// Append embeds one record and adds it to the index, the corpus and the
// artifact set as a single logical unit.
//
// There is no transactional rollback across the artifact files. A crash
// mid-append can leave them disagreeing on disk; the next Load detects that
// and reports a corrupt artifact set instead of serving it.
func (s *Store) Append(ctx context.Context, rec record.Record) error {
	text := rec.SearchText()

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed record: %w", err)
	}
	if len(vectors) != 1 {
		return fmt.Errorf("embed record: got %d vectors for one text", len(vectors))
	}
	vec := vectors[0]

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if s.state == nil {
		// First message ever: the embedding fixes the index dimensionality.
		idx, err := flat.New(flat.WithDimension(len(vec)))
		if err != nil {
			return err
		}
		s.state = &artifact.State{Index: idx}
	}

	id, err := s.state.Index.Insert(ctx, vec)
	if err != nil {
		return err
	}

	meta := rec.Metadata()
	staged := &artifact.State{
		Index:    s.state.Index,
		Vectors:  append(s.state.Vectors, vec),
		Texts:    append(s.state.Texts, text),
		Metadata: append(s.state.Metadata, meta),
	}

	if err := s.set.Save(staged); err != nil {
		// The live index already holds the new row, so the resident state
		// no longer matches the last committed generation. Drop it; the
		// next operation reloads from disk, which either serves the
		// previous generation or reports the torn write.
		s.state = nil
		return err
	}

	s.state = staged
	s.meta.Add(id, meta)

	s.logger.Info("message appended",
		slog.Uint64("id", uint64(id)),
		slog.String("source", string(rec.Source)),
		slog.Uint64("generation", s.set.Generation()),
	)

	return nil
}

// AppendPayload appends a raw message object from the real-time path.
// A payload matching neither the SMS nor the email shape is skipped with a
// warning rather than treated as an error; skipped reports that outcome.
func (s *Store) AppendPayload(ctx context.Context, payload map[string]any) (skipped bool, err error) {
	rec, err := record.FromPayload(payload)
	if errors.Is(err, record.ErrUnrecognizedShape) {
		s.logger.Warn("skipping message with unrecognized shape")
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return false, s.Append(ctx, rec)
}

// Mask rewrites the match texts with privacy placeholders. Ordinals are
// 1-based match positions, so placeholder keys are unique across one call.
func (s *Store) Mask(matches []Match) mask.Result {
	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return mask.Messages(texts, s.extractor)
}

// Ask runs the full query round: retrieve the k nearest messages, mask
// them, and forward the masked texts to the reasoning collaborator. The
// collaborator call is best effort; its failure lands in Answer.Reasoning,
// never in the returned error, so retrieved and masked results survive.
func (s *Store) Ask(ctx context.Context, c reason.Collaborator, query string, k int, filters ...metadata.Filter) (*Answer, error) {
	matches, err := s.Search(ctx, query, k, filters...)
	if err != nil {
		return nil, err
	}

	masked := s.Mask(matches)

	res := reason.Ask(ctx, c, query, masked.Masked)
	if res.Failed() {
		s.logger.Warn("reasoning collaborator failed", slog.Any("error", res.Err))
	}

	return &Answer{
		Matches:      matches,
		Masked:       masked.Masked,
		Placeholders: masked.Placeholders,
		Reasoning:    res,
	}, nil
}
