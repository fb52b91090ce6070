package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Options configures a Client.
type Options struct {
	// BaseURL overrides the provider endpoint. Empty means the OpenAI default.
	BaseURL string

	// Model is the embedding model identifier.
	Model string

	// Dimensions, when positive, asks the provider for truncated vectors.
	Dimensions int

	// BatchSize caps how many texts go into a single request.
	BatchSize int

	// MaxConcurrency caps in-flight requests for a single Embed call.
	MaxConcurrency int

	// RequestsPerSecond throttles requests across the whole client.
	// Zero means no throttle.
	RequestsPerSecond float64

	// Logger receives per-batch debug output.
	Logger *slog.Logger
}

// DefaultOptions are the Client defaults.
var DefaultOptions = Options{
	Model:          string(openai.SmallEmbedding3),
	BatchSize:      64,
	MaxConcurrency: 4,
}

// Client is an Embedder backed by an OpenAI-compatible API.
type Client struct {
	client  *openai.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	opts    Options
}

// NewClient creates a Client authenticated with the given API key.
func NewClient(apiKey string, optFns ...func(o *Options)) *Client {
	opts := DefaultOptions
	opts.Logger = slog.Default()

	for _, fn := range optFns {
		fn(&opts)
	}

	cfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		client:  openai.NewClientWithConfig(cfg),
		limiter: limiter,
		logger:  opts.Logger,
		opts:    opts,
	}
}

// WithBaseURL sets the provider endpoint.
func WithBaseURL(baseURL string) func(o *Options) {
	return func(o *Options) { o.BaseURL = baseURL }
}

// WithModel sets the embedding model.
func WithModel(model string) func(o *Options) {
	return func(o *Options) { o.Model = model }
}

// WithDimensions requests truncated vectors from the provider.
func WithDimensions(dimensions int) func(o *Options) {
	return func(o *Options) { o.Dimensions = dimensions }
}

// WithBatchSize sets the per-request text cap.
func WithBatchSize(batchSize int) func(o *Options) {
	return func(o *Options) { o.BatchSize = batchSize }
}

// WithMaxConcurrency caps in-flight requests per Embed call.
func WithMaxConcurrency(n int) func(o *Options) {
	return func(o *Options) { o.MaxConcurrency = n }
}

// WithRequestsPerSecond throttles requests across the client.
func WithRequestsPerSecond(rps float64) func(o *Options) {
	return func(o *Options) { o.RequestsPerSecond = rps }
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Embed vectorizes texts in batches. Output order matches input order even
// though batches run concurrently.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.MaxConcurrency)

	batchSize := c.opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultOptions.BatchSize
	}

	for start := 0; start < len(texts); start += batchSize {
		start := start
		end := min(start+batchSize, len(texts))

		g.Go(func() error {
			batch, err := c.embedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          openai.EmbeddingModel(c.opts.Model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if c.opts.Dimensions > 0 {
		req.Dimensions = c.opts.Dimensions
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, wrapProviderError(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d texts: %w",
			len(resp.Data), len(texts), ErrProvider)
	}

	// Providers may reorder data entries; the index field is authoritative.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("provider returned out-of-range embedding index %d: %w",
				d.Index, ErrProvider)
		}
		vectors[d.Index] = d.Embedding
	}

	c.logger.Debug("embedded batch",
		slog.Int("texts", len(texts)),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
	)

	return vectors, nil
}

// wrapProviderError flattens the go-openai error types into a single
// ErrProvider-wrapped message with the useful parts kept.
func wrapProviderError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), ErrProvider)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, ErrProvider)
	}

	return fmt.Errorf("embedding request: %v: %w", err, ErrProvider)
}
