// Package reason forwards masked prompts to a hosted chat-completion endpoint
// and reports the answer. The call is best effort: retrieval and masking have
// already succeeded by the time this runs, so endpoint trouble is captured in
// the result instead of failing the whole query.
package reason

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrCollaborator marks failures of the reasoning endpoint. It is carried
// inside Result.Err, never returned from Ask directly.
var ErrCollaborator = errors.New("reasoning collaborator error")

// Collaborator answers a prompt built from masked message texts.
type Collaborator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result is the outcome of one reasoning call.
//
// When Err is set, Answer holds a human-readable description of the failure
// so the caller can still render something alongside the retrieved messages.
type Result struct {
	Answer string
	Err    error
}

// Failed reports whether the collaborator call went wrong.
func (r Result) Failed() bool { return r.Err != nil }

// Options configures a Client.
type Options struct {
	// BaseURL overrides the endpoint. Empty means the OpenAI default.
	BaseURL string

	// Model is the chat model identifier.
	Model string

	// Timeout bounds a single completion call.
	Timeout time.Duration

	// Logger receives per-call debug output.
	Logger *slog.Logger
}

// DefaultOptions are the Client defaults.
var DefaultOptions = Options{
	Model:   openai.GPT4oMini,
	Timeout: 60 * time.Second,
}

// Client is a Collaborator backed by an OpenAI-compatible chat API.
type Client struct {
	client *openai.Client
	logger *slog.Logger
	opts   Options
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

	return &Client{
		client: openai.NewClientWithConfig(cfg),
		logger: opts.Logger,
		opts:   opts,
	}
}

// WithBaseURL sets the endpoint.
func WithBaseURL(baseURL string) func(o *Options) {
	return func(o *Options) { o.BaseURL = baseURL }
}

// WithModel sets the chat model.
func WithModel(model string) func(o *Options) {
	return func(o *Options) { o.Model = model }
}

// WithTimeout bounds a single completion call.
func WithTimeout(timeout time.Duration) func(o *Options) {
	return func(o *Options) { o.Timeout = timeout }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// Complete sends the prompt as a single user message and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", wrapCollaboratorError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("response carries no choices: %w", ErrCollaborator)
	}

	c.logger.Debug("reasoning call completed",
		slog.String("model", c.opts.Model),
		slog.Duration("duration", time.Since(start)),
	)

	return resp.Choices[0].Message.Content, nil
}

// Ask builds the constrained prompt, runs the collaborator and folds any
// failure into the Result.
func Ask(ctx context.Context, c Collaborator, query string, masked []string) Result {
	answer, err := c.Complete(ctx, BuildPrompt(query, masked))
	if err != nil {
		return Result{
			Answer: fmt.Sprintf("reasoning unavailable: %v", err),
			Err:    err,
		}
	}
	return Result{Answer: answer}
}

// BuildPrompt assembles the masked-reasoning prompt: the rules that keep
// placeholders opaque, the user's query and the numbered retrieved messages.
// The collaborator may only reason over placeholder tokens, never fill them in.
func BuildPrompt(query string, masked []string) string {
	var b strings.Builder

	b.WriteString("You are a natural-language reasoning assistant.\n\n")
	b.WriteString("IMPORTANT RULES:\n")
	b.WriteString("- The text contains masked entities like #amount_1, #receiver_1, #date_1.\n")
	b.WriteString("- These placeholders MUST remain EXACTLY as they appear.\n")
	b.WriteString("- NEVER replace, modify, create, or remove placeholders.\n")
	b.WriteString("- Never invent real names, numbers, dates, or apps.\n")
	b.WriteString("- Only summarize or compute using the placeholders given.\n")
	b.WriteString("- Ignore messages without relevant placeholders for the question asked.\n")
	b.WriteString("- If a computation is impossible because placeholders are opaque, say so.\n\n")

	b.WriteString("USER QUERY:\n")
	fmt.Fprintf(&b, "%q\n\n", query)

	b.WriteString("RETRIEVED MESSAGES:\n")
	for i, text := range masked {
		fmt.Fprintf(&b, "%d. %q\n", i+1, text)
	}

	b.WriteString("\nGive the final answer in 1-2 sentences.\n")

	return b.String()
}

func wrapCollaboratorError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("reasoning API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), ErrCollaborator)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("reasoning API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, ErrCollaborator)
	}

	return fmt.Errorf("reasoning request: %v: %w", err, ErrCollaborator)
}
