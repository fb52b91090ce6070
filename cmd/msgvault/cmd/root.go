// Package cmd provides the CLI commands for msgvault.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/msgvault/msgvault"
	"github.com/msgvault/msgvault/codec"
	"github.com/msgvault/msgvault/config"
	"github.com/msgvault/msgvault/embedding"
)

var (
	cfgPath string
	debug   bool
)

// NewRootCmd creates the root command for the msgvault CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "msgvault",
		Short: "Semantic search over personal messages with privacy masking",
		Long: `msgvault indexes SMS and email records into a local vector index,
answers free-text queries with the most similar messages, and can forward
privacy-masked results to a hosted reasoning model.

Sensitive values (amounts, dates, reference IDs, names) are replaced with
opaque placeholders before any text leaves the machine.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "Path to the YAML configuration file")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newAskCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func loadConfig() (config.Config, *msgvault.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	level := cfg.LogLevel()
	if debug {
		level = slog.LevelDebug
	}

	return cfg, msgvault.NewTextLogger(level), nil
}

func openStore(cfg config.Config, logger *msgvault.Logger) (*msgvault.Store, error) {
	c, ok := codec.ByName(cfg.Artifacts.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", cfg.Artifacts.Codec)
	}

	embedOpts := []func(o *embedding.Options){
		embedding.WithBatchSize(cfg.Embedding.BatchSize),
		embedding.WithMaxConcurrency(cfg.Embedding.MaxConcurrency),
		embedding.WithClientLogger(logger.Logger),
	}
	if cfg.Embedding.BaseURL != "" {
		embedOpts = append(embedOpts, embedding.WithBaseURL(cfg.Embedding.BaseURL))
	}
	if cfg.Embedding.Model != "" {
		embedOpts = append(embedOpts, embedding.WithModel(cfg.Embedding.Model))
	}
	if cfg.Embedding.Dimensions > 0 {
		embedOpts = append(embedOpts, embedding.WithDimensions(cfg.Embedding.Dimensions))
	}
	if cfg.Embedding.RequestsPerSecond > 0 {
		embedOpts = append(embedOpts, embedding.WithRequestsPerSecond(cfg.Embedding.RequestsPerSecond))
	}

	embedder := embedding.NewClient(cfg.Embedding.APIKey, embedOpts...)

	return msgvault.Open(cfg.Artifacts.Dir, embedder,
		msgvault.WithCodec(c),
		msgvault.WithTopK(cfg.Search.TopK),
		msgvault.WithLogger(logger),
	)
}
