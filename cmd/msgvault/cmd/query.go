package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msgvault/msgvault/metadata"
)

func newQueryCmd() *cobra.Command {
	var (
		topK        int
		filterPairs []string
		showMasked  bool
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Search the index for the most similar messages",
		Long: `Embeds the query text and prints the nearest messages by L2 distance.

Examples:
  msgvault query "dinner payment"
  msgvault query "invoice" -k 5 --filter source=email
  msgvault query "payments to friends" --masked`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			filters, err := parseFilters(filterPairs)
			if err != nil {
				return err
			}

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")

			matches, err := store.Search(cmd.Context(), query, topK, filters...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range matches {
				fmt.Fprintf(out, "%d. %s\n", m.Rank, m.Text)
				fmt.Fprintf(out, "   type: %v, distance: %.3f\n", m.Metadata["type"], m.Distance)
			}

			if showMasked || cfg.Search.Mask {
				result := store.Mask(matches)
				fmt.Fprintln(out, "\nMasked:")
				for i, text := range result.Masked {
					fmt.Fprintf(out, "%d. %s\n", i+1, text)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top", "k", 0, "Number of results (0 uses the configured default)")
	cmd.Flags().StringSliceVar(&filterPairs, "filter", nil, "Metadata filter field=value (repeatable)")
	cmd.Flags().BoolVar(&showMasked, "masked", false, "Also print the privacy-masked texts")

	return cmd
}

func parseFilters(pairs []string) ([]metadata.Filter, error) {
	filters := make([]metadata.Filter, 0, len(pairs))
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q, expected field=value", pair)
		}
		filters = append(filters, metadata.Eq(field, value))
	}
	return filters, nil
}
