package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msgvault/msgvault/reason"
)

func newAskCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question over the masked retrieved messages",
		Long: `Retrieves the most similar messages, replaces sensitive values with
placeholders and forwards the masked texts to the configured reasoning
endpoint. Only placeholder tokens leave the machine; the answer is printed
together with the retrieved context.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}

			reasonOpts := []func(o *reason.Options){
				reason.WithTimeout(time.Duration(cfg.Reasoning.TimeoutSec) * time.Second),
				reason.WithLogger(logger.Logger),
			}
			if cfg.Reasoning.BaseURL != "" {
				reasonOpts = append(reasonOpts, reason.WithBaseURL(cfg.Reasoning.BaseURL))
			}
			if cfg.Reasoning.Model != "" {
				reasonOpts = append(reasonOpts, reason.WithModel(cfg.Reasoning.Model))
			}

			collab := reason.NewClient(cfg.Reasoning.APIKey, reasonOpts...)

			question := strings.Join(args, " ")

			answer, err := store.Ask(cmd.Context(), collab, question, topK)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Retrieved (masked):")
			for i, text := range answer.Masked {
				fmt.Fprintf(out, "%d. %s\n", i+1, text)
			}

			fmt.Fprintf(out, "\nAnswer: %s\n", answer.Reasoning.Answer)
			if answer.Reasoning.Failed() {
				fmt.Fprintln(out, "(reasoning endpoint failed; retrieved results above are still valid)")
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top", "k", 0, "Number of messages to retrieve (0 uses the configured default)")

	return cmd
}
