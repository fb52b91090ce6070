package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Append one message to the index",
		Long: `Appends a single JSON message object to the existing index without a
full rebuild. The object is read from the given file, or from stdin when no
file is named. Messages matching neither the SMS nor the email shape are
skipped with a warning.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			var data []byte
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			var payload map[string]any
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("parse message: %w", err)
			}

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}

			skipped, err := store.AppendPayload(cmd.Context(), payload)
			if err != nil {
				return err
			}
			if skipped {
				fmt.Fprintln(cmd.OutOrStdout(), "Message skipped: unrecognized shape")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Message appended, index now holds %d messages\n", store.Count())
			return nil
		},
	}

	return cmd
}
