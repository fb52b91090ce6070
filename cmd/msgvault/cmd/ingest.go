package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msgvault/msgvault/record"
)

func newIngestCmd() *cobra.Command {
	var smsPath, emailPath string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest source files and build a fresh index",
		Long: `Reads the SMS and email source documents, classifies each message,
embeds everything and builds a fresh index in the artifact directory.
Any existing index there is replaced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			if smsPath == "" {
				smsPath = cfg.Data.SMSPath
			}
			if emailPath == "" {
				emailPath = cfg.Data.EmailPath
			}

			loader := record.NewLoader(func(o *record.LoaderOptions) {
				o.Logger = logger.Logger
			})

			records, err := loader.Load(smsPath, emailPath)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("no records found in %q and %q", smsPath, emailPath)
			}

			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}

			if err := store.Build(cmd.Context(), records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d messages into %s\n", len(records), cfg.Artifacts.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&smsPath, "sms", "", "SMS source file (overrides config)")
	cmd.Flags().StringVar(&emailPath, "emails", "", "Email source file (overrides config)")

	return cmd
}
