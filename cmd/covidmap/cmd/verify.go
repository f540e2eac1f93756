package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"covidmap/pkg/metadata"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check the provenance block of a saved markdown report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			meta, err := metadata.Verify(string(content))
			if err != nil {
				a.log.Error("report verification failed", "file", args[0], "error", err)

				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (run %s, %s %s)\n", args[0], meta.RunID, meta.Metric, meta.Date)

			return err
		},
	}
}
