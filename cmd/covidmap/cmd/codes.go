package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"covidmap/internal/fetcher"
	"covidmap/internal/formatter"
	"covidmap/internal/pipeline"
)

func newCodesCmd(a *app) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "codes",
		Short: "Print the deduplicated country to ISO alpha-3 lookup table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, codes, err := fetcher.NewFromConfig(a.cfg, fetcher.SourceDaily)
			if err != nil {
				return err
			}

			lookup, err := pipeline.LoadLookup(cmd.Context(), codes, a.cfg.Join.Corrections)
			if err != nil {
				return err
			}

			headers := []string{"Country", "ISO"}
			rows := make([][]string, 0, lookup.Len())

			for _, e := range lookup.SortedEntries() {
				rows = append(rows, []string{e.Country, e.ISOAlpha})
			}

			var out string

			switch format {
			case formatter.StyleTable:
				out = formatter.RenderTable(headers, rows)
			case formatter.StyleMarkdown:
				out = formatter.RenderMarkdownTable(headers, rows)
			default:
				return fmt.Errorf("%w: %q", formatter.ErrUnknownStyle, format)
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), out)

			return err
		},
	}

	c.Flags().StringVarP(&format, "format", "f", formatter.StyleTable, "output format (table, markdown)")

	return c
}
