package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"covidmap/internal/export"
	"covidmap/internal/fetcher"
	"covidmap/internal/formatter"
	"covidmap/internal/models"
	"covidmap/internal/normalizer"
	"covidmap/internal/pipeline"
)

// formatChoropleth prints the map series as JSON instead of a table.
const formatChoropleth = "choropleth"

type reportOptions struct {
	metric string
	date   string
	source string
	format string
	csv    string
	sqlite string
}

func newReportCmd(a *app) *cobra.Command {
	opts := &reportOptions{}

	c := &cobra.Command{
		Use:   "report",
		Short: "Build the joined per-country report for one day",
		Long: `Fetch the snapshot for --date (yesterday by default), aggregate it per
country, normalize labels and zero values, join ISO codes and print it.

The report is also written to output.csv_path and output.sqlite_path
when those are configured or passed as flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runReport(cmd, opts)
		},
	}

	c.Flags().StringVarP(&opts.metric, "metric", "m", string(models.MetricConfirmed), "metric to map (Confirmed, Recovered, Deaths, Active)")
	c.Flags().StringVarP(&opts.date, "date", "d", "", "reporting date as MM-DD-YYYY (default yesterday)")
	c.Flags().StringVarP(&opts.source, "source", "s", fetcher.SourceDaily, "snapshot source (daily, timeseries)")
	c.Flags().StringVarP(&opts.format, "format", "f", formatter.StyleTable, "output format (table, markdown, csv, choropleth)")
	c.Flags().StringVar(&opts.csv, "export", "", "CSV export path (overrides output.csv_path)")
	c.Flags().StringVar(&opts.sqlite, "sqlite", "", "SQLite export path (overrides output.sqlite_path)")

	return c
}

func (a *app) runReport(cmd *cobra.Command, opts *reportOptions) error {
	ctx := cmd.Context()

	metric, err := models.ParseMetric(opts.metric)
	if err != nil {
		return err
	}

	if opts.format != formatChoropleth && !formatter.ValidStyle(opts.format) {
		return fmt.Errorf("%w: %q", formatter.ErrUnknownStyle, opts.format)
	}

	var date time.Time

	if opts.date != "" {
		date, err = time.Parse(fetcher.DateLayout, opts.date)
		if err != nil {
			return fmt.Errorf("invalid --date %q, want MM-DD-YYYY: %w", opts.date, err)
		}
	}

	if opts.csv != "" {
		a.cfg.Output.CSVPath = opts.csv
	}

	if opts.sqlite != "" {
		a.cfg.Output.SQLitePath = opts.sqlite
	}

	snapshots, codes, err := fetcher.NewFromConfig(a.cfg, opts.source)
	if err != nil {
		return err
	}

	lookup, err := pipeline.LoadLookup(ctx, codes, a.cfg.Join.Corrections)
	if err != nil {
		return err
	}

	a.log.Debug("country codes loaded", "entries", lookup.Len())

	var exporters []pipeline.Exporter

	if a.cfg.Output.CSVPath != "" {
		exporters = append(exporters, export.NewCSVWriter(a.cfg.Output.CSVPath))
	}

	if a.cfg.Output.SQLitePath != "" {
		sink, openErr := export.OpenSQLite(a.cfg.Output.SQLitePath, a.cfg.Output.Table)
		if openErr != nil {
			return openErr
		}

		defer func() {
			if closeErr := sink.Close(); closeErr != nil {
				a.log.Warn("failed to close sqlite export", "error", closeErr)
			}
		}()

		exporters = append(exporters, sink)
	}

	p := pipeline.New(snapshots, lookup,
		pipeline.WithLogger(a.log),
		pipeline.WithExporters(exporters...),
		pipeline.WithProcessor(normalizer.NewProcessorWithNormalizer(
			normalizer.NewNormalizerWithRewrites(a.cfg.Normalize.LabelRewrites),
		)),
	)

	var report *models.Report

	if date.IsZero() {
		report, err = p.Run(ctx, metric)
	} else {
		report, err = p.RunForDate(ctx, date, metric)
	}

	if err != nil {
		return err
	}

	if opts.format == formatChoropleth {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(pipeline.Choropleth(report))
	}

	out, err := formatter.FormatReport(report, opts.format)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), out)

	return err
}
