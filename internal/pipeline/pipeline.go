// Package pipeline runs fetch, aggregation, normalization and code join for one reporting date.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"covidmap/internal/fetcher"
	"covidmap/internal/joiner"
	"covidmap/internal/logger"
	"covidmap/internal/models"
	"covidmap/internal/normalizer"
)

// ErrMetricUnavailable is returned when the snapshot does not publish the selected metric.
var ErrMetricUnavailable = fmt.Errorf("%w: metric column not published", fetcher.ErrDataUnavailable)

// Exporter persists a finished report.
type Exporter interface {
	Export(ctx context.Context, report *models.Report) error
}

// Pipeline produces joined reports. It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	snapshots fetcher.SnapshotFetcher
	lookup    *joiner.LookupTable
	processor *normalizer.Processor
	log       *logger.Logger
	now       func() time.Time
	exporters []Exporter
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProcessor replaces the default processor.
func WithProcessor(p *normalizer.Processor) Option {
	return func(pl *Pipeline) { pl.processor = p }
}

// WithExporters adds exporters run after every successful join.
func WithExporters(exporters ...Exporter) Option {
	return func(pl *Pipeline) { pl.exporters = append(pl.exporters, exporters...) }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(pl *Pipeline) { pl.log = l }
}

// WithClock overrides the clock used to derive the reporting date.
func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) { pl.now = now }
}

// New creates a pipeline reading snapshots from snapshots and codes from lookup.
func New(snapshots fetcher.SnapshotFetcher, lookup *joiner.LookupTable, opts ...Option) *Pipeline {
	p := &Pipeline{
		snapshots: snapshots,
		lookup:    lookup,
		processor: normalizer.NewProcessor(),
		log:       logger.Nop(),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// LoadLookup fetches the reference table once and applies corrections.
func LoadLookup(ctx context.Context, codes fetcher.CodeSource, corrections []models.CodeEntry) (*joiner.LookupTable, error) {
	entries, err := codes.Codes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load country codes: %w", err)
	}

	return joiner.NewLookupTable(entries, corrections), nil
}

// Run builds the report of metric for the current reporting date (yesterday).
func (p *Pipeline) Run(ctx context.Context, metric models.Metric) (*models.Report, error) {
	return p.RunForDate(ctx, fetcher.ReportingDate(p.now()), metric)
}

// RunForDate builds the report of metric for date. Either the whole report is produced and
// exported or an error is returned.
func (p *Pipeline) RunForDate(ctx context.Context, date time.Time, metric models.Metric) (*models.Report, error) {
	metric, err := models.ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := p.log.With("run_id", runID, "date", date.Format(fetcher.DateLayout), "metric", string(metric))

	start := time.Now()

	snapshot, err := p.snapshots.Fetch(ctx, date)
	if err != nil {
		log.Error("snapshot fetch failed", "error", err, "retryable", fetcher.IsRetryable(err))

		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}

	log.Debug("snapshot fetched", "source", snapshot.Source, "records", len(snapshot.Records))

	if !snapshot.HasColumn(metric) {
		return nil, fmt.Errorf("%w: %s on %s", ErrMetricUnavailable, metric, date.Format(fetcher.DateLayout))
	}

	rows, err := p.processor.Process(snapshot)
	if err != nil {
		return nil, fmt.Errorf("process snapshot: %w", err)
	}

	joined := joiner.Join(rows, p.lookup)

	for _, label := range joined.Dropped {
		log.Warn("no ISO code for country, row dropped", "country", label)
	}

	for i := range joined.Rows {
		row := &joined.Rows[i]
		row.HoverText = HoverText(row.CountryRegion, row.Counts.Get(metric))
	}

	report := &models.Report{
		GeneratedAt: p.now(),
		Date:        date,
		RunID:       runID,
		Metric:      metric,
		Source:      snapshot.Source,
		Rows:        joined.Rows,
		Dropped:     joined.Dropped,
	}

	for _, exp := range p.exporters {
		if err := exp.Export(ctx, report); err != nil {
			return nil, fmt.Errorf("export report: %w", err)
		}
	}

	log.Info("report ready",
		"countries", len(rows),
		"joined", len(report.Rows),
		"dropped", len(report.Dropped),
		"duration", time.Since(start),
	)

	return report, nil
}
