package fetcher

import (
	"errors"
	"fmt"

	"covidmap/internal/config"
)

// Snapshot source kinds.
const (
	SourceDaily      = "daily"
	SourceTimeSeries = "timeseries"
)

// ErrUnknownSource is returned for an unsupported snapshot source kind.
var ErrUnknownSource = errors.New("unknown snapshot source")

// ErrTimeSeriesDisabled is returned when the time-series source is requested without a URL.
var ErrTimeSeriesDisabled = errors.New("source.time_series_url is not configured")

// NewFromConfig wires the snapshot fetcher of the given kind and the code source described by cfg.
func NewFromConfig(cfg *config.Config, kind string) (SnapshotFetcher, CodeSource, error) {
	scraper := NewScraperWithConfig(&cfg.Retry, cfg.Source.BufferSizeKb)

	var codes CodeSource = NewCodeFetcher(scraper, cfg.Source.CodesURL)
	if cfg.Source.CodesFile != "" {
		codes = NewFileCodeFetcher(scraper, cfg.Source.CodesFile)
	}

	switch kind {
	case "", SourceDaily:
		if cfg.Source.IsLocalFile() {
			return NewFileReportFetcher(scraper, cfg.Source.File), codes, nil
		}

		return NewDailyReportFetcher(scraper, cfg.Source.DailyReportURL), codes, nil
	case SourceTimeSeries:
		if cfg.Source.TimeSeriesURL == "" {
			return nil, nil, ErrTimeSeriesDisabled
		}

		return NewTimeSeriesFetcher(scraper, cfg.Source.TimeSeriesURL), codes, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
}
