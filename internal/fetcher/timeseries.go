package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"covidmap/internal/config"
	"covidmap/internal/models"
	"covidmap/pkg/utils"
)

// SeriesDateLayout is the M/D/YY layout of time-series column headers.
const SeriesDateLayout = "1/2/06"

// seriesMetrics are the cumulative series published upstream. Active is derived.
var seriesMetrics = []models.Metric{models.MetricConfirmed, models.MetricDeaths, models.MetricRecovered}

// TimeSeriesFetcher builds a snapshot from the global cumulative time-series CSVs,
// one per metric, reading the column of the requested date.
type TimeSeriesFetcher struct {
	scraper     *Scraper
	urlTemplate string
}

// NewTimeSeriesFetcher creates a fetcher for a template containing config.MetricToken.
func NewTimeSeriesFetcher(scraper *Scraper, urlTemplate string) *TimeSeriesFetcher {
	return &TimeSeriesFetcher{scraper: scraper, urlTemplate: urlTemplate}
}

// SeriesURL returns the URL of metric's series.
func (f *TimeSeriesFetcher) SeriesURL(m models.Metric) string {
	return strings.ReplaceAll(f.urlTemplate, config.MetricToken, strings.ToLower(string(m)))
}

type seriesRow struct {
	country  string
	province string
	value    int64
}

// Fetch downloads the three series concurrently and merges them by country and province.
func (f *TimeSeriesFetcher) Fetch(ctx context.Context, date time.Time) (*models.Snapshot, error) {
	results := make([][]seriesRow, len(seriesMetrics))

	g, gctx := errgroup.WithContext(ctx)

	for i, m := range seriesMetrics {
		g.Go(func() error {
			url := f.SeriesURL(m)

			body, err := f.scraper.Fetch(gctx, url)
			if err != nil {
				return err
			}

			rows, err := decodeSeries(bytes.NewReader(body), date)
			if err != nil {
				return unavailable(url, err)
			}

			results[i] = rows

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{
		Date:    date,
		Source:  f.SeriesURL(models.MetricConfirmed),
		Columns: []models.Metric{models.MetricConfirmed, models.MetricRecovered, models.MetricDeaths, models.MetricActive},
	}

	positions := make(map[string]int)

	for i, m := range seriesMetrics {
		for _, row := range results[i] {
			key := row.country + "\x00" + row.province

			pos, seen := positions[key]
			if !seen {
				pos = len(snapshot.Records)
				positions[key] = pos
				snapshot.Records = append(snapshot.Records, models.RawRecord{
					CountryRegion: row.country,
					ProvinceState: row.province,
				})
			}

			counts := &snapshot.Records[pos].Counts
			counts.Set(m, counts.Get(m)+row.value)
		}
	}

	for i := range snapshot.Records {
		c := &snapshot.Records[i].Counts
		c.Active = c.Confirmed - c.Deaths - c.Recovered
	}

	return snapshot, nil
}

// decodeSeries reads the value of every row in the column for date.
func decodeSeries(r io.Reader, date time.Time) ([]seriesRow, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptySnapshot
		}

		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := headerIndex(header)

	countryCol, ok := lookupColumn(index, countryHeaders...)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, countryHeaders[1])
	}

	provinceCol, hasProvince := lookupColumn(index, provinceHeaders...)

	dateHeader := date.Format(SeriesDateLayout)

	valueCol, ok := index[dateHeader]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, dateHeader)
	}

	strs := utils.NewStringHelper()

	var rows []seriesRow

	for line := 2; ; line++ {
		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("failed to read row: %w", readErr)
		}

		country := strs.TrimLabel(cell(row, countryCol))
		if country == "" {
			continue
		}

		v, parseErr := parseCount(cell(row, valueCol))
		if parseErr != nil {
			return nil, fmt.Errorf("line %d column %s: %w", line, dateHeader, parseErr)
		}

		sr := seriesRow{country: country, value: v}
		if hasProvince {
			sr.province = strs.TrimLabel(cell(row, provinceCol))
		}

		rows = append(rows, sr)
	}

	if len(rows) == 0 {
		return nil, ErrEmptySnapshot
	}

	return rows, nil
}
