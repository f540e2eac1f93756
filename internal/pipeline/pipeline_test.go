package pipeline

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidmap/internal/config"
	"covidmap/internal/export"
	"covidmap/internal/fetcher"
	"covidmap/internal/joiner"
	"covidmap/internal/models"
)

var reportDate = time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

// staticFetcher serves a fixed snapshot and records the requested dates.
type staticFetcher struct {
	snapshot *models.Snapshot
	err      error
	dates    []time.Time
}

func (f *staticFetcher) Fetch(_ context.Context, date time.Time) (*models.Snapshot, error) {
	f.dates = append(f.dates, date)
	if f.err != nil {
		return nil, f.err
	}

	return f.snapshot, nil
}

type staticCodes []models.CodeEntry

func (c staticCodes) Codes(context.Context) ([]models.CodeEntry, error) {
	return c, nil
}

type recordingExporter struct {
	reports []*models.Report
	err     error
}

func (e *recordingExporter) Export(_ context.Context, r *models.Report) error {
	e.reports = append(e.reports, r)

	return e.err
}

func snapshotOf(records ...models.RawRecord) *models.Snapshot {
	return &models.Snapshot{Columns: models.Metrics, Records: records, Source: "fixture"}
}

func TestRun_EndToEndScenario(t *testing.T) {
	f := &staticFetcher{snapshot: snapshotOf(
		models.RawRecord{CountryRegion: "US", Counts: models.Counts{Confirmed: 0}},
		models.RawRecord{CountryRegion: "US", Counts: models.Counts{Confirmed: 10}},
	)}
	lookup := joiner.NewLookupTable([]models.CodeEntry{{Country: "United States", ISOAlpha: "USA"}}, nil)

	report, err := New(f, lookup).RunForDate(context.Background(), reportDate, models.MetricConfirmed)
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.Equal(t, "United States", row.CountryRegion)
	assert.Equal(t, int64(10), row.Counts.Confirmed)
	assert.Equal(t, "USA", row.ISOAlpha)
	assert.Equal(t, "United States: 10", row.HoverText)
	assert.Empty(t, report.Dropped)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, models.MetricConfirmed, report.Metric)
}

func TestRun_LabelRewriteKeepsZeroDeathsAsOne(t *testing.T) {
	f := &staticFetcher{snapshot: snapshotOf(
		models.RawRecord{CountryRegion: "US", Counts: models.Counts{Confirmed: 3, Deaths: 0}},
	)}
	lookup := joiner.NewLookupTable([]models.CodeEntry{{Country: "United States", ISOAlpha: "USA"}}, nil)

	report, err := New(f, lookup).RunForDate(context.Background(), reportDate, models.MetricDeaths)
	require.NoError(t, err)

	require.Len(t, report.Rows, 1)
	assert.Equal(t, "United States", report.Rows[0].CountryRegion)
	assert.Equal(t, int64(1), report.Rows[0].Counts.Deaths)
	assert.Equal(t, "United States: 1", report.Rows[0].HoverText)
}

func TestRun_UnmatchedCountriesAreDroppedAndReported(t *testing.T) {
	f := &staticFetcher{snapshot: snapshotOf(
		models.RawRecord{CountryRegion: "United States", Counts: models.Counts{Confirmed: 8}},
		models.RawRecord{CountryRegion: "Russia", Counts: models.Counts{Confirmed: 6}},
		models.RawRecord{CountryRegion: "Atlantis", Counts: models.Counts{Confirmed: 4}},
	)}
	lookup := joiner.NewLookupTable([]models.CodeEntry{
		{Country: "United States", ISOAlpha: "USA"},
		{Country: "Russia", ISOAlpha: "RUS"},
	}, nil)

	report, err := New(f, lookup).RunForDate(context.Background(), reportDate, models.MetricConfirmed)
	require.NoError(t, err)

	assert.Len(t, report.Rows, 2)
	assert.Equal(t, []string{"Atlantis"}, report.Dropped)
}

func TestRun_UsesYesterday(t *testing.T) {
	f := &staticFetcher{snapshot: snapshotOf(models.RawRecord{CountryRegion: "Chad"})}
	clock := func() time.Time { return time.Date(2021, time.January, 2, 15, 4, 5, 0, time.UTC) }

	report, err := New(f, joiner.NewLookupTable(nil, nil), WithClock(clock)).Run(context.Background(), models.MetricActive)
	require.NoError(t, err)

	require.Len(t, f.dates, 1)
	assert.Equal(t, reportDate, f.dates[0])
	assert.Equal(t, reportDate, report.Date)
	assert.Equal(t, []string{"Chad"}, report.Dropped)
}

func TestRun_UnknownMetric(t *testing.T) {
	f := &staticFetcher{snapshot: snapshotOf()}

	_, err := New(f, joiner.NewLookupTable(nil, nil)).RunForDate(context.Background(), reportDate, "Hospitalized")
	require.ErrorIs(t, err, models.ErrUnknownMetric)
	assert.Empty(t, f.dates, "no fetch for an invalid selector")
}

func TestRun_MetricNotPublished(t *testing.T) {
	f := &staticFetcher{snapshot: &models.Snapshot{
		Columns: []models.Metric{models.MetricConfirmed, models.MetricDeaths},
		Records: []models.RawRecord{{CountryRegion: "Japan"}},
	}}

	_, err := New(f, joiner.NewLookupTable(nil, nil)).RunForDate(context.Background(), reportDate, models.MetricActive)
	require.ErrorIs(t, err, ErrMetricUnavailable)
	require.ErrorIs(t, err, fetcher.ErrDataUnavailable)
}

func TestRun_FetchErrorsPropagate(t *testing.T) {
	cause := &fetcher.FetchError{Kind: fetcher.ErrTransientFetch, URL: "http://upstream"}
	f := &staticFetcher{err: cause}
	exp := &recordingExporter{}

	_, err := New(f, joiner.NewLookupTable(nil, nil), WithExporters(exp)).RunForDate(context.Background(), reportDate, models.MetricConfirmed)
	require.ErrorIs(t, err, fetcher.ErrTransientFetch)
	assert.True(t, fetcher.IsRetryable(err))
	assert.Empty(t, exp.reports)
}

func TestRun_ExportFailureFailsRun(t *testing.T) {
	f := &staticFetcher{snapshot: snapshotOf(models.RawRecord{CountryRegion: "Chad"})}
	boom := errors.New("disk full")
	first := &recordingExporter{}
	failing := &recordingExporter{err: boom}

	report, err := New(f, joiner.NewLookupTable(nil, nil), WithExporters(first, failing)).
		RunForDate(context.Background(), reportDate, models.MetricConfirmed)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, report)
	assert.Len(t, first.reports, 1)
}

func TestLoadLookup(t *testing.T) {
	codes := staticCodes{{Country: "Peru", ISOAlpha: "PER"}, {Country: "Peru", ISOAlpha: "PER"}}

	table, err := LoadLookup(context.Background(), codes, joiner.DefaultCorrections)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	code, ok := table.Lookup("Russia")
	require.True(t, ok)
	assert.Equal(t, "RUS", code)
}

func TestChoropleth(t *testing.T) {
	report := &models.Report{
		Metric: models.MetricDeaths,
		Rows: []models.JoinedRow{
			{CountryAggregate: models.CountryAggregate{Counts: models.Counts{Deaths: 1}}, ISOAlpha: "TCD", HoverText: "Chad: 1"},
			{CountryAggregate: models.CountryAggregate{Counts: models.Counts{Deaths: 100}}, ISOAlpha: "PER", HoverText: "Peru: 100"},
		},
	}

	series := Choropleth(report)

	assert.Equal(t, []string{"TCD", "PER"}, series.Locations)
	assert.Equal(t, []string{"Chad: 1", "Peru: 100"}, series.Text)
	require.Len(t, series.Z, 2)
	assert.Zero(t, series.Z[0])
	assert.InDelta(t, math.Log(100), series.Z[1], 1e-12)
}

func TestChoropleth_NegativeActive(t *testing.T) {
	report := &models.Report{
		Metric: models.MetricActive,
		Rows: []models.JoinedRow{
			{CountryAggregate: models.CountryAggregate{Counts: models.Counts{Active: -12}}, ISOAlpha: "GBR"},
		},
	}

	series := Choropleth(report)

	require.Len(t, series.Z, 1)
	assert.Zero(t, series.Z[0])
	assert.False(t, math.IsNaN(series.Z[0]))
}

func TestHoverText(t *testing.T) {
	assert.Equal(t, "Côte d'Ivoire: 23750", HoverText("Côte d'Ivoire", 23750))
}

func TestPipeline_WithHTTPFixtures(t *testing.T) {
	daily, err := os.ReadFile(filepath.Join("..", "fetcher", "testdata", "01-01-2021.csv"))
	require.NoError(t, err)

	codes, err := os.ReadFile(filepath.Join("..", "fetcher", "testdata", "codes.csv"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/daily/01-01-2021.csv", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write(daily) })
	mux.HandleFunc("/codes.csv", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write(codes) })

	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := config.Default()
	cfg.Source.DailyReportURL = server.URL + "/daily/{date}.csv"
	cfg.Source.CodesURL = server.URL + "/codes.csv"

	snapshots, codeSource, err := fetcher.NewFromConfig(cfg, fetcher.SourceDaily)
	require.NoError(t, err)

	lookup, err := LoadLookup(context.Background(), codeSource, cfg.Join.Corrections)
	require.NoError(t, err)

	csvPath := filepath.Join(t.TempDir(), "df_processed.csv")

	report, err := New(snapshots, lookup, WithExporters(export.NewCSVWriter(csvPath))).
		RunForDate(context.Background(), reportDate, models.MetricConfirmed)
	require.NoError(t, err)

	// Afghanistan, Russia (via correction) and United States join; Holy See has no code.
	require.Len(t, report.Rows, 3)
	assert.Equal(t, []string{"Holy See"}, report.Dropped)

	byCountry := make(map[string]models.JoinedRow)
	for _, row := range report.Rows {
		byCountry[row.CountryRegion] = row
	}

	us := byCountry["United States"]
	assert.Equal(t, "USA", us.ISOAlpha)
	assert.Equal(t, models.Counts{Confirmed: 6763, Deaths: 192, Recovered: 1, Active: 6571}, us.Counts)
	assert.Equal(t, "United States: 6763", us.HoverText)

	russia := byCountry["Russia"]
	assert.Equal(t, "RUS", russia.ISOAlpha)
	assert.Equal(t, int64(28809), russia.Counts.Confirmed)

	_, err = os.Stat(csvPath)
	require.NoError(t, err)
}
