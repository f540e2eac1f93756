// Package fetcher retrieves upstream CSV snapshots and the country code reference table.
package fetcher

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"covidmap/internal/config"
	"covidmap/internal/models"
	"covidmap/pkg/utils"
)

// DateLayout is the MM-DD-YYYY layout used in daily report file names.
const DateLayout = "01-02-2006"

// Header aliases seen across the lifetime of the upstream repository.
var (
	countryHeaders  = []string{"Country_Region", "Country/Region"}
	provinceHeaders = []string{"Province_State", "Province/State"}
)

// SnapshotFetcher returns every raw record published for a reporting date.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, date time.Time) (*models.Snapshot, error)
}

// ReportingDate returns the calendar day before now, the most recent date upstream has published.
func ReportingDate(now time.Time) time.Time {
	y, m, d := now.AddDate(0, 0, -1).Date()

	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// DailyReportURL substitutes the MM-DD-YYYY form of date into template.
func DailyReportURL(template string, date time.Time) string {
	return strings.ReplaceAll(template, config.DateToken, date.Format(DateLayout))
}

// DailyReportFetcher reads daily report CSVs from a URL template or a fixed local file.
type DailyReportFetcher struct {
	scraper     *Scraper
	urlTemplate string
	file        string
}

// NewDailyReportFetcher creates a fetcher for remote daily reports.
func NewDailyReportFetcher(scraper *Scraper, urlTemplate string) *DailyReportFetcher {
	return &DailyReportFetcher{scraper: scraper, urlTemplate: urlTemplate}
}

// NewFileReportFetcher creates a fetcher that always reads the same local CSV.
func NewFileReportFetcher(scraper *Scraper, path string) *DailyReportFetcher {
	return &DailyReportFetcher{scraper: scraper, file: path}
}

// Fetch downloads and decodes the snapshot for date.
func (f *DailyReportFetcher) Fetch(ctx context.Context, date time.Time) (*models.Snapshot, error) {
	var (
		source string
		body   []byte
		err    error
	)

	if f.file != "" {
		source = f.file
		body, err = f.scraper.ReadLocalFile(f.file)
	} else {
		source = DailyReportURL(f.urlTemplate, date)
		body, err = f.scraper.Fetch(ctx, source)
	}

	if err != nil {
		return nil, err
	}

	snapshot, err := DecodeDailyReport(bytes.NewReader(body))
	if err != nil {
		return nil, unavailable(source, err)
	}

	snapshot.Date = date
	snapshot.Source = source

	return snapshot, nil
}

// DecodeDailyReport parses a daily report CSV. Empty metric cells count as zero; metric
// columns absent from the header are left out of Snapshot.Columns.
func DecodeDailyReport(r io.Reader) (*models.Snapshot, error) {
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
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, countryHeaders[0])
	}

	provinceCol, hasProvince := lookupColumn(index, provinceHeaders...)

	metricCols := make(map[models.Metric]int)

	snapshot := &models.Snapshot{}

	for _, m := range models.Metrics {
		if col, found := index[string(m)]; found {
			metricCols[m] = col
			snapshot.Columns = append(snapshot.Columns, m)
		}
	}

	strs := utils.NewStringHelper()

	for line := 2; ; line++ {
		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("failed to read row: %w", readErr)
		}

		label := strs.TrimLabel(cell(row, countryCol))
		if label == "" {
			continue
		}

		record := models.RawRecord{CountryRegion: label}
		if hasProvince {
			record.ProvinceState = strs.TrimLabel(cell(row, provinceCol))
		}

		for m, col := range metricCols {
			v, parseErr := parseCount(cell(row, col))
			if parseErr != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, m, parseErr)
			}

			record.Counts.Set(m, v)
		}

		snapshot.Records = append(snapshot.Records, record)
	}

	if len(snapshot.Records) == 0 {
		return nil, ErrEmptySnapshot
	}

	return snapshot, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	return reader
}

func headerIndex(header []string) map[string]int {
	strs := utils.NewStringHelper()
	index := make(map[string]int, len(header))

	for i, name := range header {
		name = strings.TrimSpace(strs.StripBOM(name))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	return index
}

func lookupColumn(index map[string]int, names ...string) (int, bool) {
	for _, name := range names {
		if col, ok := index[name]; ok {
			return col, true
		}
	}

	return 0, false
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}

	return row[col]
}

// maxCellEcho bounds how much of a bad cell is quoted back in errors.
const maxCellEcho = 32

// parseCount reads an integer count. Upstream occasionally publishes counts as floats ("12.0").
func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, utils.NewStringHelper().TruncateString(s, maxCellEcho))
	}

	return int64(math.Round(f)), nil
}
