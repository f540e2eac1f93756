// Package export persists joined reports. Every write replaces the previous content.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"covidmap/internal/models"
)

// CSVHeader is the column layout of exported reports.
var CSVHeader = []string{"Country_Region", "Confirmed", "Deaths", "Recovered", "Active", "country", "iso_alpha", "hover_text"}

// CSVWriter writes reports to a fixed file path.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a writer for path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the destination file.
func (w *CSVWriter) Path() string {
	return w.path
}

// Export replaces the destination file with report. The file is written next to the
// destination first and renamed into place.
func (w *CSVWriter) Export(_ context.Context, report *models.Report) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := WriteCSV(tmp, report); err != nil {
		_ = tmp.Close()

		return err
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", w.path, err)
	}

	return nil
}

// WriteCSV encodes report rows to out.
func WriteCSV(out io.Writer, report *models.Report) error {
	cw := csv.NewWriter(out)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range report.Rows {
		record := []string{
			row.CountryRegion,
			strconv.FormatInt(row.Counts.Confirmed, 10),
			strconv.FormatInt(row.Counts.Deaths, 10),
			strconv.FormatInt(row.Counts.Recovered, 10),
			strconv.FormatInt(row.Counts.Active, 10),
			row.Country,
			row.ISOAlpha,
			row.HoverText,
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row.CountryRegion, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}
