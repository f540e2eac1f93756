package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"covidmap/internal/export"
	"covidmap/internal/fetcher"
	"covidmap/internal/models"
	"covidmap/pkg/metadata"
)

// Output styles accepted by FormatReport.
const (
	StyleTable    = "table"
	StyleMarkdown = "markdown"
	StyleCSV      = "csv"
)

// ErrUnknownStyle is returned for an unsupported output style.
var ErrUnknownStyle = errors.New("unknown output style")

// ValidStyle reports whether FormatReport accepts style.
func ValidStyle(style string) bool {
	switch strings.ToLower(style) {
	case StyleTable, StyleMarkdown, StyleCSV, "":
		return true
	}

	return false
}

// ReportHeaders are the columns shown for each joined row.
var ReportHeaders = []string{"Country", "ISO", "Confirmed", "Deaths", "Recovered", "Active"}

// ReportRows flattens a report into display cells, one row per joined country.
func ReportRows(report *models.Report) [][]string {
	rows := make([][]string, 0, len(report.Rows))

	for _, r := range report.Rows {
		rows = append(rows, []string{
			r.CountryRegion,
			r.ISOAlpha,
			strconv.FormatInt(r.Counts.Confirmed, 10),
			strconv.FormatInt(r.Counts.Deaths, 10),
			strconv.FormatInt(r.Counts.Recovered, 10),
			strconv.FormatInt(r.Counts.Active, 10),
		})
	}

	return rows
}

// RenderTable renders a space-aligned table. Columns after the first two are right-aligned.
func RenderTable(headers []string, rows [][]string) string {
	all := make([][]string, 0, len(rows)+1)
	all = append(all, headers)
	all = append(all, rows...)

	widths := columnWidths(all, 0)

	var sb strings.Builder

	for i, row := range all {
		cells := make([]string, len(widths))
		for j, w := range widths {
			cells[j] = pad(cellAt(row, j), w, j >= 2)
		}

		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		sb.WriteString("\n")

		if i == 0 {
			rules := make([]string, len(widths))
			for j, w := range widths {
				rules[j] = strings.Repeat("-", w)
			}

			sb.WriteString(strings.Join(rules, "  "))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// FormatReport renders report in the given style.
func FormatReport(report *models.Report, style string) (string, error) {
	switch strings.ToLower(style) {
	case StyleTable, "":
		return summary(report) + "\n" + RenderTable(ReportHeaders, ReportRows(report)), nil
	case StyleMarkdown:
		md := "## " + summary(report) + "\n\n" + RenderMarkdownTable(ReportHeaders, ReportRows(report))

		return metadata.Sign(md, Provenance(report)), nil
	case StyleCSV:
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, report); err != nil {
			return "", err
		}

		return buf.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
}

// Provenance describes the run that produced report.
func Provenance(report *models.Report) metadata.Metadata {
	return metadata.Metadata{
		RunID:       report.RunID,
		Date:        report.Date.Format(fetcher.DateLayout),
		Metric:      string(report.Metric),
		Source:      report.Source,
		GeneratedAt: report.GeneratedAt,
	}
}

func summary(report *models.Report) string {
	s := fmt.Sprintf("%s by country, %s (%d countries", report.Metric, report.Date.Format(fetcher.DateLayout), len(report.Rows))
	if n := len(report.Dropped); n > 0 {
		s += fmt.Sprintf(", %d without ISO code", n)
	}

	return s + ")"
}
