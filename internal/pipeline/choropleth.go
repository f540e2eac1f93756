package pipeline

import (
	"math"
	"strconv"

	"covidmap/internal/models"
)

// HoverText renders the "<country>: <value>" label shown on the map.
func HoverText(country string, value int64) string {
	return country + ": " + strconv.FormatInt(value, 10)
}

// Choropleth converts a report into map series with natural-log scaled values.
// Negative values, which upstream occasionally publishes for Active, are mapped to 0.
func Choropleth(report *models.Report) models.ChoroplethSeries {
	series := models.ChoroplethSeries{
		Locations: make([]string, 0, len(report.Rows)),
		Z:         make([]float64, 0, len(report.Rows)),
		Text:      make([]string, 0, len(report.Rows)),
	}

	for _, row := range report.Rows {
		series.Locations = append(series.Locations, row.ISOAlpha)
		series.Z = append(series.Z, logScale(row.Counts.Get(report.Metric)))
		series.Text = append(series.Text, row.HoverText)
	}

	return series
}

func logScale(v int64) float64 {
	if v <= 0 {
		return 0
	}

	return math.Log(float64(v))
}
