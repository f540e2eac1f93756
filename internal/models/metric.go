package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMetric is returned when a metric name is not one of the fixed selectors.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric selects one of the numeric columns published in a daily report.
type Metric string

// Supported metrics, in the order the dashboard offers them.
const (
	MetricConfirmed Metric = "Confirmed"
	MetricRecovered Metric = "Recovered"
	MetricDeaths    Metric = "Deaths"
	MetricActive    Metric = "Active"
)

// Metrics lists every selectable metric.
var Metrics = []Metric{MetricConfirmed, MetricRecovered, MetricDeaths, MetricActive}

// ParseMetric resolves a metric name case-insensitively.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// String returns the column name of the metric.
func (m Metric) String() string {
	return string(m)
}

// Counts holds the four metric values of a row.
type Counts struct {
	Confirmed int64 `json:"confirmed"`
	Deaths    int64 `json:"deaths"`
	Recovered int64 `json:"recovered"`
	Active    int64 `json:"active"`
}

// Get returns the value of metric m. Unknown metrics read as zero.
func (c Counts) Get(m Metric) int64 {
	switch m {
	case MetricConfirmed:
		return c.Confirmed
	case MetricDeaths:
		return c.Deaths
	case MetricRecovered:
		return c.Recovered
	case MetricActive:
		return c.Active
	}

	return 0
}

// Set overwrites the value of metric m.
func (c *Counts) Set(m Metric, v int64) {
	switch m {
	case MetricConfirmed:
		c.Confirmed = v
	case MetricDeaths:
		c.Deaths = v
	case MetricRecovered:
		c.Recovered = v
	case MetricActive:
		c.Active = v
	}
}

// Add sums other into c column by column.
func (c *Counts) Add(other Counts) {
	c.Confirmed += other.Confirmed
	c.Deaths += other.Deaths
	c.Recovered += other.Recovered
	c.Active += other.Active
}
