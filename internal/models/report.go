// Package models defines the rows that flow through the daily report pipeline.
package models

import "time"

// RawRecord is one row of an upstream snapshot CSV.
type RawRecord struct {
	CountryRegion string `json:"countryRegion"`
	ProvinceState string `json:"provinceState,omitempty"`
	Counts        Counts `json:"counts"`
}

// Snapshot is the full set of rows published for one reporting date.
type Snapshot struct {
	Date    time.Time   `json:"date"`
	Source  string      `json:"source"`
	Columns []Metric    `json:"columns"`
	Records []RawRecord `json:"records"`
}

// HasColumn reports whether the snapshot published metric m.
func (s *Snapshot) HasColumn(m Metric) bool {
	for _, c := range s.Columns {
		if c == m {
			return true
		}
	}

	return false
}

// CountryAggregate is the per-country sum of a snapshot's rows.
type CountryAggregate struct {
	CountryRegion string `json:"countryRegion"`
	Counts        Counts `json:"counts"`
}

// CodeEntry maps a country name to its ISO alpha-3 code.
type CodeEntry struct {
	Country  string `json:"country" yaml:"country"`
	ISOAlpha string `json:"isoAlpha" yaml:"iso_alpha"`
}

// JoinedRow is an aggregate extended with its ISO code and hover label.
type JoinedRow struct {
	CountryAggregate
	Country   string `json:"country"`
	ISOAlpha  string `json:"isoAlpha"`
	HoverText string `json:"hoverText"`
}

// Report is the terminal artifact of one pipeline run.
type Report struct {
	GeneratedAt time.Time   `json:"generatedAt"`
	Date        time.Time   `json:"date"`
	RunID       string      `json:"runId"`
	Metric      Metric      `json:"metric"`
	Source      string      `json:"source"`
	Rows        []JoinedRow `json:"rows"`
	// Dropped lists aggregate labels that had no ISO code.
	Dropped []string `json:"dropped,omitempty"`
}

// ChoroplethSeries is the data handed to a map renderer.
type ChoroplethSeries struct {
	Locations []string  `json:"locations"`
	Z         []float64 `json:"z"`
	Text      []string  `json:"text"`
}
