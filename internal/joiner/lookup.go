// Package joiner attaches ISO alpha-3 codes to normalized country rows.
package joiner

import (
	"sort"

	"covidmap/internal/models"
)

// DefaultCorrections fill gaps in the reference dataset.
var DefaultCorrections = []models.CodeEntry{{Country: "Russia", ISOAlpha: "RUS"}}

// LookupTable is an immutable country name to ISO code mapping.
type LookupTable struct {
	codes   map[string]string
	entries []models.CodeEntry
}

// NewLookupTable deduplicates reference by country name, keeping the first occurrence, then
// applies corrections. A correction for a country already present replaces its code.
func NewLookupTable(reference, corrections []models.CodeEntry) *LookupTable {
	t := &LookupTable{codes: make(map[string]string, len(reference)+len(corrections))}

	for _, e := range reference {
		if _, ok := t.codes[e.Country]; ok {
			continue
		}

		t.codes[e.Country] = e.ISOAlpha
		t.entries = append(t.entries, e)
	}

	for _, c := range corrections {
		if _, ok := t.codes[c.Country]; ok {
			for i := range t.entries {
				if t.entries[i].Country == c.Country {
					t.entries[i].ISOAlpha = c.ISOAlpha
				}
			}
		} else {
			t.entries = append(t.entries, c)
		}

		t.codes[c.Country] = c.ISOAlpha
	}

	return t
}

// Lookup returns the ISO code for country.
func (t *LookupTable) Lookup(country string) (string, bool) {
	code, ok := t.codes[country]

	return code, ok
}

// Len returns the number of distinct countries.
func (t *LookupTable) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the table in insertion order.
func (t *LookupTable) Entries() []models.CodeEntry {
	out := make([]models.CodeEntry, len(t.entries))
	copy(out, t.entries)

	return out
}

// SortedEntries returns a copy of the table ordered by country name.
func (t *LookupTable) SortedEntries() []models.CodeEntry {
	out := t.Entries()
	sort.Slice(out, func(i, j int) bool { return out[i].Country < out[j].Country })

	return out
}
