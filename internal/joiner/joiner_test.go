package joiner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidmap/internal/models"
)

func TestNewLookupTable_DedupeFirstWins(t *testing.T) {
	table := NewLookupTable([]models.CodeEntry{
		{Country: "Afghanistan", ISOAlpha: "AFG"},
		{Country: "Afghanistan", ISOAlpha: "AFG"},
		{Country: "Congo, Dem. Rep.", ISOAlpha: "COD"},
		{Country: "Congo, Dem. Rep.", ISOAlpha: "ZAR"},
	}, nil)

	assert.Equal(t, 2, table.Len())

	code, ok := table.Lookup("Congo, Dem. Rep.")
	require.True(t, ok)
	assert.Equal(t, "COD", code)
}

func TestNewLookupTable_Corrections(t *testing.T) {
	table := NewLookupTable(
		[]models.CodeEntry{{Country: "United States", ISOAlpha: "USA"}, {Country: "Chad", ISOAlpha: "XXX"}},
		[]models.CodeEntry{{Country: "Russia", ISOAlpha: "RUS"}, {Country: "Chad", ISOAlpha: "TCD"}},
	)

	assert.Equal(t, []models.CodeEntry{
		{Country: "United States", ISOAlpha: "USA"},
		{Country: "Chad", ISOAlpha: "TCD"},
		{Country: "Russia", ISOAlpha: "RUS"},
	}, table.Entries())

	names := make(map[string]bool)
	for _, e := range table.Entries() {
		assert.False(t, names[e.Country], "duplicate country %s", e.Country)
		names[e.Country] = true
	}

	assert.Equal(t, "Chad", table.SortedEntries()[0].Country)
}

func TestLookupTable_EntriesIsACopy(t *testing.T) {
	table := NewLookupTable([]models.CodeEntry{{Country: "Peru", ISOAlpha: "PER"}}, nil)

	entries := table.Entries()
	entries[0].ISOAlpha = "BAD"

	code, _ := table.Lookup("Peru")
	assert.Equal(t, "PER", code)
	assert.Equal(t, "PER", table.Entries()[0].ISOAlpha)
}

func TestJoin_DropsUnknownCountries(t *testing.T) {
	table := NewLookupTable(
		[]models.CodeEntry{{Country: "United States", ISOAlpha: "USA"}},
		DefaultCorrections,
	)

	rows := []models.CountryAggregate{
		{CountryRegion: "Atlantis", Counts: models.Counts{Confirmed: 4}},
		{CountryRegion: "Russia", Counts: models.Counts{Confirmed: 2}},
		{CountryRegion: "United States", Counts: models.Counts{Confirmed: 10}},
	}

	res := Join(rows, table)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"Atlantis"}, res.Dropped)

	assert.Equal(t, "Russia", res.Rows[0].Country)
	assert.Equal(t, "RUS", res.Rows[0].ISOAlpha)
	assert.Equal(t, "United States", res.Rows[1].CountryRegion)
	assert.Equal(t, "USA", res.Rows[1].ISOAlpha)
	assert.Equal(t, int64(10), res.Rows[1].Counts.Confirmed)
}

func TestJoin_ExactLabelMatch(t *testing.T) {
	table := NewLookupTable([]models.CodeEntry{{Country: "United States", ISOAlpha: "USA"}}, nil)

	res := Join([]models.CountryAggregate{{CountryRegion: "US"}, {CountryRegion: "united states"}}, table)

	assert.Empty(t, res.Rows)
	assert.Equal(t, []string{"US", "united states"}, res.Dropped)
}

func TestJoin_Empty(t *testing.T) {
	res := Join(nil, NewLookupTable(nil, DefaultCorrections))

	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Dropped)
}
