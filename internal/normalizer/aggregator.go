package normalizer

import (
	"sort"

	"covidmap/internal/models"
)

// Aggregate sums records per exact country label. Output is sorted by label and has exactly
// one row per distinct label.
func Aggregate(records []models.RawRecord) []models.CountryAggregate {
	positions := make(map[string]int, len(records))

	var rows []models.CountryAggregate

	for _, rec := range records {
		pos, ok := positions[rec.CountryRegion]
		if !ok {
			pos = len(rows)
			positions[rec.CountryRegion] = pos
			rows = append(rows, models.CountryAggregate{CountryRegion: rec.CountryRegion})
		}

		rows[pos].Counts.Add(rec.Counts)
	}

	sortByLabel(rows)

	return rows
}

func sortByLabel(rows []models.CountryAggregate) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CountryRegion < rows[j].CountryRegion
	})
}
