package joiner

import (
	"covidmap/internal/models"
)

// Result holds the joined rows and the labels that had no code.
type Result struct {
	Rows    []models.JoinedRow
	Dropped []string
}

// Join inner-joins rows against table on the country label. Rows without a code are left
// out of Rows and listed in Dropped; the row order of the input is kept.
func Join(rows []models.CountryAggregate, table *LookupTable) Result {
	var res Result

	for _, row := range rows {
		code, ok := table.Lookup(row.CountryRegion)
		if !ok {
			res.Dropped = append(res.Dropped, row.CountryRegion)

			continue
		}

		res.Rows = append(res.Rows, models.JoinedRow{
			CountryAggregate: row,
			Country:          row.CountryRegion,
			ISOAlpha:         code,
		})
	}

	return res
}
