package normalizer

import (
	"maps"

	"covidmap/internal/models"
)

// DefaultLabelRewrites unify labels that upstream spells differently from the code table.
var DefaultLabelRewrites = map[string]string{"US": "United States"}

// Normalizer rewrites country labels and removes zeros ahead of a logarithmic scale.
type Normalizer struct {
	rewrites map[string]string
}

// NewNormalizer creates a normalizer with DefaultLabelRewrites.
func NewNormalizer() *Normalizer {
	return NewNormalizerWithRewrites(DefaultLabelRewrites)
}

// NewNormalizerWithRewrites creates a normalizer with a custom label rewrite table.
func NewNormalizerWithRewrites(rewrites map[string]string) *Normalizer {
	return &Normalizer{rewrites: maps.Clone(rewrites)}
}

// Normalize applies, in order: label rewriting, merging of rows that now share a label, and
// replacement of every zero metric cell with 1. The input is not modified. When no rewrite
// target is itself a rewrite source, applying Normalize to its own output is a no-op.
func (n *Normalizer) Normalize(rows []models.CountryAggregate) []models.CountryAggregate {
	out := n.RewriteLabels(rows)

	for i := range out {
		out[i].Counts = ReplaceZeros(out[i].Counts)
	}

	return out
}

// RewriteLabels renames labels found in the rewrite table and sums rows that collide as a result.
func (n *Normalizer) RewriteLabels(rows []models.CountryAggregate) []models.CountryAggregate {
	positions := make(map[string]int, len(rows))
	out := make([]models.CountryAggregate, 0, len(rows))

	for _, row := range rows {
		if to, ok := n.rewrites[row.CountryRegion]; ok {
			row.CountryRegion = to
		}

		if pos, seen := positions[row.CountryRegion]; seen {
			out[pos].Counts.Add(row.Counts)

			continue
		}

		positions[row.CountryRegion] = len(out)
		out = append(out, row)
	}

	sortByLabel(out)

	return out
}

// ReplaceZeros maps every zero metric to 1 and leaves all other values untouched.
func ReplaceZeros(c models.Counts) models.Counts {
	for _, m := range models.Metrics {
		if c.Get(m) == 0 {
			c.Set(m, 1)
		}
	}

	return c
}
