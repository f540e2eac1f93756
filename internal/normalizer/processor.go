// Package normalizer turns raw snapshot rows into one normalized row per country.
package normalizer

import (
	"fmt"

	"covidmap/internal/models"
)

// Processor validates, aggregates and normalizes a snapshot.
type Processor struct {
	validator  *Validator
	normalizer *Normalizer
}

// NewProcessor creates a new processor instance with the default label rewrites.
func NewProcessor() *Processor {
	return NewProcessorWithNormalizer(NewNormalizer())
}

// NewProcessorWithNormalizer creates a processor around a configured normalizer.
func NewProcessorWithNormalizer(n *Normalizer) *Processor {
	return &Processor{
		validator:  NewValidator(),
		normalizer: n,
	}
}

// Process transforms a snapshot into normalized country aggregates.
func (p *Processor) Process(snapshot *models.Snapshot) ([]models.CountryAggregate, error) {
	// 1. Validate the input data
	if err := p.validator.Validate(snapshot); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// 2. Group by country
	rows := Aggregate(snapshot.Records)

	// 3. Rewrite labels and remove zeros
	return p.normalizer.Normalize(rows), nil
}
