package normalizer

import (
	"errors"
	"fmt"

	"covidmap/internal/models"
)

// Validation errors.
var (
	ErrNilSnapshot     = errors.New("snapshot is nil")
	ErrNoRecords       = errors.New("snapshot contains no records")
	ErrNoMetricColumns = errors.New("snapshot publishes none of the metric columns")
	ErrMissingLabel    = errors.New("record missing country label")
)

// Validator checks that a snapshot can be aggregated.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks if the snapshot meets requirements.
func (v *Validator) Validate(snapshot *models.Snapshot) error {
	if snapshot == nil {
		return ErrNilSnapshot
	}

	if len(snapshot.Records) == 0 {
		return ErrNoRecords
	}

	if len(snapshot.Columns) == 0 {
		return ErrNoMetricColumns
	}

	for i, rec := range snapshot.Records {
		if rec.CountryRegion == "" {
			return fmt.Errorf("%w at index %d", ErrMissingLabel, i)
		}
	}

	return nil
}
