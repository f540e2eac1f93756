package normalizer

import (
	"errors"
	"testing"

	"covidmap/internal/models"
)

func TestNewProcessor(t *testing.T) {
	p := NewProcessor()
	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor()

	snapshot := &models.Snapshot{
		Columns: models.Metrics,
		Records: []models.RawRecord{
			{CountryRegion: "US", Counts: models.Counts{Confirmed: 0}},
			{CountryRegion: "US", Counts: models.Counts{Confirmed: 10}},
		},
	}

	rows, err := p.Process(snapshot)
	if err != nil {
		t.Fatalf("Process returned unexpected error: %v", err)
	}

	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}

	if rows[0].CountryRegion != "United States" {
		t.Errorf("Label = %s, want United States", rows[0].CountryRegion)
	}

	if rows[0].Counts.Confirmed != 10 {
		t.Errorf("Confirmed = %d, want 10", rows[0].Counts.Confirmed)
	}

	if rows[0].Counts.Deaths != 1 {
		t.Errorf("Deaths = %d, want 1", rows[0].Counts.Deaths)
	}
}

func TestProcessor_Process_ValidationError(t *testing.T) {
	p := NewProcessor()

	rows, err := p.Process(&models.Snapshot{Columns: models.Metrics})
	if !errors.Is(err, ErrNoRecords) {
		t.Errorf("Process error = %v, want ErrNoRecords", err)
	}

	if rows != nil {
		t.Error("Process expected nil result for invalid input")
	}
}
