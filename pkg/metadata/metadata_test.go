package metadata

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func sample() Metadata {
	return Metadata{
		RunID:       "5f0c2b1e-0000-4000-8000-000000000000",
		Date:        "01-01-2021",
		Metric:      "Confirmed",
		Source:      "http://example.com/01-01-2021.csv",
		GeneratedAt: time.Date(2021, time.January, 2, 8, 0, 0, 0, time.UTC),
	}
}

func TestSignAndVerify(t *testing.T) {
	content := "## Confirmed\n\n| Country | ISO |\n"

	signed := Sign(content, sample())

	if !strings.Contains(signed, TagStart) || !strings.Contains(signed, TagEnd) {
		t.Fatalf("block missing:\n%s", signed)
	}

	meta, err := Verify(signed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	want := sample()
	want.Hash = CalculateHash(content)

	if !meta.GeneratedAt.Equal(want.GeneratedAt) {
		t.Errorf("GeneratedAt = %v, want %v", meta.GeneratedAt, want.GeneratedAt)
	}

	got := *meta
	got.GeneratedAt, want.GeneratedAt = time.Time{}, time.Time{}

	if got != want {
		t.Errorf("Verify() meta = %+v, want %+v", got, want)
	}
}

func TestSign_ReplacesExistingBlock(t *testing.T) {
	once := Sign("body", sample())
	twice := Sign(once, sample())

	if strings.Count(twice, TagStart) != 1 {
		t.Errorf("expected a single block, got:\n%s", twice)
	}

	if once != twice {
		t.Errorf("re-signing an unchanged body should be stable")
	}
}

func TestVerify_Errors(t *testing.T) {
	if _, err := Verify("no block here"); !errors.Is(err, ErrNoMetadataBlock) {
		t.Errorf("expected ErrNoMetadataBlock, got %v", err)
	}

	noHash := "body\n\n" + TagStart + "\nRUN_ID: x\n" + TagEnd + "\n"
	if _, err := Verify(noHash); !errors.Is(err, ErrNoHashFound) {
		t.Errorf("expected ErrNoHashFound, got %v", err)
	}

	tampered := strings.Replace(Sign("| Chad | TCD |", sample()), "TCD", "XXX", 1)
	if _, err := Verify(tampered); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("expected ErrHashMismatch, got %v", err)
	}
}

func TestCalculateHash_IgnoresBlock(t *testing.T) {
	body := "line one\nline two"

	if CalculateHash(body) != CalculateHash(Sign(body, sample())) {
		t.Error("hash should not depend on the provenance block")
	}
}
