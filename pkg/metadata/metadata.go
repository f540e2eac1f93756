// Package metadata stamps rendered reports with a provenance block and verifies it later.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// TagStart opens the provenance block.
	TagStart = "<!-- COVIDMAP_START"
	// TagEnd closes the provenance block.
	TagEnd = "COVIDMAP_END -->"
)

// Verification errors.
var (
	ErrNoMetadataBlock = errors.New("no provenance block found")
	ErrNoHashFound     = errors.New("no hash found in provenance block")
	ErrHashMismatch    = errors.New("hash mismatch")
)

// Metadata describes the run that produced a document.
type Metadata struct {
	RunID       string
	Date        string
	Metric      string
	Source      string
	GeneratedAt time.Time
	Hash        string
}

var blockRegex = regexp.MustCompile(`(?s)<!--\s*COVIDMAP_START\s*\n(.*?)\n\s*COVIDMAP_END\s*-->`)

// Extract splits content into its provenance block and the body that the hash covers.
// meta is nil when no block is present.
func Extract(content string) (*Metadata, string) {
	match := blockRegex.FindStringSubmatch(content)
	body := strings.TrimRight(blockRegex.ReplaceAllString(content, ""), "\n")

	if len(match) < 2 {
		return nil, body
	}

	meta := &Metadata{}

	for line := range strings.SplitSeq(match[1], "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		val = strings.TrimSpace(val)

		switch strings.TrimSpace(key) {
		case "RUN_ID":
			meta.RunID = val
		case "DATE":
			meta.Date = val
		case "METRIC":
			meta.Metric = val
		case "SOURCE":
			meta.Source = val
		case "GENERATED_AT":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.GeneratedAt = t
			}
		case "HASH":
			meta.Hash = val
		}
	}

	return meta, body
}

// CalculateHash returns the hex SHA-256 of content with any provenance block removed.
func CalculateHash(content string) string {
	_, body := Extract(content)
	sum := sha256.Sum256([]byte(body))

	return hex.EncodeToString(sum[:])
}

// Sign replaces any existing block with one describing meta and the current body hash.
func Sign(content string, meta Metadata) string {
	_, body := Extract(content)

	var sb strings.Builder

	sb.WriteString(body)
	sb.WriteString("\n\n")
	sb.WriteString(TagStart)
	sb.WriteString("\n")

	field := func(key, val string) {
		if val != "" {
			fmt.Fprintf(&sb, "%s: %s\n", key, val)
		}
	}

	field("RUN_ID", meta.RunID)
	field("DATE", meta.Date)
	field("METRIC", meta.Metric)
	field("SOURCE", meta.Source)

	if !meta.GeneratedAt.IsZero() {
		field("GENERATED_AT", meta.GeneratedAt.UTC().Format(time.RFC3339))
	}

	field("HASH", CalculateHash(body))
	sb.WriteString(TagEnd)
	sb.WriteString("\n")

	return sb.String()
}

// Verify checks that content still matches the hash recorded in its block.
func Verify(content string) (*Metadata, error) {
	meta, body := Extract(content)
	if meta == nil {
		return nil, ErrNoMetadataBlock
	}

	if meta.Hash == "" {
		return meta, ErrNoHashFound
	}

	if calculated := CalculateHash(body); calculated != meta.Hash {
		return meta, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return meta, nil
}
