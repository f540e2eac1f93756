package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"covidmap/internal/models"
	"covidmap/pkg/utils"
)

// CodeSource yields the raw country/ISO reference rows, duplicates included.
type CodeSource interface {
	Codes(ctx context.Context) ([]models.CodeEntry, error)
}

// CodeFetcher reads the reference CSV from a URL or a local file.
type CodeFetcher struct {
	scraper *Scraper
	url     string
	file    string
}

// NewCodeFetcher creates a code source for a remote reference CSV.
func NewCodeFetcher(scraper *Scraper, url string) *CodeFetcher {
	return &CodeFetcher{scraper: scraper, url: url}
}

// NewFileCodeFetcher creates a code source for a local reference CSV.
func NewFileCodeFetcher(scraper *Scraper, path string) *CodeFetcher {
	return &CodeFetcher{scraper: scraper, file: path}
}

// Codes downloads and decodes the reference table.
func (c *CodeFetcher) Codes(ctx context.Context) ([]models.CodeEntry, error) {
	var (
		source = c.url
		body   []byte
		err    error
	)

	if c.file != "" {
		source = c.file
		body, err = c.scraper.ReadLocalFile(c.file)
	} else {
		body, err = c.scraper.Fetch(ctx, c.url)
	}

	if err != nil {
		return nil, err
	}

	entries, err := DecodeCodes(bytes.NewReader(body))
	if err != nil {
		return nil, unavailable(source, err)
	}

	return entries, nil
}

// DecodeCodes reads the country and iso_alpha columns of a reference CSV.
// Rows missing either value are skipped.
func DecodeCodes(r io.Reader) ([]models.CodeEntry, error) {
	reader := newCSVReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptySnapshot
		}

		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := headerIndex(header)

	countryCol, ok := index["country"]
	if !ok {
		return nil, fmt.Errorf("%w: country", ErrMissingColumn)
	}

	codeCol, ok := index["iso_alpha"]
	if !ok {
		return nil, fmt.Errorf("%w: iso_alpha", ErrMissingColumn)
	}

	strs := utils.NewStringHelper()

	var entries []models.CodeEntry

	for {
		row, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("failed to read row: %w", readErr)
		}

		entry := models.CodeEntry{
			Country:  strs.TrimLabel(cell(row, countryCol)),
			ISOAlpha: strs.TrimLabel(cell(row, codeCol)),
		}

		if entry.Country == "" || entry.ISOAlpha == "" {
			continue
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, ErrEmptySnapshot
	}

	return entries, nil
}
