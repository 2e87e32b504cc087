package jikan

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/handiism/catalog-downloader/internal/jikan/dto"
	"github.com/handiism/catalog-downloader/internal/model"
)

// ErrMalformedPage is returned when a response decodes as JSON but lacks the
// fields the pipeline depends on.
var ErrMalformedPage = errors.New("malformed page")

// Parser turns raw API responses into model values.
//
// Example usage:
//
//	parser := NewParser()
//
//	total, err := parser.ParsePagination(metadataBody)
//	records, err := parser.ParsePage(pageBody)
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParsePage extracts the records of one list page.
//
// A page whose data list is missing (or null) is malformed, as is any entry
// that cannot be converted; the whole page is rejected so that a retry
// fetches it again rather than keeping a partial page.
func (p *Parser) ParsePage(body []byte) (model.Catalog, error) {
	var page dto.JSONPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to parse page JSON: %w", err)
	}
	if page.Data == nil {
		return nil, fmt.Errorf("%w: no data list", ErrMalformedPage)
	}

	records := make(model.Catalog, 0, len(page.Data))
	for i := range page.Data {
		rec, err := page.Data[i].ToRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedPage, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParsePagination extracts the total number of pages the remote reports.
//
// The list endpoint always serves at least one page, so a missing or
// non-positive last_visible_page is malformed rather than an empty catalog.
func (p *Parser) ParsePagination(body []byte) (int, error) {
	var page dto.JSONPage
	if err := json.Unmarshal(body, &page); err != nil {
		return 0, fmt.Errorf("failed to parse pagination JSON: %w", err)
	}
	if page.Pagination == nil {
		return 0, fmt.Errorf("%w: no pagination block", ErrMalformedPage)
	}
	last := page.Pagination.LastVisiblePage
	if last == nil {
		return 0, fmt.Errorf("%w: no last_visible_page", ErrMalformedPage)
	}
	if *last < 1 {
		return 0, fmt.Errorf("%w: last_visible_page %d", ErrMalformedPage, *last)
	}
	return *last, nil
}
