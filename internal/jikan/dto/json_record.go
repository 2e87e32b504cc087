package dto

import (
	"fmt"

	"github.com/handiism/catalog-downloader/internal/model"
)

// JSONPage is one page of the top-list endpoint.
type JSONPage struct {
	Pagination *JSONPagination `json:"pagination"`
	Data       []JSONRecord    `json:"data"`
}

// JSONPagination is the pagination block present on every list response.
type JSONPagination struct {
	LastVisiblePage *int `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
	CurrentPage     int  `json:"current_page"`
	Items           struct {
		Count   int `json:"count"`
		Total   int `json:"total"`
		PerPage int `json:"per_page"`
	} `json:"items"`
}

// JSONTitle is one entry of a record's titles list.
type JSONTitle struct {
	Type  string `json:"type"`
	Title string `json:"title"`
}

// JSONTag is a genre, theme, explicit genre or demographic entry.
type JSONTag struct {
	MalID int    `json:"mal_id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// JSONRecord is one entry of a page's data list.
type JSONRecord struct {
	MalID          *int                         `json:"mal_id"`
	URL            string                       `json:"url"`
	Images         map[string]map[string]string `json:"images"`
	Titles         []JSONTitle                  `json:"titles"`
	Title          string                       `json:"title"`
	Source         string                       `json:"source"`
	Genres         []JSONTag                    `json:"genres"`
	ExplicitGenres []JSONTag                    `json:"explicit_genres"`
	Themes         []JSONTag                    `json:"themes"`
	Demographics   []JSONTag                    `json:"demographics"`
}

// ToRecord converts JSONRecord to a model.Record.
//
// The four tag lists are merged into one de-duplicated set in the order
// themes, genres, explicit genres, demographics.
//
// Returns an error if the entry has no mal_id or no title at all.
func (jr *JSONRecord) ToRecord() (*model.Record, error) {
	if jr.MalID == nil {
		return nil, fmt.Errorf("record without mal_id (url %q)", jr.URL)
	}

	title := jr.Title
	if len(jr.Titles) > 0 {
		title = jr.Titles[0].Title
	}
	if title == "" {
		return nil, fmt.Errorf("record %d has no title", *jr.MalID)
	}

	return &model.Record{
		ID:     *jr.MalID,
		URL:    jr.URL,
		Title:  title,
		Images: jr.Images,
		Tags: model.UnionTags(
			toTags(jr.Themes),
			toTags(jr.Genres),
			toTags(jr.ExplicitGenres),
			toTags(jr.Demographics),
		),
		Source: jr.Source,
	}, nil
}

func toTags(in []JSONTag) []model.Tag {
	out := make([]model.Tag, len(in))
	for i, jt := range in {
		out[i] = model.Tag{ID: jt.MalID, URL: jt.URL, Name: jt.Name}
	}
	return out
}
