package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
)

// ErrUnresolvableAssetURL is returned when a record's image metadata holds
// no usable URL. It marks a defect in the input record, not a network problem.
var ErrUnresolvableAssetURL = errors.New("no image URL found")

// Image metadata keys as served by the remote API.
const (
	// ImageFormatJPG is the image format the asset is taken from.
	ImageFormatJPG = "jpg"

	// ImageLarge is the preferred size variant.
	ImageLarge = "large_image_url"

	// ImageStandard is the fallback size variant.
	ImageStandard = "image_url"
)

// assetPreference is the order in which size variants are tried.
var assetPreference = []string{ImageLarge, ImageStandard}

// Record is one catalog entry.
//
// Records are built once by the parser (or loaded from a snapshot) and are
// never modified afterwards.
type Record struct {
	// ID is the remote identifier. It also names the asset file.
	ID int `json:"id"`

	// URL is the remote page for the record.
	URL string `json:"url"`

	// Title is the record's primary title.
	Title string `json:"title"`

	// Images maps image format -> size variant -> URL,
	// e.g. Images["jpg"]["large_image_url"].
	Images map[string]map[string]string `json:"images"`

	// Tags is the union of themes, genres, explicit genres and demographics.
	Tags Tags `json:"tags"`

	// Source is the source material, e.g. "Manga". May be empty.
	Source string `json:"source"`
}

// AssetURL resolves the URL of the record's image asset.
//
// The large JPG variant is preferred, falling back to the standard one.
// If neither is present (or both are empty) the error wraps
// ErrUnresolvableAssetURL.
func (r *Record) AssetURL() (string, error) {
	variants := r.Images[ImageFormatJPG]
	for _, key := range assetPreference {
		if url := variants[key]; url != "" {
			return url, nil
		}
	}
	return "", fmt.Errorf("record %d (%s): %w", r.ID, r.Title, ErrUnresolvableAssetURL)
}

// Catalog is the ordered list of acquired records.
//
// Order is page-arrival order; it is not reproducible run to run.
type Catalog []*Record

// IDs returns the record IDs in catalog order.
func (c Catalog) IDs() []int {
	ids := make([]int, len(c))
	for i, rec := range c {
		ids[i] = rec.ID
	}
	return ids
}

// AssetPath returns the local path of a record's asset file.
//
// This is the only id-to-path rule in the application; the downloader and the
// columnar export must both go through it.
//
// Example:
//
//	AssetPath("images", 21, ".jpg") // "images/21.jpg"
func AssetPath(dir string, id int, ext string) string {
	return filepath.Join(dir, strconv.Itoa(id)+ext)
}
