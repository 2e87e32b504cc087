// Package model defines the core data structures used throughout
// the catalog-downloader application.
//
// # Record
//
// Record is one catalog entry as returned by the remote API, reduced to the
// fields the pipeline needs:
//
//	rec := &model.Record{ID: 1, Title: "Title", Images: images, Tags: tags}
//	url, err := rec.AssetURL() // preferred image variant
//
// # Tags
//
// Tags is a de-duplicated tag set. Two tags are the same tag when their IDs
// match, whatever their names or URLs say:
//
//	tags := model.UnionTags(themes, genres, explicitGenres, demographics)
//
// # Asset Paths
//
// AssetPath is the single id-to-path rule shared by the downloader and the
// columnar export:
//
//	model.AssetPath("images", 5114, ".jpg") // "images/5114.jpg"
package model
