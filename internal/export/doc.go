// Package export renders a catalog as a columnar (CSV) file.
//
// Each row carries the record id, its remote URL, the lower-cased title, the
// tag names and the local asset path, computed with the same rule the
// downloader writes files with:
//
//	exp := export.NewExporter(export.TagsDelimited, "images", ".jpg")
//	err := exp.WriteFile("catalog.csv", catalog)
package export
