package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	ioutils "github.com/handiism/catalog-downloader/internal/io"
	"github.com/handiism/catalog-downloader/internal/model"
)

// TagSerialization selects how a record's tag names are written to the tags
// column.
type TagSerialization string

const (
	// TagsDelimited joins the sorted names with "|": Action|Drama.
	TagsDelimited TagSerialization = "delimited"

	// TagsList writes a bracketed, quoted list: ['Action', 'Drama'].
	TagsList TagSerialization = "list"
)

// Header is the first row of every export.
var Header = []string{"id", "url", "title", "tags", "image_path"}

// ParseTagSerialization converts a config value to a TagSerialization.
// The empty string selects TagsDelimited.
func ParseTagSerialization(s string) (TagSerialization, error) {
	switch TagSerialization(strings.ToLower(s)) {
	case "", TagsDelimited:
		return TagsDelimited, nil
	case TagsList:
		return TagsList, nil
	default:
		return "", fmt.Errorf("unknown tag_serialization %q (want %q or %q)", s, TagsDelimited, TagsList)
	}
}

// Format renders sorted tag names in this mode.
func (m TagSerialization) Format(names []string) string {
	if m != TagsList {
		return strings.Join(names, "|")
	}

	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteName(name)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// quoteName single-quotes name, switching to double quotes when the name
// itself holds a single quote and no double quote.
func quoteName(name string) string {
	if strings.Contains(name, "'") && !strings.Contains(name, `"`) {
		return `"` + name + `"`
	}
	return "'" + strings.ReplaceAll(name, "'", `\'`) + "'"
}

// Exporter writes catalogs as CSV.
type Exporter struct {
	mode      TagSerialization
	assetsDir string
	assetExt  string
}

// NewExporter creates an Exporter. assetsDir and assetExt must match the
// downloader's so image_path points at the files it wrote.
func NewExporter(mode TagSerialization, assetsDir, assetExt string) *Exporter {
	if mode == "" {
		mode = TagsDelimited
	}
	return &Exporter{
		mode:      mode,
		assetsDir: assetsDir,
		assetExt:  assetExt,
	}
}

// Row converts one record into its CSV fields.
func (e *Exporter) Row(rec *model.Record) []string {
	return []string{
		strconv.Itoa(rec.ID),
		rec.URL,
		strings.ToLower(rec.Title),
		e.mode.Format(rec.Tags.Names()),
		filepath.ToSlash(model.AssetPath(e.assetsDir, rec.ID, e.assetExt)),
	}
}

// Write writes the header and one row per record to w, in catalog order.
func (e *Exporter) Write(w io.Writer, catalog model.Catalog) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)

	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, rec := range catalog {
		if err := cw.Write(e.Row(rec)); err != nil {
			return fmt.Errorf("record %d: %w", rec.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFile writes the export to path atomically.
func (e *Exporter) WriteFile(path string, catalog model.Catalog) error {
	var buf bytes.Buffer
	if err := e.Write(&buf, catalog); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := ioutils.EnsureDir(dir); err != nil {
			return err
		}
	}
	if err := ioutils.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write export %s: %w", path, err)
	}
	return nil
}
