package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/catalog-downloader/internal/model"
)

func testCatalog() model.Catalog {
	return model.Catalog{
		{
			ID:    5114,
			URL:   "https://myanimelist.net/anime/5114",
			Title: "Fullmetal Alchemist: Brotherhood",
			Tags: model.UnionTags(
				[]model.Tag{{ID: 38, Name: "Military"}},
				[]model.Tag{{ID: 1, Name: "Action"}, {ID: 10, Name: "Fantasy"}},
			),
		},
		{
			ID:    9253,
			URL:   "https://myanimelist.net/anime/9253",
			Title: "Steins;Gate, \"Again\"",
		},
	}
}

func TestParseTagSerialization(t *testing.T) {
	tests := []struct {
		in      string
		want    TagSerialization
		wantErr bool
	}{
		{"", TagsDelimited, false},
		{"delimited", TagsDelimited, false},
		{"LIST", TagsList, false},
		{"json", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTagSerialization(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestTagSerialization_Format(t *testing.T) {
	names := []string{"Action", "Boys Love", "Girl's Day"}

	assert.Equal(t, "Action|Boys Love|Girl's Day", TagsDelimited.Format(names))
	assert.Equal(t, `['Action', 'Boys Love', "Girl's Day"]`, TagsList.Format(names))

	assert.Equal(t, "", TagsDelimited.Format(nil))
	assert.Equal(t, "[]", TagsList.Format(nil))
}

func TestExporter_Write(t *testing.T) {
	tests := []struct {
		name     string
		mode     TagSerialization
		wantTags string
	}{
		{"delimited", TagsDelimited, "Action|Fantasy|Military"},
		{"list", TagsList, "['Action', 'Fantasy', 'Military']"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exp := NewExporter(tt.mode, "images", ".jpg")

			require.NoError(t, exp.Write(&buf, testCatalog()))

			rows, err := csv.NewReader(&buf).ReadAll()
			require.NoError(t, err)
			require.Len(t, rows, 3)

			assert.Equal(t, Header, rows[0])
			assert.Equal(t, []string{
				"5114",
				"https://myanimelist.net/anime/5114",
				"fullmetal alchemist: brotherhood",
				tt.wantTags,
				"images/5114.jpg",
			}, rows[1])

			// Commas and quotes survive the round trip
			assert.Equal(t, "steins;gate, \"again\"", rows[2][2])
			assert.Equal(t, "images/9253.jpg", rows[2][4])
		})
	}
}

func TestExporter_ImagePathMatchesAssetPath(t *testing.T) {
	dir := filepath.Join("data", "images")
	exp := NewExporter(TagsDelimited, dir, ".jpg")

	rec := &model.Record{ID: 21}
	assert.Equal(t, filepath.ToSlash(model.AssetPath(dir, 21, ".jpg")), exp.Row(rec)[4])
}

func TestExporter_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "catalog.csv")
	exp := NewExporter(TagsDelimited, "images", ".jpg")

	require.NoError(t, exp.WriteFile(path, testCatalog()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("id,url,title,tags,image_path\n")))
}

func TestExporter_EmptyCatalog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(TagsList, "images", ".jpg").Write(&buf, nil))
	assert.Equal(t, "id,url,title,tags,image_path\n", buf.String())
}
