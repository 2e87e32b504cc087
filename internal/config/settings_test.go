package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/catalog-downloader/internal/logger"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	require.NoError(t, s.Validate())
	assert.Equal(t, "https://api.jikan.moe", s.BaseURL)
	assert.Equal(t, 25, s.PageSize)
	assert.Equal(t, 30000, s.TargetCount)
	assert.Equal(t, "catalog.json", s.SnapshotPath)
	assert.Equal(t, "images", s.AssetsDir)
	assert.Zero(t, s.MaxConcurrentPages)
	assert.Zero(t, s.MaxConcurrentDownloads)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "config.json"))

	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoad_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"target_count": 100,
		"assets_dir": "/data/images",
		"tag_serialization": "list",
		"asset_retry_min": 1.5,
		"asset_retry_max": 2
	}`), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 100, s.TargetCount)
	assert.Equal(t, "/data/images", s.AssetsDir)
	assert.Equal(t, "list", s.TagSerialization)
	assert.Equal(t, 1.5, s.AssetRetryMin)
	// Untouched keys keep their defaults
	assert.Equal(t, 25, s.PageSize)
	assert.Equal(t, "catalog.json", s.SnapshotPath)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("page_size: 10\nsfw: false\n"), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, s.PageSize)
	assert.False(t, s.SFW)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"target_count": 100}`), 0644))

	t.Setenv("CATALOG_TARGET_COUNT", "250")
	t.Setenv("CATALOG_SNAPSHOT_PATH", "/tmp/snap.json")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250, s.TargetCount)
	assert.Equal(t, "/tmp/snap.json", s.SnapshotPath)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"target_count": `), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"page_size": 0}`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size")
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		want   string
	}{
		{"negative page size", func(s *Settings) { s.PageSize = -1 }, "page_size"},
		{"bad tag mode", func(s *Settings) { s.TagSerialization = "json" }, "tag_serialization"},
		{"jitter inverted", func(s *Settings) { s.AssetRetryMin, s.AssetRetryMax = 8, 7 }, "asset_retry_min"},
		{"negative limit", func(s *Settings) { s.MaxConcurrentDownloads = -3 }, "concurrency"},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }, "log_level"},
		{"bad log format", func(s *Settings) { s.LogFormat = "xml" }, "log_format"},
		{"empty snapshot path", func(s *Settings) { s.SnapshotPath = "" }, "snapshot_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(s)

			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSettings_Validate_ReportsEverySetting(t *testing.T) {
	s := DefaultSettings()
	s.PageSize = 0
	s.LogFormat = "xml"
	s.AssetsDir = ""

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size")
	assert.Contains(t, err.Error(), "log_format")
	assert.Contains(t, err.Error(), "assets_dir")
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	s := DefaultSettings()
	s.TargetCount = 75
	s.ConvertAssetsToJPG = true

	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestSettings_Converters(t *testing.T) {
	s := DefaultSettings()
	s.TargetCount = 100
	s.MaxConcurrentPages = 4
	s.AssetRetryMin = 0.5
	s.AssetRetryMax = 1.25

	fc := s.ToFetcherConfig()
	assert.Equal(t, 100, fc.TargetCount)
	assert.Equal(t, 4, fc.MaxConcurrentPages)
	assert.True(t, fc.SFW)

	page := s.PagePolicy(logger.Discard())
	assert.Equal(t, 3*time.Second, page.RateLimitBackoff)
	assert.Equal(t, 10*time.Second, page.TransientBackoff)
	assert.Zero(t, page.TransientJitter)

	asset := s.AssetPolicy(logger.Discard())
	assert.Equal(t, 500*time.Millisecond, asset.TransientBackoff)
	assert.Equal(t, 750*time.Millisecond, asset.TransientJitter)

	assert.Len(t, s.ToClientOptions(), 2)
	s.RequestsPerSecond = 2
	assert.Len(t, s.ToClientOptions(), 3)

	lc := s.ToLoggerConfig()
	assert.Equal(t, logger.FormatPretty, lc.Format)
}
