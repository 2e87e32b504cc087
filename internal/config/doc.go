// Package config provides configuration management for catalog-downloader.
//
// This package handles:
//   - Loading settings from JSON, YAML or TOML files through viper
//   - CATALOG_* environment overrides
//   - Default configuration values
//   - Conversion to the fetcher, HTTP client, retry and logger configs
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Up to 30000 records from the Jikan top list
//	// Snapshot in catalog.json, assets in images/<id>.jpg
//	// Unbounded fan-out with 3s / 10s / 5-7s backoffs
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	if err != nil {
//	    // The file exists but is malformed or invalid
//	}
//
// # Environment Overrides
//
//	CATALOG_TARGET_COUNT=100 CATALOG_ASSETS_DIR=/tmp/img catalog-dl
//
// # Saving Settings
//
//	settings.AssetsDir = "/data/images"
//	err := settings.Save("/path/to/config.json")
package config
