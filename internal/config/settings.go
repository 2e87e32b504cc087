package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/handiism/catalog-downloader/internal/export"
	"github.com/handiism/catalog-downloader/internal/http"
	ioutils "github.com/handiism/catalog-downloader/internal/io"
	"github.com/handiism/catalog-downloader/internal/jikan"
	"github.com/handiism/catalog-downloader/internal/logger"
	"github.com/handiism/catalog-downloader/internal/retry"
)

// EnvPrefix prefixes environment overrides, e.g. CATALOG_TARGET_COUNT.
const EnvPrefix = "CATALOG"

// Settings holds all configuration options.
type Settings struct {
	// Remote settings
	BaseURL     string `json:"base_url" mapstructure:"base_url"`
	TopPath     string `json:"top_path" mapstructure:"top_path"`
	PageSize    int    `json:"page_size" mapstructure:"page_size"`
	TargetCount int    `json:"target_count" mapstructure:"target_count"`
	SFW         bool   `json:"sfw" mapstructure:"sfw"`
	UserAgent   string `json:"user_agent" mapstructure:"user_agent"`

	// File locations
	SnapshotPath     string `json:"snapshot_path" mapstructure:"snapshot_path"`
	AssetsDir        string `json:"assets_dir" mapstructure:"assets_dir"`
	AssetExt         string `json:"asset_ext" mapstructure:"asset_ext"`
	ExportPath       string `json:"export_path" mapstructure:"export_path"`
	TagSerialization string `json:"tag_serialization" mapstructure:"tag_serialization"` // delimited, list

	// Retry settings, in seconds
	RateLimitBackoff float64 `json:"rate_limit_backoff" mapstructure:"rate_limit_backoff"`
	PageRetryBackoff float64 `json:"page_retry_backoff" mapstructure:"page_retry_backoff"`
	AssetRetryMin    float64 `json:"asset_retry_min" mapstructure:"asset_retry_min"`
	AssetRetryMax    float64 `json:"asset_retry_max" mapstructure:"asset_retry_max"`
	RequestTimeout   float64 `json:"request_timeout" mapstructure:"request_timeout"` // 0 disables

	// Concurrency settings, 0 means unbounded
	MaxConcurrentPages     int     `json:"max_concurrent_pages" mapstructure:"max_concurrent_pages"`
	MaxConcurrentDownloads int     `json:"max_concurrent_downloads" mapstructure:"max_concurrent_downloads"`
	RequestsPerSecond      float64 `json:"requests_per_second" mapstructure:"requests_per_second"`
	RequestsBurst          int     `json:"requests_burst" mapstructure:"requests_burst"`

	// Asset post-processing
	ConvertAssetsToJPG bool `json:"convert_assets_to_jpg" mapstructure:"convert_assets_to_jpg"`
	AssetMaxSize       int  `json:"asset_max_size" mapstructure:"asset_max_size"` // 0 keeps original size

	// Logging
	LogLevel  string `json:"log_level" mapstructure:"log_level"`
	LogFormat string `json:"log_format" mapstructure:"log_format"` // pretty, json
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		BaseURL:     jikan.DefaultBaseURL,
		TopPath:     jikan.DefaultTopPath,
		PageSize:    jikan.DefaultPageSize,
		TargetCount: 30000,
		SFW:         true,
		UserAgent:   http.DefaultUserAgent,

		SnapshotPath:     "catalog.json",
		AssetsDir:        "images",
		AssetExt:         ".jpg",
		ExportPath:       "catalog.csv",
		TagSerialization: string(export.TagsDelimited),

		RateLimitBackoff: 3,
		PageRetryBackoff: 10,
		AssetRetryMin:    5,
		AssetRetryMax:    7,
		RequestTimeout:   60,

		MaxConcurrentPages:     0,
		MaxConcurrentDownloads: 0,
		RequestsPerSecond:      0,
		RequestsBurst:          1,

		ConvertAssetsToJPG: false,
		AssetMaxSize:       0,

		LogLevel:  "info",
		LogFormat: logger.FormatPretty,
	}
}

// Load reads settings from a config file and the environment.
//
// The file format follows the extension (json, yaml, toml). A missing file is
// not an error: defaults are used. Any setting can be overridden through a
// CATALOG_<KEY> environment variable, e.g. CATALOG_ASSETS_DIR=/tmp/images.
// An empty path skips the file entirely.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v, DefaultSettings())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" && ioutils.FileExists(path) {
		v.SetConfigFile(path)
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// setDefaults registers every field so viper knows which keys the
// environment may override.
func setDefaults(v *viper.Viper, s *Settings) {
	val := reflect.ValueOf(s).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		if key := typ.Field(i).Tag.Get("mapstructure"); key != "" {
			v.SetDefault(key, val.Field(i).Interface())
		}
	}
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return ioutils.WriteFileAtomic(path, data)
}

// Validate reports every setting that cannot work.
func (s *Settings) Validate() error {
	var errs []error
	if s.BaseURL == "" {
		errs = append(errs, errors.New("base_url must not be empty"))
	}
	if s.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be positive, got %d", s.PageSize))
	}
	if s.TargetCount < 0 {
		errs = append(errs, fmt.Errorf("target_count must not be negative, got %d", s.TargetCount))
	}
	if s.SnapshotPath == "" {
		errs = append(errs, errors.New("snapshot_path must not be empty"))
	}
	if s.AssetsDir == "" {
		errs = append(errs, errors.New("assets_dir must not be empty"))
	}
	if _, err := export.ParseTagSerialization(s.TagSerialization); err != nil {
		errs = append(errs, err)
	}
	if s.RateLimitBackoff < 0 || s.PageRetryBackoff < 0 || s.AssetRetryMin < 0 || s.RequestTimeout < 0 {
		errs = append(errs, errors.New("backoffs and timeouts must not be negative"))
	}
	if s.AssetRetryMin > s.AssetRetryMax {
		errs = append(errs, fmt.Errorf("asset_retry_min (%g) exceeds asset_retry_max (%g)", s.AssetRetryMin, s.AssetRetryMax))
	}
	if s.MaxConcurrentPages < 0 || s.MaxConcurrentDownloads < 0 {
		errs = append(errs, errors.New("concurrency limits must not be negative"))
	}
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", s.LogLevel))
	}
	if s.LogFormat != logger.FormatPretty && s.LogFormat != logger.FormatJSON {
		errs = append(errs, fmt.Errorf("unknown log_format %q", s.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid settings: %w", errors.Join(errs...))
	}
	return nil
}

// ToFetcherConfig converts settings to a jikan.Config.
func (s *Settings) ToFetcherConfig() jikan.Config {
	return jikan.Config{
		BaseURL:            s.BaseURL,
		TopPath:            s.TopPath,
		PageSize:           s.PageSize,
		TargetCount:        s.TargetCount,
		SFW:                s.SFW,
		MaxConcurrentPages: s.MaxConcurrentPages,
	}
}

// ToClientOptions converts settings to HTTP client options.
func (s *Settings) ToClientOptions() []http.Option {
	opts := []http.Option{
		http.WithTimeout(seconds(s.RequestTimeout)),
		http.WithUserAgent(s.UserAgent),
	}
	if s.RequestsPerSecond > 0 {
		opts = append(opts, http.WithRateLimit(s.RequestsPerSecond, s.RequestsBurst))
	}
	return opts
}

// PagePolicy converts settings to the retry policy used for page fetches.
func (s *Settings) PagePolicy(log *slog.Logger) retry.Policy {
	p := retry.PagePolicy(log)
	p.RateLimitBackoff = seconds(s.RateLimitBackoff)
	p.TransientBackoff = seconds(s.PageRetryBackoff)
	return p
}

// AssetPolicy converts settings to the retry policy used for asset fetches.
func (s *Settings) AssetPolicy(log *slog.Logger) retry.Policy {
	p := retry.AssetPolicy(log)
	p.RateLimitBackoff = seconds(s.RateLimitBackoff)
	p.TransientBackoff = seconds(s.AssetRetryMin)
	p.TransientJitter = seconds(s.AssetRetryMax - s.AssetRetryMin)
	return p
}

// ToLoggerConfig converts settings to a logger.Config.
func (s *Settings) ToLoggerConfig() logger.Config {
	return logger.Config{
		Format: s.LogFormat,
		Level:  logger.ParseLevel(s.LogLevel),
	}
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
