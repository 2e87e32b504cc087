package download

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/catalog-downloader/internal/cache"
	"github.com/handiism/catalog-downloader/internal/config"
	"github.com/handiism/catalog-downloader/internal/http"
	ioutils "github.com/handiism/catalog-downloader/internal/io"
	"github.com/handiism/catalog-downloader/internal/jikan"
	"github.com/handiism/catalog-downloader/internal/model"
	"github.com/handiism/catalog-downloader/internal/retry"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Summary reports the outcome of a download run.
type Summary struct {
	// Total is the number of records considered.
	Total int

	// Downloaded counts assets fetched and written in this run.
	Downloaded int

	// Skipped counts assets already present on disk.
	Skipped int

	// Faulty lists, sorted, the ids of records whose asset URL could not be
	// resolved.
	Faulty []int
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient replaces the client built from settings.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = c
	}
}

// WithSleep replaces the retry wait for both page and asset policies.
func WithSleep(sleep retry.SleepFunc) Option {
	return func(m *Manager) {
		m.pagePolicy.Sleep = sleep
		m.assetPolicy.Sleep = sleep
	}
}

// Manager coordinates catalog acquisition and asset downloads.
type Manager struct {
	settings     *config.Settings
	logger       *slog.Logger
	httpClient   *http.Client
	imageService *ioutils.ImageService
	pagePolicy   retry.Policy
	assetPolicy  retry.Policy

	catalog      model.Catalog
	fromSnapshot bool

	fetchedRecords  atomic.Int64
	totalFiles      atomic.Int64
	downloadedFiles atomic.Int64
	skippedFiles    atomic.Int64

	onProgress func(ProgressEvent)
	mu         sync.Mutex
	faulty     []int
}

// NewManager creates a new download Manager.
func NewManager(settings *config.Settings, logger *slog.Logger, onProgress func(ProgressEvent), opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		settings:     settings,
		logger:       logger,
		httpClient:   http.NewClient(settings.ToClientOptions()...),
		imageService: ioutils.NewImageService(),
		pagePolicy:   settings.PagePolicy(logger),
		assetPolicy:  settings.AssetPolicy(logger),
		onProgress:   onProgress,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize gathers the catalog: from the snapshot when one exists,
// otherwise from the remote, saving a snapshot afterwards.
//
// A snapshot that exists but cannot be read is returned as an error wrapping
// cache.ErrInvalidSnapshot; it is never silently refetched.
func (m *Manager) Initialize(ctx context.Context) error {
	fetcher := jikan.NewFetcher(m.httpClient, m.settings.ToFetcherConfig(), m.pagePolicy, m.logger)
	fetcher.OnProgress(func(records, pagesDone, pagesTotal int) {
		m.fetchedRecords.Store(int64(records))
		m.progress(ProgressEvent{Message: fmt.Sprintf("Fetched %d records (%d/%d pages)", records, pagesDone, pagesTotal), Level: LevelInfo})
	})

	path := m.settings.SnapshotPath
	if cache.Exists(path) {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Loading snapshot %s", path), Level: LevelVerbose})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("No snapshot at %s, fetching catalog", path), Level: LevelInfo})
	}

	catalog, fromSnapshot, err := cache.LoadOrFetch(ctx, path, fetcher.FetchCatalog)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error acquiring catalog: %v", err), Level: LevelError})
		return err
	}

	m.catalog = catalog
	m.fromSnapshot = fromSnapshot
	m.fetchedRecords.Store(int64(len(catalog)))
	m.totalFiles.Store(int64(len(catalog)))

	if fromSnapshot {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Loaded %d records from %s", len(catalog), path), Level: LevelSuccess})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Saved %d records to %s", len(catalog), path), Level: LevelSuccess})
	}
	return nil
}

// StartDownloads downloads the assets of the initialized catalog.
func (m *Manager) StartDownloads(ctx context.Context) (Summary, error) {
	return m.DownloadAll(ctx, m.catalog)
}

// DownloadAll ensures every record in catalog has its asset on disk.
//
// One task per record runs concurrently; MaxConcurrentDownloads bounds them
// when positive. Present files are skipped without any request. Records with
// no resolvable asset URL are logged and listed in Summary.Faulty, and the
// batch continues. Failed fetches and writes are retried until they succeed,
// so the only error is a cancelled ctx.
func (m *Manager) DownloadAll(ctx context.Context, catalog model.Catalog) (Summary, error) {
	dir := m.settings.AssetsDir
	if err := ioutils.EnsureDir(dir); err != nil {
		return Summary{}, fmt.Errorf("create assets dir %s: %w", dir, err)
	}

	m.resetCounters(len(catalog))
	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloading assets for %d records into %s", len(catalog), dir), Level: LevelInfo})

	g, gctx := errgroup.WithContext(ctx)
	if m.settings.MaxConcurrentDownloads > 0 {
		g.SetLimit(m.settings.MaxConcurrentDownloads)
	}

	for _, rec := range catalog {
		g.Go(func() error {
			return m.downloadAsset(gctx, rec)
		})
	}

	err := g.Wait()
	summary := m.summary(len(catalog))
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Downloads interrupted: %v", err), Level: LevelWarning})
		return summary, err
	}

	if len(summary.Faulty) == 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Done: %d downloaded, %d already present", summary.Downloaded, summary.Skipped), Level: LevelSuccess})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Done: %d downloaded, %d already present, %d without image", summary.Downloaded, summary.Skipped, len(summary.Faulty)), Level: LevelWarning})
	}
	return summary, nil
}

// GetProgress returns the number of records acquired so far and how many
// of the total assets have been resolved (downloaded, skipped or faulty).
func (m *Manager) GetProgress() (records int, filesDone, filesTotal int) {
	m.mu.Lock()
	faulty := len(m.faulty)
	m.mu.Unlock()

	done := m.downloadedFiles.Load() + m.skippedFiles.Load() + int64(faulty)
	return int(m.fetchedRecords.Load()), int(done), int(m.totalFiles.Load())
}

// Catalog returns the catalog gathered by Initialize.
func (m *Manager) Catalog() model.Catalog {
	return m.catalog
}

// FromSnapshot reports whether Initialize read the catalog from disk.
func (m *Manager) FromSnapshot() bool {
	return m.fromSnapshot
}

func (m *Manager) downloadAsset(ctx context.Context, rec *model.Record) error {
	path := model.AssetPath(m.settings.AssetsDir, rec.ID, m.settings.AssetExt)

	if ioutils.FileExists(path) {
		m.skippedFiles.Add(1)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping existing: %s", filepath.Base(path)), Level: LevelVerbose})
		return nil
	}

	assetURL, err := rec.AssetURL()
	if err != nil {
		m.logger.Error("skipping record without image", "id", rec.ID, "title", rec.Title, "error", err)
		m.addFaulty(rec.ID)
		m.progress(ProgressEvent{Message: fmt.Sprintf("No image for %d (%s)", rec.ID, rec.Title), Level: LevelError})
		return nil
	}

	data, err := retry.Do(ctx, m.assetPolicy, "asset "+strconv.Itoa(rec.ID), func(ctx context.Context) ([]byte, error) {
		return m.httpClient.DownloadBytes(ctx, assetURL)
	})
	if err != nil {
		return err
	}

	data = m.postProcess(ctx, rec, data)

	_, err = retry.Do(ctx, m.assetPolicy, "write "+path, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, ioutils.WriteFileAtomic(path, data)
	})
	if err != nil {
		return err
	}

	m.downloadedFiles.Add(1)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded: %s", filepath.Base(path)), Level: LevelVerbose})
	return nil
}

// postProcess applies the optional JPEG conversion and resize. Failures keep
// the original bytes.
func (m *Manager) postProcess(ctx context.Context, rec *model.Record, data []byte) []byte {
	if !m.settings.ConvertAssetsToJPG && m.settings.AssetMaxSize <= 0 {
		return data
	}

	out, err := m.imageService.Normalize(ctx, data, m.settings.AssetMaxSize)
	if err != nil {
		m.logger.Warn("keeping original image", "id", rec.ID, "error", err)
		return data
	}
	return out
}

func (m *Manager) resetCounters(total int) {
	m.totalFiles.Store(int64(total))
	m.downloadedFiles.Store(0)
	m.skippedFiles.Store(0)

	m.mu.Lock()
	m.faulty = nil
	m.mu.Unlock()
}

func (m *Manager) addFaulty(id int) {
	m.mu.Lock()
	m.faulty = append(m.faulty, id)
	m.mu.Unlock()
}

func (m *Manager) summary(total int) Summary {
	m.mu.Lock()
	faulty := slices.Clone(m.faulty)
	m.mu.Unlock()
	slices.Sort(faulty)

	return Summary{
		Total:      total,
		Downloaded: int(m.downloadedFiles.Load()),
		Skipped:    int(m.skippedFiles.Load()),
		Faulty:     faulty,
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
