package jikan

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/catalog-downloader/internal/http"
	"github.com/handiism/catalog-downloader/internal/model"
	"github.com/handiism/catalog-downloader/internal/retry"
)

const (
	// DefaultBaseURL is the public Jikan API.
	DefaultBaseURL = "https://api.jikan.moe"

	// DefaultTopPath is the ranked list endpoint.
	DefaultTopPath = "/v4/top/anime"

	// DefaultPageSize is the largest page the API serves.
	DefaultPageSize = 25
)

// Config controls which pages a Fetcher requests.
type Config struct {
	BaseURL string
	TopPath string

	// PageSize is the "limit" query parameter.
	PageSize int

	// TargetCount is advisory: it bounds how many pages are requested but
	// the result is never truncated to it.
	TargetCount int

	// SFW adds the sfw=true filter.
	SFW bool

	// MaxConcurrentPages limits in-flight page tasks. Zero means every page
	// is requested at once.
	MaxConcurrentPages int
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		TopPath:     DefaultTopPath,
		PageSize:    DefaultPageSize,
		TargetCount: 500,
		SFW:         true,
	}
}

// ProgressFunc is called by the coordinator after each page is appended.
type ProgressFunc func(records, pagesDone, pagesTotal int)

// Fetcher acquires the catalog from the paginated top-list endpoint.
//
// Fetcher:
//  1. Asks for a one-record page to learn how many pages exist
//  2. Computes the page range with PageRange
//  3. Launches one retrying task per page, all at once
//  4. Appends pages to the catalog in completion order
//
// Example usage:
//
//	f := NewFetcher(client, DefaultConfig(), retry.PagePolicy(logger), logger)
//	f.OnProgress(func(records, done, total int) {
//	    fmt.Printf("Fetched %d records\r", records)
//	})
//	catalog, err := f.FetchCatalog(ctx)
type Fetcher struct {
	client     *http.Client
	parser     *Parser
	cfg        Config
	policy     retry.Policy
	logger     *slog.Logger
	onProgress ProgressFunc
}

// NewFetcher creates a new Fetcher.
func NewFetcher(client *http.Client, cfg Config, policy retry.Policy, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Fetcher{
		client: client,
		parser: NewParser(),
		cfg:    cfg,
		policy: policy,
		logger: logger,
	}
}

// OnProgress registers a progress callback.
func (f *Fetcher) OnProgress(fn ProgressFunc) {
	f.onProgress = fn
}

// PageRange returns the pages to request.
//
// The upper bound is exclusive: pages run over [1, min(totalPages+1,
// target/pageSize)). With pageSize 25, target 100 and 10 remote pages that
// is pages 1, 2 and 3; page 4 is never requested even though the target
// would need it. The bound is kept as is so that runs stay comparable with
// existing snapshots.
func PageRange(totalPages, target, pageSize int) []int {
	if pageSize <= 0 {
		return nil
	}
	end := min(totalPages+1, target/pageSize)

	var pages []int
	for page := 1; page < end; page++ {
		pages = append(pages, page)
	}
	return pages
}

// TotalPages asks the remote how many pages it can serve. The request is
// retried like any page.
func (f *Fetcher) TotalPages(ctx context.Context) (int, error) {
	return retry.Do(ctx, f.policy, "pagination metadata", func(ctx context.Context) (int, error) {
		body, err := f.client.Get(ctx, f.pageURL(0, 1))
		if err != nil {
			return 0, err
		}
		return f.parser.ParsePagination(body)
	})
}

// FetchPage performs a single attempt at one page.
func (f *Fetcher) FetchPage(ctx context.Context, page int) (model.Catalog, error) {
	body, err := f.client.Get(ctx, f.pageURL(page, f.cfg.PageSize))
	if err != nil {
		return nil, err
	}
	return f.parser.ParsePage(body)
}

type pageResult struct {
	page    int
	records model.Catalog
}

// FetchCatalog fetches every page in PageRange and returns the records in
// the order pages completed.
//
// Pages are retried until they succeed, so the call only returns once every
// page arrived, or with an error when ctx is cancelled.
func (f *Fetcher) FetchCatalog(ctx context.Context) (model.Catalog, error) {
	totalPages, err := f.TotalPages(ctx)
	if err != nil {
		return nil, err
	}

	pages := PageRange(totalPages, f.cfg.TargetCount, f.cfg.PageSize)
	f.logger.Info("fetching catalog",
		"remote_pages", totalPages,
		"pages", len(pages),
		"page_size", f.cfg.PageSize,
	)

	g, gctx := errgroup.WithContext(ctx)
	if f.cfg.MaxConcurrentPages > 0 {
		g.SetLimit(f.cfg.MaxConcurrentPages)
	}

	results := make(chan pageResult)
	var waitErr error
	go func() {
		for _, page := range pages {
			g.Go(func() error {
				records, err := retry.Do(gctx, f.policy, "page "+strconv.Itoa(page), func(ctx context.Context) (model.Catalog, error) {
					return f.FetchPage(ctx, page)
				})
				if err != nil {
					return err
				}
				select {
				case results <- pageResult{page: page, records: records}:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		waitErr = g.Wait()
		close(results)
	}()

	var catalog model.Catalog
	done := 0
	for res := range results {
		catalog = append(catalog, res.records...)
		done++
		f.logger.Debug("page fetched", "page", res.page, "records", len(res.records))
		if f.onProgress != nil {
			f.onProgress(len(catalog), done, len(pages))
		}
	}

	if waitErr != nil {
		return nil, fmt.Errorf("fetch catalog: %w", waitErr)
	}
	return catalog, nil
}

// pageURL builds a list URL. Page 0 omits the page parameter.
func (f *Fetcher) pageURL(page, limit int) string {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	query.Set("limit", strconv.Itoa(limit))
	if f.cfg.SFW {
		query.Set("sfw", "true")
	}
	return f.cfg.BaseURL + f.cfg.TopPath + "?" + query.Encode()
}
