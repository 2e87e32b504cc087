// Package http provides the HTTP client used to reach the catalog API and
// the image hosts.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Per-attempt timeouts
//   - Classification of 429 responses as ErrRateLimited
//   - Optional request pacing (golang.org/x/time/rate)
//
// # Basic Usage
//
//	client := http.NewClient(http.WithRateLimit(3, 3))
//
//	// Fetch and decode a JSON page
//	var page dto.JSONPage
//	err := client.GetJSON(ctx, pageURL, &page)
//
//	// Download an image
//	data, err := client.DownloadBytes(ctx, imageURL)
//
// # Errors
//
// Get never retries. It reports a 429 as ErrRateLimited and any other
// non-200 status as *StatusError so callers can pick a backoff:
//
//	if errors.Is(err, http.ErrRateLimited) {
//	    // short backoff
//	}
package http
