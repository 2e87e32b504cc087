// Package jikan acquires the record catalog from the Jikan v4 API.
//
// The package handles two concerns:
//
//  1. Parsing list responses into model records (Parser, dto)
//  2. Orchestrating the paginated fetch (Fetcher)
//
// # Page Parsing
//
//	parser := jikan.NewParser()
//	records, err := parser.ParsePage(body)
//
// Each entry's themes, genres, explicit genres and demographics are merged
// into one tag set keyed by tag id.
//
// # Paginated Fetch
//
// Fetcher learns the remote page count, then requests every page of
// PageRange concurrently. Each page is retried with the page retry policy
// until it succeeds, and pages are appended in completion order:
//
//	f := jikan.NewFetcher(client, cfg, retry.PagePolicy(logger), logger)
//	catalog, err := f.FetchCatalog(ctx)
package jikan
