// Package cache gates catalog acquisition on a local snapshot file.
//
// The snapshot is a single JSON document holding the whole catalog. Its
// existence alone decides whether the remote is contacted:
//
//	catalog, fromSnapshot, err := cache.LoadOrFetch(ctx, "catalog.json", fetcher.FetchCatalog)
//
// A snapshot that exists but cannot be read is never silently replaced;
// LoadOrFetch returns ErrInvalidSnapshot and the binaries exit with
// ExitInvalidSnapshot.
package cache
