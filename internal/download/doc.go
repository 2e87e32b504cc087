// Package download provides the orchestration logic for acquiring the
// catalog and downloading one image asset per record.
//
// # Manager
//
// The Manager coordinates the entire process:
//
//  1. Load the catalog snapshot, or fetch every page and save one
//  2. Create the assets directory
//  3. Download missing assets concurrently
//  4. Optionally convert or shrink images before writing them
//
// # Basic Usage
//
//	manager := download.NewManager(settings, logger, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	if err := manager.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := manager.StartDownloads(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// Every page and every asset gets its own task. Two settings bound them
// when positive:
//   - MaxConcurrentPages: page requests in flight
//   - MaxConcurrentDownloads: asset downloads in flight
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// GetProgress can be polled instead, e.g. from a UI tick.
//
// # Retry Logic
//
// Failed requests are retried without limit: 3s after a 429, 10s after any
// other page failure, 5-7s after any other asset failure. Cancelling the
// context is the only way to stop a retrying task.
package download
