package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/handiism/catalog-downloader/internal/cache"
	"github.com/handiism/catalog-downloader/internal/config"
	"github.com/handiism/catalog-downloader/internal/download"
	"github.com/handiism/catalog-downloader/internal/export"
	"github.com/handiism/catalog-downloader/internal/logger"
)

func main() {
	// Command line flags
	var (
		configFlag   = flag.String("config", "", "Path to config file (json, yaml or toml)")
		targetFlag   = flag.Int("target", 0, "Number of records to fetch (overrides config)")
		snapshotFlag = flag.String("snapshot", "", "Snapshot file (overrides config)")
		assetsFlag   = flag.String("assets", "", "Image directory (overrides config)")
		verboseFlag  = flag.Bool("verbose", false, "Show verbose output")
		dryRunFlag   = flag.Bool("dry-run", false, "Acquire the catalog without downloading images")
		exportFlag   = flag.Bool("export", false, "Write the CSV export after downloading")
	)

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Catalog Downloader - Fetch a ranked catalog and its cover images")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  catalog-dl [options]")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "For interactive mode, use: catalog-tui")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	// Load config
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply flags
	if *targetFlag > 0 {
		settings.TargetCount = *targetFlag
	}
	if *snapshotFlag != "" {
		settings.SnapshotPath = *snapshotFlag
	}
	if *assetsFlag != "" {
		settings.AssetsDir = *assetsFlag
	}
	if *verboseFlag {
		settings.LogLevel = "debug"
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(settings.ToLoggerConfig())

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("interrupted, cancelling")
		cancel()
	}()

	// Create manager with progress callback
	manager := download.NewManager(settings, log, func(event download.ProgressEvent) {
		log.Log(context.Background(), eventLevel(event.Level), event.Message)
	})

	fmt.Println("Catalog Downloader")
	fmt.Println("------------------")

	if err := manager.Initialize(ctx); err != nil {
		exitOnError(ctx, "Error acquiring catalog", err)
	}

	if *dryRunFlag {
		fmt.Printf("\n[Dry run - %d records, not downloading]\n", len(manager.Catalog()))
		return
	}

	summary, err := manager.StartDownloads(ctx)
	if err != nil {
		exitOnError(ctx, "Error during download", err)
	}

	if *exportFlag {
		mode, _ := export.ParseTagSerialization(settings.TagSerialization)
		exp := export.NewExporter(mode, settings.AssetsDir, settings.AssetExt)
		if err := exp.WriteFile(settings.ExportPath, manager.Catalog()); err != nil {
			exitOnError(ctx, "Error exporting", err)
		}
		log.Info("exported catalog", "path", settings.ExportPath, "records", len(manager.Catalog()))
	}

	fmt.Println()
	fmt.Println("------------------")
	fmt.Printf("Complete! %d records: %d downloaded, %d already present, %d without image\n",
		summary.Total, summary.Downloaded, summary.Skipped, len(summary.Faulty))
	if len(summary.Faulty) > 0 {
		fmt.Printf("Records without image: %v\n", summary.Faulty)
	}
}

// eventLevel maps progress levels onto log levels.
func eventLevel(level download.ProgressLevel) slog.Level {
	switch level {
	case download.LevelVerbose:
		return slog.LevelDebug
	case download.LevelWarning:
		return slog.LevelWarn
	case download.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func exitOnError(ctx context.Context, msg string, err error) {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		fmt.Println("\nCancelled.")
		os.Exit(130)
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(cache.ExitCode(err))
}
