package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/catalog-downloader/internal/cache"
	"github.com/handiism/catalog-downloader/internal/config"
	"github.com/handiism/catalog-downloader/internal/export"
)

func main() {
	var (
		configFlag   = flag.String("config", "", "Path to config file (json, yaml or toml)")
		snapshotFlag = flag.String("snapshot", "", "Snapshot file to read (overrides config)")
		outputFlag   = flag.String("output", "", "CSV file to write (overrides config)")
		assetsFlag   = flag.String("assets", "", "Image directory used for image_path (overrides config)")
		tagsFlag     = flag.String("tags", "", "Tag column format: delimited or list (overrides config)")
	)
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *snapshotFlag != "" {
		settings.SnapshotPath = *snapshotFlag
	}
	if *outputFlag != "" {
		settings.ExportPath = *outputFlag
	}
	if *assetsFlag != "" {
		settings.AssetsDir = *assetsFlag
	}
	if *tagsFlag != "" {
		settings.TagSerialization = *tagsFlag
	}

	mode, err := export.ParseTagSerialization(settings.TagSerialization)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	catalog, err := cache.Load(settings.SnapshotPath)
	if err != nil {
		switch cache.ExitCode(err) {
		case cache.ExitNoSnapshot:
			fmt.Fprintf(os.Stderr, "No snapshot at %s. Run catalog-dl first.\n", settings.SnapshotPath)
		default:
			fmt.Fprintf(os.Stderr, "Cannot read snapshot: %v\n", err)
		}
		os.Exit(cache.ExitCode(err))
	}

	exp := export.NewExporter(mode, settings.AssetsDir, settings.AssetExt)
	if err := exp.WriteFile(settings.ExportPath, catalog); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d records to %s\n", len(catalog), settings.ExportPath)
}
