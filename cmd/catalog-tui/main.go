package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/catalog-downloader/internal/config"
	"github.com/handiism/catalog-downloader/internal/logger"
	"github.com/handiism/catalog-downloader/internal/tui"
)

func main() {
	var (
		configFlag = flag.String("config", "", "Path to config file (json, yaml or toml)")
		logFlag    = flag.String("log", "catalog-tui.log", "File that receives retry and error logs")
	)
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The screen belongs to the UI, logs go to a file
	logFile, err := os.OpenFile(*logFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	cfg := settings.ToLoggerConfig()
	cfg.Writer = logFile
	cfg.Format = logger.FormatJSON

	if err := tui.Run(settings, logger.New(cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
