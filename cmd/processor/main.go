// Command processor extracts the combined institution dataset from the raw
// IPEDS survey files: it loads the source tables, merges them on UNITID,
// cleans the merged rows and writes the combined CSV consumed by
// merit-report.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"ipedscli/internal/config"
	"ipedscli/internal/dataprocessing"
	"ipedscli/internal/infrastructure"
	"ipedscli/internal/pipeline"
)

func main() {
	dataDir := flag.String("data", "", "directory holding the IPEDS survey files (defaults to configured data dir)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()
	logger = infrastructure.NewRunLogger(logger)

	logger.Info("Starting IPEDS data extraction",
		slog.String("data_dir", cfg.Paths.DataDir))

	bar := progressbar.NewOptions(dataprocessing.TableCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Loading survey tables..."),
		progressbar.OptionSetWidth(20),
	)

	result, err := pipeline.Extract(cfg, logger, func(string) {
		bar.Add(1)
	})
	bar.Finish()
	if err != nil {
		logger.Error("Extraction failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Extraction complete",
		slog.String("output", result.Path),
		slog.String("institutions", humanize.Comma(int64(len(result.Records)))),
		slog.String("rows_dropped", humanize.Comma(int64(result.Stats.DroppedTotal()))))
}
