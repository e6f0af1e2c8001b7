// Command merit-report reads the combined institution dataset produced by
// processor, computes Merit Generosity Index composite scores, ranks the
// institutions and emits the report artifacts: the rankings CSV, the XLSX
// workbook with a score chart, and a plain-text run summary.
package main

import (
	stderrors "errors"
	"flag"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"ipedscli/internal/config"
	"ipedscli/internal/dataprocessing"
	apperrors "ipedscli/internal/errors"
	"ipedscli/internal/infrastructure"
	"ipedscli/internal/pipeline"
)

func main() {
	outputDir := flag.String("out", "", "output directory for report artifacts (defaults to configured reports dir)")
	topN := flag.Int("top", 0, "number of institutions to rank (defaults to configured top-N)")
	grantWeight := flag.Float64("grant-weight", -1, "weight of the aid ratio in the composite score")
	qualityWeight := flag.Float64("quality-weight", -1, "weight of the quality signal in the composite score")
	normalize := flag.Bool("normalize", false, "min-max scale composite scores to [0,1]")
	strict := flag.Bool("strict", false, "abort instead of emitting a partial ranking")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg, *outputDir, *topN, *grantWeight, *qualityWeight, *normalize, *strict)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()
	logger = infrastructure.NewRunLogger(logger)

	combinedPath := pipeline.CombinedPath(cfg)
	if _, err := os.Stat(combinedPath); os.IsNotExist(err) {
		logger.Error("Combined dataset not found",
			slog.String("path", combinedPath),
			slog.String("hint", "run processor first to generate the combined dataset"))
		os.Exit(1)
	}

	logger.Info("Loading combined dataset", slog.String("path", combinedPath))
	records, err := dataprocessing.LoadCombinedCSV(combinedPath)
	if err != nil {
		logger.Error("Failed to load combined dataset", slog.Any("error", err))
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Error("Combined dataset is empty",
			slog.String("path", combinedPath),
			slog.String("hint", "check the processor output"))
		os.Exit(1)
	}
	logger.Info("Loaded combined dataset",
		slog.String("institutions", humanize.Comma(int64(len(records)))))

	result, err := pipeline.Analyze(records, nil, cfg, logger)
	if err != nil {
		var insErr *apperrors.InsufficientDataError
		if result != nil && stderrors.As(err, &insErr) {
			logger.Warn("Ranked fewer institutions than requested",
				slog.Int("requested", insErr.Requested),
				slog.Int("produced", insErr.Produced))
		} else {
			logger.Error("Analysis failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	logger.Info("Report complete",
		slog.String("rankings", result.RankedPath),
		slog.String("workbook", result.Workbook),
		slog.String("summary", result.SummaryPath),
		slog.Int("institutions", result.Ranked.Len()))
}

// applyFlags overlays explicitly set command-line flags on the loaded
// configuration. Weight flags use -1 as the unset marker since zero is a
// meaningful weight.
func applyFlags(cfg *config.Config, outputDir string, topN int, grantWeight, qualityWeight float64, normalize, strict bool) {
	if outputDir != "" {
		cfg.Paths.ReportsDir = outputDir
	}
	if topN > 0 {
		cfg.Ranking.TopN = topN
	}
	if grantWeight >= 0 {
		cfg.Metric.GrantWeight = grantWeight
	}
	if qualityWeight >= 0 {
		cfg.Metric.QualityWeight = qualityWeight
	}
	if normalize {
		cfg.Metric.Normalize = true
	}
	if strict {
		cfg.Ranking.Strict = true
	}
}
