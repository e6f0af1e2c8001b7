// Package pipeline wires the processing stages into the two pipeline runs:
// extraction (load, merge, clean, persist the combined dataset) and analysis
// (score, rank, emit reports). The stages communicate through the combined
// CSV so each run can be repeated independently.
package pipeline

import (
	stderrors "errors"
	"log/slog"
	"path/filepath"

	"ipedscli/internal/config"
	"ipedscli/internal/dataprocessing"
	"ipedscli/internal/errors"
	"ipedscli/internal/exporter"
	"ipedscli/internal/merit"
)

// Fixed artifact names; re-runs overwrite in place so downstream consumers
// always find the latest result at the same path
const (
	CombinedFileName = "combined_college_data.csv"
	RankedFileName   = "final_merit_college_rankings.csv"
	WorkbookFileName = "merit_college_rankings.xlsx"
	SummaryFileName  = "merit_rankings_summary.txt"
	SectorFileName   = "merit_sector_summary.csv"
)

// CombinedPath returns the location of the combined dataset artifact
func CombinedPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, CombinedFileName)
}

// ExtractResult carries the extraction artifacts for callers that report
// on the run
type ExtractResult struct {
	Records []dataprocessing.InstitutionRecord
	Stats   *dataprocessing.CleanStats
	Path    string
}

// Extract loads the raw survey tables, merges them on UNITID, cleans the
// merged dataset and persists it as the combined CSV.
func Extract(cfg *config.Config, logger *slog.Logger, progress dataprocessing.ProgressFunc) (*ExtractResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tables, err := dataprocessing.LoadTables(cfg.Paths.DataDir, logger, progress)
	if err != nil {
		return nil, err
	}

	merged, err := dataprocessing.Merge(tables, logger)
	if err != nil {
		return nil, err
	}

	cleaned, stats, err := dataprocessing.Clean(merged, cfg.Cleaning, logger)
	if err != nil {
		return nil, err
	}

	outPath := CombinedPath(cfg)
	if err := dataprocessing.SaveCombinedCSV(cleaned, outPath); err != nil {
		return nil, err
	}

	logger.Info("extraction complete",
		slog.String("output", outPath),
		slog.Int("institutions", len(cleaned)))

	return &ExtractResult{Records: cleaned, Stats: stats, Path: outPath}, nil
}

// AnalyzeResult carries the analysis artifacts
type AnalyzeResult struct {
	Ranked      *merit.RankedList
	RankedPath  string
	Workbook    string
	SummaryPath string
	SectorPath  string
}

// Analyze scores the cleaned dataset, ranks it and emits the report
// artifacts under the reports directory.
//
// When fewer institutions survive than the configured top-N and strict mode
// is off, the partial ranking is still emitted and the InsufficientDataError
// is returned alongside the result so the caller can warn.
func Analyze(records []dataprocessing.InstitutionRecord, stats *dataprocessing.CleanStats, cfg *config.Config, logger *slog.Logger) (*AnalyzeResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	weights := merit.WeightsFromConfig(cfg.Metric)
	calc, err := merit.NewCalculator(weights, logger)
	if err != nil {
		return nil, err
	}

	scored, err := calc.Score(records)
	if err != nil {
		return nil, err
	}

	ranked, rankErr := merit.Rank(scored, cfg.Ranking.TopN, logger)
	if rankErr != nil {
		var insErr *errors.InsufficientDataError
		if !stderrors.As(rankErr, &insErr) || cfg.Ranking.Strict || ranked == nil || ranked.Len() == 0 {
			return nil, rankErr
		}
		logger.Warn("proceeding with partial ranking",
			slog.Int("requested", insErr.Requested),
			slog.Int("produced", insErr.Produced))
	}

	result := &AnalyzeResult{
		Ranked:      ranked,
		RankedPath:  filepath.Join(cfg.Paths.ReportsDir, RankedFileName),
		Workbook:    filepath.Join(cfg.Paths.ReportsDir, WorkbookFileName),
		SummaryPath: filepath.Join(cfg.Paths.ReportsDir, SummaryFileName),
		SectorPath:  filepath.Join(cfg.Paths.ReportsDir, SectorFileName),
	}

	if err := merit.SaveToCSV(ranked, result.RankedPath); err != nil {
		return nil, err
	}
	if err := exporter.NewWorkbookBuilder(logger).Build(ranked, result.Workbook); err != nil {
		return nil, err
	}
	if err := merit.SaveSummaryReport(ranked, stats, weights, result.SummaryPath); err != nil {
		return nil, err
	}
	sectors := exporter.NewSectorExporter(cfg.Paths.ReportsDir)
	if err := sectors.ExportSectorSummary(sectors.GenerateSectorSummaries(ranked), SectorFileName); err != nil {
		return nil, err
	}

	logger.Info("analysis complete",
		slog.String("rankings", result.RankedPath),
		slog.Int("institutions", ranked.Len()))

	return result, rankErr
}

// Run executes the full pipeline end to end: extraction followed by
// analysis on the freshly combined dataset.
func Run(cfg *config.Config, logger *slog.Logger, progress dataprocessing.ProgressFunc) (*AnalyzeResult, error) {
	extracted, err := Extract(cfg, logger, progress)
	if err != nil {
		return nil, err
	}
	return Analyze(extracted.Records, extracted.Stats, cfg, logger)
}
