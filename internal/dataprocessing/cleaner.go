package dataprocessing

import (
	"log/slog"
	"math"
	"sort"

	"ipedscli/internal/config"
)

// CleanStats reports what the cleaner did. Dropped rows are counted, never
// silently swallowed.
type CleanStats struct {
	Input           int            `json:"input"`
	DroppedMissing  map[string]int `json:"dropped_missing"` // field -> rows dropped
	DroppedByScreen int            `json:"dropped_by_screen"`
	Relaxed         bool           `json:"relaxed"` // fallback screen was applied
	Output          int            `json:"output"`
}

// DroppedTotal returns the total number of rows removed by cleaning
func (s *CleanStats) DroppedTotal() int {
	total := s.DroppedByScreen
	for _, n := range s.DroppedMissing {
		total += n
	}
	return total
}

// Field labels for drop accounting
const (
	fieldStickerPrice = "sticker_price"
	fieldAvgGrant     = "avg_inst_grant"
	fieldNetPrice     = "net_price_mid"
	fieldGradRate     = "grad_rate_4yr"
)

// Clean drops rows missing metric-required fields, normalizes percentage
// fields to the 0-1 scale, and applies the affordability screens.
//
// Rows missing the sticker price, grant amount, net price, or graduation
// rate are dropped entirely; there is no imputation, since those fields
// directly drive the composite metric. Invalid numeric values (a zero
// sticker price, a rate above 100%) are NOT dropped here: they survive to
// the metric engine, whose contract is to fail the run with a computation
// error rather than rank silently-wrong output.
func Clean(records []InstitutionRecord, cfg config.CleaningConfig, logger *slog.Logger) ([]InstitutionRecord, *CleanStats, error) {
	if logger == nil {
		logger = slog.Default()
	}

	stats := &CleanStats{
		Input:          len(records),
		DroppedMissing: map[string]int{},
	}

	// Drop rows with missing required fields; the first missing field is
	// the one charged
	complete := make([]InstitutionRecord, 0, len(records))
	for _, rec := range records {
		switch {
		case !rec.StickerPrice.Known:
			stats.DroppedMissing[fieldStickerPrice]++
		case !rec.AvgInstGrant.Known:
			stats.DroppedMissing[fieldAvgGrant]++
		case !rec.NetPriceMid.Known:
			stats.DroppedMissing[fieldNetPrice]++
		case !rec.GradRate4yr.Known:
			stats.DroppedMissing[fieldGradRate]++
		default:
			complete = append(complete, normalizeUnits(rec))
		}
	}

	screened := applyScreens(complete, cfg, stats, logger)

	stats.Output = len(screened)
	logger.Info("cleaned merged dataset",
		slog.Int("input", stats.Input),
		slog.Int("output", stats.Output),
		slog.Int("dropped_missing", stats.Input-len(complete)),
		slog.Int("dropped_by_screen", stats.DroppedByScreen),
		slog.Bool("relaxed_screen", stats.Relaxed))

	return screened, stats, nil
}

// normalizeUnits coerces percentage fields published on the 0-100 scale to
// the 0-1 representation every downstream stage expects. Values already in
// [0,1] pass through untouched.
func normalizeUnits(rec InstitutionRecord) InstitutionRecord {
	rec.GradRate4yr = normalizeRate(rec.GradRate4yr)
	rec.AdmissionRate = normalizeRate(rec.AdmissionRate)
	return rec
}

// normalizeRate converts a percentage to a fraction when needed
func normalizeRate(m Measure) Measure {
	if m.Known && m.Val > 1 {
		return Known(m.Val / 100)
	}
	return m
}

// applyScreens filters to affordable, genuinely generous institutions: net
// price at or below the configured cap and an aid ratio at or above the
// configured quantile of the cleaned dataset. When fewer than MinSurvivors
// pass, the relaxed fallback screen is applied to the full cleaned set
// instead (net price within its lower quantile, aid ratio within its upper
// quantile).
func applyScreens(records []InstitutionRecord, cfg config.CleaningConfig, stats *CleanStats, logger *slog.Logger) []InstitutionRecord {
	if len(records) == 0 {
		return records
	}

	ratios := aidRatios(records)
	ratioFloor := quantile(ratios, cfg.MGIQuantile)

	passed := make([]InstitutionRecord, 0, len(records))
	for _, rec := range records {
		if rec.NetPriceMid.Val <= cfg.NetPriceCap && ratioAtLeast(rec, ratioFloor) {
			passed = append(passed, rec)
		}
	}

	if len(passed) < cfg.MinSurvivors {
		logger.Warn("too few institutions passed screens, relaxing",
			slog.Int("passed", len(passed)),
			slog.Int("min_survivors", cfg.MinSurvivors))

		netPrices := make([]float64, 0, len(records))
		for _, rec := range records {
			netPrices = append(netPrices, rec.NetPriceMid.Val)
		}
		priceCeil := quantile(netPrices, cfg.RelaxedNetPriceQuantile)
		relaxedFloor := quantile(ratios, cfg.RelaxedMGIQuantile)

		passed = passed[:0]
		for _, rec := range records {
			if rec.NetPriceMid.Val <= priceCeil && ratioAtLeast(rec, relaxedFloor) {
				passed = append(passed, rec)
			}
		}
		stats.Relaxed = true
	}

	stats.DroppedByScreen = len(records) - len(passed)
	return passed
}

// aidRatios returns the grant-to-sticker ratios where defined
func aidRatios(records []InstitutionRecord) []float64 {
	ratios := make([]float64, 0, len(records))
	for _, rec := range records {
		if rec.StickerPrice.Val > 0 {
			ratios = append(ratios, rec.AvgInstGrant.Val/rec.StickerPrice.Val)
		}
	}
	return ratios
}

// ratioAtLeast reports whether the record's aid ratio clears the floor.
// Records whose ratio is undefined (non-positive sticker price) pass the
// screen so the metric engine can report them instead of the cleaner
// hiding them.
func ratioAtLeast(rec InstitutionRecord, floor float64) bool {
	if rec.StickerPrice.Val <= 0 {
		return true
	}
	return rec.AvgInstGrant.Val/rec.StickerPrice.Val >= floor
}

// quantile computes the q-th quantile of values with linear interpolation.
// The input slice is not modified.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}
