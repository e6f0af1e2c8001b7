package merit

import (
	"fmt"
	"log/slog"

	"ipedscli/internal/dataprocessing"
	"ipedscli/internal/errors"
)

// Calculator computes the Merit Generosity Index composite score for
// cleaned institution records
type Calculator struct {
	weights Weights
	logger  *slog.Logger
}

// NewCalculator creates a calculator with the given weights
func NewCalculator(weights Weights, logger *slog.Logger) (*Calculator, error) {
	if !weights.IsValid() {
		return nil, fmt.Errorf("invalid weights: grant=%.3f quality=%.3f", weights.Grant, weights.Quality)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{weights: weights, logger: logger}, nil
}

// Score computes metrics for every record. Any record with a non-numeric or
// out-of-range required field fails the whole computation; ranking validity
// depends on every score being trustworthy, so there is no best-effort skip.
func (c *Calculator) Score(records []dataprocessing.InstitutionRecord) ([]ScoredInstitution, error) {
	scored := make([]ScoredInstitution, 0, len(records))
	for _, rec := range records {
		s, err := scoreRecord(rec, c.weights)
		if err != nil {
			c.logger.Error("metric computation failed",
				slog.Int("unitid", rec.UnitID),
				slog.String("institution", rec.Name),
				slog.Any("error", err))
			return nil, err
		}
		scored = append(scored, s)
	}

	if c.weights.Normalize {
		normalizeScores(scored)
	}

	c.logger.Info("computed composite scores",
		slog.Int("institutions", len(scored)),
		slog.Float64("grant_weight", c.weights.Grant),
		slog.Float64("quality_weight", c.weights.Quality),
		slog.Bool("normalized", c.weights.Normalize))

	return scored, nil
}

// scoreRecord is the pure scoring function: same inputs, same score
func scoreRecord(rec dataprocessing.InstitutionRecord, w Weights) (ScoredInstitution, error) {
	if !rec.StickerPrice.Known {
		return ScoredInstitution{}, errors.NewComputationError(rec.UnitID, "sticker_price", "value unknown")
	}
	if rec.StickerPrice.Val <= 0 {
		return ScoredInstitution{}, errors.NewComputationError(rec.UnitID, "sticker_price",
			fmt.Sprintf("must be positive, got %g", rec.StickerPrice.Val))
	}
	if !rec.AvgInstGrant.Known {
		return ScoredInstitution{}, errors.NewComputationError(rec.UnitID, "avg_inst_grant", "value unknown")
	}
	if rec.AvgInstGrant.Val < 0 {
		return ScoredInstitution{}, errors.NewComputationError(rec.UnitID, "avg_inst_grant",
			fmt.Sprintf("must be non-negative, got %g", rec.AvgInstGrant.Val))
	}
	if !rec.NetPriceMid.Known {
		return ScoredInstitution{}, errors.NewComputationError(rec.UnitID, "net_price_mid", "value unknown")
	}
	if rec.NetPriceMid.Val < 0 {
		return ScoredInstitution{}, errors.NewComputationError(rec.UnitID, "net_price_mid",
			fmt.Sprintf("must be non-negative, got %g", rec.NetPriceMid.Val))
	}
	if !rec.GradRate4yr.Known {
		return ScoredInstitution{}, errors.NewComputationError(rec.UnitID, "grad_rate_4yr", "value unknown")
	}
	if rec.GradRate4yr.Val < 0 || rec.GradRate4yr.Val > 1 {
		return ScoredInstitution{}, errors.NewComputationError(rec.UnitID, "grad_rate_4yr",
			fmt.Sprintf("must be within [0,1], got %g", rec.GradRate4yr.Val))
	}
	if rec.AdmissionRate.Known && (rec.AdmissionRate.Val < 0 || rec.AdmissionRate.Val > 1) {
		return ScoredInstitution{}, errors.NewComputationError(rec.UnitID, "admission_rate",
			fmt.Sprintf("must be within [0,1], got %g", rec.AdmissionRate.Val))
	}

	mgi := rec.AvgInstGrant.Val / rec.StickerPrice.Val
	quality := qualitySignal(rec)

	return ScoredInstitution{
		InstitutionRecord: rec,
		MGI:               mgi,
		Quality:           quality,
		NetPriceRatio:     rec.NetPriceMid.Val / rec.StickerPrice.Val,
		Score:             w.Grant*mgi + w.Quality*quality,
	}, nil
}

// qualitySignal derives the 0-1 quality adjustment from the graduation
// rate and the selectivity proxy. A lower admission rate means a more
// selective institution, so selectivity enters as its complement. When the
// admission rate is unknown the graduation rate stands alone.
func qualitySignal(rec dataprocessing.InstitutionRecord) float64 {
	if !rec.AdmissionRate.Known {
		return rec.GradRate4yr.Val
	}
	return (rec.GradRate4yr.Val + (1 - rec.AdmissionRate.Val)) / 2
}

// normalizeScores min-max scales composite scores to [0,1] in place. A
// degenerate dataset where every score is identical is left unscaled;
// scaling is monotonic either way, so ranking order never changes.
func normalizeScores(scored []ScoredInstitution) {
	if len(scored) == 0 {
		return
	}

	minScore, maxScore := scored[0].Score, scored[0].Score
	for _, s := range scored[1:] {
		if s.Score < minScore {
			minScore = s.Score
		}
		if s.Score > maxScore {
			maxScore = s.Score
		}
	}

	if maxScore == minScore {
		return
	}

	span := maxScore - minScore
	for i := range scored {
		scored[i].Score = (scored[i].Score - minScore) / span
	}
}
