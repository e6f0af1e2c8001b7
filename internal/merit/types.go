package merit

import (
	"ipedscli/internal/config"
	"ipedscli/internal/dataprocessing"
)

// Weights contains the recognized weighting options for the composite score
type Weights struct {
	Grant     float64 `json:"grant"`     // contribution of the aid ratio (MGI)
	Quality   float64 `json:"quality"`   // contribution of the graduation/selectivity signal
	Normalize bool    `json:"normalize"` // min-max scale composite scores to [0,1]
}

// DefaultWeights returns the documented default weighting
func DefaultWeights() Weights {
	return Weights{
		Grant:     1.0,
		Quality:   0.5,
		Normalize: false,
	}
}

// WeightsFromConfig converts the configuration section into Weights
func WeightsFromConfig(cfg config.MetricConfig) Weights {
	return Weights{
		Grant:     cfg.GrantWeight,
		Quality:   cfg.QualityWeight,
		Normalize: cfg.Normalize,
	}
}

// IsValid checks that the weights describe a usable composite
func (w Weights) IsValid() bool {
	return w.Grant >= 0 && w.Quality >= 0 && w.Grant+w.Quality > 0
}

// ScoredInstitution is an institution record with its computed metrics
type ScoredInstitution struct {
	dataprocessing.InstitutionRecord

	MGI           float64 `json:"mgi"`             // grant / sticker price
	Quality       float64 `json:"quality"`         // graduation/selectivity signal, 0-1
	NetPriceRatio float64 `json:"net_price_ratio"` // net price / sticker price
	Score         float64 `json:"score"`           // composite score
	Rank          int     `json:"rank"`            // 1-based position, assigned by the ranker
}

// RankedList is the terminal, immutable output of the pipeline: scored
// institutions descending by score, capped at the requested top-N. Once
// built it is only consumed, never mutated.
type RankedList struct {
	Institutions []ScoredInstitution `json:"institutions"`
	Requested    int                 `json:"requested"`
}

// Len returns the number of institutions produced
func (l *RankedList) Len() int {
	return len(l.Institutions)
}
