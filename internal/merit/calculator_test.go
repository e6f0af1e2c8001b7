package merit

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipedscli/internal/dataprocessing"
	apperrors "ipedscli/internal/errors"
)

// institution builds a record with all metric-required fields populated
func institution(unitID int, sticker, grant, netPrice, gradRate float64) dataprocessing.InstitutionRecord {
	return dataprocessing.InstitutionRecord{
		UnitID:       unitID,
		Name:         "Test College",
		StickerPrice: dataprocessing.Known(sticker),
		AvgInstGrant: dataprocessing.Known(grant),
		NetPriceMid:  dataprocessing.Known(netPrice),
		GradRate4yr:  dataprocessing.Known(gradRate),
	}
}

func TestNewCalculator_RejectsInvalidWeights(t *testing.T) {
	_, err := NewCalculator(Weights{Grant: 0, Quality: 0}, nil)
	assert.Error(t, err)

	_, err = NewCalculator(Weights{Grant: -1, Quality: 1}, nil)
	assert.Error(t, err)

	calc, err := NewCalculator(DefaultWeights(), nil)
	require.NoError(t, err)
	assert.NotNil(t, calc)
}

func TestScore_GrantWeightOnly(t *testing.T) {
	// Worked example: A (grant 10000, price 50000, grad 0.9) scores 0.20,
	// B (grant 5000, price 20000, grad 0.7) scores 0.25
	calc, err := NewCalculator(Weights{Grant: 1, Quality: 0}, nil)
	require.NoError(t, err)

	scored, err := calc.Score([]dataprocessing.InstitutionRecord{
		institution(1, 50000, 10000, 21000, 0.9), // A
		institution(2, 20000, 5000, 14000, 0.7),  // B
	})
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.InDelta(t, 0.20, scored[0].Score, 1e-12)
	assert.InDelta(t, 0.25, scored[1].Score, 1e-12)
}

func TestScore_QualitySignal(t *testing.T) {
	calc, err := NewCalculator(Weights{Grant: 0, Quality: 1}, nil)
	require.NoError(t, err)

	withSelectivity := institution(1, 50000, 10000, 21000, 0.9)
	withSelectivity.AdmissionRate = dataprocessing.Known(0.3)

	withoutSelectivity := institution(2, 50000, 10000, 21000, 0.9)

	scored, err := calc.Score([]dataprocessing.InstitutionRecord{withSelectivity, withoutSelectivity})
	require.NoError(t, err)

	// (0.9 + (1-0.3)) / 2 = 0.8 with selectivity; bare graduation rate without
	assert.InDelta(t, 0.8, scored[0].Score, 1e-12)
	assert.InDelta(t, 0.9, scored[1].Score, 1e-12)
}

func TestScore_DerivedFields(t *testing.T) {
	calc, err := NewCalculator(DefaultWeights(), nil)
	require.NoError(t, err)

	scored, err := calc.Score([]dataprocessing.InstitutionRecord{
		institution(1, 40000, 10000, 20000, 0.8),
	})
	require.NoError(t, err)
	require.Len(t, scored, 1)

	assert.InDelta(t, 0.25, scored[0].MGI, 1e-12)
	assert.InDelta(t, 0.5, scored[0].NetPriceRatio, 1e-12)
	assert.InDelta(t, 0.8, scored[0].Quality, 1e-12)
	// grant_weight*MGI + quality_weight*quality = 1*0.25 + 0.5*0.8
	assert.InDelta(t, 0.65, scored[0].Score, 1e-12)
}

func TestScore_Determinism(t *testing.T) {
	calc, err := NewCalculator(DefaultWeights(), nil)
	require.NoError(t, err)

	records := []dataprocessing.InstitutionRecord{
		institution(1, 50000, 10000, 21000, 0.9),
		institution(2, 20000, 5000, 14000, 0.7),
	}

	first, err := calc.Score(records)
	require.NoError(t, err)
	second, err := calc.Score(records)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScore_ComputationErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*dataprocessing.InstitutionRecord)
		wantField string
	}{
		{
			name:      "zero sticker price",
			mutate:    func(r *dataprocessing.InstitutionRecord) { r.StickerPrice = dataprocessing.Known(0) },
			wantField: "sticker_price",
		},
		{
			name:      "negative sticker price",
			mutate:    func(r *dataprocessing.InstitutionRecord) { r.StickerPrice = dataprocessing.Known(-100) },
			wantField: "sticker_price",
		},
		{
			name:      "unknown sticker price",
			mutate:    func(r *dataprocessing.InstitutionRecord) { r.StickerPrice = dataprocessing.Unknown },
			wantField: "sticker_price",
		},
		{
			name:      "negative grant",
			mutate:    func(r *dataprocessing.InstitutionRecord) { r.AvgInstGrant = dataprocessing.Known(-1) },
			wantField: "avg_inst_grant",
		},
		{
			name:      "unknown net price",
			mutate:    func(r *dataprocessing.InstitutionRecord) { r.NetPriceMid = dataprocessing.Unknown },
			wantField: "net_price_mid",
		},
		{
			name:      "graduation rate above one",
			mutate:    func(r *dataprocessing.InstitutionRecord) { r.GradRate4yr = dataprocessing.Known(1.5) },
			wantField: "grad_rate_4yr",
		},
		{
			name:      "admission rate out of range",
			mutate:    func(r *dataprocessing.InstitutionRecord) { r.AdmissionRate = dataprocessing.Known(68) },
			wantField: "admission_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := NewCalculator(DefaultWeights(), nil)
			require.NoError(t, err)

			rec := institution(42, 50000, 10000, 21000, 0.9)
			tt.mutate(&rec)

			_, err = calc.Score([]dataprocessing.InstitutionRecord{rec})
			require.Error(t, err)

			var compErr *apperrors.ComputationError
			require.True(t, stderrors.As(err, &compErr))
			assert.Equal(t, 42, compErr.UnitID)
			assert.Equal(t, tt.wantField, compErr.Field)
		})
	}
}

func TestScore_Normalization(t *testing.T) {
	weights := Weights{Grant: 1, Quality: 0, Normalize: true}
	calc, err := NewCalculator(weights, nil)
	require.NoError(t, err)

	scored, err := calc.Score([]dataprocessing.InstitutionRecord{
		institution(1, 50000, 10000, 21000, 0.9), // raw 0.20
		institution(2, 20000, 5000, 14000, 0.7),  // raw 0.25
		institution(3, 40000, 18000, 20000, 0.8), // raw 0.45
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, scored[0].Score, 1e-12)
	assert.InDelta(t, 0.2, scored[1].Score, 1e-12)
	assert.InDelta(t, 1.0, scored[2].Score, 1e-12)
}

func TestScore_NormalizationDegenerate(t *testing.T) {
	weights := Weights{Grant: 1, Quality: 0, Normalize: true}
	calc, err := NewCalculator(weights, nil)
	require.NoError(t, err)

	scored, err := calc.Score([]dataprocessing.InstitutionRecord{
		institution(1, 50000, 10000, 21000, 0.9),
		institution(2, 25000, 5000, 14000, 0.7), // identical 0.2 ratio
	})
	require.NoError(t, err)

	// All-equal scores are left unscaled rather than divided by zero
	assert.InDelta(t, 0.2, scored[0].Score, 1e-12)
	assert.InDelta(t, 0.2, scored[1].Score, 1e-12)
}

func TestScore_EmptyInput(t *testing.T) {
	calc, err := NewCalculator(DefaultWeights(), nil)
	require.NoError(t, err)

	scored, err := calc.Score(nil)
	require.NoError(t, err)
	assert.Empty(t, scored)
}
