package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipedscli/internal/dataprocessing"
	"ipedscli/internal/merit"
)

func sectorFixture() *merit.RankedList {
	mk := func(unitID, control, rank int, name string, mgi, score float64) merit.ScoredInstitution {
		return merit.ScoredInstitution{
			InstitutionRecord: dataprocessing.InstitutionRecord{
				UnitID:  unitID,
				Name:    name,
				Control: control,
			},
			MGI:   mgi,
			Score: score,
			Rank:  rank,
		}
	}
	return &merit.RankedList{
		Institutions: []merit.ScoredInstitution{
			mk(100, ControlPrivateNonprofit, 1, "Alpha College", 0.5, 0.9),
			mk(200, ControlPublic, 2, "Beta University", 0.3, 0.6),
			mk(300, ControlPrivateNonprofit, 3, "Gamma College", 0.3, 0.5),
			mk(400, ControlPublic, 4, "Delta University", 0.1, 0.2),
		},
		Requested: 4,
	}
}

func TestGenerateSectorSummaries(t *testing.T) {
	exp := NewSectorExporter(t.TempDir())
	summaries := exp.GenerateSectorSummaries(sectorFixture())

	require.Len(t, summaries, 2)

	public := summaries[0]
	assert.Equal(t, ControlPublic, public.Control)
	assert.Equal(t, "Public", public.SectorName)
	assert.Equal(t, 2, public.Institutions)
	assert.InDelta(t, 0.2, public.AvgMGI, 1e-12)
	assert.InDelta(t, 0.4, public.AvgScore, 1e-12)
	assert.Equal(t, 2, public.BestRank)
	assert.Equal(t, "Beta University", public.BestName)

	private := summaries[1]
	assert.Equal(t, ControlPrivateNonprofit, private.Control)
	assert.Equal(t, 2, private.Institutions)
	assert.InDelta(t, 0.4, private.AvgMGI, 1e-12)
	assert.Equal(t, 1, private.BestRank)
	assert.Equal(t, "Alpha College", private.BestName)
}

func TestExportSectorSummary(t *testing.T) {
	dir := t.TempDir()
	exp := NewSectorExporter(dir)

	summaries := exp.GenerateSectorSummaries(sectorFixture())
	require.NoError(t, exp.ExportSectorSummary(summaries, "sector_summary.csv"))

	content, err := os.ReadFile(filepath.Join(dir, "sector_summary.csv"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))

	rows, err := csv.NewReader(bytes.NewReader(content[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Control", rows[0][0])
	assert.Equal(t, []string{"1", "Public", "2", "0.2000", "0.4000", "2", "Beta University"}, rows[1])
	assert.Equal(t, "Private nonprofit", rows[2][1])
}
