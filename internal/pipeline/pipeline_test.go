package pipeline

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipedscli/internal/config"
	apperrors "ipedscli/internal/errors"
)

func writeCSV(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// writeSurveySnapshot lays down a minimal two-college survey release:
// College A (100654) with sticker 50000 and grant 10000, College B (100706)
// with sticker 20000 and grant 5000
func writeSurveySnapshot(t *testing.T, dir string) {
	t.Helper()
	writeCSV(t, dir, "HD2022.csv",
		"UNITID,INSTNM,CONTROL,ICLEVEL,HDEGOFR1",
		"100654,College A,1,1,11",
		"100706,College B,2,1,12")
	writeCSV(t, dir, "IC2022_AY.csv", "UNITID,TUITION2", "100654,50000", "100706,20000")
	writeCSV(t, dir, "SFA2122_P1.csv", "UNITID,IGRNT_A", "100654,10000", "100706,5000")
	writeCSV(t, dir, "SFA2122_P2.csv", "UNITID,NPT442", "100654,21000", "100706,14000")
	writeCSV(t, dir, "DRVGR2022.csv", "UNITID,GBA4RTT", "100654,90", "100706,70")
	writeCSV(t, dir, "ADM2022.csv", "UNITID,SATVR75,SATMT75", "100654,620,640", "100706,-2,-2")
	writeCSV(t, dir, "DRVADM2022.csv", "UNITID,DVADM01", "100654,45", "100706,-1")
	writeCSV(t, dir, "IC2022Mission.csv", "unitid,mission", "100654,Teach.", "100706,Learn.")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ReportsDir = filepath.Join(base, "reports")
	cfg.Paths.LogsDir = filepath.Join(base, "logs")
	require.NoError(t, os.MkdirAll(cfg.Paths.DataDir, 0755))

	// Open the screens so the tiny fixture survives cleaning
	cfg.Cleaning.NetPriceCap = 1e9
	cfg.Cleaning.MGIQuantile = 0
	cfg.Cleaning.MinSurvivors = 0

	cfg.Metric.GrantWeight = 1
	cfg.Metric.QualityWeight = 0
	cfg.Ranking.TopN = 2

	writeSurveySnapshot(t, cfg.Paths.DataDir)
	return cfg
}

func TestExtract(t *testing.T) {
	cfg := testConfig(t)

	var progressed int
	result, err := Extract(cfg, nil, func(string) { progressed++ })
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, 100654, result.Records[0].UnitID)
	assert.Equal(t, 100706, result.Records[1].UnitID)
	assert.Equal(t, 2, result.Stats.Input)
	assert.Equal(t, 2, result.Stats.Output)
	assert.Equal(t, 8, progressed)

	_, err = os.Stat(result.Path)
	assert.NoError(t, err)
	assert.Equal(t, CombinedPath(cfg), result.Path)
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)

	result, err := Run(cfg, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.Ranked.Len())

	// The cheaper generous college outranks the pricier one
	first := result.Ranked.Institutions[0]
	assert.Equal(t, 100706, first.UnitID)
	assert.Equal(t, "College B", first.Name)
	assert.InDelta(t, 0.25, first.Score, 1e-12)

	second := result.Ranked.Institutions[1]
	assert.Equal(t, 100654, second.UnitID)
	assert.InDelta(t, 0.20, second.Score, 1e-12)

	for _, path := range []string{result.RankedPath, result.Workbook, result.SummaryPath, result.SectorPath} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
}

func TestRun_Idempotent(t *testing.T) {
	cfg := testConfig(t)

	first, err := Run(cfg, nil, nil)
	require.NoError(t, err)
	rankedA, err := os.ReadFile(first.RankedPath)
	require.NoError(t, err)
	summaryA, err := os.ReadFile(first.SummaryPath)
	require.NoError(t, err)

	second, err := Run(cfg, nil, nil)
	require.NoError(t, err)
	rankedB, err := os.ReadFile(second.RankedPath)
	require.NoError(t, err)
	summaryB, err := os.ReadFile(second.SummaryPath)
	require.NoError(t, err)

	assert.Equal(t, first.Ranked, second.Ranked)
	assert.Equal(t, rankedA, rankedB)
	assert.Equal(t, summaryA, summaryB)
}

func TestAnalyze_PartialRankingWhenNotStrict(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ranking.TopN = 20

	extracted, err := Extract(cfg, nil, nil)
	require.NoError(t, err)

	result, err := Analyze(extracted.Records, extracted.Stats, cfg, nil)
	require.Error(t, err)

	var insErr *apperrors.InsufficientDataError
	require.True(t, stderrors.As(err, &insErr))
	assert.Equal(t, 20, insErr.Requested)
	assert.Equal(t, 2, insErr.Produced)

	// Artifacts are still written for the partial ranking
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Ranked.Len())
	_, statErr := os.Stat(result.RankedPath)
	assert.NoError(t, statErr)
}

func TestAnalyze_StrictAbortsOnShortfall(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ranking.TopN = 20
	cfg.Ranking.Strict = true

	extracted, err := Extract(cfg, nil, nil)
	require.NoError(t, err)

	result, err := Analyze(extracted.Records, extracted.Stats, cfg, nil)
	require.Error(t, err)
	assert.Nil(t, result)

	var insErr *apperrors.InsufficientDataError
	assert.True(t, stderrors.As(err, &insErr))
}

func TestExtract_MissingTableFails(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.DataDir, "SFA2122_P1.csv")))

	_, err := Extract(cfg, nil, nil)
	require.Error(t, err)

	var loadErr *apperrors.LoadError
	assert.True(t, stderrors.As(err, &loadErr))
}
