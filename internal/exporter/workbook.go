package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"ipedscli/internal/dataprocessing"
	"ipedscli/internal/merit"
)

const rankingsSheet = "Rankings"

// chartTopN caps the bar chart; beyond this the labels become unreadable
const chartTopN = 10

// WorkbookBuilder produces the XLSX companion report for a ranked list
type WorkbookBuilder struct {
	logger *slog.Logger
}

// NewWorkbookBuilder creates a workbook builder
func NewWorkbookBuilder(logger *slog.Logger) *WorkbookBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookBuilder{logger: logger}
}

// Build writes the ranked list to an XLSX workbook with a rankings sheet
// and a composite-score bar chart
func (b *WorkbookBuilder) Build(list *merit.RankedList, outputPath string) error {
	if list == nil || list.Len() == 0 {
		return fmt.Errorf("no ranked institutions to export")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rankingsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := []interface{}{
		"Rank", "UNITID", "Institution", "Control",
		"Sticker Price", "Avg Inst Grant", "Net Price (Mid)",
		"MGI", "Grad Rate 4yr", "Admissions Rate",
		"SAT Verbal 75", "SAT Math 75",
		"Net Price Ratio", "Composite Score", "Mission",
	}
	if err := f.SetSheetRow(rankingsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, inst := range list.Institutions {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			inst.Rank,
			inst.UnitID,
			inst.Name,
			inst.Control,
			measureCell(inst.StickerPrice),
			measureCell(inst.AvgInstGrant),
			measureCell(inst.NetPriceMid),
			inst.MGI,
			measureCell(inst.GradRate4yr),
			measureCell(inst.AdmissionRate),
			measureCell(inst.SATVerbal75),
			measureCell(inst.SATMath75),
			inst.NetPriceRatio,
			inst.Score,
			inst.Mission,
		}
		if err := f.SetSheetRow(rankingsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(rankingsSheet, "C", "C", 42); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(rankingsSheet, "O", "O", 60); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := b.addScoreChart(f, list.Len()); err != nil {
		return err
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	b.logger.Info("wrote XLSX report",
		slog.String("path", outputPath),
		slog.Int("institutions", list.Len()))

	return nil
}

// addScoreChart draws a horizontal bar chart of composite scores for the
// top chart rows
func (b *WorkbookBuilder) addScoreChart(f *excelize.File, rows int) error {
	chartRows := rows
	if chartRows > chartTopN {
		chartRows = chartTopN
	}

	chart := &excelize.Chart{
		Type: excelize.Bar,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$N$1", rankingsSheet),
				Categories: fmt.Sprintf("%s!$C$2:$C$%d", rankingsSheet, chartRows+1),
				Values:     fmt.Sprintf("%s!$N$2:$N$%d", rankingsSheet, chartRows+1),
			},
		},
		Title: []excelize.RichTextRun{
			{Text: "Top Institutions by Composite Score"},
		},
		Legend: excelize.ChartLegend{
			Position: "none",
		},
		PlotArea: excelize.ChartPlotArea{
			ShowVal: true,
		},
	}

	if err := f.AddChart(rankingsSheet, "Q2", chart); err != nil {
		return fmt.Errorf("failed to add score chart: %w", err)
	}
	return nil
}

// measureCell converts an optional measure into a cell value; unknown
// measures become empty cells rather than misleading zeros
func measureCell(m dataprocessing.Measure) interface{} {
	if !m.Known {
		return nil
	}
	return m.Val
}
