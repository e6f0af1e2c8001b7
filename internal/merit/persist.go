package merit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ipedscli/internal/dataprocessing"
)

// rankedHeader is the fixed column order of the ranked output, the archival
// artifact consumed by the report emitter
var rankedHeader = []string{
	"Rank",
	"UNITID",
	"INSTNM",
	"CONTROL",
	"Sticker_Price",
	"Avg_Inst_Grant",
	"Net_Price_MidClass",
	"MGI",
	"Graduation_Rate_4yr",
	"Admissions_Rate",
	"SATVR75",
	"SATMT75",
	"NET_PRICE_RATIO",
	"Composite_Score",
	"MISSION",
}

// SaveToCSV writes the ranked list to a CSV file with a deterministic
// column order
func SaveToCSV(list *RankedList, outputPath string) error {
	if list == nil || list.Len() == 0 {
		return fmt.Errorf("no ranked institutions to save")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(rankedHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, inst := range list.Institutions {
		if err := writer.Write(formatRankedRecord(inst)); err != nil {
			return fmt.Errorf("write CSV record for UNITID %d: %w", inst.UnitID, err)
		}
	}

	return writer.Error()
}

// formatRankedRecord converts a ScoredInstitution to a CSV record
func formatRankedRecord(inst ScoredInstitution) []string {
	return []string{
		strconv.Itoa(inst.Rank),
		strconv.Itoa(inst.UnitID),
		inst.Name,
		strconv.Itoa(inst.Control),
		formatMoney(inst.StickerPrice),
		formatMoney(inst.AvgInstGrant),
		formatMoney(inst.NetPriceMid),
		formatFloat(inst.MGI, 4),
		formatFloat(inst.GradRate4yr.Val, 4),
		formatMeasure(inst.AdmissionRate, 4),
		formatMeasure(inst.SATVerbal75, 0),
		formatMeasure(inst.SATMath75, 0),
		formatFloat(inst.NetPriceRatio, 4),
		formatFloat(inst.Score, 4),
		inst.Mission,
	}
}

// SaveSummaryReport writes a plain-text run summary next to the CSV
// artifact. The report carries no timestamps so re-running the pipeline on
// identical input reproduces it byte for byte.
func SaveSummaryReport(list *RankedList, stats *dataprocessing.CleanStats, weights Weights, outputPath string) error {
	if list == nil || list.Len() == 0 {
		return fmt.Errorf("no ranked institutions to summarize")
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "=== MERIT GENEROSITY INDEX - RUN SUMMARY ===")
	fmt.Fprintf(file, "Weights: grant=%.2f quality=%.2f normalize=%t\n",
		weights.Grant, weights.Quality, weights.Normalize)
	fmt.Fprintf(file, "Institutions ranked: %d of %d requested\n", list.Len(), list.Requested)

	if stats != nil {
		fmt.Fprintf(file, "Cleaned dataset: %d in, %d out, %d dropped (%d missing fields, %d screened)\n",
			stats.Input, stats.Output, stats.DroppedTotal(),
			stats.DroppedTotal()-stats.DroppedByScreen, stats.DroppedByScreen)
		if stats.Relaxed {
			fmt.Fprintln(file, "Note: affordability screens were relaxed to reach the minimum survivor count")
		}
	}

	fmt.Fprintln(file)
	fmt.Fprintln(file, "Rank | UNITID | Institution | MGI | Grad Rate | Score")
	fmt.Fprintln(file, "-----|--------|-------------|-----|-----------|------")
	for _, inst := range list.Institutions {
		name := inst.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(file, "%4d | %6d | %-40s | %.4f | %.4f | %.4f\n",
			inst.Rank, inst.UnitID, name, inst.MGI, inst.GradRate4yr.Val, inst.Score)
	}

	return nil
}

// formatFloat formats a float64 for CSV output with fixed precision
func formatFloat(value float64, precision int) string {
	return strconv.FormatFloat(value, 'f', precision, 64)
}

// formatMoney formats a currency measure without decimals
func formatMoney(m dataprocessing.Measure) string {
	if !m.Known {
		return ""
	}
	return strconv.FormatFloat(m.Val, 'f', 0, 64)
}

// formatMeasure formats an optional measure, empty when unknown
func formatMeasure(m dataprocessing.Measure, precision int) string {
	if !m.Known {
		return ""
	}
	return strconv.FormatFloat(m.Val, 'f', precision, 64)
}
