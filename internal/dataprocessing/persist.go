package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ipedscli/internal/errors"
)

// combinedHeader is the fixed column order of the combined institution
// dataset, the flat-file interface between the extract and analyze units
var combinedHeader = []string{
	"UNITID",
	"INSTNM",
	"CONTROL",
	"Sticker_Price",
	"Avg_Inst_Grant",
	"Net_Price_MidClass",
	"Graduation_Rate_4yr",
	"Admissions_Rate",
	"SATVR75",
	"SATMT75",
	"MISSION",
}

// SaveCombinedCSV writes the cleaned institution dataset to a CSV file.
// Unknown measures are written as empty cells; floats round-trip exactly.
func SaveCombinedCSV(records []InstitutionRecord, outputPath string) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to save")
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

	if err := writer.Write(combinedHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.UnitID),
			rec.Name,
			strconv.Itoa(rec.Control),
			rec.StickerPrice.String(),
			rec.AvgInstGrant.String(),
			rec.NetPriceMid.String(),
			rec.GradRate4yr.String(),
			rec.AdmissionRate.String(),
			rec.SATVerbal75.String(),
			rec.SATMath75.String(),
			rec.Mission,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV record for UNITID %d: %w", rec.UnitID, err)
		}
	}

	return writer.Error()
}

// LoadCombinedCSV reads a combined institution dataset written by
// SaveCombinedCSV. Unknown measures are empty cells.
func LoadCombinedCSV(path string) ([]InstitutionRecord, error) {
	rows, idx, err := readTable(TableCombined, path, combinedHeader...)
	if err != nil {
		return nil, err
	}

	records := make([]InstitutionRecord, 0, len(rows))
	for i, row := range rows {
		unitID, ok := parseUnitID(row[idx["UNITID"]])
		if !ok {
			return nil, errors.NewLoadError(TableCombined, path,
				fmt.Sprintf("row %d: invalid UNITID %q", i+2, row[idx["UNITID"]]), nil)
		}

		records = append(records, InstitutionRecord{
			UnitID:        unitID,
			Name:          row[idx["INSTNM"]],
			Control:       parseIntCode(row[idx["CONTROL"]]),
			StickerPrice:  parseMeasure(row[idx["Sticker_Price"]]),
			AvgInstGrant:  parseMeasure(row[idx["Avg_Inst_Grant"]]),
			NetPriceMid:   parseMeasure(row[idx["Net_Price_MidClass"]]),
			GradRate4yr:   parseMeasure(row[idx["Graduation_Rate_4yr"]]),
			AdmissionRate: parseMeasure(row[idx["Admissions_Rate"]]),
			SATVerbal75:   parseMeasure(row[idx["SATVR75"]]),
			SATMath75:     parseMeasure(row[idx["SATMT75"]]),
			Mission:       row[idx["MISSION"]],
		})
	}

	return records, nil
}
