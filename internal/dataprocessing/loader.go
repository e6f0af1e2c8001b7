package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"ipedscli/internal/errors"
)

// Default file name stems for each logical table, following the IPEDS
// 2022-23 snapshot naming. The loader accepts either .csv or .xlsx.
var defaultFileStems = map[string]string{
	TableDirectory:  "HD2022",
	TableTuition:    "IC2022_AY",
	TableGrants:     "SFA2122_P1",
	TableNetPrice:   "SFA2122_P2",
	TableGraduation: "DRVGR2022",
	TableSAT:        "ADM2022",
	TableAdmissions: "DRVADM2022",
	TableMission:    "IC2022Mission",
}

// loadOrder fixes the order tables are read in, for reproducible logs and
// progress reporting
var loadOrder = []string{
	TableDirectory, TableTuition, TableGrants, TableNetPrice,
	TableGraduation, TableSAT, TableAdmissions, TableMission,
}

// ProgressFunc is called once per table as loading advances
type ProgressFunc func(table string)

// TableCount returns the number of source tables a full load reads
func TableCount() int {
	return len(loadOrder)
}

// LoadTables reads every source table from dataDir and returns the typed
// row sets. A missing file or a wrong column set fails the load with a
// LoadError; no table is defaulted.
func LoadTables(dataDir string, logger *slog.Logger, progress ProgressFunc) (*Tables, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tables := &Tables{}
	for _, table := range loadOrder {
		path, err := findTableFile(dataDir, table)
		if err != nil {
			return nil, err
		}

		if err := loadTable(table, path, tables, logger); err != nil {
			return nil, err
		}

		if progress != nil {
			progress(table)
		}
	}

	logger.Info("loaded source tables",
		slog.Int("tables", len(loadOrder)),
		slog.Int("institutions", len(tables.Directory)))

	return tables, nil
}

// findTableFile resolves the file for a logical table, preferring CSV
func findTableFile(dataDir, table string) (string, error) {
	stem := defaultFileStems[table]
	for _, ext := range []string{".csv", ".xlsx"} {
		path := filepath.Join(dataDir, stem+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.NewLoadError(table, filepath.Join(dataDir, stem+".csv"), "required table file not found", os.ErrNotExist)
}

// loadTable dispatches to the typed loader for a logical table
func loadTable(table, path string, tables *Tables, logger *slog.Logger) error {
	var err error
	switch table {
	case TableDirectory:
		tables.Directory, err = LoadDirectory(path, logger)
	case TableTuition:
		tables.Tuition, err = LoadTuition(path)
	case TableGrants:
		tables.Grants, err = LoadGrants(path)
	case TableNetPrice:
		tables.NetPrice, err = LoadNetPrice(path)
	case TableGraduation:
		tables.Graduation, err = LoadGraduation(path)
	case TableSAT:
		tables.SAT, err = LoadSAT(path)
	case TableAdmissions:
		tables.Admissions, err = LoadAdmissions(path)
	case TableMission:
		tables.Mission, err = LoadMission(path)
	default:
		err = fmt.Errorf("unknown table %q", table)
	}
	return err
}

// LoadDirectory reads the HD directory table and keeps four-or-more-year,
// degree-granting institutions (ICLEVEL 1, HDEGOFR1 >= 3).
func LoadDirectory(path string, logger *slog.Logger) ([]DirectoryRow, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rows, idx, err := readTable(TableDirectory, path,
		"UNITID", "INSTNM", "CONTROL", "ICLEVEL", "HDEGOFR1")
	if err != nil {
		return nil, err
	}

	var out []DirectoryRow
	skipped := 0
	filtered := 0
	for _, row := range rows {
		unitID, ok := parseUnitID(row[idx["UNITID"]])
		if !ok {
			skipped++
			continue
		}

		level := parseIntCode(row[idx["ICLEVEL"]])
		degree := parseIntCode(row[idx["HDEGOFR1"]])
		if level != 1 || degree < 3 {
			filtered++
			continue
		}

		out = append(out, DirectoryRow{
			UnitID:        unitID,
			Name:          strings.TrimSpace(row[idx["INSTNM"]]),
			Control:       parseIntCode(row[idx["CONTROL"]]),
			Level:         level,
			HighestDegree: degree,
		})
	}

	logger.Info("loaded directory table",
		slog.Int("kept", len(out)),
		slog.Int("filtered_non_four_year", filtered),
		slog.Int("skipped_rows", skipped))

	return out, nil
}

// LoadTuition reads the institutional charges table (TUITION2)
func LoadTuition(path string) ([]TuitionRow, error) {
	rows, idx, err := readTable(TableTuition, path, "UNITID", "TUITION2")
	if err != nil {
		return nil, err
	}

	var out []TuitionRow
	for _, row := range rows {
		unitID, ok := parseUnitID(row[idx["UNITID"]])
		if !ok {
			continue
		}
		out = append(out, TuitionRow{
			UnitID:       unitID,
			StickerPrice: parseMeasure(row[idx["TUITION2"]]),
		})
	}
	return out, nil
}

// LoadGrants reads student financial aid part 1 (IGRNT_A)
func LoadGrants(path string) ([]GrantRow, error) {
	rows, idx, err := readTable(TableGrants, path, "UNITID", "IGRNT_A")
	if err != nil {
		return nil, err
	}

	var out []GrantRow
	for _, row := range rows {
		unitID, ok := parseUnitID(row[idx["UNITID"]])
		if !ok {
			continue
		}
		out = append(out, GrantRow{
			UnitID:       unitID,
			AvgInstGrant: parseMeasure(row[idx["IGRNT_A"]]),
		})
	}
	return out, nil
}

// LoadNetPrice reads student financial aid part 2 (NPT442)
func LoadNetPrice(path string) ([]NetPriceRow, error) {
	rows, idx, err := readTable(TableNetPrice, path, "UNITID", "NPT442")
	if err != nil {
		return nil, err
	}

	var out []NetPriceRow
	for _, row := range rows {
		unitID, ok := parseUnitID(row[idx["UNITID"]])
		if !ok {
			continue
		}
		out = append(out, NetPriceRow{
			UnitID:      unitID,
			NetPriceMid: parseMeasure(row[idx["NPT442"]]),
		})
	}
	return out, nil
}

// LoadGraduation reads the derived graduation rates table (GBA4RTT)
func LoadGraduation(path string) ([]GraduationRow, error) {
	rows, idx, err := readTable(TableGraduation, path, "UNITID", "GBA4RTT")
	if err != nil {
		return nil, err
	}

	var out []GraduationRow
	for _, row := range rows {
		unitID, ok := parseUnitID(row[idx["UNITID"]])
		if !ok {
			continue
		}
		out = append(out, GraduationRow{
			UnitID:      unitID,
			GradRate4yr: parseMeasure(row[idx["GBA4RTT"]]),
		})
	}
	return out, nil
}

// LoadSAT reads the admissions test score table (SATVR75, SATMT75)
func LoadSAT(path string) ([]SATRow, error) {
	rows, idx, err := readTable(TableSAT, path, "UNITID", "SATVR75", "SATMT75")
	if err != nil {
		return nil, err
	}

	var out []SATRow
	for _, row := range rows {
		unitID, ok := parseUnitID(row[idx["UNITID"]])
		if !ok {
			continue
		}
		out = append(out, SATRow{
			UnitID:      unitID,
			SATVerbal75: parseMeasure(row[idx["SATVR75"]]),
			SATMath75:   parseMeasure(row[idx["SATMT75"]]),
		})
	}
	return out, nil
}

// LoadAdmissions reads the derived admissions table (DVADM01)
func LoadAdmissions(path string) ([]AdmissionRow, error) {
	rows, idx, err := readTable(TableAdmissions, path, "UNITID", "DVADM01")
	if err != nil {
		return nil, err
	}

	var out []AdmissionRow
	for _, row := range rows {
		unitID, ok := parseUnitID(row[idx["UNITID"]])
		if !ok {
			continue
		}
		out = append(out, AdmissionRow{
			UnitID:        unitID,
			AdmissionRate: parseMeasure(row[idx["DVADM01"]]),
		})
	}
	return out, nil
}

// LoadMission reads the mission statement table. Its headers are lowercase
// in the IPEDS export; column matching is case-insensitive throughout.
func LoadMission(path string) ([]MissionRow, error) {
	rows, idx, err := readTable(TableMission, path, "UNITID", "MISSION")
	if err != nil {
		return nil, err
	}

	var out []MissionRow
	for _, row := range rows {
		unitID, ok := parseUnitID(row[idx["UNITID"]])
		if !ok {
			continue
		}
		out = append(out, MissionRow{
			UnitID:  unitID,
			Mission: strings.TrimSpace(row[idx["MISSION"]]),
		})
	}
	return out, nil
}

// readTable reads all rows from a CSV or XLSX file, validates the required
// columns, and returns the data rows plus a column index keyed by the
// requested (upper-case) column names.
func readTable(table, path string, columns ...string) ([][]string, map[string]int, error) {
	raw, err := readRows(path)
	if err != nil {
		return nil, nil, errors.NewLoadError(table, path, "cannot read table file", err)
	}
	if len(raw) == 0 {
		return nil, nil, errors.NewLoadError(table, path, "table file is empty", nil)
	}

	idx, missing := headerIndex(raw[0], columns)
	if len(missing) > 0 {
		return nil, nil, errors.NewLoadError(table, path,
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}

	// Drop rows narrower than the rightmost required column; ragged trailing
	// rows occur in hand-edited exports
	maxIdx := 0
	for _, i := range idx {
		if i > maxIdx {
			maxIdx = i
		}
	}

	var data [][]string
	for _, row := range raw[1:] {
		if len(row) > maxIdx {
			data = append(data, row)
		}
	}

	return data, idx, nil
}

// readRows reads the raw cell grid from a CSV or XLSX file
func readRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSXRows(path)
	default:
		return readCSVRows(path)
	}
}

// readCSVRows reads all records from a CSV file
func readCSVRows(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // IPEDS exports carry ragged rows
	return reader.ReadAll()
}

// readXLSXRows reads all cells from the first sheet of an XLSX workbook
func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// headerIndex maps requested column names to their positions,
// case-insensitively. Returns the names that could not be found.
func headerIndex(header []string, columns []string) (map[string]int, []string) {
	positions := make(map[string]int, len(header))
	for i, col := range header {
		positions[strings.ToUpper(strings.TrimSpace(col))] = i
	}

	idx := make(map[string]int, len(columns))
	var missing []string
	for _, col := range columns {
		pos, ok := positions[strings.ToUpper(col)]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = pos
	}
	return idx, missing
}

// parseUnitID parses an institution identifier cell
func parseUnitID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseIntCode parses an integer survey code, returning 0 when absent
func parseIntCode(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

// parseMeasure parses a numeric cell. Empty cells, unparsable cells, and
// the IPEDS sentinels -1, -2 and -9 all come back unknown.
func parseMeasure(s string) Measure {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return Unknown
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Unknown
	}
	if v == -1 || v == -2 || v == -9 {
		return Unknown
	}
	return Known(v)
}
