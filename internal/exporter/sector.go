package exporter

import (
	"sort"
	"strconv"

	"ipedscli/internal/merit"
)

// Control-sector codes from the institution directory
const (
	ControlPublic           = 1
	ControlPrivateNonprofit = 2
	ControlPrivateForProfit = 3
)

// SectorExporter aggregates the ranked list by control sector and writes
// the breakdown as a report CSV
type SectorExporter struct {
	csvWriter *CSVWriter
}

// NewSectorExporter creates a sector report exporter rooted at the reports
// directory
func NewSectorExporter(reportsDir string) *SectorExporter {
	return &SectorExporter{csvWriter: NewCSVWriter(reportsDir)}
}

// SectorSummary represents aggregate statistics for one control sector
type SectorSummary struct {
	Control      int
	SectorName   string
	Institutions int
	AvgMGI       float64
	AvgScore     float64
	BestRank     int
	BestName     string
}

// GenerateSectorSummaries aggregates ranked institutions by control sector,
// ordered by control code
func (s *SectorExporter) GenerateSectorSummaries(list *merit.RankedList) []SectorSummary {
	byControl := make(map[int][]merit.ScoredInstitution)
	for _, inst := range list.Institutions {
		byControl[inst.Control] = append(byControl[inst.Control], inst)
	}

	summaries := make([]SectorSummary, 0, len(byControl))
	for control, insts := range byControl {
		summary := SectorSummary{
			Control:      control,
			SectorName:   sectorName(control),
			Institutions: len(insts),
			BestRank:     insts[0].Rank,
			BestName:     insts[0].Name,
		}
		for _, inst := range insts {
			summary.AvgMGI += inst.MGI
			summary.AvgScore += inst.Score
			if inst.Rank < summary.BestRank {
				summary.BestRank = inst.Rank
				summary.BestName = inst.Name
			}
		}
		summary.AvgMGI /= float64(len(insts))
		summary.AvgScore /= float64(len(insts))
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Control < summaries[j].Control
	})
	return summaries
}

// ExportSectorSummary writes the sector breakdown CSV
func (s *SectorExporter) ExportSectorSummary(summaries []SectorSummary, filePath string) error {
	headers := []string{
		"Control", "Sector", "Institutions", "AvgMGI", "AvgScore", "BestRank", "BestInstitution",
	}

	records := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		records = append(records, []string{
			strconv.Itoa(summary.Control),
			summary.SectorName,
			strconv.Itoa(summary.Institutions),
			strconv.FormatFloat(summary.AvgMGI, 'f', 4, 64),
			strconv.FormatFloat(summary.AvgScore, 'f', 4, 64),
			strconv.Itoa(summary.BestRank),
			summary.BestName,
		})
	}

	return s.csvWriter.WriteSimpleCSV(filePath, headers, records)
}

func sectorName(control int) string {
	switch control {
	case ControlPublic:
		return "Public"
	case ControlPrivateNonprofit:
		return "Private nonprofit"
	case ControlPrivateForProfit:
		return "Private for-profit"
	default:
		return "Unknown"
	}
}
