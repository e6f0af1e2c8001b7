package dataprocessing

import (
	"log/slog"
	"sort"

	"ipedscli/internal/errors"
)

// Merge joins the loaded tables on UNITID into one record per institution.
//
// The tables the metric engine requires (tuition, grants, net price,
// graduation) are joined with inner semantics: an institution absent from
// any of them is dropped, not defaulted. The descriptive tables (SAT bands,
// admission rate, mission) are left-joined and may stay unknown. Output is
// ordered by UNITID ascending.
func Merge(t *Tables, logger *slog.Logger) ([]InstitutionRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Directory duplicates are checked first so the offending table is
	// reported precisely
	seen := make(map[int]bool, len(t.Directory))
	for _, row := range t.Directory {
		if seen[row.UnitID] {
			return nil, errors.NewDuplicateKeyError(TableDirectory, row.UnitID)
		}
		seen[row.UnitID] = true
	}

	tuition, err := indexRows(TableTuition, t.Tuition, func(r TuitionRow) int { return r.UnitID })
	if err != nil {
		return nil, err
	}
	grants, err := indexRows(TableGrants, t.Grants, func(r GrantRow) int { return r.UnitID })
	if err != nil {
		return nil, err
	}
	netPrice, err := indexRows(TableNetPrice, t.NetPrice, func(r NetPriceRow) int { return r.UnitID })
	if err != nil {
		return nil, err
	}
	graduation, err := indexRows(TableGraduation, t.Graduation, func(r GraduationRow) int { return r.UnitID })
	if err != nil {
		return nil, err
	}
	sat, err := indexRows(TableSAT, t.SAT, func(r SATRow) int { return r.UnitID })
	if err != nil {
		return nil, err
	}
	admissions, err := indexRows(TableAdmissions, t.Admissions, func(r AdmissionRow) int { return r.UnitID })
	if err != nil {
		return nil, err
	}
	mission, err := indexRows(TableMission, t.Mission, func(r MissionRow) int { return r.UnitID })
	if err != nil {
		return nil, err
	}

	dropped := map[string]int{}
	records := make([]InstitutionRecord, 0, len(t.Directory))

	for _, dir := range t.Directory {
		tu, ok := tuition[dir.UnitID]
		if !ok {
			dropped[TableTuition]++
			continue
		}
		gr, ok := grants[dir.UnitID]
		if !ok {
			dropped[TableGrants]++
			continue
		}
		np, ok := netPrice[dir.UnitID]
		if !ok {
			dropped[TableNetPrice]++
			continue
		}
		gd, ok := graduation[dir.UnitID]
		if !ok {
			dropped[TableGraduation]++
			continue
		}

		rec := InstitutionRecord{
			UnitID:       dir.UnitID,
			Name:         dir.Name,
			Control:      dir.Control,
			StickerPrice: tu.StickerPrice,
			AvgInstGrant: gr.AvgInstGrant,
			NetPriceMid:  np.NetPriceMid,
			GradRate4yr:  gd.GradRate4yr,
		}

		if s, ok := sat[dir.UnitID]; ok {
			rec.SATVerbal75 = s.SATVerbal75
			rec.SATMath75 = s.SATMath75
		}
		if a, ok := admissions[dir.UnitID]; ok {
			rec.AdmissionRate = a.AdmissionRate
		}
		if m, ok := mission[dir.UnitID]; ok {
			rec.Mission = m.Mission
		}

		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UnitID < records[j].UnitID
	})

	logger.Info("merged source tables",
		slog.Int("institutions", len(records)),
		slog.Int("dropped_missing_tuition", dropped[TableTuition]),
		slog.Int("dropped_missing_grants", dropped[TableGrants]),
		slog.Int("dropped_missing_net_price", dropped[TableNetPrice]),
		slog.Int("dropped_missing_graduation", dropped[TableGraduation]))

	return records, nil
}

// indexRows builds a UNITID index over one table, failing on the first
// duplicate key
func indexRows[T any](table string, rows []T, key func(T) int) (map[int]T, error) {
	idx := make(map[int]T, len(rows))
	for _, row := range rows {
		k := key(row)
		if _, exists := idx[k]; exists {
			return nil, errors.NewDuplicateKeyError(table, k)
		}
		idx[k] = row
	}
	return idx, nil
}
