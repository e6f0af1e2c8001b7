package dataprocessing

import (
	"strconv"
)

// Measure is a numeric observation that may be unknown. IPEDS publishes
// missing data as sentinel codes (-1, -2, -9); the loader converts those to
// unknown measures so downstream stages never mistake a sentinel for data.
type Measure struct {
	Val   float64 `json:"val"`
	Known bool    `json:"known"`
}

// Known creates a known measure
func Known(v float64) Measure {
	return Measure{Val: v, Known: true}
}

// Unknown is the zero measure
var Unknown = Measure{}

// String formats the measure for tabular output; unknown values are empty
func (m Measure) String() string {
	if !m.Known {
		return ""
	}
	return strconv.FormatFloat(m.Val, 'f', -1, 64)
}

// Logical table names used in error reporting and logs
const (
	TableDirectory  = "hd"
	TableTuition    = "ic"
	TableGrants     = "sfa_p1"
	TableNetPrice   = "sfa_p2"
	TableGraduation = "gr"
	TableSAT        = "adm_sat"
	TableAdmissions = "adm_rate"
	TableMission    = "mission"
	TableCombined   = "combined"
)

// DirectoryRow is one institution from the HD directory table
type DirectoryRow struct {
	UnitID        int
	Name          string
	Control       int // 1 public, 2 private non-profit, 3 private for-profit
	Level         int // ICLEVEL: 1 means four-or-more-year institution
	HighestDegree int // HDEGOFR1: 3 and above means degree-granting
}

// TuitionRow carries the published tuition-and-fees sticker price (TUITION2)
type TuitionRow struct {
	UnitID       int
	StickerPrice Measure
}

// GrantRow carries the average institutional grant amount (IGRNT_A)
type GrantRow struct {
	UnitID       int
	AvgInstGrant Measure
}

// NetPriceRow carries the average net price for the middle income bracket (NPT442)
type NetPriceRow struct {
	UnitID      int
	NetPriceMid Measure
}

// GraduationRow carries the four-year graduation rate (GBA4RTT, percent)
type GraduationRow struct {
	UnitID      int
	GradRate4yr Measure
}

// SATRow carries 75th percentile SAT section scores
type SATRow struct {
	UnitID      int
	SATVerbal75 Measure
	SATMath75   Measure
}

// AdmissionRow carries the admission rate (DVADM01, percent), the
// selectivity proxy used by the quality signal
type AdmissionRow struct {
	UnitID        int
	AdmissionRate Measure
}

// MissionRow carries the institution's mission statement text
type MissionRow struct {
	UnitID  int
	Mission string
}

// Tables holds all loaded source tables for one snapshot
type Tables struct {
	Directory  []DirectoryRow
	Tuition    []TuitionRow
	Grants     []GrantRow
	NetPrice   []NetPriceRow
	Graduation []GraduationRow
	SAT        []SATRow
	Admissions []AdmissionRow
	Mission    []MissionRow
}

// InstitutionRecord is one institution after the merge step. Fields required
// by the metric engine are StickerPrice, AvgInstGrant, NetPriceMid and
// GradRate4yr; the rest are descriptive and may be unknown.
type InstitutionRecord struct {
	UnitID        int     `json:"unitid"`
	Name          string  `json:"name"`
	Control       int     `json:"control"`
	StickerPrice  Measure `json:"sticker_price"`
	AvgInstGrant  Measure `json:"avg_inst_grant"`
	NetPriceMid   Measure `json:"net_price_mid"`
	GradRate4yr   Measure `json:"grad_rate_4yr"`
	AdmissionRate Measure `json:"admission_rate"`
	SATVerbal75   Measure `json:"sat_verbal_75"`
	SATMath75     Measure `json:"sat_math_75"`
	Mission       string  `json:"mission"`
}

// HasMetricFields reports whether every field the metric engine requires is
// populated. Value validity (e.g. a zero sticker price) is the metric
// engine's concern, not presence.
func (r InstitutionRecord) HasMetricFields() bool {
	return r.StickerPrice.Known && r.AvgInstGrant.Known &&
		r.NetPriceMid.Known && r.GradRate4yr.Known
}
