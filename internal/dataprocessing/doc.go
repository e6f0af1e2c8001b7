// Package dataprocessing loads the flat IPEDS snapshot tables, joins them
// on the institution identifier (UNITID), and cleans the merged dataset for
// the metric engine.
//
// The package implements the first three stages of the pipeline:
//
//   - Loader: per-table CSV/XLSX files into typed row sets. The IPEDS
//     missing-data sentinels (-1, -2, -9) become unknown values at load
//     time so no sentinel ever reaches arithmetic downstream.
//   - Merger: inner join of the tables the metric engine requires, left
//     join of the descriptive tables, ordered by UNITID for determinism.
//     A duplicate UNITID within one source table is an error, never a
//     silent pick.
//   - Cleaner: drops rows missing metric-required fields (no imputation),
//     normalizes percentage fields to the 0-1 scale, and applies the
//     affordability screens.
//
// Every stage consumes the previous stage's output and produces a new
// value; nothing is mutated across stage boundaries.
package dataprocessing
