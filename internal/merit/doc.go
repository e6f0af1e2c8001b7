// Package merit computes the Merit Generosity Index composite score and
// produces the ranked institution list.
//
// The Merit Generosity Index (MGI) is the ratio of the average
// institutional grant to the published sticker price. The composite score
// blends it with a quality signal derived from the four-year graduation
// rate and admissions selectivity:
//
//	score = grant_weight*MGI + quality_weight*quality
//
// Scoring is a pure function of the record's fields: no hidden state, and
// identical inputs always produce the identical score. Ranking is
// descending by score with ties broken by UNITID ascending, truncated to a
// configurable top-N.
package merit
