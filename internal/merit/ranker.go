package merit

import (
	"fmt"
	"log/slog"
	"sort"

	"ipedscli/internal/errors"
)

// Rank sorts scored institutions descending by composite score, breaking
// exact score ties by UNITID ascending, and truncates to the top-N.
//
// When fewer than topN institutions are available, Rank still returns the
// list it could build together with an InsufficientDataError; the caller
// decides whether to proceed with fewer or abort.
func Rank(scored []ScoredInstitution, topN int, logger *slog.Logger) (*RankedList, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("top-N must be positive, got %d", topN)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// The merge invariant guarantees unique identifiers; verify rather
	// than trust, since a duplicate here would corrupt the ranking
	seen := make(map[int]bool, len(scored))
	for _, s := range scored {
		if seen[s.UnitID] {
			return nil, fmt.Errorf("duplicate UNITID %d in scored dataset", s.UnitID)
		}
		seen[s.UnitID] = true
	}

	ranked := make([]ScoredInstitution, len(scored))
	copy(ranked, scored)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].UnitID < ranked[j].UnitID
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	list := &RankedList{
		Institutions: ranked,
		Requested:    topN,
	}

	logger.Info("ranked institutions",
		slog.Int("requested", topN),
		slog.Int("produced", list.Len()))

	if list.Len() < topN {
		return list, errors.NewInsufficientDataError(topN, list.Len())
	}
	return list, nil
}
