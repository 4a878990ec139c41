package rank

import (
	"math"
	"sort"

	"github.com/kidspot/kidspot-server/internal/place"
)

const (
	// admissionThreshold is the minimum match score a place needs to
	// appear in recommendations.
	admissionThreshold = 50

	// PageSize is the number of recommendations per page. Loading more
	// pages accumulates results rather than replacing them.
	PageSize = 6
)

// Result is one ranked, paginated recommendation pass.
type Result struct {
	Places    []place.RankedPlace `json:"places"`
	Total     int                 `json:"total"`
	Remaining int                 `json:"remaining"`
	HasMore   bool                `json:"has_more"`
}

// Rank scores, filters, sorts, and paginates the snapshot's catalog.
//
// Every place is scored with MatchScore; distance is computed only when
// both the place coordinates and the snapshot location are present. Places
// scoring below the admission threshold are dropped. Survivors are sorted
// by score descending with input order preserved on ties, then the first
// pages*PageSize entries are returned. A nil catalog or nil profile yields
// an empty result: the caller distinguishes "no data yet" from "no
// matches".
func Rank(snap place.Snapshot, pages int) Result {
	if snap.Catalog == nil || snap.Profile == nil {
		return Result{Places: []place.RankedPlace{}}
	}
	if pages < 1 {
		pages = 1
	}

	admitted := make([]place.RankedPlace, 0, len(snap.Catalog))
	for _, p := range snap.Catalog {
		score, ageMatch := MatchScore(p, *snap.Profile)
		if score < admissionThreshold {
			continue
		}

		rp := place.RankedPlace{
			Place:      p,
			MatchScore: score,
			AgeMatch:   ageMatch,
		}
		if snap.Location != nil && p.Latitude != nil && p.Longitude != nil {
			km := DistanceKm(snap.Location.Latitude, snap.Location.Longitude, *p.Latitude, *p.Longitude)
			if !math.IsNaN(km) {
				rp.DistanceKm = &km
				rp.DistanceText = FormatDistance(km)
			}
		}
		if _, ok := snap.Favorites[p.ID]; ok {
			rp.IsFavorite = true
		}
		admitted = append(admitted, rp)
	}

	sort.SliceStable(admitted, func(i, j int) bool {
		return admitted[i].MatchScore > admitted[j].MatchScore
	})

	// Multiplying first could overflow on absurd page counts, so compare
	// against the admitted length before computing the cut.
	shown := len(admitted)
	if pages <= len(admitted)/PageSize {
		shown = pages * PageSize
	}

	return Result{
		Places:    admitted[:shown],
		Total:     len(admitted),
		Remaining: len(admitted) - shown,
		HasMore:   shown < len(admitted),
	}
}
