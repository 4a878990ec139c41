package rank

import (
	"math"

	"github.com/kidspot/kidspot-server/internal/place"
)

// Score component weights. The components sum to at most 100.
const (
	ageBonus        = 40.0
	ratingMax       = 30.0
	reviewTrustMax  = 15.0
	outdoorBonus    = 15.0
	indoorBonus     = 10.0
	defaultChildAge = 5
)

// estimatedAges synthesizes one candidate age per child: 3 for the first,
// stepping by 2 for each additional one. With no kids it falls back to a
// single default age so every user still gets an age signal.
func estimatedAges(numberOfKids int) []int {
	if numberOfKids <= 0 {
		return []int{defaultChildAge}
	}
	ages := make([]int, numberOfKids)
	for i := range ages {
		ages[i] = 3 + 2*i
	}
	return ages
}

// MatchScore computes the 0–100 match score of a place for a user.
//
// The score is additive: a 40-point all-or-nothing age-fit bonus, up to 30
// points scaling linearly with the average rating, up to 15 points of
// review-volume trust saturating at 10 reviews, and a 10- or 15-point type
// preference. Components are summed as floats and rounded half-up once at
// the end. The result is a pure function of its inputs.
func MatchScore(p place.Place, profile place.UserProfile) (score int, ageMatch bool) {
	var total float64

	for _, age := range estimatedAges(profile.NumberOfKids) {
		if age >= p.MinAge && age <= p.MaxAge {
			ageMatch = true
			break
		}
	}
	if ageMatch {
		total += ageBonus
	}

	total += (p.AverageRating / 5) * ratingMax
	total += math.Min(float64(p.TotalReviews)/10*reviewTrustMax, reviewTrustMax)

	switch {
	case profile.NumberOfKids >= 1 && p.PlaceType == place.TypeOutdoor:
		total += outdoorBonus
	case p.PlaceType == place.TypeIndoor:
		total += indoorBonus
	}

	return int(math.Round(total)), ageMatch
}
