package rank

import (
	"fmt"
	"math"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// DistanceKm returns the great-circle distance in kilometers between two
// points given in decimal degrees. Invalid inputs produce NaN, which the
// caller treats as an unknown distance.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	Δφ := (lat2 - lat1) * math.Pi / 180
	Δλ := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(Δφ/2)*math.Sin(Δφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// FormatDistance renders a distance for display: under 1 km as whole
// meters ("750m"), 1–10 km with one decimal ("3.2km"), 10 km and above as
// whole kilometers ("42km"). NaN renders as the empty string.
func FormatDistance(km float64) string {
	switch {
	case math.IsNaN(km):
		return ""
	case km < 1:
		return fmt.Sprintf("%.0fm", km*1000)
	case km < 10:
		return fmt.Sprintf("%.1fkm", km)
	default:
		return fmt.Sprintf("%.0fkm", km)
	}
}
