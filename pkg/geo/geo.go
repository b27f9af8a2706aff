// Package geo provides the straight-line distance estimate used when a
// quote carries coordinates but no driving distance.
//
// All distance calculations use the Haversine formula on WGS-84 coordinates.
package geo

import (
	"math"

	"github.com/shiva/chauffeur/internal/model"
)

// ─── Constants ──────────────────────────────────────────────

const (
	// EarthRadiusKm is the mean radius of Earth in kilometers.
	EarthRadiusKm = 6371.0
)

// ─── Distance ───────────────────────────────────────────────

// HaversineKm returns the great-circle distance between two points in kilometers.
//
// Complexity: O(1)
func HaversineKm(a, b model.Location) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*sinLon*sinLon

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// EstimateDistanceKm returns the Haversine distance rounded to 0.01 km, or
// false when either point is missing or out of range.
func EstimateDistanceKm(a, b *model.Location) (float64, bool) {
	if !Valid(a) || !Valid(b) {
		return 0, false
	}
	return math.Round(HaversineKm(*a, *b)*100) / 100, true
}

// Valid reports whether loc is a usable WGS-84 coordinate.
func Valid(loc *model.Location) bool {
	if loc == nil || math.IsNaN(loc.Lat) || math.IsNaN(loc.Lon) {
		return false
	}
	return loc.Lat >= -90 && loc.Lat <= 90 && loc.Lon >= -180 && loc.Lon <= 180
}

// ─── Helpers ────────────────────────────────────────────────

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
