package services

import (
	"math"

	"github.com/swiftdrop/delivery-route-backend/internal/models"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula
	EarthRadiusKm = 6371.0

	// RoadDistanceFactor approximates real road distance from straight-line
	// distance. Applied to route totals, not to individual segments.
	RoadDistanceFactor = 1.2

	// PenaltyDistanceKm is returned for any leg touching a stop without
	// coordinates, so ungeocoded stops sink in every ranking instead of
	// aborting the search
	PenaltyDistanceKm = 1000.0
)

// Haversine computes the great-circle distance in kilometers between two
// coordinate pairs
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// StopDistance returns the distance in kilometers between two stops,
// or the penalty constant if either stop lacks coordinates
func StopDistance(a, b *models.Stop) float64 {
	if !a.HasCoordinates() || !b.HasCoordinates() {
		return PenaltyDistanceKm
	}
	return Haversine(*a.Latitude, *a.Longitude, *b.Latitude, *b.Longitude)
}

// DistanceToOrigin returns the distance in kilometers from a stop to the
// route origin, or the penalty constant if the stop lacks coordinates
func DistanceToOrigin(stop *models.Stop, origin models.Origin) float64 {
	if !stop.HasCoordinates() {
		return PenaltyDistanceKm
	}
	return Haversine(*stop.Latitude, *stop.Longitude, origin.Latitude, origin.Longitude)
}
