package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/swiftdrop/delivery-route-backend/internal/models"
)

func TestHaversine_ZeroDistance(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(8.4850, 124.6500, 8.4850, 124.6500))
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Cagayan de Oro to Manila is roughly 790 km great-circle
	distance := Haversine(8.4850, 124.6500, 14.5995, 120.9842)

	assert.InDelta(t, 790, distance, 20)
}

func TestHaversine_Symmetry(t *testing.T) {
	forward := Haversine(8.4850, 124.6500, 8.5200, 124.6800)
	backward := Haversine(8.5200, 124.6800, 8.4850, 124.6500)

	assert.InDelta(t, forward, backward, 1e-9)
	assert.Greater(t, forward, 0.0)
}

func TestStopDistance_MissingCoordinates(t *testing.T) {
	lat := 8.4850
	lng := 124.6500
	geocoded := models.Stop{ID: "a", Latitude: &lat, Longitude: &lng}
	ungeocoded := models.Stop{ID: "b"}

	assert.Equal(t, PenaltyDistanceKm, StopDistance(&geocoded, &ungeocoded))
	assert.Equal(t, PenaltyDistanceKm, StopDistance(&ungeocoded, &geocoded))
	assert.Equal(t, PenaltyDistanceKm, StopDistance(&ungeocoded, &ungeocoded))
}

func TestDistanceToOrigin(t *testing.T) {
	origin := models.Origin{Latitude: 8.4850, Longitude: 124.6500}

	lat := 8.5200
	lng := 124.6800
	stop := models.Stop{ID: "a", Latitude: &lat, Longitude: &lng}

	assert.InDelta(t, Haversine(lat, lng, origin.Latitude, origin.Longitude), DistanceToOrigin(&stop, origin), 1e-9)

	ungeocoded := models.Stop{ID: "b"}
	assert.Equal(t, PenaltyDistanceKm, DistanceToOrigin(&ungeocoded, origin))
}
