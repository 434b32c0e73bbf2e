package validator

import (
	"errors"
	"fmt"
)

var (
	// ErrLatitudeOutOfRange indicates latitude is outside [-90, 90]
	ErrLatitudeOutOfRange = errors.New("latitude must be between -90 and 90")

	// ErrLongitudeOutOfRange indicates longitude is outside [-180, 180]
	ErrLongitudeOutOfRange = errors.New("longitude must be between -180 and 180")

	// ErrMissingCoordinates indicates a required coordinate pair is absent
	ErrMissingCoordinates = errors.New("latitude and longitude are required")
)

// ValidCoordinatePair reports whether a latitude/longitude pair is
// within valid geographic ranges
func ValidCoordinatePair(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidateCoordinatePair validates a latitude/longitude pair and returns
// a descriptive error when out of range
func ValidateCoordinatePair(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w (got %f)", ErrLatitudeOutOfRange, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w (got %f)", ErrLongitudeOutOfRange, lng)
	}
	return nil
}

// ValidateOptionalCoordinates validates a nullable coordinate pair. Both
// values absent is valid (the stop is simply ungeocoded); a half-present
// pair is not.
func ValidateOptionalCoordinates(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return ErrMissingCoordinates
	}
	return ValidateCoordinatePair(*lat, *lng)
}
