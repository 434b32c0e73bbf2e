package models

// Stop represents a single delivery location within a batch
type Stop struct {
	ID              string   `json:"id" db:"id"`
	OrderID         string   `json:"order_id" db:"order_id"`
	CustomerName    string   `json:"customer_name" db:"customer_name"`
	Address         string   `json:"address" db:"address"`
	Barangay        string   `json:"barangay" db:"barangay"`
	Latitude        *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude       *float64 `json:"longitude,omitempty" db:"longitude"`
	Phone           *string  `json:"phone,omitempty" db:"phone"`
	TotalAmount     float64  `json:"total_amount" db:"total_amount"`
	Status          string   `json:"status" db:"status"`
	Priority        *int     `json:"priority,omitempty" db:"priority"`
	TimeWindowStart *int     `json:"time_window_start,omitempty" db:"time_window_start"`
	TimeWindowEnd   *int     `json:"time_window_end,omitempty" db:"time_window_end"`
}

// HasCoordinates checks if the stop has been geocoded
func (s *Stop) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// PriorityRank returns the stop's priority (1 highest - 5 lowest),
// defaulting to the lowest rank when no priority was assigned
func (s *Stop) PriorityRank() int {
	if s.Priority == nil {
		return 5
	}
	return *s.Priority
}

// OriginKind distinguishes a fixed depot from a driver's live position
type OriginKind string

const (
	OriginDepot           OriginKind = "depot"
	OriginCurrentPosition OriginKind = "current_position"
)

// Origin is the start point of a route: the depot before departure,
// or the driver's live position when re-planning in flight
type Origin struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Kind      OriginKind `json:"kind"`
}
