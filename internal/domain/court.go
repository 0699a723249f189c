package domain

// Court is owned by the administrative CRUD side; this client only reads it.
type Court struct {
	ID           string  `gorm:"primaryKey" json:"id"`
	Name         string  `json:"name"`
	VenueID      string  `gorm:"index" json:"venue_id"`
	SportID      string  `json:"sport_id"`
	CourtGroupID *string `gorm:"index" json:"court_group_id,omitempty"`
	HourlyRate   float64 `json:"hourly_rate"`
	IsActive     bool    `json:"is_active"`
}

// CourtGroup is a set of courts sharing one physical resource: booking or
// blocking any member occupies the same time range on all members.
type CourtGroup struct {
	ID      string `gorm:"primaryKey" json:"id"`
	VenueID string `gorm:"index" json:"venue_id"`
}
