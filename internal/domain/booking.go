package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Occupies reports whether a booking in this status holds its time range
// exclusively.
func (s BookingStatus) Occupies() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking rows are created by the backend's reservation primitive; this
// client reads them for availability and receives one back per reserved
// block.
type Booking struct {
	ID               string        `gorm:"primaryKey" json:"id"`
	CourtID          string        `gorm:"index" json:"court_id"`
	UserID           string        `gorm:"index" json:"user_id"`
	Date             string        `gorm:"index" json:"date"` // YYYY-MM-DD
	StartTime        string        `json:"start_time"`
	EndTime          string        `json:"end_time"`
	Status           BookingStatus `gorm:"index" json:"status"`
	TotalPrice       float64       `json:"total_price"`
	PaymentReference string        `json:"payment_reference"`
	PaymentStatus    string        `json:"payment_status"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// BookingBlock is a maximal contiguous run of selected slots. Each block
// maps to exactly one atomic reservation call.
type BookingBlock struct {
	Start TimeOfDay       `json:"start_time"`
	End   TimeOfDay       `json:"end_time"`
	Price float64         `json:"price"`
	Slots []AvailableSlot `json:"slots"`
}
