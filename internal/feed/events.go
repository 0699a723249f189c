package feed

import (
	"encoding/json"
	"fmt"
)

// Routing keys on the backend changes exchange follow <table>.<action>.
const (
	TableBookings     = "bookings"
	TableBlockedSlots = "blocked_slots"
)

// Keys published on the booking exchange after a successful reservation.
const (
	RKBookingCreated = "booking.created"
)

// Change is a row-change notification for a bookings or blocked_slots row.
// The payload is not assumed to carry the full picture of group-court
// conflicts, so consumers only ever treat it as a "data may be stale"
// signal and re-aggregate; it is never applied locally.
type Change struct {
	Table     string `json:"table"`
	Action    string `json:"action"` // insert|update|delete
	CourtID   string `json:"court_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

// BookingCreated is published by the submitter once per reserved block.
type BookingCreated struct {
	BookingID string  `json:"booking_id"`
	UserID    string  `json:"user_id"`
	CourtID   string  `json:"court_id"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Price     float64 `json:"price"`
}

func decode[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload failed: %w", err)
	}
	return t, nil
}
