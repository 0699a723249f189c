package domain

import (
	"fmt"
	"time"
)

// TemplateSlot is the recurring, per-court offer of a slot and its nominal
// price. It says nothing about day-to-day occupancy. Boundaries stay in the
// backend's raw string form; the aggregator normalizes them.
type TemplateSlot struct {
	ID          string   `gorm:"primaryKey" json:"id"`
	CourtID     string   `gorm:"index" json:"court_id"`
	StartTime   string   `json:"start_time"` // HH:MM or HH:MM:SS
	EndTime     string   `json:"end_time"`
	IsAvailable bool     `json:"is_available"`
	Price       *float64 `json:"price,omitempty"` // nil falls back to the court's hourly rate
}

// BlockedSlot is an administrative reservation with no booking record. It
// occupies its time range exactly like a pending or confirmed booking.
type BlockedSlot struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CourtID   string `gorm:"index" json:"court_id"`
	Date      string `gorm:"index" json:"date"` // YYYY-MM-DD
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// AvailableSlot is derived on every aggregation pass and never persisted.
type AvailableSlot struct {
	Start     TimeOfDay `json:"start_time"`
	End       TimeOfDay `json:"end_time"`
	Available bool      `json:"is_available"`
	Price     float64   `json:"price"`
}

// Key is the normalized display key a selection is tracked by.
func (s AvailableSlot) Key() string {
	return s.Start.String() + "-" + s.End.String()
}

// Range renders the slot's time range for user-facing notices.
func (s AvailableSlot) Range() string {
	return s.Start.String() + " - " + s.End.String()
}

// ParseDate validates a YYYY-MM-DD date string and returns it unchanged.
func ParseDate(s string) (string, error) {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrValidation, s)
	}
	return s, nil
}
