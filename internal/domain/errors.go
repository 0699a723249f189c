package domain

import "errors"

var (
	// ErrValidation covers client-detectable bad input; it never reaches
	// the backend.
	ErrValidation = errors.New("validation failed")

	// ErrStaleSelection means the pre-submission re-check emptied the
	// selection before any reservation call was issued.
	ErrStaleSelection = errors.New("selection no longer available")

	// ErrSlotConflict is the backend reporting an overlapping reservation
	// that already exists. The user must pick new times.
	ErrSlotConflict = errors.New("slot already booked")

	// ErrLockContention is the backend reporting that another caller
	// currently holds the reservation lock for the same resource. It is
	// transient; the user should wait and retry.
	ErrLockContention = errors.New("reservation lock held by another booking")

	// ErrBackendUnavailable covers transport failures and anything the
	// backend reports that cannot be classified further.
	ErrBackendUnavailable = errors.New("backend unavailable")

	ErrDiscontiguous   = errors.New("select continuous slots only")
	ErrEmptySelection  = errors.New("no slots selected")
	ErrSessionBusy     = errors.New("session busy")
	ErrSessionNotFound = errors.New("session not found")
)
