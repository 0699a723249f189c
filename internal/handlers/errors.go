package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/venue-booking/internal/booking"
	"github.com/you/venue-booking/internal/domain"
)

// writeError maps domain failures onto responses. Conflict and lock
// contention stay distinct: the first means pick new times, the second is
// transient and means wait and retry.
func writeError(c *gin.Context, err error) {
	var be *booking.BlockError
	if errors.As(err, &be) {
		status, reason, msg := classify(be.Err)
		c.JSON(status, gin.H{
			"error":            msg,
			"reason":           reason,
			"succeeded_blocks": be.Succeeded,
			"failed_range":     be.Block.Start.String() + "-" + be.Block.End.String(),
		})
		return
	}
	status, reason, msg := classify(err)
	c.JSON(status, gin.H{"error": msg, "reason": reason})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found", err.Error()
	case errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict, "session_busy", "a submission is already in progress for this session"
	case errors.Is(err, domain.ErrStaleSelection):
		return http.StatusConflict, "stale_selection", "your selected slots are no longer available; please pick new times"
	case errors.Is(err, domain.ErrSlotConflict):
		return http.StatusConflict, "already_booked", "the slot was already reserved; please pick new times"
	case errors.Is(err, domain.ErrLockContention):
		return http.StatusLocked, "lock_held", "another booking for this court is in progress; wait a moment and retry"
	case errors.Is(err, domain.ErrDiscontiguous),
		errors.Is(err, domain.ErrEmptySelection),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation", err.Error()
	default:
		return http.StatusBadGateway, "backend_error", "the booking backend did not respond; please try again"
	}
}
