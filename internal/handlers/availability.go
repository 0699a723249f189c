package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/venue-booking/internal/availability"
	"github.com/you/venue-booking/internal/domain"
)

// CourtLister is the slice of the repository the read endpoints need.
type CourtLister interface {
	Courts(ctx context.Context, venueID string) ([]domain.Court, error)
}

type AvailabilityHandler struct {
	agg    *availability.Aggregator
	courts CourtLister
}

func NewAvailabilityHandler(agg *availability.Aggregator, courts CourtLister) *AvailabilityHandler {
	return &AvailabilityHandler{agg: agg, courts: courts}
}

// GET /v1/courts?venue_id=...
func (h *AvailabilityHandler) ListCourts(c *gin.Context) {
	out, err := h.courts.Courts(c.Request.Context(), c.Query("venue_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courts": out})
}

// GET /v1/availability?court_id=...&date=YYYY-MM-DD
func (h *AvailabilityHandler) Slots(c *gin.Context) {
	courtID := c.Query("court_id")
	date := c.Query("date")
	if courtID == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "court_id and date are required", "reason": "validation"})
		return
	}
	if _, err := domain.ParseDate(date); err != nil {
		writeError(c, err)
		return
	}
	slots, err := h.agg.SlotsFor(c.Request.Context(), courtID, date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"court_id": courtID, "date": date, "slots": slots})
}
