package availability

import (
	"context"
	"fmt"
	"sort"

	"github.com/you/venue-booking/internal/domain"
)

// Source is the read side of the backend collaborator. Implementations must
// be side-effect free so an aggregation pass can run repeatedly.
type Source interface {
	CourtByID(ctx context.Context, id string) (domain.Court, error)
	// GroupCourtIDs returns the ids of all active courts in the group.
	GroupCourtIDs(ctx context.Context, groupID string) ([]string, error)
	TemplateSlots(ctx context.Context, courtID string) ([]domain.TemplateSlot, error)
	// ActiveBookings returns bookings with status pending or confirmed for
	// the given courts on the given date.
	ActiveBookings(ctx context.Context, courtIDs []string, date string) ([]domain.Booking, error)
	BlockedSlots(ctx context.Context, courtIDs []string, date string) ([]domain.BlockedSlot, error)
}

// Aggregator merges template slots, bookings and blocked slots into the
// authoritative per-slot availability for one court and date. A booking or
// block on any court in the target's group makes the matching time range
// unavailable on the target. Template and pricing stay per-court.
type Aggregator struct {
	src Source
}

func NewAggregator(src Source) *Aggregator {
	return &Aggregator{src: src}
}

type occKey struct {
	start, end domain.TimeOfDay
}

// SlotsFor returns the court's slots for the date in ascending start order.
// Pure with respect to its inputs: two passes with no intervening backend
// mutation yield identical output.
//
// Occupancy is an exact start/end match. A booking that does not align to
// template boundaries is not detected as a conflict; tightening that is a
// product decision, not a bug fix.
func (a *Aggregator) SlotsFor(ctx context.Context, courtID, date string) ([]domain.AvailableSlot, error) {
	court, err := a.src.CourtByID(ctx, courtID)
	if err != nil {
		return nil, fmt.Errorf("resolve court: %w", err)
	}

	courtIDs := []string{court.ID}
	if court.CourtGroupID != nil {
		ids, err := a.src.GroupCourtIDs(ctx, *court.CourtGroupID)
		if err != nil {
			return nil, fmt.Errorf("resolve court group: %w", err)
		}
		courtIDs = withTarget(ids, court.ID)
	}

	templates, err := a.src.TemplateSlots(ctx, court.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch template slots: %w", err)
	}
	bookings, err := a.src.ActiveBookings(ctx, courtIDs, date)
	if err != nil {
		return nil, fmt.Errorf("fetch bookings: %w", err)
	}
	blocked, err := a.src.BlockedSlots(ctx, courtIDs, date)
	if err != nil {
		return nil, fmt.Errorf("fetch blocked slots: %w", err)
	}

	occupied := make(map[occKey]struct{}, len(bookings)+len(blocked))
	for _, b := range bookings {
		if !b.Status.Occupies() {
			continue
		}
		addOccupied(occupied, b.StartTime, b.EndTime)
	}
	for _, b := range blocked {
		addOccupied(occupied, b.StartTime, b.EndTime)
	}

	out := make([]domain.AvailableSlot, 0, len(templates))
	for _, t := range templates {
		start, err := domain.ParseTimeOfDay(t.StartTime)
		if err != nil {
			continue
		}
		end, err := domain.ParseTimeOfDay(t.EndTime)
		if err != nil {
			continue
		}
		available := t.IsAvailable
		if _, ok := occupied[occKey{start, end}]; ok {
			available = false
		}
		price := court.HourlyRate
		if t.Price != nil {
			price = *t.Price
		}
		out = append(out, domain.AvailableSlot{
			Start:     start,
			End:       end,
			Available: available,
			Price:     price,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out, nil
}

// addOccupied skips rows with malformed boundaries: they can never match a
// template slot anyway.
func addOccupied(occupied map[occKey]struct{}, startRaw, endRaw string) {
	start, err := domain.ParseTimeOfDay(startRaw)
	if err != nil {
		return
	}
	end, err := domain.ParseTimeOfDay(endRaw)
	if err != nil {
		return
	}
	occupied[occKey{start, end}] = struct{}{}
}

func withTarget(ids []string, target string) []string {
	for _, id := range ids {
		if id == target {
			return ids
		}
	}
	return append(ids, target)
}
