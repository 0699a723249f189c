package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/you/venue-booking/internal/booking"
	"github.com/you/venue-booking/internal/domain"
)

// ReserveRepo calls the backend's reserve_booking_with_lock function. The
// function is the only mutual exclusion in the system: it takes the
// court-time lock server-side, re-checks for overlaps and inserts the
// booking row atomically. This client only calls it and interprets its
// failures; it never emulates the check locally.
type ReserveRepo struct {
	db *gorm.DB
}

func NewReserveRepo(db *gorm.DB) *ReserveRepo {
	return &ReserveRepo{db: db}
}

func (r *ReserveRepo) ReserveWithLock(ctx context.Context, req booking.ReservationRequest) (domain.Booking, error) {
	var id string
	row := r.db.WithContext(ctx).Raw(
		"SELECT reserve_booking_with_lock(?, ?, ?, ?, ?, ?, ?, ?)",
		req.CourtID,
		req.UserID,
		req.Date,
		req.Start.String(),
		req.End.String(),
		req.TotalPrice,
		req.PaymentReference,
		req.PaymentStatus,
	).Row()
	if err := row.Scan(&id); err != nil {
		return domain.Booking{}, classifyReserveError(err)
	}
	now := time.Now().UTC()
	return domain.Booking{
		ID:               id,
		CourtID:          req.CourtID,
		UserID:           req.UserID,
		Date:             req.Date,
		StartTime:        req.Start.String(),
		EndTime:          req.End.String(),
		Status:           domain.BookingPending,
		TotalPrice:       req.TotalPrice,
		PaymentReference: req.PaymentReference,
		PaymentStatus:    req.PaymentStatus,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// classifyReserveError maps the primitive's failures onto the domain
// taxonomy. Lock contention and hard conflicts must stay distinguishable:
// one means wait-and-retry, the other means pick new times.
func classifyReserveError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		msg := strings.ToLower(pgErr.Message)
		switch {
		case pgErr.Code == "55P03": // lock_not_available
			return fmt.Errorf("%w: %s", domain.ErrLockContention, pgErr.Message)
		case pgErr.Code == "23505" || pgErr.Code == "23P01":
			return fmt.Errorf("%w: %s", domain.ErrSlotConflict, pgErr.Message)
		case strings.Contains(msg, "already booked"):
			return fmt.Errorf("%w: %s", domain.ErrSlotConflict, pgErr.Message)
		case strings.Contains(msg, "lock"):
			return fmt.Errorf("%w: %s", domain.ErrLockContention, pgErr.Message)
		case pgErr.Code == "P0001" || strings.HasPrefix(pgErr.Code, "22"):
			return fmt.Errorf("%w: %s", domain.ErrValidation, pgErr.Message)
		default:
			return fmt.Errorf("reserve: %w", err)
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
}
