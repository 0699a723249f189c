package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/you/venue-booking/internal/domain"
)

// AvailabilityRepo reads the backend-owned tables. The schema belongs to
// the booking platform, so there is no AutoMigrate here and no writes
// outside the reservation primitive.
type AvailabilityRepo struct {
	db *gorm.DB
}

func NewAvailabilityRepo(db *gorm.DB) *AvailabilityRepo {
	return &AvailabilityRepo{db: db}
}

func (r *AvailabilityRepo) CourtByID(ctx context.Context, id string) (domain.Court, error) {
	var c domain.Court
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Court{}, fmt.Errorf("%w: court %s not found", domain.ErrValidation, id)
	}
	if err != nil {
		return domain.Court{}, err
	}
	return c, nil
}

func (r *AvailabilityRepo) GroupCourtIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.Court{}).
		Where("court_group_id = ? AND is_active", groupID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *AvailabilityRepo) TemplateSlots(ctx context.Context, courtID string) ([]domain.TemplateSlot, error) {
	var out []domain.TemplateSlot
	err := r.db.WithContext(ctx).
		Where("court_id = ?", courtID).
		Order("start_time ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AvailabilityRepo) ActiveBookings(ctx context.Context, courtIDs []string, date string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("court_id IN ? AND date = ? AND status IN ?",
			courtIDs, date, []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed}).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AvailabilityRepo) BlockedSlots(ctx context.Context, courtIDs []string, date string) ([]domain.BlockedSlot, error) {
	var out []domain.BlockedSlot
	err := r.db.WithContext(ctx).
		Where("court_id IN ? AND date = ?", courtIDs, date).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Courts lists active courts, optionally filtered by venue.
func (r *AvailabilityRepo) Courts(ctx context.Context, venueID string) ([]domain.Court, error) {
	qb := r.db.WithContext(ctx).Model(&domain.Court{}).Where("is_active")
	if venueID != "" {
		qb = qb.Where("venue_id = ?", venueID)
	}
	var out []domain.Court
	if err := qb.Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
