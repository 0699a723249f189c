package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/you/venue-booking/internal/booking"
	"github.com/you/venue-booking/internal/domain"
	"github.com/you/venue-booking/internal/reconcile"
)

// Session is one user's in-progress booking for a single court and date. It
// owns the selection, the freshest slot list, the reconciliation loop and
// the change-feed registration; all of those live exactly as long as the
// session does. Changing court or date means closing the session and
// opening a new one.
type Session struct {
	ID      string
	CourtID string
	Date    string
	UserID  string

	selection *domain.Selection
	submitter *booking.Submitter
	loop      *reconcile.Loop
	cancel    context.CancelFunc
	unsub     func()
	log       *zap.Logger

	mu         sync.Mutex
	slots      []domain.AvailableSlot
	notices    []string
	submitting bool
	closed     bool
}

// View is the read model handed to the transport layer. Notices are drained
// on read so each eviction is reported exactly once.
type View struct {
	ID         string                  `json:"id"`
	CourtID    string                  `json:"court_id"`
	Date       string                  `json:"date"`
	Policy     domain.ContiguityPolicy `json:"policy"`
	State      string                  `json:"state"`
	Submitting bool                    `json:"submitting"`
	Slots      []domain.AvailableSlot  `json:"slots"`
	Selected   []domain.AvailableSlot  `json:"selected"`
	TotalPrice float64                 `json:"total_price"`
	Notices    []string                `json:"notices,omitempty"`
}

// applyAvailability is the reconcile loop's callback: replace the displayed
// list, then evict selection entries absent from the fresh available set.
// While a submission is in flight the submitter runs its own authoritative
// re-check, so the loop leaves the selection alone and only refreshes the
// list.
func (s *Session) applyAvailability(fresh []domain.AvailableSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = fresh
	if s.submitting {
		return
	}

	available := make(map[string]struct{}, len(fresh))
	for _, sl := range fresh {
		if sl.Available {
			available[sl.Key()] = struct{}{}
		}
	}
	for _, sl := range s.selection.Evict(available) {
		s.notices = append(s.notices, fmt.Sprintf("time slot %s is no longer available and was removed from your selection", sl.Range()))
		s.log.Info("evicted stale slot",
			zap.String("session_id", s.ID),
			zap.String("court_id", s.CourtID),
			zap.String("date", s.Date),
			zap.String("range", sl.Range()))
	}
}

// Toggle adds or removes the slot with the given boundaries. The slot must
// exist in the current availability list; toggling an unavailable slot is a
// silent no-op per the selection rules.
func (s *Session) Toggle(startRaw, endRaw string) error {
	start, err := domain.ParseTimeOfDay(startRaw)
	if err != nil {
		return err
	}
	end, err := domain.ParseTimeOfDay(endRaw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionNotFound
	}
	if s.submitting {
		return domain.ErrSessionBusy
	}
	for _, sl := range s.slots {
		if sl.Start == start && sl.End == end {
			_, err := s.selection.Toggle(sl)
			return err
		}
	}
	return fmt.Errorf("%w: no slot %s-%s on %s", domain.ErrValidation, start, end, s.Date)
}

// Submit hands the selection to the submitter. Concurrent submissions on
// the same session are rejected rather than raced.
func (s *Session) Submit(ctx context.Context, paymentRef, paymentStatus string) (booking.Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return booking.Result{}, domain.ErrSessionNotFound
	}
	if s.submitting {
		s.mu.Unlock()
		return booking.Result{}, domain.ErrSessionBusy
	}
	if s.selection.Len() == 0 {
		s.mu.Unlock()
		return booking.Result{}, domain.ErrEmptySelection
	}
	s.submitting = true
	s.mu.Unlock()

	res, err := s.submitter.Submit(ctx, booking.SubmitInput{
		CourtID:          s.CourtID,
		Date:             s.Date,
		UserID:           s.UserID,
		Selection:        s.selection,
		PaymentReference: paymentRef,
		PaymentStatus:    paymentStatus,
	})

	s.mu.Lock()
	s.submitting = false
	for _, sl := range res.Evicted {
		s.notices = append(s.notices, fmt.Sprintf("time slot %s was taken before submission and removed from your selection", sl.Range()))
	}
	if be, ok := err.(*booking.BlockError); ok && be.Succeeded > 0 {
		s.notices = append(s.notices, fmt.Sprintf("%d of %d blocks were reserved before the failure; those reservations stand", be.Succeeded, res.Blocks))
	}
	s.mu.Unlock()

	if err == nil {
		// Fold the new booking into the displayed list right away rather
		// than waiting for the next tick.
		s.loop.Kick()
	}
	return res, err
}

// Snapshot returns the current view and drains pending notices.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:         s.ID,
		CourtID:    s.CourtID,
		Date:       s.Date,
		Policy:     s.selection.Policy(),
		State:      s.loop.State().String(),
		Submitting: s.submitting,
		Slots:      append([]domain.AvailableSlot(nil), s.slots...),
		Selected:   s.selection.Slots(),
		TotalPrice: s.selection.TotalPrice(),
		Notices:    s.notices,
	}
	s.notices = nil
	return v
}

// Close tears the session down: the loop goroutine stops and the feed
// registration is released. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.unsub()
	s.log.Info("session closed",
		zap.String("session_id", s.ID),
		zap.String("court_id", s.CourtID),
		zap.String("date", s.Date))
}
