package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/you/venue-booking/internal/availability"
	"github.com/you/venue-booking/internal/booking"
	"github.com/you/venue-booking/internal/domain"
)

type fakeSource struct {
	mu       sync.Mutex
	bookings []domain.Booking
}

func (f *fakeSource) CourtByID(context.Context, string) (domain.Court, error) {
	return domain.Court{ID: "court-1", HourlyRate: 20, IsActive: true}, nil
}
func (f *fakeSource) GroupCourtIDs(context.Context, string) ([]string, error) {
	return []string{"court-1"}, nil
}
func (f *fakeSource) TemplateSlots(context.Context, string) ([]domain.TemplateSlot, error) {
	return []domain.TemplateSlot{
		{CourtID: "court-1", StartTime: "09:00:00", EndTime: "09:30:00", IsAvailable: true},
		{CourtID: "court-1", StartTime: "09:30:00", EndTime: "10:00:00", IsAvailable: true},
	}, nil
}
func (f *fakeSource) ActiveBookings(context.Context, []string, string) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Booking(nil), f.bookings...), nil
}
func (f *fakeSource) BlockedSlots(context.Context, []string, string) ([]domain.BlockedSlot, error) {
	return nil, nil
}

func (f *fakeSource) book(start, end string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, domain.Booking{
		CourtID: "court-1", Date: "2026-09-01",
		StartTime: start, EndTime: end,
		Status: domain.BookingConfirmed,
	})
}

type fakeReserver struct {
	calls []booking.ReservationRequest
}

func (f *fakeReserver) ReserveWithLock(_ context.Context, req booking.ReservationRequest) (domain.Booking, error) {
	f.calls = append(f.calls, req)
	return domain.Booking{
		ID: fmt.Sprintf("booking-%d", len(f.calls)), CourtID: req.CourtID,
		UserID: req.UserID, Date: req.Date,
		StartTime: req.Start.String(), EndTime: req.End.String(),
		Status: domain.BookingPending, TotalPrice: req.TotalPrice,
	}, nil
}

func newManager(src *fakeSource, res *fakeReserver) *Manager {
	agg := availability.NewAggregator(src)
	sub := booking.NewSubmitter(agg, res, nil, zap.NewNop())
	return NewManager(agg, sub, nil, time.Hour, zap.NewNop())
}

// waitFor polls the session view until cond holds or the deadline passes.
func waitFor(t *testing.T, s *Session, cond func(View) bool) View {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		v := s.Snapshot()
		if cond(v) {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
	return View{}
}

func openReady(t *testing.T, m *Manager) *Session {
	t.Helper()
	s, err := m.Open("court-1", "2026-09-01", "user-1", domain.PartitionAtSubmit)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	waitFor(t, s, func(v View) bool { return len(v.Slots) == 2 })
	return s
}

func TestManagerOpenValidation(t *testing.T) {
	t.Parallel()
	m := newManager(&fakeSource{}, &fakeReserver{})

	_, err := m.Open("", "2026-09-01", "user-1", "")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = m.Open("court-1", "september 1st", "user-1", "")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = m.Open("court-1", "2026-09-01", "", "")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = m.Open("court-1", "2026-09-01", "user-1", "whatever")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestManagerLookupAndClose(t *testing.T) {
	t.Parallel()
	m := newManager(&fakeSource{}, &fakeReserver{})

	s, err := m.Open("court-1", "2026-09-01", "user-1", "")
	require.NoError(t, err)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	require.Same(t, s, got)

	require.NoError(t, m.Close(s.ID))
	_, err = m.Get(s.ID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	require.ErrorIs(t, m.Close(s.ID), domain.ErrSessionNotFound)

	// Closing an already-closed session directly is fine too.
	s.Close()
}

func TestSessionToggleAndPrice(t *testing.T) {
	t.Parallel()
	m := newManager(&fakeSource{}, &fakeReserver{})
	s := openReady(t, m)

	require.NoError(t, s.Toggle("09:00", "09:30"))
	require.NoError(t, s.Toggle("09:30", "10:00"))

	v := s.Snapshot()
	require.Len(t, v.Selected, 2)
	require.Equal(t, 40.0, v.TotalPrice) // hourly-rate fallback, two slots

	require.ErrorIs(t, s.Toggle("12:00", "12:30"), domain.ErrValidation)
	require.Error(t, s.Toggle("late", "later"))
}

func TestSessionEvictionNotifiesOnce(t *testing.T) {
	t.Parallel()
	src := &fakeSource{}
	m := newManager(src, &fakeReserver{})
	s := openReady(t, m)

	require.NoError(t, s.Toggle("09:00", "09:30"))

	// Another actor books the selected slot; the change feed would signal,
	// here we kick the loop directly.
	src.book("09:00:00", "09:30:00")
	s.loop.Kick()

	v := waitFor(t, s, func(v View) bool { return len(v.Selected) == 0 })
	require.Len(t, v.Notices, 1)
	require.Contains(t, v.Notices[0], "09:00:00 - 09:30:00")

	// Notices drain on read: the eviction is reported exactly once.
	require.Empty(t, s.Snapshot().Notices)

	// An empty selection blocks forward progress.
	_, err := s.Submit(context.Background(), "pay-1", "paid")
	require.ErrorIs(t, err, domain.ErrEmptySelection)
}

func TestSessionSubmit(t *testing.T) {
	t.Parallel()
	res := &fakeReserver{}
	m := newManager(&fakeSource{}, res)
	s := openReady(t, m)

	require.NoError(t, s.Toggle("09:00", "09:30"))
	require.NoError(t, s.Toggle("09:30", "10:00"))

	out, err := s.Submit(context.Background(), "pay-1", "paid")
	require.NoError(t, err)
	require.Len(t, out.Bookings, 1)
	require.Equal(t, 1, out.Blocks)
	require.Len(t, res.calls, 1)
	require.Equal(t, "user-1", res.calls[0].UserID)

	v := waitFor(t, s, func(v View) bool { return !v.Submitting })
	require.Empty(t, v.Selected)
}

func TestSessionBusyDuringSubmit(t *testing.T) {
	t.Parallel()
	m := newManager(&fakeSource{}, &fakeReserver{})
	s := openReady(t, m)

	require.NoError(t, s.Toggle("09:00", "09:30"))

	s.mu.Lock()
	s.submitting = true
	s.mu.Unlock()

	require.ErrorIs(t, s.Toggle("09:30", "10:00"), domain.ErrSessionBusy)
	_, err := s.Submit(context.Background(), "pay-1", "paid")
	require.ErrorIs(t, err, domain.ErrSessionBusy)

	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()
}

func TestSessionClosedOperations(t *testing.T) {
	t.Parallel()
	m := newManager(&fakeSource{}, &fakeReserver{})
	s := openReady(t, m)
	require.NoError(t, m.Close(s.ID))

	require.ErrorIs(t, s.Toggle("09:00", "09:30"), domain.ErrSessionNotFound)
	_, err := s.Submit(context.Background(), "pay-1", "paid")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManagerCloseAll(t *testing.T) {
	t.Parallel()
	m := newManager(&fakeSource{}, &fakeReserver{})

	a, err := m.Open("court-1", "2026-09-01", "user-1", "")
	require.NoError(t, err)
	b, err := m.Open("court-1", "2026-09-02", "user-1", "")
	require.NoError(t, err)

	m.CloseAll()
	_, err = m.Get(a.ID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = m.Get(b.ID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}
