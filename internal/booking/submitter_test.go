package booking

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/you/venue-booking/internal/availability"
	"github.com/you/venue-booking/internal/domain"
)

type fakeSource struct {
	court     domain.Court
	templates []domain.TemplateSlot
	bookings  []domain.Booking
}

func (f *fakeSource) CourtByID(context.Context, string) (domain.Court, error) {
	return f.court, nil
}
func (f *fakeSource) GroupCourtIDs(context.Context, string) ([]string, error) {
	return []string{f.court.ID}, nil
}
func (f *fakeSource) TemplateSlots(context.Context, string) ([]domain.TemplateSlot, error) {
	return f.templates, nil
}
func (f *fakeSource) ActiveBookings(context.Context, []string, string) ([]domain.Booking, error) {
	return f.bookings, nil
}
func (f *fakeSource) BlockedSlots(context.Context, []string, string) ([]domain.BlockedSlot, error) {
	return nil, nil
}

type fakeReserver struct {
	calls  []ReservationRequest
	errors map[int]error // call index -> error
}

func (f *fakeReserver) ReserveWithLock(_ context.Context, req ReservationRequest) (domain.Booking, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, req)
	if err, ok := f.errors[idx]; ok {
		return domain.Booking{}, err
	}
	return domain.Booking{
		ID:         fmt.Sprintf("booking-%d", idx),
		CourtID:    req.CourtID,
		UserID:     req.UserID,
		Date:       req.Date,
		StartTime:  req.Start.String(),
		EndTime:    req.End.String(),
		Status:     domain.BookingPending,
		TotalPrice: req.TotalPrice,
	}, nil
}

type fakePublisher struct {
	keys []string
}

func (f *fakePublisher) PublishJSON(_ context.Context, key string, _ any) error {
	f.keys = append(f.keys, key)
	return nil
}

func template(start, end string, p float64) domain.TemplateSlot {
	return domain.TemplateSlot{StartTime: start, EndTime: end, IsAvailable: true, Price: &p}
}

func halfHourGrid() *fakeSource {
	return &fakeSource{
		court: domain.Court{ID: "court-1", HourlyRate: 20, IsActive: true},
		templates: []domain.TemplateSlot{
			template("09:00:00", "09:30:00", 10),
			template("09:30:00", "10:00:00", 10),
			template("14:00:00", "14:30:00", 10),
			template("14:30:00", "15:00:00", 10),
		},
	}
}

func pick(t *testing.T, sel *domain.Selection, ranges ...[2]string) {
	t.Helper()
	for _, r := range ranges {
		_, err := sel.Toggle(domain.AvailableSlot{
			Start:     domain.MustTimeOfDay(r[0]),
			End:       domain.MustTimeOfDay(r[1]),
			Available: true,
			Price:     10,
		})
		require.NoError(t, err)
	}
}

func newSubmitter(src *fakeSource, res *fakeReserver, pub Publisher) *Submitter {
	return NewSubmitter(availability.NewAggregator(src), res, pub, zap.NewNop())
}

func input(sel *domain.Selection) SubmitInput {
	return SubmitInput{
		CourtID:          "court-1",
		Date:             "2026-09-01",
		UserID:           "user-1",
		Selection:        sel,
		PaymentReference: "pay-123",
		PaymentStatus:    "paid",
	}
}

func TestSubmitterFullSuccess(t *testing.T) {
	t.Parallel()

	t.Run("adjacent slots submit as one block", func(t *testing.T) {
		src := halfHourGrid()
		res := &fakeReserver{}
		pub := &fakePublisher{}
		sel := domain.NewSelection(domain.PartitionAtSubmit)
		pick(t, sel, [2]string{"09:00", "09:30"}, [2]string{"09:30", "10:00"})

		out, err := newSubmitter(src, res, pub).Submit(context.Background(), input(sel))
		require.NoError(t, err)

		require.Len(t, res.calls, 1)
		require.Equal(t, domain.MustTimeOfDay("09:00"), res.calls[0].Start)
		require.Equal(t, domain.MustTimeOfDay("10:00"), res.calls[0].End)
		require.Equal(t, 20.0, res.calls[0].TotalPrice)
		require.Equal(t, "pay-123", res.calls[0].PaymentReference)

		require.Len(t, out.Bookings, 1)
		require.Equal(t, 1, out.Blocks)
		require.Equal(t, 0, sel.Len(), "selection cleared on full success")
		require.Equal(t, []string{"booking.created"}, pub.keys)
	})

	t.Run("disjoint runs submit sequentially in time order", func(t *testing.T) {
		src := halfHourGrid()
		res := &fakeReserver{}
		sel := domain.NewSelection(domain.PartitionAtSubmit)
		pick(t, sel, [2]string{"14:00", "14:30"}, [2]string{"09:00", "09:30"})

		out, err := newSubmitter(src, res, nil).Submit(context.Background(), input(sel))
		require.NoError(t, err)

		require.Len(t, res.calls, 2)
		require.Equal(t, domain.MustTimeOfDay("09:00"), res.calls[0].Start)
		require.Equal(t, domain.MustTimeOfDay("14:00"), res.calls[1].Start)
		require.Equal(t, 2, out.Blocks)
		require.Len(t, out.Bookings, 2)
	})
}

func TestSubmitterValidation(t *testing.T) {
	t.Parallel()

	src := halfHourGrid()
	res := &fakeReserver{}
	sub := newSubmitter(src, res, nil)
	sel := domain.NewSelection(domain.PartitionAtSubmit)
	pick(t, sel, [2]string{"09:00", "09:30"})

	cases := []struct {
		name   string
		mutate func(*SubmitInput)
	}{
		{"missing court", func(in *SubmitInput) { in.CourtID = "" }},
		{"missing payer", func(in *SubmitInput) { in.UserID = "" }},
		{"bad date", func(in *SubmitInput) { in.Date = "01-09-2026" }},
		{"empty selection", func(in *SubmitInput) { in.Selection = domain.NewSelection(domain.PartitionAtSubmit) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := input(sel)
			tc.mutate(&in)
			_, err := sub.Submit(context.Background(), in)
			require.ErrorIs(t, err, domain.ErrValidation)
			require.Empty(t, res.calls, "no reservation call on validation failure")
		})
	}
}

func TestSubmitterStaleSelection(t *testing.T) {
	t.Parallel()

	src := halfHourGrid()
	res := &fakeReserver{}
	sel := domain.NewSelection(domain.PartitionAtSubmit)
	pick(t, sel, [2]string{"09:00", "09:30"})

	// Another user's booking lands on the selected slot before submission.
	src.bookings = []domain.Booking{
		{CourtID: "court-1", Date: "2026-09-01", StartTime: "09:00:00", EndTime: "09:30:00", Status: domain.BookingPending},
	}

	out, err := newSubmitter(src, res, nil).Submit(context.Background(), input(sel))
	require.ErrorIs(t, err, domain.ErrStaleSelection)
	require.Empty(t, res.calls, "no reservation call issued")
	require.Len(t, out.Evicted, 1)
	require.Equal(t, 0, sel.Len())
}

func TestSubmitterLockContention(t *testing.T) {
	t.Parallel()

	src := halfHourGrid()
	res := &fakeReserver{errors: map[int]error{0: domain.ErrLockContention}}
	sel := domain.NewSelection(domain.PartitionAtSubmit)
	pick(t, sel, [2]string{"09:00", "09:30"})

	_, err := newSubmitter(src, res, nil).Submit(context.Background(), input(sel))

	var be *BlockError
	require.ErrorAs(t, err, &be)
	require.ErrorIs(t, err, domain.ErrLockContention)
	require.Equal(t, 0, be.Succeeded)
	require.Len(t, res.calls, 1, "no further call after the failure")
	require.Equal(t, 1, sel.Len(), "selection preserved on transient contention")
}

func TestSubmitterPartialFailure(t *testing.T) {
	t.Parallel()

	src := halfHourGrid()
	res := &fakeReserver{errors: map[int]error{1: domain.ErrSlotConflict}}
	pub := &fakePublisher{}
	sel := domain.NewSelection(domain.PartitionAtSubmit)
	pick(t, sel,
		[2]string{"09:00", "09:30"},
		[2]string{"14:00", "14:30"},
	)

	out, err := newSubmitter(src, res, pub).Submit(context.Background(), input(sel))

	var be *BlockError
	require.ErrorAs(t, err, &be)
	require.ErrorIs(t, err, domain.ErrSlotConflict)
	require.Equal(t, 1, be.Succeeded, "first block committed, not rolled back")
	require.Equal(t, domain.MustTimeOfDay("14:00"), be.Block.Start)

	require.Len(t, out.Bookings, 1)
	require.Equal(t, 2, out.Blocks)
	require.Len(t, res.calls, 2)
	require.Equal(t, []string{"booking.created"}, pub.keys, "event only for the committed block")
	require.NotEqual(t, 0, sel.Len(), "selection not cleared on failure")
}
