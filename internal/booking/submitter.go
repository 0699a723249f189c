package booking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/you/venue-booking/internal/availability"
	"github.com/you/venue-booking/internal/domain"
	"github.com/you/venue-booking/internal/feed"
)

// Reserver invokes the backend's atomic reservation primitive. The backend
// performs its own conflict detection; implementations translate its
// failures into domain.ErrSlotConflict, domain.ErrLockContention or
// domain.ErrBackendUnavailable.
type Reserver interface {
	ReserveWithLock(ctx context.Context, req ReservationRequest) (domain.Booking, error)
}

type ReservationRequest struct {
	CourtID          string
	UserID           string
	Date             string
	Start            domain.TimeOfDay
	End              domain.TimeOfDay
	TotalPrice       float64
	PaymentReference string
	PaymentStatus    string
}

// Publisher matches pkg/mq.Publisher.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type SubmitInput struct {
	CourtID          string
	Date             string
	UserID           string
	Selection        *domain.Selection
	PaymentReference string
	PaymentStatus    string
}

type Result struct {
	// Bookings created, in ascending time order. On a block failure this
	// holds the committed prefix; nothing is rolled back.
	Bookings []domain.Booking
	// Evicted lists slots dropped by the pre-submission re-check.
	Evicted []domain.AvailableSlot
	// Blocks is how many reservation calls the selection partitioned into.
	Blocks int
}

// BlockError reports a failed reservation call for one block. Succeeded is
// the number of earlier blocks already committed; those are not rolled
// back, so the caller must tell the user which ranges went through.
type BlockError struct {
	Block     domain.BookingBlock
	Succeeded int
	Err       error
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("block %s-%s failed after %d committed: %v",
		e.Block.Start, e.Block.End, e.Succeeded, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

// Submitter turns a validated selection into one atomic reservation per
// maximal contiguous block, submitted strictly sequentially in ascending
// time order. A failure on block k stops further submission.
type Submitter struct {
	agg *availability.Aggregator
	res Reserver
	pub Publisher // optional
	log *zap.Logger
}

func NewSubmitter(agg *availability.Aggregator, res Reserver, pub Publisher, log *zap.Logger) *Submitter {
	return &Submitter{agg: agg, res: res, pub: pub, log: log}
}

func (s *Submitter) Submit(ctx context.Context, in SubmitInput) (Result, error) {
	var res Result
	if err := validate(in); err != nil {
		return res, err
	}

	// Never trust cached state at submit time: re-aggregate and re-run
	// eviction synchronously before any write.
	fresh, err := s.agg.SlotsFor(ctx, in.CourtID, in.Date)
	if err != nil {
		return res, fmt.Errorf("pre-submit refresh: %w", err)
	}
	available := make(map[string]struct{}, len(fresh))
	for _, sl := range fresh {
		if sl.Available {
			available[sl.Key()] = struct{}{}
		}
	}
	res.Evicted = in.Selection.Evict(available)
	if in.Selection.Len() == 0 {
		return res, domain.ErrStaleSelection
	}

	blocks := in.Selection.Blocks()
	res.Blocks = len(blocks)
	for i, b := range blocks {
		bk, err := s.res.ReserveWithLock(ctx, ReservationRequest{
			CourtID:          in.CourtID,
			UserID:           in.UserID,
			Date:             in.Date,
			Start:            b.Start,
			End:              b.End,
			TotalPrice:       b.Price,
			PaymentReference: in.PaymentReference,
			PaymentStatus:    in.PaymentStatus,
		})
		if err != nil {
			s.log.Warn("block reservation failed",
				zap.String("court_id", in.CourtID),
				zap.String("date", in.Date),
				zap.String("range", b.Start.String()+"-"+b.End.String()),
				zap.Int("committed", i),
				zap.Error(err))
			return res, &BlockError{Block: b, Succeeded: i, Err: err}
		}
		res.Bookings = append(res.Bookings, bk)
		s.publishCreated(ctx, bk)
	}

	in.Selection.Clear()
	return res, nil
}

func validate(in SubmitInput) error {
	switch {
	case in.CourtID == "":
		return fmt.Errorf("%w: court is required", domain.ErrValidation)
	case in.UserID == "":
		return fmt.Errorf("%w: payer is required", domain.ErrValidation)
	case in.Selection == nil || in.Selection.Len() == 0:
		return fmt.Errorf("%w: at least one slot is required", domain.ErrValidation)
	}
	if _, err := domain.ParseDate(in.Date); err != nil {
		return err
	}
	return nil
}

func (s *Submitter) publishCreated(ctx context.Context, bk domain.Booking) {
	if s.pub == nil {
		return
	}
	err := s.pub.PublishJSON(ctx, feed.RKBookingCreated, feed.BookingCreated{
		BookingID: bk.ID,
		UserID:    bk.UserID,
		CourtID:   bk.CourtID,
		Date:      bk.Date,
		StartTime: bk.StartTime,
		EndTime:   bk.EndTime,
		Price:     bk.TotalPrice,
	})
	if err != nil {
		s.log.Warn("publish booking.created failed", zap.String("booking_id", bk.ID), zap.Error(err))
	}
}
