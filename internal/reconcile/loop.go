package reconcile

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/you/venue-booking/internal/availability"
	"github.com/you/venue-booking/internal/domain"
)

type State int32

const (
	Idle State = iota
	Fetching
	Reconciling
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Reconciling:
		return "reconciling"
	case Errored:
		return "error"
	default:
		return "unknown"
	}
}

const DefaultInterval = 15 * time.Second

// Loop keeps one court+date view fresh. It re-aggregates on a fixed cadence
// and whenever the change feed signals, whichever comes first. All passes
// run on the loop's own goroutine, so at most one pass is ever in flight; a
// trigger arriving mid-pass stays pending in its channel and drives the next
// iteration instead of stacking a concurrent pass.
type Loop struct {
	agg      *availability.Aggregator
	courtID  string
	date     string
	interval time.Duration
	feed     <-chan struct{} // nil when no change feed is wired
	kick     chan struct{}
	apply    func(fresh []domain.AvailableSlot)
	log      *zap.Logger
	state    atomic.Int32
}

// New builds a loop. apply receives each completed pass's fresh slot list
// and owns replacing the displayed list and evicting stale selections.
func New(
	agg *availability.Aggregator,
	courtID, date string,
	interval time.Duration,
	feed <-chan struct{},
	apply func(fresh []domain.AvailableSlot),
	log *zap.Logger,
) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		agg:      agg,
		courtID:  courtID,
		date:     date,
		interval: interval,
		feed:     feed,
		kick:     make(chan struct{}, 1),
		apply:    apply,
		log:      log,
	}
}

func (l *Loop) State() State { return State(l.state.Load()) }

// Kick requests an out-of-band refresh. Requests coalesce: at most one is
// pending at a time.
func (l *Loop) Kick() {
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled. An initial pass runs immediately so the
// view is populated before the first tick.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-l.feed:
		case <-l.kick:
		}
		l.pass(ctx)
	}
}

func (l *Loop) pass(ctx context.Context) {
	l.state.Store(int32(Fetching))
	fresh, err := l.agg.SlotsFor(ctx, l.courtID, l.date)
	if err != nil {
		l.state.Store(int32(Errored))
		l.log.Warn("reconcile pass failed",
			zap.String("court_id", l.courtID),
			zap.String("date", l.date),
			zap.Error(err))
		return
	}
	l.state.Store(int32(Reconciling))
	l.apply(fresh)
	l.state.Store(int32(Idle))
}
