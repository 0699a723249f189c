package feed

import (
	"context"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Filter scopes a subscription to one date partition, optionally narrowed
// to a set of court ids. An empty court set matches every court.
type Filter struct {
	Date     string
	CourtIDs map[string]struct{}
}

func (f Filter) matches(ch Change) bool {
	// A change missing its date or court id may still concern us, so it
	// matches everything rather than nothing.
	if ch.Date != "" && ch.Date != f.Date {
		return false
	}
	if len(f.CourtIDs) == 0 || ch.CourtID == "" {
		return true
	}
	_, ok := f.CourtIDs[ch.CourtID]
	return ok
}

type subscription struct {
	filter Filter
	signal chan struct{}
}

// Listener consumes the backend changes exchange and fans change events out
// to registered subscribers as coalesced stale signals. One listener serves
// the whole process; sessions register a filter for their date on open and
// must unregister on teardown.
type Listener struct {
	log *zap.Logger

	mu   sync.Mutex
	next int
	subs map[int]*subscription
}

func NewListener(log *zap.Logger) *Listener {
	return &Listener{log: log, subs: make(map[int]*subscription)}
}

// Subscribe registers a filter and returns the signal channel plus an
// unsubscribe func. The channel has capacity one: bursts of matching
// changes coalesce into a single pending signal.
func (l *Listener) Subscribe(f Filter) (<-chan struct{}, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.next
	l.next++
	sub := &subscription{filter: f, signal: make(chan struct{}, 1)}
	l.subs[id] = sub

	return sub.signal, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// Run consumes deliveries until the context is cancelled or the channel
// closes. Malformed payloads are acked and dropped: the feed only carries
// stale signals, so there is nothing to retry.
func (l *Listener) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			l.handle(d)
			_ = d.Ack(false)
		}
	}
}

func (l *Listener) handle(d amqp.Delivery) {
	table, _, _ := strings.Cut(d.RoutingKey, ".")
	if table != TableBookings && table != TableBlockedSlots {
		l.log.Debug("feed: skip unknown routing key", zap.String("key", d.RoutingKey))
		return
	}
	ch, err := decode[Change](d.Body)
	if err != nil {
		l.log.Warn("feed: drop malformed change", zap.String("key", d.RoutingKey), zap.Error(err))
		return
	}
	if ch.Table == "" {
		ch.Table = table
	}
	l.notify(ch)
}

func (l *Listener) notify(ch Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, sub := range l.subs {
		if !sub.filter.matches(ch) {
			continue
		}
		select {
		case sub.signal <- struct{}{}:
		default: // a signal is already pending
		}
	}
}
