package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/you/venue-booking/internal/availability"
	"github.com/you/venue-booking/internal/booking"
	"github.com/you/venue-booking/internal/domain"
	"github.com/you/venue-booking/internal/feed"
	"github.com/you/venue-booking/internal/reconcile"
)

// Manager opens, looks up and closes sessions. One per process.
type Manager struct {
	agg      *availability.Aggregator
	sub      *booking.Submitter
	feed     *feed.Listener // nil disables change-feed triggers
	interval time.Duration
	log      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(
	agg *availability.Aggregator,
	sub *booking.Submitter,
	listener *feed.Listener,
	interval time.Duration,
	log *zap.Logger,
) *Manager {
	return &Manager{
		agg:      agg,
		sub:      sub,
		feed:     listener,
		interval: interval,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Open creates a session for one court and date and starts its
// reconciliation loop. The first pass runs immediately, so the view
// populates without waiting for a tick.
func (m *Manager) Open(courtID, date, userID string, policy domain.ContiguityPolicy) (*Session, error) {
	if courtID == "" {
		return nil, fmt.Errorf("%w: court is required", domain.ErrValidation)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: payer is required", domain.ErrValidation)
	}
	date, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	if policy != "" && policy != domain.PartitionAtSubmit && policy != domain.RejectGaps {
		return nil, fmt.Errorf("%w: unknown policy %q", domain.ErrValidation, policy)
	}

	s := &Session{
		ID:        uuid.NewString(),
		CourtID:   courtID,
		Date:      date,
		UserID:    userID,
		selection: domain.NewSelection(policy),
		submitter: m.sub,
		log:       m.log,
	}

	var signal <-chan struct{}
	s.unsub = func() {}
	if m.feed != nil {
		signal, s.unsub = m.feed.Subscribe(feed.Filter{Date: date})
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loop = reconcile.New(m.agg, courtID, date, m.interval, signal, s.applyAvailability, m.log)
	go s.loop.Run(ctx)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Info("session opened",
		zap.String("session_id", s.ID),
		zap.String("court_id", courtID),
		zap.String("date", date),
		zap.String("policy", string(s.selection.Policy())))
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.Close()
	return nil
}

// CloseAll tears down every live session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
