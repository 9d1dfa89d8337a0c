// Package tracking derives the progress view of a loan application and keeps
// it current for one viewer through a live subscription.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/swiftloan/backend/internal/domain/application"
	"github.com/swiftloan/backend/internal/feed"
	"github.com/swiftloan/backend/internal/observability"
)

var (
	ErrEmptyIdentifier = errors.New("empty_identifier")
	ErrLookupInFlight  = errors.New("lookup_in_flight")
	ErrSessionClosed   = errors.New("session_closed")
)

type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateTracking State = "tracking"
	StateNotFound State = "not_found"
	StateFailed   State = "failed"
)

type EventKind string

const (
	EventTracking         EventKind = "tracking"
	EventNotFound         EventKind = "not_found"
	EventFailed           EventKind = "error"
	EventStatusUpdated    EventKind = "status_updated"
	EventSubscriptionLost EventKind = "subscription_lost"
	EventStopped          EventKind = "stopped"
)

// Store is everything a session needs from the data store.
type Store interface {
	LookupByNumber(ctx context.Context, applicationNumber string) (*application.Application, error)
	Subscribe(applicationID string) (Subscription, error)
}

type Subscription interface {
	Updates() <-chan application.Application
	Close()
}

type Snapshot struct {
	State       State                    `json:"state"`
	Application *application.Application `json:"application,omitempty"`
	Stages      []Stage                  `json:"stages,omitempty"`
	Message     string                   `json:"message,omitempty"`
}

type Event struct {
	Kind     EventKind `json:"event"`
	Snapshot Snapshot  `json:"data"`
}

type Option func(*Session)

func WithListener(fn func(Event)) Option {
	return func(s *Session) { s.listener = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithReconcileTimeout bounds the lookup issued after a live subscription drops.
func WithReconcileTimeout(d time.Duration) Option {
	return func(s *Session) { s.reconcileTimeout = d }
}

// Session owns the application snapshot a viewer is tracking. It holds at
// most one live subscription, always scoped to the tracked application id.
type Session struct {
	store            Store
	listener         func(Event)
	logger           *slog.Logger
	reconcileTimeout time.Duration

	mu      sync.Mutex
	state   State
	number  string
	record  *application.Application
	message string
	sub     Subscription
	gen     uint64
	closed  bool
}

func NewSession(store Store, opts ...Option) *Session {
	s := &Session{
		store:            store,
		listener:         func(Event) {},
		logger:           slog.Default(),
		reconcileTimeout: 10 * time.Second,
		state:            StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit looks up identifier and, when found, starts tracking it. Lookup
// failures are reported through the session state and listener rather than
// returned; only local rejections produce an error.
func (s *Session) Submit(ctx context.Context, identifier string) error {
	number := application.NormalizeNumber(identifier)
	if number == "" {
		observability.TrackingLookups.WithLabelValues("empty").Inc()
		return ErrEmptyIdentifier
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state == StateLoading {
		s.mu.Unlock()
		return ErrLookupInFlight
	}
	s.releaseLocked()
	s.gen++
	gen := s.gen
	s.state = StateLoading
	s.number = number
	s.record = nil
	s.message = ""
	s.mu.Unlock()

	app, err := s.store.LookupByNumber(ctx, number)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	var (
		ev  Event
		sub Subscription
	)
	switch {
	case errors.Is(err, application.ErrNotFound):
		observability.TrackingLookups.WithLabelValues("not_found").Inc()
		s.state = StateNotFound
		s.message = fmt.Sprintf("No application found with number %s. Please check and try again.", number)
		ev = Event{Kind: EventNotFound, Snapshot: s.snapshotLocked()}
	case err != nil:
		observability.TrackingLookups.WithLabelValues("error").Inc()
		s.logger.Error("application lookup failed", "application_number", number, "err", err)
		s.state = StateFailed
		s.message = "Unable to fetch application status right now. Please try again."
		ev = Event{Kind: EventFailed, Snapshot: s.snapshotLocked()}
	default:
		observability.TrackingLookups.WithLabelValues("found").Inc()
		s.state = StateTracking
		s.record = app
		sub = s.subscribeLocked()
		ev = Event{Kind: EventTracking, Snapshot: s.snapshotLocked()}
	}
	s.mu.Unlock()

	s.listener(ev)
	if sub != nil {
		go s.watch(sub, gen, false)
	}
	return nil
}

// Close returns the session to idle and releases the live subscription.
// Calling it again is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	wasActive := s.state != StateIdle
	s.releaseLocked()
	s.gen++
	s.state = StateIdle
	s.number = ""
	s.record = nil
	s.message = ""
	ev := Event{Kind: EventStopped, Snapshot: s.snapshotLocked()}
	s.mu.Unlock()

	if wasActive {
		s.listener(ev)
	}
}

// Shutdown closes the session for good; later submissions are refused.
func (s *Session) Shutdown() {
	s.Close()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Message: s.message}
	if s.record != nil {
		cp := *s.record
		snap.Application = &cp
		snap.Stages = DeriveStages(&cp)
	}
	return snap
}

func (s *Session) releaseLocked() {
	if s.sub != nil {
		s.sub.Close()
		s.sub = nil
	}
}

// subscribeLocked opens the live subscription for the current record. The
// caller starts watching it once the event describing the record has been
// delivered, so updates never overtake it. A nil result leaves the session
// tracking without live updates.
func (s *Session) subscribeLocked() Subscription {
	sub, err := s.store.Subscribe(s.record.ID)
	if err != nil {
		s.logger.Warn("live subscription unavailable", "application_id", s.record.ID, "err", err)
		return nil
	}
	s.sub = sub
	return sub
}

func (s *Session) watch(sub Subscription, gen uint64, reconciled bool) {
	for update := range sub.Updates() {
		s.mu.Lock()
		if s.gen != gen || s.sub != sub || s.record == nil || update.ID != s.record.ID {
			s.mu.Unlock()
			continue
		}
		cp := update
		s.record = &cp
		ev := Event{Kind: EventStatusUpdated, Snapshot: s.snapshotLocked()}
		s.mu.Unlock()

		s.listener(ev)
	}

	s.mu.Lock()
	if s.gen != gen || s.sub != sub {
		s.mu.Unlock()
		return
	}
	s.sub = nil
	number := s.number
	s.mu.Unlock()

	s.logger.Warn("live subscription dropped", "application_number", number, "reconciled", reconciled)
	if reconciled {
		s.emitLost(gen)
		return
	}
	s.reconcile(gen, number)
}

// reconcile re-fetches the tracked application once after a dropped
// subscription and resubscribes, so updates missed while disconnected are
// picked up.
func (s *Session) reconcile(gen uint64, number string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.reconcileTimeout)
	defer cancel()

	app, err := s.store.LookupByNumber(ctx, number)
	if err != nil {
		s.logger.Warn("reconcile lookup failed", "application_number", number, "err", err)
		s.emitLost(gen)
		return
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	changed := s.record == nil || s.record.Status != app.Status || !s.record.UpdatedAt.Equal(app.UpdatedAt)
	s.record = app
	sub := s.subscribeLocked()
	ev := Event{Kind: EventStatusUpdated, Snapshot: s.snapshotLocked()}
	s.mu.Unlock()

	if sub == nil {
		s.emitLost(gen)
		return
	}
	if changed {
		s.listener(ev)
	}
	go s.watch(sub, gen, true)
}

func (s *Session) emitLost(gen uint64) {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}
	ev := Event{Kind: EventSubscriptionLost, Snapshot: s.snapshotLocked()}
	s.mu.Unlock()
	s.listener(ev)
}

// Lookuper resolves a normalised application number.
type Lookuper interface {
	Lookup(ctx context.Context, applicationNumber string) (*application.Application, error)
}

// Backend joins the application lookup with the change feed broker.
type Backend struct {
	Applications Lookuper
	Feed         *feed.Broker
}

func (b Backend) LookupByNumber(ctx context.Context, applicationNumber string) (*application.Application, error) {
	return b.Applications.Lookup(ctx, strings.ToUpper(strings.TrimSpace(applicationNumber)))
}

func (b Backend) Subscribe(applicationID string) (Subscription, error) {
	sub, err := b.Feed.Subscribe(applicationID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
