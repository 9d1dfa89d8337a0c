// Package feed carries loan application change notifications from the data
// store to the tracking sessions interested in them.
package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/swiftloan/backend/internal/domain/application"
	"github.com/swiftloan/backend/internal/observability"
)

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"

	TableApplications = "loan_applications"
)

var ErrClosed = errors.New("feed_closed")

// Change is one row change as emitted by the store.
type Change struct {
	Event  string                  `json:"event"`
	Table  string                  `json:"table"`
	Record application.Application `json:"record"`
}

type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Broker fans changes out to subscriptions keyed by application id. Only
// UPDATE events on loan_applications are delivered.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]struct{}
	closed      bool
	buffer      int
}

func NewBroker() *Broker {
	return &Broker{subscribers: map[string]map[*Subscription]struct{}{}, buffer: 16}
}

func (b *Broker) Subscribe(applicationID string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	sub := &Subscription{
		applicationID: applicationID,
		broker:        b,
		updates:       make(chan application.Application, b.buffer),
	}
	if _, ok := b.subscribers[applicationID]; !ok {
		b.subscribers[applicationID] = map[*Subscription]struct{}{}
	}
	b.subscribers[applicationID][sub] = struct{}{}
	observability.LiveSubscriptions.Inc()
	return sub, nil
}

func (b *Broker) Publish(_ context.Context, change Change) error {
	if change.Event != EventUpdate || change.Table != TableApplications {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers[change.Record.ID] {
		select {
		case sub.updates <- change.Record:
			observability.LiveUpdatesDelivered.Inc()
		default:
			observability.LiveUpdatesDropped.Inc()
		}
	}
	return nil
}

// Subscribers reports how many live subscriptions watch applicationID.
func (b *Broker) Subscribers(applicationID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[applicationID])
}

// Close ends every open subscription; their update channels are closed.
func (b *Broker) Close() {
	b.mu.Lock()
	subs := b.subscribers
	b.subscribers = map[string]map[*Subscription]struct{}{}
	b.closed = true
	b.mu.Unlock()

	for _, set := range subs {
		for sub := range set {
			sub.once.Do(func() {
				observability.LiveSubscriptions.Dec()
				close(sub.updates)
			})
		}
	}
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subscribers[sub.applicationID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subscribers, sub.applicationID)
		}
	}
}

type Subscription struct {
	applicationID string
	broker        *Broker
	updates       chan application.Application
	once          sync.Once
}

func (s *Subscription) ApplicationID() string {
	return s.applicationID
}

// Updates is closed when the subscription ends.
func (s *Subscription) Updates() <-chan application.Application {
	return s.updates
}

// Close detaches the subscription before returning. Safe to call repeatedly.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.broker.remove(s)
		observability.LiveSubscriptions.Dec()
		close(s.updates)
	})
}
