package tracking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftloan/backend/internal/domain/application"
	"github.com/swiftloan/backend/internal/feed"
	"github.com/swiftloan/backend/internal/repository/memory"
)

type harness struct {
	repo    *memory.ApplicationRepository
	broker  *feed.Broker
	store   *recordingStore
	events  chan Event
	session *Session
}

// recordingStore counts lookups and remembers handed-out subscriptions.
type recordingStore struct {
	Backend
	lookups   atomic.Int32
	lookupErr error
	gate      chan struct{}

	mu   sync.Mutex
	subs []Subscription
}

func (s *recordingStore) LookupByNumber(ctx context.Context, number string) (*application.Application, error) {
	s.lookups.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.Backend.LookupByNumber(ctx, number)
}

func (s *recordingStore) Subscribe(id string) (Subscription, error) {
	sub, err := s.Backend.Subscribe(id)
	if err == nil {
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()
	}
	return sub, err
}

func (s *recordingStore) lastSub() Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[len(s.subs)-1]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := memory.NewApplicationRepository()
	broker := feed.NewBroker()
	repo.OnUpdate(func(app application.Application) {
		_ = broker.Publish(context.Background(), feed.Change{Event: feed.EventUpdate, Table: feed.TableApplications, Record: app})
	})
	store := &recordingStore{Backend: Backend{Applications: application.NewService(repo), Feed: broker}}
	events := make(chan Event, 32)
	session := NewSession(store, WithListener(func(ev Event) { events <- ev }))
	t.Cleanup(session.Shutdown)
	return &harness{repo: repo, broker: broker, store: store, events: events, session: session}
}

func (h *harness) seed(number string, status application.Status) application.Application {
	app := application.Application{
		ID:                "id-" + number,
		ApplicationNumber: number,
		Status:            status,
		FullName:          "Rajesh Kumar",
		LoanAmount:        decimal.NewFromInt(7500000),
		CreatedAt:         time.Date(2024, 12, 30, 4, 0, 0, 0, time.UTC),
		UpdatedAt:         time.Date(2024, 12, 30, 4, 0, 0, 0, time.UTC),
	}
	h.repo.Put(app)
	return app
}

func (h *harness) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
		return Event{}
	}
}

func TestSubmitEmptyIdentifierDoesNothing(t *testing.T) {
	h := newHarness(t)

	for _, in := range []string{"", "   ", "\t\n"} {
		err := h.session.Submit(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyIdentifier)
	}
	assert.Equal(t, StateIdle, h.session.State())
	assert.Zero(t, h.store.lookups.Load())
}

func TestSubmitTracksMatchingApplication(t *testing.T) {
	for _, input := range []string{"PL20241230-12345", "pl20241230-12345", "  pl20241230-12345  "} {
		t.Run(input, func(t *testing.T) {
			h := newHarness(t)
			app := h.seed("PL20241230-12345", application.StatusPending)

			require.NoError(t, h.session.Submit(context.Background(), input))

			ev := h.next(t)
			assert.Equal(t, EventTracking, ev.Kind)
			snap := h.session.Snapshot()
			assert.Equal(t, StateTracking, snap.State)
			require.NotNil(t, snap.Application)
			assert.Equal(t, app.ID, snap.Application.ID)
			assert.Len(t, snap.Stages, 4)
			assert.Equal(t, 1, h.broker.Subscribers(app.ID))
		})
	}
}

func TestSubmitUnknownIdentifierIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.seed("PL20241230-12345", application.StatusPending)

	require.NoError(t, h.session.Submit(context.Background(), "PL20990101-00000"))

	ev := h.next(t)
	assert.Equal(t, EventNotFound, ev.Kind)
	snap := h.session.Snapshot()
	assert.Equal(t, StateNotFound, snap.State)
	assert.Nil(t, snap.Application)
	assert.Contains(t, snap.Message, "PL20990101-00000")
}

func TestSubmitTransportFailure(t *testing.T) {
	h := newHarness(t)
	h.seed("PL20241230-12345", application.StatusPending)
	require.NoError(t, h.session.Submit(context.Background(), "PL20241230-12345"))
	h.next(t)

	h.store.lookupErr = errors.New("connection refused")
	require.NoError(t, h.session.Submit(context.Background(), "PL20241230-12345"))

	ev := h.next(t)
	assert.Equal(t, EventFailed, ev.Kind)
	snap := h.session.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Nil(t, snap.Application, "previous record must be cleared")
	assert.NotEmpty(t, snap.Message)
	assert.Equal(t, 0, h.broker.Subscribers("id-PL20241230-12345"))
}

func TestSwitchingApplicationsKeepsOneSubscription(t *testing.T) {
	h := newHarness(t)
	a := h.seed("PL20241230-11111", application.StatusPending)
	b := h.seed("PL20241230-22222", application.StatusPending)

	require.NoError(t, h.session.Submit(context.Background(), a.ApplicationNumber))
	h.next(t)
	require.Equal(t, 1, h.broker.Subscribers(a.ID))

	require.NoError(t, h.session.Submit(context.Background(), b.ApplicationNumber))
	h.next(t)

	assert.Equal(t, 0, h.broker.Subscribers(a.ID))
	assert.Equal(t, 1, h.broker.Subscribers(b.ID))

	_, err := h.repo.UpdateStatus(context.Background(), a.ID, application.StatusApproved)
	require.NoError(t, err)
	select {
	case ev := <-h.events:
		t.Fatalf("unexpected event for untracked application: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLiveUpdateRecomputesStages(t *testing.T) {
	h := newHarness(t)
	app := h.seed("PL20241230-12345", application.StatusPending)
	require.NoError(t, h.session.Submit(context.Background(), app.ApplicationNumber))
	first := h.next(t)
	require.Equal(t, StagePending, first.Snapshot.Stages[1].State)

	_, err := h.repo.UpdateStatus(context.Background(), app.ID, application.StatusUnderReview)
	require.NoError(t, err)

	ev := h.next(t)
	assert.Equal(t, EventStatusUpdated, ev.Kind)
	assert.Equal(t, StateTracking, ev.Snapshot.State)
	assert.Equal(t, application.StatusUnderReview, ev.Snapshot.Application.Status)
	assert.Equal(t, StageCurrent, ev.Snapshot.Stages[1].State)
	assert.Equal(t, StateTracking, h.session.State())
}

func TestSubmitWhileLoadingIsRejected(t *testing.T) {
	h := newHarness(t)
	h.seed("PL20241230-12345", application.StatusPending)
	h.store.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.session.Submit(context.Background(), "PL20241230-12345") }()

	require.Eventually(t, func() bool { return h.session.State() == StateLoading }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, h.session.Submit(context.Background(), "PL20241230-12345"), ErrLookupInFlight)

	close(h.store.gate)
	require.NoError(t, <-done)
	assert.Equal(t, StateTracking, h.session.State())
	assert.EqualValues(t, 1, h.store.lookups.Load())
}

func TestCloseReleasesSubscription(t *testing.T) {
	h := newHarness(t)
	app := h.seed("PL20241230-12345", application.StatusPending)
	require.NoError(t, h.session.Submit(context.Background(), app.ApplicationNumber))
	h.next(t)

	h.session.Close()
	h.session.Close()

	assert.Equal(t, StateIdle, h.session.State())
	assert.Equal(t, 0, h.broker.Subscribers(app.ID))
	assert.Equal(t, EventStopped, h.next(t).Kind)
	select {
	case ev := <-h.events:
		t.Fatalf("second close must be silent, got %+v", ev)
	default:
	}
}

func TestDroppedSubscriptionReconciles(t *testing.T) {
	h := newHarness(t)
	app := h.seed("PL20241230-12345", application.StatusPending)
	require.NoError(t, h.session.Submit(context.Background(), app.ApplicationNumber))
	h.next(t)

	dropped := h.store.lastSub()
	missed := app
	missed.Status = application.StatusApproved
	missed.UpdatedAt = app.UpdatedAt.Add(time.Hour)
	h.repo.Put(missed)
	dropped.Close()

	ev := h.next(t)
	assert.Equal(t, EventStatusUpdated, ev.Kind)
	assert.Equal(t, application.StatusApproved, ev.Snapshot.Application.Status)
	assert.Equal(t, StateTracking, h.session.State())
	require.Eventually(t, func() bool { return h.broker.Subscribers(app.ID) == 1 }, time.Second, 5*time.Millisecond)
}

func TestDroppedSubscriptionWithoutFeedReportsLoss(t *testing.T) {
	h := newHarness(t)
	app := h.seed("PL20241230-12345", application.StatusPending)
	require.NoError(t, h.session.Submit(context.Background(), app.ApplicationNumber))
	h.next(t)

	h.broker.Close()

	ev := h.next(t)
	assert.Equal(t, EventSubscriptionLost, ev.Kind)
	assert.Equal(t, StateTracking, ev.Snapshot.State)
	assert.Equal(t, app.ID, ev.Snapshot.Application.ID)
}

// bufferedSub hands out a subscription that already holds pending updates.
type bufferedSub struct {
	ch   chan application.Application
	once sync.Once
}

func (b *bufferedSub) Updates() <-chan application.Application { return b.ch }

func (b *bufferedSub) Close() { b.once.Do(func() { close(b.ch) }) }

type preloadedStore struct {
	record  application.Application
	pending application.Application
}

func (p preloadedStore) LookupByNumber(context.Context, string) (*application.Application, error) {
	cp := p.record
	return &cp, nil
}

func (p preloadedStore) Subscribe(string) (Subscription, error) {
	sub := &bufferedSub{ch: make(chan application.Application, 1)}
	sub.ch <- p.pending
	return sub, nil
}

func TestTrackingEventPrecedesBufferedUpdates(t *testing.T) {
	record := application.Application{ID: "app-1", ApplicationNumber: "PL20241215-00001", Status: application.StatusPending}
	pending := record
	pending.Status = application.StatusApproved

	for i := 0; i < 50; i++ {
		var (
			mu    sync.Mutex
			kinds []EventKind
		)
		session := NewSession(preloadedStore{record: record, pending: pending}, WithListener(func(ev Event) {
			mu.Lock()
			kinds = append(kinds, ev.Kind)
			mu.Unlock()
		}))

		require.NoError(t, session.Submit(context.Background(), record.ApplicationNumber))
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(kinds) == 2
		}, 2*time.Second, 5*time.Millisecond)

		mu.Lock()
		assert.Equal(t, []EventKind{EventTracking, EventStatusUpdated}, kinds)
		mu.Unlock()
		assert.Equal(t, application.StatusApproved, session.Snapshot().Application.Status)
		session.Shutdown()
	}
}
