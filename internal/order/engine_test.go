package order

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comanda-core/internal/broadcast"
	"comanda-core/internal/domain"
	"comanda-core/internal/logger"
)

func newTestEngine(t *testing.T) (*Engine, *memStore, *fakeTransport) {
	t.Helper()
	store := newMemStore()
	transport := &fakeTransport{}
	bus := broadcast.New(transport, logger.New("test"))
	return NewEngine(store, bus, logger.New("test")), store, transport
}

func seedOrder(t *testing.T, store *memStore, source domain.SourceType, status domain.Status) int64 {
	t.Helper()
	rec := domain.OrderRecord{
		Source:    source,
		SourceRef: "ref-1",
		Items:     []domain.Item{{Name: "cafe", Quantity: 1}},
		Status:    status,
	}
	if source == domain.SourceTable {
		n := 2
		rec.TableNumber = &n
	}
	id, err := store.Create(context.Background(), &rec)
	require.NoError(t, err)
	return id
}

func TestTransitionWebPipeline(t *testing.T) {
	e, store, transport := newTestEngine(t)
	id := seedOrder(t, store, domain.SourceWeb, domain.StatusPending)

	for _, target := range []domain.Status{
		domain.StatusInProgress, domain.StatusReady, domain.StatusDelivered,
	} {
		got, err := e.Transition(context.Background(), id, target)
		require.NoError(t, err)
		assert.Equal(t, target, got)
	}

	// one kitchen event per committed transition, nothing on the pending channel
	kitchen := transport.byChannel(domain.ChannelKitchen)
	require.Len(t, kitchen, 3)
	assert.Empty(t, transport.byChannel(domain.ChannelPending))

	var last domain.OrderEvent
	require.NoError(t, json.Unmarshal(kitchen[2].Body, &last))
	assert.Equal(t, domain.EventOrderUpdated, last.Event)
	assert.Equal(t, domain.StatusDelivered, last.Status)
	assert.Equal(t, domain.SourceWeb, last.Source)
}

func TestTransitionTableAttended(t *testing.T) {
	e, store, transport := newTestEngine(t)
	id := seedOrder(t, store, domain.SourceTable, domain.StatusPending)

	got, err := e.Transition(context.Background(), id, domain.StatusAttended)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAttended, got)
	assert.Len(t, transport.byChannel(domain.ChannelKitchen), 1)

	// attended is terminal
	_, err = e.Transition(context.Background(), id, domain.StatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransitionIdempotentRetry(t *testing.T) {
	e, store, transport := newTestEngine(t)
	id := seedOrder(t, store, domain.SourceWeb, domain.StatusPending)

	for i := 0; i < 3; i++ {
		got, err := e.Transition(context.Background(), id, domain.StatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, got)
	}
	assert.Len(t, transport.sends, 1, "retries must not re-broadcast")
}

func TestTransitionInvalidLeavesRecordUnchanged(t *testing.T) {
	e, store, transport := newTestEngine(t)
	id := seedOrder(t, store, domain.SourceWeb, domain.StatusDelivered)

	_, err := e.Transition(context.Background(), id, domain.StatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	rec, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, rec.Status)
	assert.Empty(t, transport.sends)
}

func TestTransitionUnknownStatus(t *testing.T) {
	e, store, _ := newTestEngine(t)
	id := seedOrder(t, store, domain.SourceWeb, domain.StatusPending)

	_, err := e.Transition(context.Background(), id, domain.Status(99))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransitionNotFound(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.Transition(context.Background(), 404, domain.StatusInProgress)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionPersistenceFailure(t *testing.T) {
	e, store, transport := newTestEngine(t)
	id := seedOrder(t, store, domain.SourceWeb, domain.StatusPending)
	store.failUpdate = true

	_, err := e.Transition(context.Background(), id, domain.StatusInProgress)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, transport.sends, "no broadcast for an uncommitted transition")
}

func TestTransitionSurvivesTransportFailure(t *testing.T) {
	store := newMemStore()
	transport := &fakeTransport{err: assert.AnError}
	bus := broadcast.New(transport, logger.New("test"))
	e := NewEngine(store, bus, logger.New("test"))
	id := seedOrder(t, store, domain.SourceWeb, domain.StatusPending)

	got, err := e.Transition(context.Background(), id, domain.StatusInProgress)
	require.NoError(t, err, "broadcast failure must never fail the state change")
	assert.Equal(t, domain.StatusInProgress, got)

	rec, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, rec.Status)
}

func TestConcurrentSameTarget(t *testing.T) {
	e, store, transport := newTestEngine(t)
	id := seedOrder(t, store, domain.SourceWeb, domain.StatusPending)

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Transition(context.Background(), id, domain.StatusInProgress)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err, "retried requests are successful no-ops")
	}
	assert.Len(t, transport.sends, 1, "exactly one winner broadcasts")
}

func TestConcurrentConflictingTargets(t *testing.T) {
	e, store, transport := newTestEngine(t)
	id := seedOrder(t, store, domain.SourceWeb, domain.StatusInProgress)

	var wg sync.WaitGroup
	var errReady, errDelivered error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errReady = e.Transition(context.Background(), id, domain.StatusReady)
	}()
	go func() {
		defer wg.Done()
		_, errDelivered = e.Transition(context.Background(), id, domain.StatusDelivered)
	}()
	wg.Wait()

	// The ready request is always valid. The delivered request either ran
	// after it (and won) or observed in_progress and was rejected; it is
	// never silently lost.
	require.NoError(t, errReady)
	rec, err := store.Get(context.Background(), id)
	require.NoError(t, err)

	if errDelivered == nil {
		assert.Equal(t, domain.StatusDelivered, rec.Status)
		assert.Len(t, transport.sends, 2)
	} else {
		assert.ErrorIs(t, errDelivered, domain.ErrInvalidTransition)
		assert.Equal(t, domain.StatusReady, rec.Status)
		assert.Len(t, transport.sends, 1)
	}
}
