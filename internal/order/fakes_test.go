package order

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"comanda-core/internal/domain"
)

// memStore is an in-memory Store. A single mutex gives the same
// per-record serialization the Postgres store gets from row locks.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	recs   map[int64]domain.OrderRecord

	failCreate bool
	failUpdate bool
}

func newMemStore() *memStore {
	return &memStore{recs: make(map[int64]domain.OrderRecord)}
}

func (s *memStore) Create(_ context.Context, rec *domain.OrderRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return 0, errors.New("disk on fire")
	}
	s.nextID++
	stored := *rec
	stored.ID = s.nextID
	s.recs[stored.ID] = stored
	return stored.ID, nil
}

func (s *memStore) Get(_ context.Context, id int64) (domain.OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return domain.OrderRecord{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return rec, nil
}

func (s *memStore) ListByStatus(_ context.Context, source *domain.SourceType, status domain.Status) ([]domain.OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.OrderRecord
	for _, rec := range s.recs {
		if rec.Status != status {
			continue
		}
		if source != nil && rec.Source != *source {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id int64, next domain.Status, check func(current domain.OrderRecord) error) (domain.OrderRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return domain.OrderRecord{}, false, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if err := check(rec); err != nil {
		return domain.OrderRecord{}, false, err
	}
	if rec.Status == next {
		return rec, false, nil
	}
	if s.failUpdate {
		return domain.OrderRecord{}, false, errors.New("disk on fire")
	}
	rec.Status = next
	s.recs[id] = rec
	return rec, true, nil
}

// fakeTransport records every send; Dispatcher's at-most-once contract
// means sends map one-to-one onto publish calls.
type fakeTransport struct {
	mu    sync.Mutex
	sends []sentMessage
	err   error
}

type sentMessage struct {
	Channel string
	Body    []byte
}

func (t *fakeTransport) Send(_ context.Context, channel string, body []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.sends = append(t.sends, sentMessage{Channel: channel, Body: body})
	return nil
}

func (t *fakeTransport) byChannel(channel string) []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []sentMessage
	for _, m := range t.sends {
		if m.Channel == channel {
			out = append(out, m)
		}
	}
	return out
}
