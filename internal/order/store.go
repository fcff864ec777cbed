package order

import (
	"context"

	"comanda-core/internal/domain"
)

// Store is the durable order-record table. All operations are atomic at
// single-record granularity; UpdateStatus must evaluate check against the
// current state under per-record mutual exclusion so that concurrent
// transitions for the same id serialize.
type Store interface {
	// Create persists a new record and returns its assigned id.
	Create(ctx context.Context, rec *domain.OrderRecord) (int64, error)

	// Get returns the record or domain.ErrNotFound.
	Get(ctx context.Context, id int64) (domain.OrderRecord, error)

	// ListByStatus returns records in a status, optionally narrowed to one
	// source type. This is the pull-based reconcile query for subscribers
	// that missed broadcasts.
	ListByStatus(ctx context.Context, source *domain.SourceType, status domain.Status) ([]domain.OrderRecord, error)

	// UpdateStatus locks the record, runs check against its current state,
	// and applies next unless next equals the current status (a no-op that
	// still succeeds). Returns the record as left by the call and whether
	// a change was committed. A check error aborts without writing.
	UpdateStatus(ctx context.Context, id int64, next domain.Status, check func(current domain.OrderRecord) error) (domain.OrderRecord, bool, error)
}
