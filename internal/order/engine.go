package order

import (
	"context"
	"errors"
	"fmt"

	"comanda-core/internal/broadcast"
	"comanda-core/internal/domain"
	"comanda-core/internal/logger"
)

// Engine applies status transitions. Validation and the idempotency check
// run inside the store's per-record critical section, so two concurrent
// requests for the same id see consistent state and at most one wins.
type Engine struct {
	store Store
	bus   *broadcast.Dispatcher
	log   *logger.Logger
}

func NewEngine(store Store, bus *broadcast.Dispatcher, log *logger.Logger) *Engine {
	return &Engine{store: store, bus: bus, log: log}
}

// Transition moves the order to target. Requesting the current status is a
// successful no-op that does not re-broadcast; anything not reachable in
// the source's pipeline is rejected with the record unchanged. By the time
// Transition returns nil, subscribers of the kitchen channel have been
// scheduled for notification.
func (e *Engine) Transition(ctx context.Context, id int64, target domain.Status) (domain.Status, error) {
	if !target.Known() {
		return 0, fmt.Errorf("status %d: %w", target, domain.ErrInvalidTransition)
	}

	rec, changed, err := e.store.UpdateStatus(ctx, id, target, func(current domain.OrderRecord) error {
		if current.Status == target {
			return nil // idempotent retry
		}
		if !domain.CanTransition(current.Source, current.Status, target) {
			return fmt.Errorf("%s order: %s -> %s: %w",
				current.Source, current.Status, target, domain.ErrInvalidTransition)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if changed {
		e.log.Debug("status_committed", map[string]any{
			"order_id": id, "status": rec.Status.String(),
		})
		e.bus.Publish(ctx, domain.ChannelKitchen, domain.EventOrderUpdated, rec)
	}
	return rec.Status, nil
}
