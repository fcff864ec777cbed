package broadcast

import (
	"context"
	"encoding/json"
	"time"

	"comanda-core/internal/domain"
	"comanda-core/internal/logger"
)

// Transport hands one encoded event to a named channel's subscribers.
// At-most-once: no retry, no outbox, no subscriber acknowledgment.
type Transport interface {
	Send(ctx context.Context, channel string, body []byte) error
}

// Dispatcher publishes committed order transitions. Broadcasting is
// best-effort; a transport failure is logged and never surfaced to the
// caller that committed the state change.
type Dispatcher struct {
	transport Transport
	log       *logger.Logger
}

func New(transport Transport, log *logger.Logger) *Dispatcher {
	return &Dispatcher{transport: transport, log: log}
}

// Publish builds the event payload and fires it at the channel. The
// timestamp is taken here, at publish time, so subscribers see actual
// notification latency rather than commit time.
func (d *Dispatcher) Publish(ctx context.Context, channel, event string, rec domain.OrderRecord) {
	// The transition is already committed; a caller canceling its request
	// must not suppress the notification.
	ctx = context.WithoutCancel(ctx)

	ev := domain.OrderEvent{
		Event:     event,
		OrderID:   rec.ID,
		Items:     rec.Items,
		Status:    rec.Status,
		Source:    rec.Source,
		Timestamp: time.Now().UTC(),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		d.log.Error("event_marshal_failed", err, map[string]any{"channel": channel, "event": event})
		return
	}
	if err := d.transport.Send(ctx, channel, body); err != nil {
		d.log.Error("broadcast_failed", err, map[string]any{
			"channel": channel, "event": event, "order_id": rec.ID,
		})
		return
	}
	d.log.Debug("event_published", map[string]any{
		"channel": channel, "event": event, "order_id": rec.ID, "status": rec.Status.String(),
	})
}
