package display

import (
	"context"
	"encoding/json"

	"comanda-core/internal/connections/rabbitmq"
	"comanda-core/internal/domain"
	"comanda-core/internal/logger"
)

// Run consumes the kitchen fanout channel and renders each transition to
// the log. It is the reference subscriber: it binds an exclusive
// auto-delete queue, so anything published while it is offline is lost and
// has to be reconciled through the tracking service.
func Run(ctx context.Context, client *rabbitmq.Client) error {
	lg := logger.New("kitchen-display")

	deliveries, err := client.Subscribe(domain.ChannelKitchen, "kitchen-display")
	if err != nil {
		return err
	}
	lg.Info("subscribed", map[string]any{"channel": domain.ChannelKitchen})

	for {
		select {
		case <-ctx.Done():
			lg.Info("graceful_shutdown", nil)
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var ev domain.OrderEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				lg.Error("event_decode_failed", err, nil)
				continue
			}
			lg.Info("order_event", map[string]any{
				"event":       ev.Event,
				"order_id":    ev.OrderID,
				"status":      ev.Status.String(),
				"source_type": string(ev.Source),
				"items":       len(ev.Items),
				"published":   ev.Timestamp,
			})
		}
	}
}
