package broadcast

import (
	"context"

	"comanda-core/internal/connections/rabbitmq"
)

// AMQPTransport publishes to one fanout exchange per channel.
type AMQPTransport struct {
	client *rabbitmq.Client
}

func NewAMQPTransport(client *rabbitmq.Client) *AMQPTransport {
	return &AMQPTransport{client: client}
}

func (t *AMQPTransport) Send(ctx context.Context, channel string, body []byte) error {
	return t.client.Publish(ctx, channel, body)
}
