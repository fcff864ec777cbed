package broadcast

import (
	"context"

	"comanda-core/internal/connections/kafka"
)

// KafkaTransport publishes to one topic per channel.
type KafkaTransport struct {
	producer *kafka.Producer
}

func NewKafkaTransport(producer *kafka.Producer) *KafkaTransport {
	return &KafkaTransport{producer: producer}
}

func (t *KafkaTransport) Send(_ context.Context, channel string, body []byte) error {
	return t.producer.Push(channel, body)
}
