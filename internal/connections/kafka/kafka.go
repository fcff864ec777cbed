package kafka

import (
	"github.com/Shopify/sarama"
)

// Producer is a thin synchronous producer; one topic per broadcast
// channel, channel name used as the topic name.
type Producer struct {
	conn sarama.SyncProducer
}

func NewProducer(brokers []string) (*Producer, error) {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true
	conf.Producer.RequiredAcks = sarama.WaitForLocal

	conn, err := sarama.NewSyncProducer(brokers, conf)
	if err != nil {
		return nil, err
	}
	return &Producer{conn: conn}, nil
}

func (p *Producer) Push(topic string, body []byte) error {
	_, _, err := p.conn.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(body),
	})
	return err
}

func (p *Producer) Close() error { return p.conn.Close() }
