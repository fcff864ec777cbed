package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"comanda-core/internal/config"
	"comanda-core/internal/domain"
)

// Client owns one connection and one channel. Broadcast channels map onto
// fanout exchanges, one per channel name.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(cfg config.RabbitMQConfig) (*Client, error) {
	vhost := cfg.VHost
	if vhost == "" {
		vhost = "/"
	}
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, vhost)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// DeclareChannels creates the two fanout exchanges. Idempotent.
func (c *Client) DeclareChannels() error {
	for _, name := range []string{domain.ChannelKitchen, domain.ChannelPending} {
		if err := c.ch.ExchangeDeclare(name, "fanout", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}
	return nil
}

func (c *Client) Ping() error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// Publish pushes one message to a fanout exchange. Transient delivery: a
// channel with no subscriber bound at publish time drops the message.
func (c *Client) Publish(ctx context.Context, channel string, body []byte) error {
	return c.ch.PublishWithContext(
		ctx,
		channel,
		"", // routing key ignored by fanout
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Transient,
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
}

// Subscribe binds a fresh exclusive auto-delete queue to a channel's
// exchange and starts an auto-ack consumer. The queue disappears with the
// subscriber, so missed events are simply lost.
func (c *Client) Subscribe(channel, consumer string) (<-chan amqp.Delivery, error) {
	q, err := c.ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := c.ch.QueueBind(q.Name, "", channel, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue to %s: %w", channel, err)
	}
	return c.ch.Consume(q.Name, consumer, true, true, false, false, nil)
}
