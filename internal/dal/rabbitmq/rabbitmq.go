package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// ErrChannelClosed is returned when the broker closes the channel while a
// publish is waiting for its confirmation.
var ErrChannelClosed = errors.New("rabbitmq channel closed")

// Client owns one connection and one channel in publisher-confirm mode.
// Publishes are serialized so each confirmation matches its message.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	confirms chan amqp.Confirmation

	mu sync.Mutex
}

// MustNewClient dials the broker configured under rabbitmq.* using the
// RABBITMQ_DEFAULT_USER and RABBITMQ_DEFAULT_PASS credentials.
func MustNewClient() *Client {
	conn, err := amqp.Dial(dsn())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}

	client, err := newClient(conn)
	if err != nil {
		_ = conn.Close()
		panic(err.Error())
	}

	slog.Info("RabbitMQ connected", "host", viper.GetString("rabbitmq.host"))

	return client
}

func newClient(conn *amqp.Connection) (*Client, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := channel.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	return &Client{
		conn:     conn,
		channel:  channel,
		confirms: channel.NotifyPublish(make(chan amqp.Confirmation, 1)),
	}, nil
}

func dsn() string {
	host := viper.GetString("rabbitmq.host")
	if host == "" {
		host = "rabbitmq"
	}
	port := viper.GetInt("rabbitmq.port")
	if port == 0 {
		port = 5672
	}

	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d/%s",
		url.QueryEscape(os.Getenv("RABBITMQ_DEFAULT_USER")),
		url.QueryEscape(os.Getenv("RABBITMQ_DEFAULT_PASS")),
		host,
		port,
		url.PathEscape(viper.GetString("rabbitmq.vhost")),
	)
}

// DeclareExchange declares a durable topic exchange. The default exchange needs no declaration.
func (c *Client) DeclareExchange(name string) error {
	if name == "" {
		return nil
	}

	return c.channel.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
}

// BindDurableQueue declares a durable queue and, unless exchange is the
// default one, binds it to exchange under routingKey.
func (c *Client) BindDurableQueue(queue, exchange, routingKey string) error {
	q, err := c.channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if exchange == "" {
		return nil
	}
	if err := c.channel.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to %s: %w", q.Name, exchange, err)
	}

	return nil
}

// Publish sends msg and blocks until the broker acks or nacks it.
func (c *Client) Publish(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.channel.Publish(exchange, routingKey, false, false, msg); err != nil {
		return err
	}

	select {
	case confirm, ok := <-c.confirms:
		if !ok {
			return ErrChannelClosed
		}
		if !confirm.Ack {
			return fmt.Errorf("broker nacked delivery %d", confirm.DeliveryTag)
		}

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the channel and then the connection.
func (c *Client) Close() error {
	var errChannel, errConn error
	if c.channel != nil {
		errChannel = c.channel.Close()
	}
	if c.conn != nil {
		errConn = c.conn.Close()
	}

	return errors.Join(errChannel, errConn)
}
