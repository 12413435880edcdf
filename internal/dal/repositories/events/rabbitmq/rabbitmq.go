package rabbitmq

import (
	"context"
	"fmt"
	"strconv"

	"github.com/corray333/backend-labs/coffeeshop/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/outbox"
	"github.com/streadway/amqp"
)

var routingKeys = []string{outbox.RoutingKeyOrderCreated, outbox.RoutingKeyOrderStatusChanged}

// EventsRabbitMQRepository publishes order events relayed from the outbox.
type EventsRabbitMQRepository struct {
	client *rabbitmq.Client
}

// NewEventsRabbitMQRepository declares one durable queue per order event.
// Queues are named "<exchange>.<routing key>", or after the routing key alone
// on the default exchange.
func NewEventsRabbitMQRepository(client *rabbitmq.Client, exchange string) *EventsRabbitMQRepository {
	if err := client.DeclareExchange(exchange); err != nil {
		panic(fmt.Sprintf("Failed to declare exchange %s: %v", exchange, err))
	}

	for _, key := range routingKeys {
		if err := client.BindDurableQueue(QueueName(exchange, key), exchange, key); err != nil {
			panic(err.Error())
		}
	}

	return &EventsRabbitMQRepository{client: client}
}

// QueueName is the queue consumers read routingKey events from.
func QueueName(exchange, routingKey string) string {
	if exchange == "" {
		return routingKey
	}

	return exchange + "." + routingKey
}

// Publish sends one event as a persistent JSON message and waits for the broker confirm.
func (r *EventsRabbitMQRepository) Publish(ctx context.Context, event outbox.Event) error {
	if err := r.client.Publish(ctx, event.Exchange, event.RoutingKey, Publishing(event)); err != nil {
		return fmt.Errorf("failed to publish %s for order %d: %w", event.RoutingKey, event.OrderID, err)
	}

	return nil
}

// Publishing maps an event onto an AMQP message. The outbox id doubles as
// the message id so consumers can drop redeliveries.
func Publishing(event outbox.Event) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    strconv.FormatInt(event.ID, 10),
		Type:         event.RoutingKey,
		Timestamp:    event.CreatedAt,
		Headers:      amqp.Table{"order_id": event.OrderID},
		Body:         event.Payload,
	}
}
