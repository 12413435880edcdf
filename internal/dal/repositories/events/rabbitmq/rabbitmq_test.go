package rabbitmq

import (
	"testing"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/outbox"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestQueueName(t *testing.T) {
	assert.Equal(t, "coffeeshop.order.created", QueueName("coffeeshop", outbox.RoutingKeyOrderCreated))
	assert.Equal(t, "order.status_changed", QueueName("", outbox.RoutingKeyOrderStatusChanged))
}

func TestPublishing(t *testing.T) {
	created := time.Date(2024, time.June, 14, 9, 0, 0, 0, time.UTC)
	msg := Publishing(outbox.Event{
		ID:         42,
		OrderID:    7,
		RoutingKey: outbox.RoutingKeyOrderCreated,
		Payload:    []byte(`{"orderId":7}`),
		CreatedAt:  created,
	})

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "42", msg.MessageId)
	assert.Equal(t, outbox.RoutingKeyOrderCreated, msg.Type)
	assert.Equal(t, created, msg.Timestamp)
	assert.Equal(t, int64(7), msg.Headers["order_id"])
	assert.JSONEq(t, `{"orderId":7}`, string(msg.Body))
}
