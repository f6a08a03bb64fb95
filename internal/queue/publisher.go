package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// defaultPublishTimeout bounds a publish whose context carries no deadline,
// including reconnect attempts while the broker is unreachable.
const defaultPublishTimeout = 3 * time.Second

type RabbitMQPublisher struct {
	client  *RabbitMQ
	timeout time.Duration
}

var _ EventPublisher = (*RabbitMQPublisher)(nil)

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client, timeout: defaultPublishTimeout}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event DispatchEvent) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid dispatch event: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch event: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok && p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	routingKey := SentRoutingKey(event.Tag)
	publishing := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		MessageId:     event.LogID,
		CorrelationId: event.RequestID,
		Type:          sentRoutingRoot,
		Body:          body,
	}

	if err := ch.PublishWithContext(ctx, EventsExchange, routingKey, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish event with routing key %q: %w", routingKey, err)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
