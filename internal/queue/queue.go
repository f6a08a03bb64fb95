package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
)

// EventPublisher announces completed dispatches to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event DispatchEvent) error
	Close() error
}

const (
	// EventsExchange is the durable topic exchange for dispatch events.
	EventsExchange = "igdm.events"
	// SentQueue collects every dm.sent.* event.
	SentQueue = "igdm.dm.sent"

	dlxExchangeName = "igdm.events.dlx"
	sentRoutingRoot = "dm.sent"
)

// SentRoutingKey returns the routing key for a sent event, e.g. dm.sent.account_update.
func SentRoutingKey(tag domain.MessagingTag) string {
	if !tag.IsValid() {
		return fmt.Sprintf("%s.untagged", sentRoutingRoot)
	}
	return fmt.Sprintf("%s.%s", sentRoutingRoot, strings.ToLower(tag.String()))
}

// SentBindingKey matches every sent routing key.
func SentBindingKey() string {
	return sentRoutingRoot + ".#"
}

// DLQName returns the dead-letter queue name for a queue, e.g. dlq.igdm.dm.sent.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// NoopPublisher drops events. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, DispatchEvent) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }
