package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Publish sends one typed event to its topic.
type Publish[T any] func(event *T) error

// NewPublishFunc binds a topic to an event type. The returned func
// marshals the event and hands it to the underlying publisher; the
// topic rides along in message metadata for consumers that fan out by
// kind.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("messaging: marshal event for %s: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set("topic", topic)

		return publisher.Publish(topic, msg)
	}
}

// PublisherGroup owns the wire publisher so the container can close it
// once, no matter how many typed publish funcs were built on it.
type PublisherGroup struct {
	publisher message.Publisher
}

// NewPublisherGroup creates a group over the wire publisher.
func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

// Publisher returns the shared wire publisher.
func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the wire publisher.
func (g *PublisherGroup) Shutdown() error {
	return g.publisher.Close()
}
