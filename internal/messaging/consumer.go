package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Handler processes one decoded event. Handlers are synchronous; a nil
// return acks the message, an error nacks it for redelivery.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer pulls messages off one topic and feeds the decoded events
// to a handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handle     Handler[T]
	logger     *zap.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a consumer binding topic to the event type T.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handle Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handle:     handle,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Topic returns the subscribed topic.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and begins the consume loop. Stop via Shutdown.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("messaging: subscribe %s: %w", c.topic, err)
	}

	go c.consume(ctx, msgs)

	return nil
}

// consume runs until the subscriber closes the channel, which happens
// once the subscription context is cancelled.
func (c *Consumer[T]) consume(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for msg := range msgs {
		if err := c.process(ctx, msg); err != nil {
			c.logger.Error("event processing failed",
				zap.String("topic", c.topic),
				zap.String("messageId", msg.UUID),
				zap.Error(err),
			)
			msg.Nack()

			continue
		}

		msg.Ack()
	}
}

func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) error {
	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}

	return c.handle(ctx, &event)
}

// Shutdown cancels the subscription and waits for the loop to drain.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
	}

	<-c.done

	return nil
}
