package container

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/throttle-demo-go/internal/events"
	eventstore "github.com/serroba/throttle-demo-go/internal/events/store"
	"github.com/serroba/throttle-demo-go/internal/messaging"
	"github.com/serroba/throttle-demo-go/internal/ratelimit"
	"github.com/serroba/throttle-demo-go/internal/store"
	"go.uber.org/zap"
)

const eventsConsumerGroup = "throttle-events"

// PublisherGroupPackage provides the event publisher and the typed
// publish function the middleware uses.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NewStdLogger(false, false))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[events.LimitExceededEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[events.LimitExceededEvent](group.Publisher(), events.TopicLimitExceeded), nil
	})
}

// ConsumerGroupPackage provides the consumer-side lifecycle: the
// throttle event consumer plus, for backends without native TTL, the
// prune janitor.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (events.Store, error) {
		options := do.MustInvoke[*Options](i)

		switch options.EventsSink {
		case "redis":
			return eventstore.NewRedisCounters(do.MustInvoke[*redis.Client](i)), nil
		case "log":
			return eventstore.NewNoop(do.MustInvoke[*zap.Logger](i)), nil
		default:
			return nil, fmt.Errorf("unknown events sink %q", options.EventsSink)
		}
	})

	do.Provide(injector, func(i *do.Injector) (*messaging.Group, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		client := do.MustInvoke[*redis.Client](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: eventsConsumerGroup,
		}, watermill.NewStdLogger(false, false))
		if err != nil {
			return nil, err
		}

		group := messaging.NewGroup(subscriber, logger)

		eventStore, err := do.Invoke[events.Store](i)
		if err != nil {
			return nil, err
		}

		group.Add(messaging.NewConsumer[events.LimitExceededEvent](
			subscriber,
			events.TopicLimitExceeded,
			events.NewLimitExceededHandler(eventStore),
			logger,
		))

		// Redis evicts expired keys itself; the other backends need the
		// sweep.
		limitStore, err := do.Invoke[ratelimit.Store](i)
		if err != nil {
			return nil, err
		}

		if pruner, ok := limitStore.(store.Pruner); ok {
			interval := time.Duration(options.PruneSeconds) * time.Second
			group.Add(store.NewJanitor(pruner, interval, logger))
		}

		return group, nil
	})
}
