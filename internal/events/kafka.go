package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// KafkaEventPublisher publishes events to a Kafka topic via Watermill.
type KafkaEventPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

// NewKafkaEventPublisher connects a Watermill Kafka publisher.
func NewKafkaEventPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaEventPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}

	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:   brokers,
			Marshaler: kafka.DefaultMarshaler{},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return &KafkaEventPublisher{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}, nil
}

// Publish marshals the event and sends it to the configured topic.
func (k *KafkaEventPublisher) Publish(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", event.Type)
	msg.SetContext(ctx)

	if err := k.publisher.Publish(k.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func (k *KafkaEventPublisher) Close() error {
	return k.publisher.Close()
}

// ChannelEventPublisher is an in-process publisher used when no Kafka
// brokers are configured. Events flow through a Watermill gochannel so
// local subscribers still work.
type ChannelEventPublisher struct {
	pubsub *gochannel.GoChannel
	topic  string
	logger *slog.Logger
}

func NewChannelEventPublisher(topic string, logger *slog.Logger) *ChannelEventPublisher {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)

	return &ChannelEventPublisher{
		pubsub: pubsub,
		topic:  topic,
		logger: logger,
	}
}

func (c *ChannelEventPublisher) Publish(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", event.Type)
	msg.SetContext(ctx)

	return c.pubsub.Publish(c.topic, msg)
}

// Subscribe exposes the local stream, mainly for tests and debugging.
func (c *ChannelEventPublisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return c.pubsub.Subscribe(ctx, c.topic)
}

func (c *ChannelEventPublisher) Close() error {
	return c.pubsub.Close()
}
