package realtime

import (
	"context"

	"github.com/shelfdex/shelfdex/pkg/config"
	"github.com/shelfdex/shelfdex/pkg/kafka"
)

// KafkaPublisher publishes FlushEvents to the configured index-complete
// topic, reusing the shared JSON producer wrapper.
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher creates a KafkaPublisher for cfg.Topics.IndexComplete.
func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{producer: kafka.NewProducer(cfg, cfg.Topics.IndexComplete)}
}

// PublishFlush implements Publisher.
func (p *KafkaPublisher) PublishFlush(ctx context.Context, event FlushEvent) error {
	return p.producer.Publish(ctx, kafka.Event{
		Key:   event.SegmentName,
		Value: event,
	})
}

// Close releases the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
