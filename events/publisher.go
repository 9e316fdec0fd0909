package events

import (
	"context"
	"encoding/json"
	"fmt"

	aws_pkg "github.com/LeeRude11/delivery/pkg/aws"
	"github.com/segmentio/kafka-go"
)

// Publisher delivers domain events to the configured bus. Callers treat
// publishing as best effort: the order is already committed.
type Publisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
	Close() error
}

// SNSPublisher publishes JSON events to a single SNS topic.
type SNSPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client aws_pkg.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

// Publish sends the event as JSON with event_type and order_id attributes.
func (p *SNSPublisher) Publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.client.Publish(ctx, p.topicArn, data, map[string]string{
		"event_type": eventType(event),
		"order_id":   key,
	})
}

func (p *SNSPublisher) Close() error { return nil }

// KafkaPublisher writes JSON events to a Kafka topic, keyed so that all
// events of one order land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		return fmt.Errorf("kafka write to %s failed: %w", p.writer.Topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }
