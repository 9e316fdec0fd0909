package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/LeeRude11/delivery/models"
	"github.com/rabbitmq/amqp091-go"
)

// DefaultOrderExchange is the topic exchange order events are sent to.
const DefaultOrderExchange = "orders_topic"

// amqpChannel is the part of *amqp091.Channel the publisher needs.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// RabbitMQPublisher sends persistent JSON events to a topic exchange. The
// routing key is derived from the event type, e.g. "order.placed".
type RabbitMQPublisher struct {
	conn     *amqp091.Connection
	channel  amqpChannel
	exchange string
	timeout  time.Duration
}

// NewRabbitMQPublisher dials url, retrying a few times while the broker
// starts, and declares the exchange.
func NewRabbitMQPublisher(url, exchange string) (*RabbitMQPublisher, error) {
	if exchange == "" {
		exchange = DefaultOrderExchange
	}

	const maxRetries = 5
	var err error
	for i := 0; i < maxRetries; i++ {
		var p *RabbitMQPublisher
		if p, err = dialRabbitMQ(url, exchange); err == nil {
			return p, nil
		}
		if i < maxRetries-1 {
			time.Sleep(time.Duration(i+1) * 2 * time.Second)
		}
	}
	return nil, fmt.Errorf("connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

func dialRabbitMQ(url, exchange string) (*RabbitMQPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &RabbitMQPublisher{conn: conn, channel: ch, exchange: exchange, timeout: 10 * time.Second}, nil
}

func newRabbitMQPublisherWithChannel(ch amqpChannel, exchange string) *RabbitMQPublisher {
	return &RabbitMQPublisher{channel: ch, exchange: exchange, timeout: 10 * time.Second}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, key string, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey(event), false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		CorrelationId: key,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("publish to exchange %s: %w", p.exchange, err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func routingKey(event interface{}) string {
	t := eventType(event)
	if t == "" {
		return "order.unknown"
	}
	return strings.Replace(t, "_", ".", 1)
}

// eventType returns the event_type of a known order event, "" otherwise.
func eventType(event interface{}) string {
	switch e := event.(type) {
	case models.OrderPlacedEvent:
		return e.EventType
	case *models.OrderPlacedEvent:
		return e.EventType
	case models.OrderAdvancedEvent:
		return e.EventType
	case *models.OrderAdvancedEvent:
		return e.EventType
	}
	return ""
}
