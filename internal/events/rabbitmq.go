package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const exchangeType = "fanout"

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes generation events to a durable fanout exchange.
type RabbitMQPublisher struct {
	ch           channel
	logger       *zap.Logger
	exchangeName string
}

func NewRabbitMQPublisher(conn *amqp091.Connection, exchangeName string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchangeName,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}

	logger.Info("generation events exchange declared", zap.String("exchange", exchangeName))
	return newRabbitMQPublisher(ch, exchangeName, logger), nil
}

func newRabbitMQPublisher(ch channel, exchangeName string, logger *zap.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		ch:           ch,
		logger:       logger.Named("EventPublisher"),
		exchangeName: exchangeName,
	}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, ev GenerationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		p.exchangeName,
		"", // fanout ignores the routing key
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Type:         ev.Type,
			MessageId:    ev.GenerationID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Type, err)
	}

	p.logger.Debug("event published", zap.String("type", ev.Type), zap.String("generation_id", ev.GenerationID))
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
