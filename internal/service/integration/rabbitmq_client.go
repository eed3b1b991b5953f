package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// StatusNotifier publishes document lifecycle events to interested parties.
type StatusNotifier interface {
	PublishDocumentStatus(ctx context.Context, event *models.DocumentStatusEvent) error
	Close() error
}

type rabbitMQNotifier struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
	logger     zerolog.Logger
}

func NewRabbitMQNotifier(url, exchange, routingKey string, logger zerolog.Logger) (StatusNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info().
		Str("exchange", exchange).
		Str("routing_key", routingKey).
		Msg("Connected to RabbitMQ")

	return &rabbitMQNotifier{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		logger:     logger,
	}, nil
}

func (n *rabbitMQNotifier) PublishDocumentStatus(ctx context.Context, event *models.DocumentStatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = n.channel.PublishWithContext(
		publishCtx,
		n.exchange,   // exchange
		n.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.EventID,
			Timestamp:    event.OccurredAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	n.logger.Info().
		Str("document_id", event.DocumentID).
		Str("status", event.Status.String()).
		Msg("Document status event published")

	return nil
}

func (n *rabbitMQNotifier) Close() error {
	if n.channel != nil {
		if err := n.channel.Close(); err != nil {
			n.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if n.conn != nil {
		if err := n.conn.Close(); err != nil {
			n.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}

type nopNotifier struct{}

// NewNopNotifier returns a notifier that drops every event. Used when no
// broker is configured.
func NewNopNotifier() StatusNotifier {
	return nopNotifier{}
}

func (nopNotifier) PublishDocumentStatus(context.Context, *models.DocumentStatusEvent) error {
	return nil
}

func (nopNotifier) Close() error {
	return nil
}
