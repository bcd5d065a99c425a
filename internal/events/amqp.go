package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/mmynk/splitledger/internal/models"
)

// Channel is the subset of *amqp091.Channel used for publishing.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher publishes activities as JSON to a topic exchange. The routing
// key is the activity type in lower case dotted form, e.g. "expense.add".
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  Channel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	p, err := newAMQPPublisher(channel, exchange)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAMQPPublisher(channel Channel, exchange string) (*AMQPPublisher, error) {
	err := channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &AMQPPublisher{channel: channel, exchange: exchange}, nil
}

// Emit publishes the activity as a persistent message.
func (p *AMQPPublisher) Emit(ctx context.Context, activity models.Activity) error {
	body, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	messageID := activity.ID
	if messageID == "" {
		messageID = uuid.New().String()
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,                // exchange
		RoutingKey(activity.Type), // routing key
		false,                     // mandatory
		false,                     // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish activity: %w", err)
	}

	slog.Debug("Published activity",
		"type", activity.Type,
		"group_id", activity.GroupID,
		"exchange", p.exchange)
	return nil
}

// RoutingKey maps EXPENSE_ADD to "expense.add".
func RoutingKey(t models.ActivityType) string {
	key := []byte(string(t))
	for i, c := range key {
		switch {
		case c == '_':
			key[i] = '.'
		case c >= 'A' && c <= 'Z':
			key[i] = c + ('a' - 'A')
		}
	}
	return string(key)
}

// Close closes the channel and the connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
