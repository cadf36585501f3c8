// Package events publishes sync run summaries to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/estoque-sync/internal/config"
	"github.com/JonMunkholm/estoque-sync/internal/core"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for run events.
const (
	KeyRunCompleted = "sync.run.completed"
	KeyRunFailed    = "sync.run.failed"
)

const publishTimeout = 10 * time.Second

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends run summaries to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// Connect dials the broker and declares the exchange. It returns nil when
// events are disabled so the caller can fall back to the service default.
func Connect(cfg config.EventsConfig) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("events: dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("events: declare exchange %q: %w", cfg.Exchange, err)
	}

	slog.Info("events publisher connected", "exchange", cfg.Exchange)
	return &Publisher{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

// PublishRun sends run as JSON. Failed runs go to KeyRunFailed.
func (p *Publisher) PublishRun(ctx context.Context, run *core.RunSummary) error {
	msg, err := newMessage(run)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	key := RoutingKey(run)
	if err := p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("events: publish %s for run %s: %w", key, run.ID, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// RoutingKey picks the routing key for run.
func RoutingKey(run *core.RunSummary) string {
	if run.Succeeded() {
		return KeyRunCompleted
	}
	return KeyRunFailed
}

func newMessage(run *core.RunSummary) (amqp.Publishing, error) {
	body, err := json.Marshal(run)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("events: marshal run %s: %w", run.ID, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    run.ID,
		Timestamp:    run.FinishedAt,
		Type:         RoutingKey(run),
		Body:         body,
	}, nil
}
