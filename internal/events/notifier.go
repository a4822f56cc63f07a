// Package events publishes analysis status changes so other services can
// follow an analysis without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"alfredoptarigan/ats-analyzer/internal/logger"
)

// StatusEvent is the message body published for every status transition.
type StatusEvent struct {
	AnalysisID string    `json:"analysis_id"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type Notifier interface {
	Publish(ctx context.Context, event StatusEvent) error
	Close() error
}

// RoutingKey is the topic subscribers bind to, e.g. "analysis.*".
func RoutingKey(analysisID string) string {
	return fmt.Sprintf("analysis.%s", analysisID)
}

type noopNotifier struct{}

// NewNoopNotifier is used when no broker is configured.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Publish(context.Context, StatusEvent) error { return nil }
func (noopNotifier) Close() error                              { return nil }

type rabbitNotifier struct {
	url      string
	exchange string

	// mu guards the connection; amqp channels are not safe for concurrent
	// publishing.
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed chan *amqp.Error
}

// NewRabbitNotifier dials the broker and declares a durable topic exchange.
// A dropped connection is dialed again on the next Publish.
func NewRabbitNotifier(url, exchange string) (Notifier, error) {
	r := &rabbitNotifier{url: url, exchange: exchange}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *rabbitNotifier) connect() error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		r.exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", r.exchange, err)
	}

	r.conn = conn
	r.ch = ch
	r.closed = conn.NotifyClose(make(chan *amqp.Error, 1))
	return nil
}

// ensureChannel reconnects when the broker closed the connection since the
// last publish.
func (r *rabbitNotifier) ensureChannel() error {
	if r.ch != nil {
		select {
		case amqpErr := <-r.closed:
			logger.Get().WithField("reason", amqpErr).Warn("⚠️  RabbitMQ connection closed, reconnecting")
			r.reset()
		default:
			return nil
		}
	}
	return r.connect()
}

func (r *rabbitNotifier) reset() {
	if r.ch != nil {
		r.ch.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
	r.conn, r.ch, r.closed = nil, nil, nil
}

func (r *rabbitNotifier) Publish(ctx context.Context, event StatusEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode status event: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureChannel(); err != nil {
		return err
	}

	err = r.ch.Publish(
		r.exchange,
		RoutingKey(event.AnalysisID),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		r.reset()
		return fmt.Errorf("failed to publish status event: %w", err)
	}

	logger.Get().WithFields(logrus.Fields{
		"analysis_id": event.AnalysisID,
		"status":      event.Status,
	}).Debug("📣 Status event published")
	return nil
}

func (r *rabbitNotifier) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}
	defer func() { r.conn, r.ch, r.closed = nil, nil, nil }()

	if err := r.ch.Close(); err != nil {
		r.conn.Close()
		return fmt.Errorf("failed to close RabbitMQ channel: %w", err)
	}
	return r.conn.Close()
}
