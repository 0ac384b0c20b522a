package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nemopss/budgetly/logging"
	"github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
	maxAttempts    = 3
)

// AMQPPublisher sends events to a durable topic exchange, routed by event type.
type AMQPPublisher struct {
	url      string
	exchange string
	logger   *logging.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewAMQPPublisher(url, exchange string, logger *logging.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, exchange: exchange, logger: logger.WithComponent(logging.ComponentAMQP)}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp091.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	p.conn, p.channel = conn, channel
	return nil
}

// Publish retries connection failures with exponential backoff, up to maxAttempts.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for attempt := 0; ; attempt++ {
		err = p.publish(ctx, e.Type, body)
		if err == nil {
			p.logger.DebugContext(ctx, "Published event", logging.FieldEvent, e.Type, logging.FieldUserID, e.UserID)
			return nil
		}
		if !isConnectionError(err) || attempt+1 >= maxAttempts {
			return fmt.Errorf("publish %s: %w", e.Type, err)
		}

		p.logger.WarnContext(ctx, "AMQP connection lost, reconnecting", logging.FieldError, err, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(exponentialBackoff(attempt)):
		}
		p.closeLocked()
		if err := p.connect(); err != nil {
			p.logger.WarnContext(ctx, "AMQP reconnect failed", logging.FieldError, err)
		}
	}
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, body []byte) error {
	if p.channel == nil || p.channel.IsClosed() {
		return amqp091.ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *AMQPPublisher) closeLocked() error {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		if err != nil && !errors.Is(err, amqp091.ErrClosed) {
			return err
		}
	}
	return nil
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "closed", "eof", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
