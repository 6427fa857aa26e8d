package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/broker"
	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/repository"
)

// Publish timeout, including the broker confirmation.
const publishTimeout = 5 * time.Second

var _ repository.Dispatcher = (*RabbitMQPublisher)(nil)

// RabbitMQPublisher dispatches interview tasks to RabbitMQ with publisher confirms.
type RabbitMQPublisher struct {
	url    string
	logger *zap.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	done    chan struct{}
	closed  bool
}

// NewRabbitMQPublisher connects, declares the topology and starts watching the connection.
func NewRabbitMQPublisher(url string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	p := &RabbitMQPublisher{url: url, logger: logger, done: make(chan struct{})}
	conn, err := p.open()
	if err != nil {
		return nil, err
	}
	go p.supervise(conn)
	return p, nil
}

// open dials a confirm-mode channel and installs it. The returned connection is
// the one supervise should watch.
func (p *RabbitMQPublisher) open() (*amqp.Connection, error) {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err == nil {
		err = ch.Confirm(false)
	}
	if err == nil {
		err = broker.Declare(ch)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: setup: %w", err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		conn.Close()
		return nil, errors.New("rabbitmq: publisher closed")
	}
	p.conn, p.channel = conn, ch
	p.mu.Unlock()

	p.logger.Info("RabbitMQ publisher ready",
		zap.String("exchange", broker.ExchangeName),
		zap.String("queue", broker.QueueName),
	)
	return conn, nil
}

// supervise reopens the connection each time the broker drops it, until Close.
func (p *RabbitMQPublisher) supervise(conn *amqp.Connection) {
	for {
		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
		if !ok {
			// Closed by us.
			return
		}
		p.logger.Warn("RabbitMQ publisher connection lost", zap.String("reason", reason.Error()))

		p.mu.Lock()
		p.channel = nil
		p.mu.Unlock()

		for attempt := 0; ; attempt++ {
			select {
			case <-p.done:
				return
			case <-time.After(broker.ReconnectDelay(attempt)):
			}
			next, err := p.open()
			if err != nil {
				p.logger.Warn("RabbitMQ publisher reconnect failed", zap.Int("attempt", attempt+1), zap.Error(err))
				continue
			}
			conn = next
			break
		}
	}
}

// Dispatch publishes the task and waits for the broker to confirm it.
func (p *RabbitMQPublisher) Dispatch(ctx context.Context, task *domain.InterviewTask) error {
	msg, err := NewPublishing(task)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDispatchFailed, err)
	}

	p.mu.RLock()
	ch := p.channel
	p.mu.RUnlock()

	if ch == nil {
		return fmt.Errorf("%w: channel not available (reconnecting)", domain.ErrDispatchFailed)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	confirm, err := ch.PublishWithDeferredConfirmWithContext(publishCtx,
		broker.ExchangeName,
		broker.RoutingKey,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return fmt.Errorf("%w: publish: %v", domain.ErrDispatchFailed, err)
	}

	acked, err := confirm.WaitContext(publishCtx)
	if err != nil {
		return fmt.Errorf("%w: confirmation timeout (interview_id=%s): %v", domain.ErrDispatchFailed, task.InterviewID, err)
	}
	if !acked {
		return fmt.Errorf("%w: broker nacked message (interview_id=%s)", domain.ErrDispatchFailed, task.InterviewID)
	}

	p.logger.Debug("Published interview to RabbitMQ",
		zap.String("interview_id", task.InterviewID),
		zap.Int("body_size", len(msg.Body)),
	)
	return nil
}

// NewPublishing encodes a task as a persistent JSON message.
func NewPublishing(task *domain.InterviewTask) (amqp.Publishing, error) {
	body, err := json.Marshal(task)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal task: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    task.InterviewID,
		Timestamp:    time.Now(),
		Body:         body,
	}, nil
}

// Close stops reconnecting and closes the connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)

	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
