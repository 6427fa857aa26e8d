package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqplib "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/broker"
	"github.com/Harsh-BH/intervue/internal/domain"
)

var errDeliveriesClosed = errors.New("amqp: delivery channel closed")

// Consumer reads interview tasks from the broker and hands them to the worker pool.
// The pool acks a delivery once the interview has a terminal record.
type Consumer struct {
	url    string
	tasks  chan<- *domain.TaskMessage
	logger *zap.Logger

	mu      sync.Mutex
	conn    *amqplib.Connection
	channel *amqplib.Channel
	closed  bool
	done    chan struct{}
}

// NewConsumer dials the broker and declares the interview topology.
func NewConsumer(url string, tasks chan<- *domain.TaskMessage, logger *zap.Logger) (*Consumer, error) {
	c := &Consumer{
		url:    url,
		tasks:  tasks,
		logger: logger,
		done:   make(chan struct{}),
	}
	if err := c.dial(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Consumer) dial() error {
	conn, err := amqplib.Dial(c.url)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err == nil {
		// One unacknowledged interview per consumer.
		err = ch.Qos(1, 0, false)
	}
	if err == nil {
		err = broker.Declare(ch)
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("amqp setup: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, ch
	c.mu.Unlock()
	return nil
}

// Start consumes until ctx is cancelled or Close is called, redialing with backoff
// whenever the connection drops.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if err == nil || c.stopping(ctx) {
			return nil
		}
		c.logger.Warn("Interview queue connection lost", zap.Error(err))
		if !c.redial(ctx) {
			return nil
		}
	}
}

func (c *Consumer) stopping(ctx context.Context) bool {
	select {
	case <-c.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// redial retries until it succeeds or the consumer is stopped.
func (c *Consumer) redial(ctx context.Context) bool {
	for attempt := 0; ; attempt++ {
		delay := broker.ReconnectDelay(attempt)
		c.logger.Info("Redialing RabbitMQ", zap.Int("attempt", attempt+1), zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-c.done:
			timer.Stop()
			return false
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}

		if err := c.dial(); err != nil {
			c.logger.Error("Redial failed", zap.Error(err))
			continue
		}
		c.logger.Info("RabbitMQ connection restored")
		return true
	}
}

// session consumes on the current channel. A nil return means a requested stop.
func (c *Consumer) session(ctx context.Context) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return errors.New("amqp: no open channel")
	}

	// Manual ack, broker-generated consumer tag.
	deliveries, err := ch.Consume(broker.QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}
	c.logger.Info("Consuming interview tasks", zap.String("queue", broker.QueueName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			if !c.forward(ctx, ch, d) {
				return nil
			}
		}
	}
}

// forward decodes one delivery and blocks until the pool takes it. It returns false
// when ctx ends first; the delivery is requeued in that case.
func (c *Consumer) forward(ctx context.Context, ch *amqplib.Channel, d amqplib.Delivery) bool {
	task, err := DecodeTask(d.Body)
	if err != nil {
		c.logger.Error("Dead-lettering malformed interview task",
			zap.Error(err),
			zap.ByteString("body", d.Body),
		)
		d.Nack(false, false)
		return true
	}

	c.logger.Debug("Interview task received",
		zap.String("interview_id", task.InterviewID),
		zap.Bool("redelivered", d.Redelivered),
	)

	tag := d.DeliveryTag
	msg := &domain.TaskMessage{
		Task: task,
		Ack:  func() error { return ch.Ack(tag, false) },
		Nack: func(requeue bool) error { return ch.Nack(tag, false, requeue) },
	}

	select {
	case c.tasks <- msg:
		return true
	case <-ctx.Done():
		d.Nack(false, true)
		return false
	}
}

// DecodeTask parses a delivery body. Tasks without an interview id or video path are invalid.
func DecodeTask(body []byte) (*domain.InterviewTask, error) {
	var task domain.InterviewTask
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	if task.InterviewID == "" {
		return nil, errors.New("task has no interview_id")
	}
	if task.VideoPath == "" {
		return nil, fmt.Errorf("task %s has no video_path", task.InterviewID)
	}
	return &task, nil
}

// Close stops consuming and closes the channel and connection.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	var errs []error
	if c.channel != nil {
		errs = append(errs, c.channel.Close())
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
	}
	return errors.Join(errs...)
}
