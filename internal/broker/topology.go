// Package broker declares the RabbitMQ topology shared by the interview publisher and consumer.
package broker

import (
	"fmt"
	"math"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "intervue.direct"
	RoutingKey   = "process"
	QueueName    = "interview_tasks"

	DeadLetterExchange = "intervue.dlx"
	DeadLetterQueue    = "interview_tasks.dlq"

	baseReconnectDelay = 1 * time.Second
	maxReconnectDelay  = 30 * time.Second
)

// Declare idempotently declares the exchanges and queues. Both sides call it so that
// whichever connects first creates a matching topology.
func Declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(DeadLetterExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(DeadLetterQueue, RoutingKey, DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, QueueArgs()); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(QueueName, RoutingKey, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// QueueArgs are the arguments of the main task queue. They must be identical on every
// declaration or the broker closes the channel with PRECONDITION_FAILED.
func QueueArgs() amqp.Table {
	return amqp.Table{
		"x-queue-type":              "quorum",
		"x-dead-letter-exchange":    DeadLetterExchange,
		"x-dead-letter-routing-key": RoutingKey,
	}
}

// ReconnectDelay is the exponential backoff delay before reconnect attempt n (zero-based).
func ReconnectDelay(attempt int) time.Duration {
	return time.Duration(math.Min(
		float64(baseReconnectDelay)*math.Pow(2, float64(attempt)),
		float64(maxReconnectDelay),
	))
}
