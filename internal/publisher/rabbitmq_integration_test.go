//go:build integration

package publisher

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	amqpdelivery "github.com/Harsh-BH/intervue/internal/delivery/amqp"
	"github.com/Harsh-BH/intervue/internal/domain"
)

func TestIntegration_PublishConsumeRoundTrip(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set, skipping integration test")
	}
	logger := zap.NewNop()

	pub, err := NewRabbitMQPublisher(url, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	tasks := make(chan *domain.TaskMessage, 1)
	consumer, err := amqpdelivery.NewConsumer(url, tasks, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go consumer.Start(ctx)

	task := &domain.InterviewTask{
		InterviewID: "INTV-it-" + time.Now().Format("150405.000000"),
		CandidateID: "CAND-it",
		VideoPath:   "/tmp/it.mp4",
		SubmittedAt: time.Now().UTC(),
	}
	if err := pub.Dispatch(ctx, task); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	select {
	case msg := <-tasks:
		if msg.Task.InterviewID != task.InterviewID {
			t.Errorf("expected %s, got %s", task.InterviewID, msg.Task.InterviewID)
		}
		if err := msg.Ack(); err != nil {
			t.Errorf("ack: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for delivery")
	}
}
