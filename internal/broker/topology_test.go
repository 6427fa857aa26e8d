package broker

import (
	"testing"
	"time"
)

func TestReconnectDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{5, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := ReconnectDelay(tt.attempt); got != tt.want {
			t.Errorf("ReconnectDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestQueueArgs_DeadLetterToDLX(t *testing.T) {
	args := QueueArgs()
	if args["x-dead-letter-exchange"] != DeadLetterExchange {
		t.Errorf("unexpected DLX %v", args["x-dead-letter-exchange"])
	}
	if args["x-queue-type"] != "quorum" {
		t.Errorf("expected quorum queue, got %v", args["x-queue-type"])
	}
}
