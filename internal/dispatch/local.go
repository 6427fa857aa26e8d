// Package dispatch hands accepted interviews to the in-process worker pool.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/metrics"
	"github.com/Harsh-BH/intervue/internal/repository"
)

var _ repository.Dispatcher = (*LocalDispatcher)(nil)

// LocalDispatcher enqueues tasks on a bounded channel and rejects, rather than blocks,
// when the queue is full.
type LocalDispatcher struct {
	tasks  chan *domain.TaskMessage
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewLocalDispatcher creates a dispatcher with room for queueSize pending tasks.
func NewLocalDispatcher(queueSize int, logger *zap.Logger) *LocalDispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &LocalDispatcher{
		tasks:  make(chan *domain.TaskMessage, queueSize),
		logger: logger,
	}
}

// Tasks is the channel the worker pool consumes.
func (d *LocalDispatcher) Tasks() <-chan *domain.TaskMessage {
	return d.tasks
}

// Dispatch enqueues task without waiting. Returns domain.ErrQueueFull when at capacity.
func (d *LocalDispatcher) Dispatch(ctx context.Context, task *domain.InterviewTask) error {
	msg := &domain.TaskMessage{
		Task: task,
		Ack:  func() error { return nil },
		Nack: func(bool) error { return nil },
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return fmt.Errorf("%w: server is shutting down", domain.ErrDispatchFailed)
	}

	select {
	case d.tasks <- msg:
		d.logger.Debug("Interview queued",
			zap.String("interview_id", task.InterviewID),
			zap.Int("queue_depth", len(d.tasks)),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		metrics.QueueRejections.Inc()
		d.logger.Warn("Processing queue full, rejecting interview",
			zap.String("interview_id", task.InterviewID),
			zap.Int("capacity", cap(d.tasks)),
		)
		return domain.ErrQueueFull
	}
}

// Close stops admission and closes the task channel. Tasks already queued stay
// readable so the pool can drain them.
func (d *LocalDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.tasks)
}
