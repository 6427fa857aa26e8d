package pool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/domain"
	"github.com/Harsh-BH/intervue/internal/metrics"
)

// Processor runs one interview task to a terminal outcome. It reports whether the task was a
// duplicate delivery that was skipped.
type Processor interface {
	Execute(ctx context.Context, task *domain.InterviewTask) (duplicate bool)
}

// WorkerPool manages a fixed-size pool of goroutines that process interviews.
type WorkerPool struct {
	size      int
	tasks     <-chan *domain.TaskMessage
	processor Processor
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewWorkerPool creates a new fixed-size worker pool.
func NewWorkerPool(size int, tasks <-chan *domain.TaskMessage, processor Processor, logger *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:      size,
		tasks:     tasks,
		processor: processor,
		logger:    logger,
	}
}

// Start launches all worker goroutines. Call Stop to wait for them to finish.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("pool_size", p.size))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to finish their current interview and exit.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

// Drain waits up to timeout for the workers to empty a closed task channel. When the
// deadline passes it calls abort, which must cancel the context given to Start, and
// waits for the workers to exit. It returns the messages nobody picked up; the caller
// owns closing them out.
func (p *WorkerPool) Drain(timeout time.Duration, abort context.CancelFunc) []*domain.TaskMessage {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		p.logger.Info("Worker pool drained")
	case <-timer.C:
		p.logger.Warn("Drain deadline reached, interrupting in-flight interviews", zap.Duration("timeout", timeout))
		abort()
		<-done
	}

	var left []*domain.TaskMessage
	for {
		select {
		case msg, ok := <-p.tasks:
			if !ok {
				return left
			}
			left = append(left, msg)
		default:
			return left
		}
	}
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Worker shutting down", zap.Int("worker_id", id))
			return
		case msg, ok := <-p.tasks:
			if !ok {
				p.logger.Debug("Task channel closed", zap.Int("worker_id", id))
				return
			}
			p.handle(ctx, id, msg)
		}
	}
}

// handle processes one message. Every outcome the processor returns is already persisted,
// so the delivery is acked; only a panic escaping the processor dead-letters it.
func (p *WorkerPool) handle(ctx context.Context, id int, msg *domain.TaskMessage) {
	task := msg.Task
	log := p.logger.With(zap.Int("worker_id", id), zap.String("interview_id", task.InterviewID))

	metrics.WorkersActive.Inc()
	start := time.Now()
	defer metrics.WorkersActive.Dec()

	defer func() {
		if r := recover(); r != nil {
			log.Error("Worker panic recovered", zap.Any("panic", r))
			if err := msg.Nack(false); err != nil {
				log.Error("Failed to NACK message", zap.Error(err))
			}
		}
	}()

	log.Info("Worker processing interview")

	duplicate := p.processor.Execute(ctx, task)
	if duplicate {
		log.Debug("Duplicate interview skipped")
	}

	if err := msg.Ack(); err != nil {
		log.Error("Failed to ACK message", zap.Error(err))
		return
	}
	log.Debug("Interview finished", zap.Duration("elapsed", time.Since(start)))
}
