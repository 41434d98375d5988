// Package queue is an in-process delayed job queue for single-process deployments.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	_defaultWorkers        = 1
	_defaultProcessTimeout = 10 * time.Minute
)

var ErrQueueClosed = errors.New("queue closed")

type task struct {
	handle  entity.JobHandle
	payload []byte
}

type Stats struct {
	Scheduled int
	Completed int64
	Failed    int64
}

// MemoryQueue holds jobs in timers until they become visible and hands
// them to a fixed pool of workers. Jobs are lost on process exit.
type MemoryQueue struct {
	mu       sync.Mutex
	handlers map[string]usecase.JobHandler
	timers   map[uuid.UUID]*time.Timer
	closed   bool

	tasks chan task
	done  chan struct{}

	workers        int
	processTimeout time.Duration

	completed atomic.Int64
	failed    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool

	logger logger.Interface
}

var _ usecase.JobQueue = (*MemoryQueue)(nil)

func New(l logger.Interface, opts ...Option) *MemoryQueue {
	q := &MemoryQueue{
		handlers:       make(map[string]usecase.JobHandler),
		timers:         make(map[uuid.UUID]*time.Timer),
		done:           make(chan struct{}),
		workers:        _defaultWorkers,
		processTimeout: _defaultProcessTimeout,
		logger:         l,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.tasks = make(chan task, q.workers*2)

	return q
}

// Handle registers the consumer of a queue. It must be called before Start.
func (q *MemoryQueue) Handle(queue string, h usecase.JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[queue] = h
}

func (q *MemoryQueue) Enqueue(_ context.Context, job entity.DerivationJob, delay time.Duration) (entity.JobHandle, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return entity.JobHandle{}, fmt.Errorf("MemoryQueue - Enqueue - json.Marshal: %w", err)
	}

	t := task{
		handle: entity.JobHandle{
			ID:        uuid.New(),
			Queue:     job.Queue(),
			VisibleAt: time.Now().Add(delay),
		},
		payload: payload,
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return entity.JobHandle{}, fmt.Errorf("MemoryQueue - Enqueue: %w", ErrQueueClosed)
	}

	q.timers[t.handle.ID] = time.AfterFunc(delay, func() { q.deliver(t) })

	return t.handle, nil
}

func (q *MemoryQueue) deliver(t task) {
	q.mu.Lock()
	delete(q.timers, t.handle.ID)
	q.mu.Unlock()

	select {
	case q.tasks <- t:
	case <-q.done:
	}
}

func (q *MemoryQueue) Start(ctx context.Context) error {
	if !q.started.CompareAndSwap(false, true) {
		return fmt.Errorf("MemoryQueue - Start - queue already started")
	}

	q.ctx, q.cancel = context.WithCancel(ctx)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	return nil
}

func (q *MemoryQueue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case t := <-q.tasks:
			q.process(t)
		}
	}
}

func (q *MemoryQueue) process(t task) {
	defer func() {
		if r := recover(); r != nil {
			q.failed.Add(1)
			q.logger.Error(fmt.Errorf("panic %v", r), "MemoryQueue - process - job %s", t.handle.ID)
		}
	}()

	q.mu.Lock()
	h, ok := q.handlers[t.handle.Queue]
	q.mu.Unlock()

	if !ok {
		q.failed.Add(1)
		q.logger.Error(errs.ErrUnknownQueue, "MemoryQueue - process - job %s on %s", t.handle.ID, t.handle.Queue)

		return
	}

	job, err := entity.DecodeJob(t.handle.Queue, t.payload)
	if err != nil {
		q.failed.Add(1)
		q.logger.Error(err, "MemoryQueue - process - entity.DecodeJob")

		return
	}

	ctx, cancel := context.WithTimeout(q.ctx, q.processTimeout)
	defer cancel()

	if err = h(ctx, job); err != nil {
		q.failed.Add(1)
		q.logger.Error(err, "MemoryQueue - process - job %s on %s failed", t.handle.ID, t.handle.Queue)

		return
	}

	q.completed.Add(1)
}

func (q *MemoryQueue) Stats() Stats {
	q.mu.Lock()
	scheduled := len(q.timers)
	q.mu.Unlock()

	return Stats{
		Scheduled: scheduled,
		Completed: q.completed.Load(),
		Failed:    q.failed.Load(),
	}
}

// Shutdown drops jobs that are not yet visible and waits for running handlers.
func (q *MemoryQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	close(q.done)
	q.mu.Unlock()

	if !q.started.Load() {
		return nil
	}

	q.cancel()

	done := make(chan struct{})

	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
