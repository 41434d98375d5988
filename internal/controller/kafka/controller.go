package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	kafkapc "github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type JobReader interface {
	ReadJob(ctx context.Context) (kafka.Message, error)
	CommitJob(ctx context.Context, msg kafka.Message) error
	Close() error
}

type KafkaController struct {
	handlers map[string]usecase.JobHandler
	ledger   usecase.JobLedger
	jr       JobReader
	logger   logger.Interface

	commitTimeout  time.Duration
	processTimeout time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	ledger usecase.JobLedger,
	jr JobReader,
	l logger.Interface,
	commitTimeout time.Duration,
	processTimeout time.Duration,
	workers int,
) *KafkaController {
	return &KafkaController{
		handlers:       make(map[string]usecase.JobHandler),
		ledger:         ledger,
		jr:             jr,
		logger:         l,
		commitTimeout:  commitTimeout,
		processTimeout: processTimeout,
		workers:        workers,
	}
}

// Handle registers the handler for a queue. It must be called before Start.
func (c *KafkaController) Handle(queue string, h usecase.JobHandler) {
	c.handlers[queue] = h
}

func (c *KafkaController) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("KafkaController - Start - controller already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				msg, err := c.jr.ReadJob(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "KafkaController - Start - c.jr.ReadJob")
					}
					continue
				}

				select {
				case tasks <- msg:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

// processJob runs the handler and records the outcome. A returned error means
// the outcome could not be recorded and the message must not be committed.
func (c *KafkaController) processJob(msg kafka.Message) error {
	id, job, err := kafkapc.Envelope(msg)
	if err != nil {
		c.logger.Error(err, "KafkaController - processJob - kafkapc.Envelope")
		if id == uuid.Nil {
			// nothing to record against; skip the message
			return nil
		}

		return c.record(id, err)
	}

	h, ok := c.handlers[job.Queue()]
	if !ok {
		return c.record(id, fmt.Errorf("KafkaController - processJob - %s: %w", job.Queue(), errs.ErrUnknownQueue))
	}

	processCtx, processCancel := context.WithTimeout(c.ctx, c.processTimeout)
	err = h(processCtx, job)
	processCancel()
	if err != nil {
		c.logger.Error(err, "KafkaController - processJob - job %s on %s", id, job.Queue())
	}

	return c.record(id, err)
}

func (c *KafkaController) record(id uuid.UUID, cause error) error {
	ctx, cancel := context.WithTimeout(c.ctx, c.commitTimeout)
	defer cancel()

	if cause != nil {
		if err := c.ledger.Fail(ctx, id, cause); err != nil {
			return fmt.Errorf("KafkaController - record - c.ledger.Fail: %w", err)
		}
		return nil
	}

	if err := c.ledger.Complete(ctx, id); err != nil {
		return fmt.Errorf("KafkaController - record - c.ledger.Complete: %w", err)
	}

	return nil
}

func (c *KafkaController) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for msg := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "KafkaController - worker - panic")
				}
			}()

			err := c.processJob(msg)
			if err != nil {
				c.logger.Error(err, "KafkaController - worker - c.processJob")

				return
			}

			// commit once the outcome is recorded
			commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
			err = c.jr.CommitJob(commitCtx, msg)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "KafkaController - worker - c.jr.CommitJob")
			}
		}()
	}
}

func (c *KafkaController) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		c.jr.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
