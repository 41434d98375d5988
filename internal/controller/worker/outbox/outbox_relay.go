package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
)

type Intervals struct {
	Poll         time.Duration
	MarkFailed   time.Duration
	Cleanup      time.Duration
	Reclaim      time.Duration
	BatchTimeout time.Duration
}

// OutboxRelay publishes visible jobs from the outbox table to the broker.
type OutboxRelay struct {
	outbox usecase.JobOutbox
	js     infrastructure.JobSender
	logger logger.Interface

	intervals  Intervals
	retention  time.Duration
	lease      time.Duration
	batchSize  int
	maxRetries int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

func New(
	outbox usecase.JobOutbox,
	js infrastructure.JobSender,
	l logger.Interface,
	intervals Intervals,
	retention time.Duration,
	lease time.Duration,
	batchSize int,
	maxRetries int,
) *OutboxRelay {
	return &OutboxRelay{
		outbox:     outbox,
		js:         js,
		logger:     l,
		intervals:  intervals,
		retention:  retention,
		lease:      lease,
		batchSize:  batchSize,
		maxRetries: maxRetries,
	}
}

func (r *OutboxRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("OutboxRelay - Start - worker already started")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	// 1. publish visible jobs
	r.worker(r.intervals.Poll, func() {
		batchCtx, batchCancel := context.WithTimeout(r.ctx, r.intervals.BatchTimeout)
		r.processJobsBatch(batchCtx)
		batchCancel()
	})

	// 2. give up on jobs the broker kept rejecting
	r.worker(r.intervals.MarkFailed, func() {
		err := r.outbox.MarkMaxRetriesAsFailed(r.ctx, r.maxRetries)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.outbox.MarkMaxRetriesAsFailed")
		}
	})

	// 3. drop finished rows past retention
	r.worker(r.intervals.Cleanup, func() {
		err := r.outbox.CleanupOutbox(r.ctx, r.retention)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.outbox.CleanupOutbox")
		}
	})

	// 4. return jobs whose claim outlived the lease
	r.worker(r.intervals.Reclaim, func() {
		err := r.outbox.ReclaimStale(r.ctx, r.lease)
		if err != nil {
			r.logger.Error(err, "OutboxRelay - Start - worker - r.outbox.ReclaimStale")
		}
	})

	return nil
}

func (r *OutboxRelay) processJobsBatch(ctx context.Context) {
	// 1. claim visible pending jobs
	jobs, err := r.outbox.ClaimVisible(ctx, r.batchSize, r.maxRetries)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processJobsBatch - r.outbox.ClaimVisible")

		return
	}
	if len(jobs) == 0 {
		return
	}

	// 2. publish
	err = r.js.SendJobs(ctx, jobs)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processJobsBatch - r.js.SendJobs")

		relErr := r.outbox.ReleaseBatch(context.WithoutCancel(ctx), jobs)
		if relErr != nil {
			r.logger.Error(relErr, "OutboxRelay - processJobsBatch - r.outbox.ReleaseBatch")
		}
		return
	}

	// 3. hand over to consumers
	err = r.outbox.MarkAsDispatchedBatch(context.WithoutCancel(ctx), jobs)
	if err != nil {
		r.logger.Error(err, "OutboxRelay - processJobsBatch - r.outbox.MarkAsDispatchedBatch")

		return
	}

	r.logger.Debug("OutboxRelay - processJobsBatch - dispatched %d jobs", len(jobs))
}

func (r *OutboxRelay) worker(interval time.Duration, task func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				task()
			}
		}
	}()
}

func (r *OutboxRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		r.js.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
