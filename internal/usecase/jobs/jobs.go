// Package jobs is a delayed job queue persisted in a Postgres outbox table.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/google/uuid"
)

type JobsUseCase struct {
	outbox     repo.JobOutboxRepo
	transactor repo.Transactor
	now        func() time.Time

	logger logger.Interface
}

var (
	_ usecase.JobQueue  = (*JobsUseCase)(nil)
	_ usecase.JobLedger = (*JobsUseCase)(nil)
	_ usecase.JobOutbox = (*JobsUseCase)(nil)
)

func New(outbox repo.JobOutboxRepo, transactor repo.Transactor, l logger.Interface) *JobsUseCase {
	return &JobsUseCase{
		outbox:     outbox,
		transactor: transactor,
		now:        time.Now,
		logger:     l,
	}
}

// Enqueue stores the job as pending; it becomes visible to the relay after delay.
// Inside a transaction started by the caller the insert joins that transaction.
func (uc *JobsUseCase) Enqueue(ctx context.Context, job entity.DerivationJob, delay time.Duration) (entity.JobHandle, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return entity.JobHandle{}, fmt.Errorf("JobsUseCase - Enqueue - json.Marshal: %w", err)
	}

	now := uc.now()
	queued := &entity.QueuedJob{
		ID:        uuid.New(),
		Queue:     job.Queue(),
		Payload:   payload,
		Status:    entity.Pending,
		VisibleAt: now.Add(delay),
		CreatedAt: now,
	}

	err = uc.outbox.Create(ctx, queued)
	if err != nil {
		return entity.JobHandle{}, fmt.Errorf("JobsUseCase - Enqueue - uc.outbox.Create: %w", err)
	}

	return entity.JobHandle{ID: queued.ID, Queue: queued.Queue, VisibleAt: queued.VisibleAt}, nil
}

// ClaimVisible moves up to limit visible pending jobs to processing and returns them.
func (uc *JobsUseCase) ClaimVisible(ctx context.Context, limit, maxRetries int) ([]*entity.QueuedJob, error) {
	var claimed []*entity.QueuedJob

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		jobs, err := uc.outbox.GetVisiblePending(ctx, uc.now(), limit, maxRetries)
		if err != nil {
			return fmt.Errorf("uc.outbox.GetVisiblePending: %w", err)
		}
		if len(jobs) == 0 {
			return nil
		}

		if err := uc.outbox.MarkAsProcessingBatch(ctx, ids(jobs)); err != nil {
			return fmt.Errorf("uc.outbox.MarkAsProcessingBatch: %w", err)
		}

		claimed = jobs

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("JobsUseCase - ClaimVisible - uc.transactor.WithinTransaction: %w", err)
	}

	return claimed, nil
}

// MarkAsDispatchedBatch skips jobs a consumer already completed or failed.
func (uc *JobsUseCase) MarkAsDispatchedBatch(ctx context.Context, jobs []*entity.QueuedJob) error {
	err := uc.outbox.MarkAsDispatchedBatch(ctx, ids(jobs))
	if err != nil {
		return fmt.Errorf("JobsUseCase - MarkAsDispatchedBatch - uc.outbox.MarkAsDispatchedBatch: %w", err)
	}

	return nil
}

// ReleaseBatch returns jobs that could not be published to pending and counts the attempt.
// Jobs no longer in processing are skipped.
func (uc *JobsUseCase) ReleaseBatch(ctx context.Context, jobs []*entity.QueuedJob) error {
	err := uc.outbox.IncrementRetryCountBatch(ctx, ids(jobs))
	if err != nil {
		return fmt.Errorf("JobsUseCase - ReleaseBatch - uc.outbox.IncrementRetryCountBatch: %w", err)
	}

	return nil
}

func (uc *JobsUseCase) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	err := uc.outbox.MarkMaxRetriesAsFailed(ctx, maxRetries)
	if err != nil {
		return fmt.Errorf("JobsUseCase - MarkMaxRetriesAsFailed - uc.outbox.MarkMaxRetriesAsFailed: %w", err)
	}

	return nil
}

func (uc *JobsUseCase) CleanupOutbox(ctx context.Context, retention time.Duration) error {
	deleted, err := uc.outbox.DeleteOldProcessedAndFailed(ctx, uc.now().Add(-retention))
	if err != nil {
		return fmt.Errorf("JobsUseCase - CleanupOutbox - uc.outbox.DeleteOldProcessedAndFailed: %w", err)
	}

	if deleted > 0 {
		uc.logger.Info("JobsUseCase - CleanupOutbox - deleted %d finished jobs", deleted)
	}

	return nil
}

// ReclaimStale returns jobs claimed longer than lease ago to pending so the relay
// publishes them again.
func (uc *JobsUseCase) ReclaimStale(ctx context.Context, lease time.Duration) error {
	reclaimed, err := uc.outbox.ResetExpiredClaims(ctx, uc.now().Add(-lease))
	if err != nil {
		return fmt.Errorf("JobsUseCase - ReclaimStale - uc.outbox.ResetExpiredClaims: %w", err)
	}

	if reclaimed > 0 {
		uc.logger.Warn("JobsUseCase - ReclaimStale - returned %d stale jobs to pending", reclaimed)
	}

	return nil
}

func (uc *JobsUseCase) Complete(ctx context.Context, id uuid.UUID) error {
	err := uc.outbox.MarkAsProcessed(ctx, id)
	if err != nil {
		return fmt.Errorf("JobsUseCase - Complete - uc.outbox.MarkAsProcessed: %w", err)
	}

	return nil
}

func (uc *JobsUseCase) Fail(ctx context.Context, id uuid.UUID, cause error) error {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}

	err := uc.outbox.MarkAsFailed(ctx, id, msg)
	if err != nil {
		return fmt.Errorf("JobsUseCase - Fail - uc.outbox.MarkAsFailed: %w", err)
	}

	return nil
}

func ids(jobs []*entity.QueuedJob) uuid.UUIDs {
	IDs := make(uuid.UUIDs, 0, len(jobs))
	for _, job := range jobs {
		IDs = append(IDs, job.ID)
	}

	return IDs
}
