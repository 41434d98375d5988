package usecase

import (
	"context"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/dto"
	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/google/uuid"
)

type (
	IngestUseCase interface {
		Ingest(ctx context.Context, file *entity.UploadedFile) (*entity.StoredAsset, error)
		IngestBatch(ctx context.Context, files []*entity.UploadedFile) ([]dto.IngestResult, error)
		GetAsset(ctx context.Context, id string) (*entity.StoredAsset, error)
	}

	// JobHandler executes one delivery of a job; a returned error marks the job failed.
	JobHandler func(ctx context.Context, job entity.DerivationJob) error

	JobQueue interface {
		Enqueue(ctx context.Context, job entity.DerivationJob, delay time.Duration) (entity.JobHandle, error)
	}

	// JobLedger records the outcome of a dispatched job.
	JobLedger interface {
		Complete(ctx context.Context, id uuid.UUID) error
		Fail(ctx context.Context, id uuid.UUID, cause error) error
	}

	JobOutbox interface {
		ClaimVisible(ctx context.Context, limit, maxRetries int) ([]*entity.QueuedJob, error)
		MarkAsDispatchedBatch(ctx context.Context, jobs []*entity.QueuedJob) error
		ReleaseBatch(ctx context.Context, jobs []*entity.QueuedJob) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		CleanupOutbox(ctx context.Context, retention time.Duration) error
		ReclaimStale(ctx context.Context, lease time.Duration) error
	}
)
