package repo

import (
	"context"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/google/uuid"
)

type (
	FileStore interface {
		EnsureDir(ctx context.Context, dir string) error
		Move(ctx context.Context, src, dst string) error
		Remove(ctx context.Context, path string) error
	}

	AssetRepo interface {
		Create(ctx context.Context, asset *entity.StoredAsset) error
		GetByID(ctx context.Context, id string) (*entity.StoredAsset, error)
	}

	JobOutboxRepo interface {
		Create(ctx context.Context, job *entity.QueuedJob) error
		GetVisiblePending(ctx context.Context, now time.Time, limit int, maxRetries int) ([]*entity.QueuedJob, error)
		MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkAsDispatchedBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkAsProcessed(ctx context.Context, id uuid.UUID) error
		MarkAsFailed(ctx context.Context, id uuid.UUID, cause string) error
		IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error
		MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error
		DeleteOldProcessedAndFailed(ctx context.Context, before time.Time) (int64, error)
		ResetExpiredClaims(ctx context.Context, before time.Time) (int64, error)
	}

	CDNRepo interface {
		Publish(ctx context.Context, localPath, key string) error
	}

	Transactor interface {
		WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error
	}
)
