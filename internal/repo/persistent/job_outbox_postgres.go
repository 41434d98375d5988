package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/postgres"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	// Table
	jobsTable = "derivation_jobs"

	// Columns
	jobIDColumn          = "id"
	jobQueueColumn       = "queue"
	jobPayloadColumn     = "payload"
	jobStatusColumn      = "status"
	jobVisibleAtColumn   = "visible_at"
	jobCreatedAtColumn   = "created_at"
	jobClaimedAtColumn   = "claimed_at"
	jobProcessedAtColumn = "processed_at"
	jobRetryCountColumn  = "retry_count"
	jobLastErrorColumn   = "last_error"
)

type JobOutboxRepo struct {
	*postgres.Postgres
}

func NewJobOutboxRepo(pg *postgres.Postgres) *JobOutboxRepo {
	return &JobOutboxRepo{pg}
}

func (r *JobOutboxRepo) Create(ctx context.Context, job *entity.QueuedJob) error {
	sql, args, err := r.Builder.
		Insert(jobsTable).
		Columns(
			jobIDColumn,
			jobQueueColumn,
			jobPayloadColumn,
			jobStatusColumn,
			jobVisibleAtColumn,
			jobCreatedAtColumn,
			jobRetryCountColumn,
		).
		Values(
			job.ID,
			job.Queue,
			job.Payload,
			job.Status,
			job.VisibleAt,
			job.CreatedAt,
			job.RetryCount,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

// GetVisiblePending locks the returned rows until the surrounding transaction ends.
func (r *JobOutboxRepo) GetVisiblePending(ctx context.Context, now time.Time, limit int, maxRetries int) ([]*entity.QueuedJob, error) {
	sql, args, err := r.Builder.
		Select(
			jobIDColumn,
			jobQueueColumn,
			jobPayloadColumn,
			jobStatusColumn,
			jobVisibleAtColumn,
			jobCreatedAtColumn,
			jobClaimedAtColumn,
			jobProcessedAtColumn,
			jobRetryCountColumn,
			jobLastErrorColumn,
		).
		From(jobsTable).
		Where(squirrel.And{
			squirrel.Eq{jobStatusColumn: entity.Pending},
			squirrel.LtOrEq{jobVisibleAtColumn: now},
			squirrel.Lt{jobRetryCountColumn: maxRetries},
		}).
		OrderBy(jobVisibleAtColumn + " ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("JobOutboxRepo - GetVisiblePending - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("JobOutboxRepo - GetVisiblePending - executor.Query: %w", err)
	}
	defer rows.Close()

	jobs := make([]*entity.QueuedJob, 0, limit)
	for rows.Next() {
		var job entity.QueuedJob
		err = rows.Scan(
			&job.ID,
			&job.Queue,
			&job.Payload,
			&job.Status,
			&job.VisibleAt,
			&job.CreatedAt,
			&job.ClaimedAt,
			&job.ProcessedAt,
			&job.RetryCount,
			&job.LastError,
		)
		if err != nil {
			return nil, fmt.Errorf("JobOutboxRepo - GetVisiblePending - rows.Scan: %w", err)
		}
		jobs = append(jobs, &job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("JobOutboxRepo - GetVisiblePending - rows.Err: %w", err)
	}

	return jobs, nil
}

func (r *JobOutboxRepo) MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error {
	sql, args, err := r.transitionQuery(IDs, entity.Pending, entity.Processing, time.Now())
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - MarkAsProcessingBatch - r.transitionQuery: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - MarkAsProcessingBatch - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("JobOutboxRepo - MarkAsProcessingBatch: %w", errs.ErrRecordNotFound)
	}

	return nil
}

// MarkAsDispatchedBatch only moves rows that are still processing. A consumer may
// already have completed or failed a job before the relay gets here, and such
// rows are left alone.
func (r *JobOutboxRepo) MarkAsDispatchedBatch(ctx context.Context, IDs uuid.UUIDs) error {
	sql, args, err := r.transitionQuery(IDs, entity.Processing, entity.Dispatched, time.Now())
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - MarkAsDispatchedBatch - r.transitionQuery: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - MarkAsDispatchedBatch - executor.Exec: %w", err)
	}

	return nil
}

// transitionQuery moves the rows in IDs from one status to another and restarts their claim lease.
func (r *JobOutboxRepo) transitionQuery(IDs uuid.UUIDs, from, to entity.Status, claimedAt time.Time) (string, []any, error) {
	return r.Builder.
		Update(jobsTable).
		Set(jobStatusColumn, to).
		Set(jobClaimedAtColumn, claimedAt).
		Where(squirrel.And{
			squirrel.Eq{jobIDColumn: IDs},
			squirrel.Eq{jobStatusColumn: from},
		}).
		ToSql()
}

func (r *JobOutboxRepo) MarkAsProcessed(ctx context.Context, id uuid.UUID) error {
	sql, args, err := r.Builder.
		Update(jobsTable).
		Set(jobStatusColumn, entity.Processed).
		Set(jobProcessedAtColumn, time.Now()).
		Where(squirrel.Eq{jobIDColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - MarkAsProcessed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - MarkAsProcessed - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("JobOutboxRepo - MarkAsProcessed: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *JobOutboxRepo) MarkAsFailed(ctx context.Context, id uuid.UUID, cause string) error {
	sql, args, err := r.Builder.
		Update(jobsTable).
		Set(jobStatusColumn, entity.Failed).
		Set(jobProcessedAtColumn, time.Now()).
		Set(jobLastErrorColumn, cause).
		Where(squirrel.Eq{jobIDColumn: id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - MarkAsFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - MarkAsFailed - executor.Exec: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("JobOutboxRepo - MarkAsFailed: %w", errs.ErrRecordNotFound)
	}

	return nil
}

func (r *JobOutboxRepo) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	sql, args, err := r.Builder.
		Update(jobsTable).
		Set(jobStatusColumn, entity.Failed).
		Set(jobProcessedAtColumn, time.Now()).
		Set(jobLastErrorColumn, "dispatch retries exhausted").
		Where(squirrel.And{
			squirrel.Eq{jobStatusColumn: string(entity.Pending)},
			squirrel.GtOrEq{jobRetryCountColumn: maxRetries},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - MarkMaxRetriesAsFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - MarkMaxRetriesAsFailed - executor.Exec: %w", err)
	}

	return nil
}

// IncrementRetryCountBatch returns processing rows to pending. Rows that moved on
// in the meantime keep their status.
func (r *JobOutboxRepo) IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error {
	sql, args, err := r.Builder.
		Update(jobsTable).
		Set(jobRetryCountColumn, squirrel.Expr(jobRetryCountColumn+" + 1")).
		Set(jobStatusColumn, entity.Pending).
		Set(jobClaimedAtColumn, nil).
		Where(squirrel.And{
			squirrel.Eq{jobIDColumn: IDs},
			squirrel.Eq{jobStatusColumn: entity.Processing},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - IncrementRetryCountBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("JobOutboxRepo - IncrementRetryCountBatch - executor.Exec: %w", err)
	}

	return nil
}

// ResetExpiredClaims puts processing and dispatched rows claimed before the given
// time back to pending, counting it as a retry, and returns how many rows it touched.
func (r *JobOutboxRepo) ResetExpiredClaims(ctx context.Context, before time.Time) (int64, error) {
	sql, args, err := r.resetExpiredQuery(before)
	if err != nil {
		return 0, fmt.Errorf("JobOutboxRepo - ResetExpiredClaims - r.resetExpiredQuery: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("JobOutboxRepo - ResetExpiredClaims - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *JobOutboxRepo) resetExpiredQuery(before time.Time) (string, []any, error) {
	return r.Builder.
		Update(jobsTable).
		Set(jobRetryCountColumn, squirrel.Expr(jobRetryCountColumn+" + 1")).
		Set(jobStatusColumn, entity.Pending).
		Set(jobClaimedAtColumn, nil).
		Where(squirrel.And{
			squirrel.Eq{jobStatusColumn: []string{string(entity.Processing), string(entity.Dispatched)}},
			squirrel.Lt{jobClaimedAtColumn: before},
		}).
		ToSql()
}

func (r *JobOutboxRepo) DeleteOldProcessedAndFailed(ctx context.Context, before time.Time) (int64, error) {
	sql, args, err := r.Builder.
		Delete(jobsTable).
		Where(squirrel.And{
			squirrel.Eq{jobStatusColumn: []string{string(entity.Processed), string(entity.Failed)}},
			squirrel.Lt{jobProcessedAtColumn: before},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("JobOutboxRepo - DeleteOldProcessedAndFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)
	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("JobOutboxRepo - DeleteOldProcessedAndFailed - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}
