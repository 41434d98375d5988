package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/dto"
	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/classifier"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
)

const _defaultDelay = time.Second

type IngestUseCase struct {
	classifier *classifier.Classifier
	layout     *layout.Resolver
	files      repo.FileStore
	assets     repo.AssetRepo
	transactor repo.Transactor
	queue      usecase.JobQueue

	newID IDGenerator
	now   func() time.Time
	delay time.Duration

	logger logger.Interface
}

var _ usecase.IngestUseCase = (*IngestUseCase)(nil)

func New(
	c *classifier.Classifier,
	r *layout.Resolver,
	files repo.FileStore,
	queue usecase.JobQueue,
	l logger.Interface,
	opts ...Option,
) *IngestUseCase {
	uc := &IngestUseCase{
		classifier: c,
		layout:     r,
		files:      files,
		transactor: noopTransactor{},
		queue:      queue,
		newID:      UUIDNames,
		now:        time.Now,
		delay:      _defaultDelay,
		logger:     l,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *IngestUseCase) Ingest(ctx context.Context, file *entity.UploadedFile) (*entity.StoredAsset, error) {
	asset, err := uc.ingest(ctx, file, uc.now())
	if err != nil {
		return nil, fmt.Errorf("IngestUseCase - Ingest - uc.ingest: %w", err)
	}

	return asset, nil
}

// IngestBatch stores every file under one calendar bucket; a failed file does not stop its siblings.
func (uc *IngestUseCase) IngestBatch(ctx context.Context, files []*entity.UploadedFile) ([]dto.IngestResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("IngestUseCase - IngestBatch: %w", errs.ErrNoFileProvided)
	}

	now := uc.now()
	results := make([]dto.IngestResult, 0, len(files))

	for _, file := range files {
		res := dto.IngestResult{}
		if file != nil {
			res.OriginalName = file.OriginalName
		}

		asset, err := uc.ingest(ctx, file, now)
		if err != nil {
			uc.logger.Error(err, "IngestUseCase - IngestBatch - uc.ingest %s", res.OriginalName)
			res.Err = err
		} else {
			res.Asset = asset
		}

		results = append(results, res)
	}

	return results, nil
}

func (uc *IngestUseCase) GetAsset(ctx context.Context, id string) (*entity.StoredAsset, error) {
	if uc.assets == nil {
		return nil, fmt.Errorf("IngestUseCase - GetAsset: %w", errs.ErrRecordNotFound)
	}

	asset, err := uc.assets.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("IngestUseCase - GetAsset - uc.assets.GetByID: %w", err)
	}

	return asset, nil
}

// Requeue schedules derivation for an asset that is already in storage; it reports
// whether the asset's category has anything to derive.
func (uc *IngestUseCase) Requeue(ctx context.Context, asset *entity.StoredAsset) (bool, error) {
	job := derivationFor(asset)
	if job == nil {
		return false, nil
	}

	handle, err := uc.queue.Enqueue(ctx, job, 0)
	if err != nil {
		return false, fmt.Errorf("IngestUseCase - Requeue - uc.queue.Enqueue: %w: %w", errs.ErrEnqueueFailure, err)
	}

	uc.logger.Info("IngestUseCase - Requeue - job %s queued on %s for %s", handle.ID, handle.Queue, asset.StoredName)

	return true, nil
}

func (uc *IngestUseCase) ingest(ctx context.Context, file *entity.UploadedFile, now time.Time) (*entity.StoredAsset, error) {
	if file == nil || file.TempPath == "" {
		return nil, errs.ErrNoFileProvided
	}

	// 1. classify
	ext := classifier.ExtensionOf(file.OriginalName)
	category := uc.classifier.Classify(ext)

	// 2. resolve canonical location
	id := uc.newID(file)
	bucket := layout.Bucket(now)
	dir := uc.layout.PrimaryDir(category, ext, bucket)
	path := uc.layout.Primary(category, ext, bucket, id)

	// 3. move into place
	err := uc.files.EnsureDir(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("uc.files.EnsureDir: %w: %w", errs.ErrStorageFailure, err)
	}

	err = uc.files.Move(ctx, file.TempPath, path)
	if err != nil {
		return nil, fmt.Errorf("uc.files.Move: %w: %w", errs.ErrStorageFailure, err)
	}

	asset := &entity.StoredAsset{
		ID:           id,
		OriginalName: file.OriginalName,
		StoredName:   layout.StoredName(id, ext),
		Category:     category,
		Extension:    ext,
		Bucket:       bucket,
		Path:         path,
		Size:         file.Size,
		CreatedAt:    now,
	}

	// 4. catalog + derivation job, only after the original is in place
	job := derivationFor(asset)

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if uc.assets != nil {
			if err := uc.assets.Create(ctx, asset); err != nil {
				return fmt.Errorf("uc.assets.Create: %w", err)
			}
		}

		if job == nil {
			return nil
		}

		handle, err := uc.queue.Enqueue(ctx, job, uc.delay)
		if err != nil {
			return fmt.Errorf("uc.queue.Enqueue: %w", err)
		}

		uc.logger.Debug("IngestUseCase - ingest - job %s queued on %s for %s", handle.ID, handle.Queue, asset.StoredName)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("uc.transactor.WithinTransaction: %w: %w", errs.ErrEnqueueFailure, err)
	}

	uc.logger.Info("IngestUseCase - ingest - stored %s as %s (%s)", asset.OriginalName, asset.StoredName, asset.Category)

	return asset, nil
}
