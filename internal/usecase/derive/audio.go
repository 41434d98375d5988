package derive

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
)

const mp3Format = "mp3"

type AudioDeriver struct {
	layout     *layout.Resolver
	files      repo.FileStore
	transcoder infrastructure.Transcoder
	events     infrastructure.EventPublisher

	timeout time.Duration

	logger logger.Interface
}

func NewAudioDeriver(
	r *layout.Resolver,
	files repo.FileStore,
	t infrastructure.Transcoder,
	events infrastructure.EventPublisher,
	timeout time.Duration,
	l logger.Interface,
) *AudioDeriver {
	return &AudioDeriver{
		layout:     r,
		files:      files,
		transcoder: t,
		events:     events,
		timeout:    timeout,
		logger:     l,
	}
}

// Handle adapts Run to a queue handler.
func (d *AudioDeriver) Handle(ctx context.Context, job entity.DerivationJob) error {
	conv, ok := job.(entity.AudioConversion)
	if !ok {
		return fmt.Errorf("AudioDeriver - Handle - %T: %w", job, errs.ErrUnknownQueue)
	}

	_, err := d.Run(ctx, conv)

	return err
}

// Run writes the mp3 copy of the job's source. The output only appears at its
// canonical path once the transcoder has finished successfully.
func (d *AudioDeriver) Run(ctx context.Context, job entity.AudioConversion) (*entity.DerivedAsset, error) {
	em := emitter{events: d.events, logger: d.logger, queue: job.Queue(), source: job.OriginalFilePath}
	em.emit(ctx, entity.DerivationEvent{Stage: entity.StageStarted})

	out, err := d.run(ctx, job, em)
	if err != nil {
		em.failed(ctx, err)
		return nil, fmt.Errorf("AudioDeriver - Run: %w", err)
	}

	em.emit(ctx, entity.DerivationEvent{Stage: entity.StageCompleted, Outputs: []entity.DerivedAsset{*out}})

	return out, nil
}

func (d *AudioDeriver) run(ctx context.Context, job entity.AudioConversion, em emitter) (*entity.DerivedAsset, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	// 1. target directory
	err := d.files.EnsureDir(ctx, d.layout.MP3Dir(job.YearMonth))
	if err != nil {
		return nil, fmt.Errorf("d.files.EnsureDir: %w: %w", errs.ErrStorageFailure, err)
	}

	target := d.layout.MP3Copy(job.YearMonth, job.NewFileName)
	tmp := tempPath(target)

	// 2. transcode next to the target
	err = d.transcoder.Transcode(ctx, job.OriginalFilePath, tmp, mp3Format, func(ms int64) {
		em.emit(ctx, entity.DerivationEvent{Stage: entity.StageProgress, ProgressMS: ms})
	})
	if err != nil {
		d.discard(ctx, tmp)
		return nil, fmt.Errorf("d.transcoder.Transcode: %w: %w", errs.ErrConversionFailure, err)
	}

	// 3. publish atomically
	err = d.files.Move(ctx, tmp, target)
	if err != nil {
		d.discard(ctx, tmp)
		return nil, fmt.Errorf("d.files.Move: %w: %w", errs.ErrStorageFailure, err)
	}

	return &entity.DerivedAsset{Kind: entity.KindMP3Copy, Path: target}, nil
}

func (d *AudioDeriver) discard(ctx context.Context, path string) {
	if err := d.files.Remove(context.WithoutCancel(ctx), path); err != nil {
		d.logger.Warn("AudioDeriver - discard - %s: %v", path, err)
	}
}
