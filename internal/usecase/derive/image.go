package derive

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"golang.org/x/sync/errgroup"
)

type ImageOptions struct {
	CDNWidth           int
	CDNQuality         int
	ThumbnailSizes     []int
	ThumbnailQuality   int
	LosslessExtensions []string
	Concurrency        int
	Timeout            time.Duration
}

func DefaultImageOptions() ImageOptions {
	return ImageOptions{
		CDNWidth:           1200,
		CDNQuality:         90,
		ThumbnailSizes:     []int{64, 256, 512},
		ThumbnailQuality:   80,
		LosslessExtensions: []string{"webp"},
		Concurrency:        runtime.NumCPU(),
	}
}

type ImageDeriver struct {
	layout *layout.Resolver
	files  repo.FileStore
	engine infrastructure.ImageEngine
	events infrastructure.EventPublisher
	cdn    repo.CDNRepo

	opts     ImageOptions
	lossless map[string]struct{}

	logger logger.Interface
}

type output struct {
	kind    entity.DerivedKind
	path    string
	format  infrastructure.ImageFormat
	quality int
	render  func(image.Image) image.Image
}

// NewImageDeriver builds the worker; cdn may be nil when no mirror is configured.
func NewImageDeriver(
	r *layout.Resolver,
	files repo.FileStore,
	engine infrastructure.ImageEngine,
	events infrastructure.EventPublisher,
	cdn repo.CDNRepo,
	opts ImageOptions,
	l logger.Interface,
) *ImageDeriver {
	lossless := make(map[string]struct{}, len(opts.LosslessExtensions))
	for _, ext := range opts.LosslessExtensions {
		lossless[strings.ToLower(ext)] = struct{}{}
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &ImageDeriver{
		layout:   r,
		files:    files,
		engine:   engine,
		events:   events,
		cdn:      cdn,
		opts:     opts,
		lossless: lossless,
		logger:   l,
	}
}

func (d *ImageDeriver) Handle(ctx context.Context, job entity.DerivationJob) error {
	proc, ok := job.(entity.ImageProcessing)
	if !ok {
		return fmt.Errorf("ImageDeriver - Handle - %T: %w", job, errs.ErrUnknownQueue)
	}

	_, err := d.Run(ctx, proc)

	return err
}

// Run writes the CDN copy, the thumbnail set and, for lossless sources, a PNG copy.
// Any failed output fails the whole job.
func (d *ImageDeriver) Run(ctx context.Context, job entity.ImageProcessing) ([]entity.DerivedAsset, error) {
	em := emitter{events: d.events, logger: d.logger, queue: job.Queue(), source: job.OriginalFilePath}
	em.emit(ctx, entity.DerivationEvent{Stage: entity.StageStarted})

	derived, err := d.run(ctx, job)
	if err != nil {
		em.failed(ctx, err)
		return nil, fmt.Errorf("ImageDeriver - Run: %w", err)
	}

	em.emit(ctx, entity.DerivationEvent{Stage: entity.StageCompleted, Outputs: derived})

	return derived, nil
}

func (d *ImageDeriver) run(ctx context.Context, job entity.ImageProcessing) ([]entity.DerivedAsset, error) {
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	// 1. decode once
	src, err := d.engine.Open(job.OriginalFilePath)
	if err != nil {
		return nil, fmt.Errorf("d.engine.Open: %w: %w", errs.ErrConversionFailure, err)
	}

	outputs := d.plan(job)

	// 2. directories before any write
	dirs := make(map[string]struct{})
	for _, o := range outputs {
		dir := filepath.Dir(o.path)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := d.files.EnsureDir(ctx, dir); err != nil {
			return nil, fmt.Errorf("d.files.EnsureDir: %w: %w", errs.ErrStorageFailure, err)
		}
		dirs[dir] = struct{}{}
	}

	// 3. render every output from the same source
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)

	for _, o := range outputs {
		o := o
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			return d.write(gctx, o.render(src), o)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("g.Wait: %w", err)
	}

	derived := make([]entity.DerivedAsset, 0, len(outputs))
	for _, o := range outputs {
		derived = append(derived, entity.DerivedAsset{Kind: o.kind, Path: o.path})
	}

	// 4. mirror the CDN copy
	if d.cdn != nil {
		cdnPath := d.layout.CDNCopy(job.YearMonth, job.NewFileName)

		key, err := d.layout.Rel(cdnPath)
		if err != nil {
			return nil, fmt.Errorf("d.layout.Rel: %w", err)
		}

		if err := d.cdn.Publish(ctx, cdnPath, key); err != nil {
			return nil, fmt.Errorf("d.cdn.Publish: %w", err)
		}
	}

	return derived, nil
}

func (d *ImageDeriver) plan(job entity.ImageProcessing) []output {
	outputs := make([]output, 0, len(d.opts.ThumbnailSizes)+2)

	outputs = append(outputs, output{
		kind:    entity.KindCDNJPEG,
		path:    d.layout.CDNCopy(job.YearMonth, job.NewFileName),
		format:  infrastructure.JPEG,
		quality: d.opts.CDNQuality,
		render: func(img image.Image) image.Image {
			return d.engine.FitWidth(img, d.opts.CDNWidth)
		},
	})

	if _, ok := d.lossless[strings.ToLower(job.Extension)]; ok {
		outputs = append(outputs, output{
			kind:   entity.KindPNGCopy,
			path:   d.layout.PNGCopy(job.YearMonth, job.NewFileName),
			format: infrastructure.PNG,
			render: func(img image.Image) image.Image { return img },
		})
	}

	for _, size := range d.opts.ThumbnailSizes {
		size := size
		outputs = append(outputs, output{
			kind:    entity.ThumbnailKind(size),
			path:    d.layout.Thumbnail(job.YearMonth, job.NewFileName, size),
			format:  infrastructure.JPEG,
			quality: d.opts.ThumbnailQuality,
			render: func(img image.Image) image.Image {
				return d.engine.Cover(img, size)
			},
		})
	}

	return outputs
}

func (d *ImageDeriver) write(ctx context.Context, img image.Image, o output) error {
	tmp := tempPath(o.path)

	err := d.engine.Save(img, tmp, o.format, o.quality)
	if err != nil {
		d.discard(ctx, tmp)
		return fmt.Errorf("d.engine.Save %s: %w: %w", o.kind, errs.ErrConversionFailure, err)
	}

	err = d.files.Move(ctx, tmp, o.path)
	if err != nil {
		d.discard(ctx, tmp)
		return fmt.Errorf("d.files.Move %s: %w: %w", o.kind, errs.ErrStorageFailure, err)
	}

	return nil
}

func (d *ImageDeriver) discard(ctx context.Context, path string) {
	if err := d.files.Remove(context.WithoutCancel(ctx), path); err != nil {
		d.logger.Warn("ImageDeriver - discard - %s: %v", path, err)
	}
}
