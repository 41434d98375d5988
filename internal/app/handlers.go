package app

import (
	"github.com/andreyxaxa/Asset-Pipeline/config"
	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure/processor"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure/transcoder"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/classifier"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/derive"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
)

// Handlers builds the derivation workers keyed by the queue they serve; cdn may be nil.
func Handlers(
	cfg *config.Config,
	r *layout.Resolver,
	files repo.FileStore,
	events infrastructure.EventPublisher,
	cdn repo.CDNRepo,
	l logger.Interface,
) map[string]usecase.JobHandler {
	audioDeriver := derive.NewAudioDeriver(
		r,
		files,
		transcoder.New(
			transcoder.Binary(cfg.Derivation.FFmpegPath),
			transcoder.Quality(cfg.Derivation.AudioQuality),
		),
		events,
		cfg.Derivation.ConversionTimeout,
		l,
	)

	imageDeriver := derive.NewImageDeriver(
		r,
		files,
		processor.New(),
		events,
		cdn,
		derive.ImageOptions{
			CDNWidth:           cfg.Derivation.CDNWidth,
			CDNQuality:         cfg.Derivation.CDNQuality,
			ThumbnailSizes:     cfg.Derivation.ThumbnailSizes,
			ThumbnailQuality:   cfg.Derivation.ThumbnailQuality,
			LosslessExtensions: cfg.Derivation.LosslessExtensions,
			Concurrency:        cfg.Derivation.ImageConcurrency,
			Timeout:            cfg.Derivation.ConversionTimeout,
		},
		l,
	)

	return map[string]usecase.JobHandler{
		entity.AudioConversionQueue: audioDeriver.Handle,
		entity.ImageProcessingQueue: imageDeriver.Handle,
	}
}

func Classifier(cfg config.Classifier) *classifier.Classifier {
	return classifier.New(
		classifier.Rule{Category: entity.CategoryAudio, Extensions: cfg.Audio},
		classifier.Rule{Category: entity.CategoryImage, Extensions: cfg.Image},
		classifier.Rule{Category: entity.CategoryVideo, Extensions: cfg.Video},
		classifier.Rule{Category: entity.CategoryDocument, Extensions: cfg.Document},
	)
}
