package infrastructure

import (
	"context"
	"image"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
)

type ImageFormat string

const (
	JPEG ImageFormat = "jpeg"
	PNG  ImageFormat = "png"
)

type (
	JobSender interface {
		SendJobs(ctx context.Context, jobs []*entity.QueuedJob) error
		Close() error
	}

	// ProgressFunc receives the amount of media processed so far, in milliseconds.
	ProgressFunc func(processedMS int64)

	Transcoder interface {
		Transcode(ctx context.Context, src, dst, format string, progress ProgressFunc) error
	}

	ImageEngine interface {
		Open(path string) (image.Image, error)
		// FitWidth scales img down to maxWidth keeping the aspect ratio; narrower images are returned as is.
		FitWidth(img image.Image, maxWidth int) image.Image
		// Cover scales and center-crops img to an exact size×size square.
		Cover(img image.Image, size int) image.Image
		Save(img image.Image, path string, format ImageFormat, quality int) error
	}

	EventPublisher interface {
		Publish(ctx context.Context, event entity.DerivationEvent) error
	}
)
