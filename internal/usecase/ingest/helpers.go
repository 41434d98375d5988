package ingest

import (
	"context"
	"path/filepath"

	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/google/uuid"
)

// IDGenerator names a stored file; it must not collide across concurrent calls.
type IDGenerator func(file *entity.UploadedFile) string

func UUIDNames(*entity.UploadedFile) string {
	return uuid.NewString()
}

// UploadNames reuses the unique name the intake layer gave the staged file.
func UploadNames(file *entity.UploadedFile) string {
	return layout.BaseName(filepath.Base(file.TempPath))
}

// mp3 uploads already are the copy the audio derivation would produce.
const _mp3Extension = "mp3"

func derivationFor(asset *entity.StoredAsset) entity.DerivationJob {
	switch asset.Category {
	case entity.CategoryAudio:
		if asset.Extension == _mp3Extension {
			return nil
		}
		return entity.AudioConversion{
			OriginalFilePath: asset.Path,
			YearMonth:        asset.Bucket,
			NewFileName:      asset.StoredName,
		}
	case entity.CategoryImage:
		return entity.ImageProcessing{
			OriginalFilePath: asset.Path,
			YearMonth:        asset.Bucket,
			NewFileName:      asset.StoredName,
			Extension:        asset.Extension,
		}
	default:
		return nil
	}
}

type noopTransactor struct{}

func (noopTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}
