package v1

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/andreyxaxa/Asset-Pipeline/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/Asset-Pipeline/internal/entity"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// @Summary  	Upload a file
// @Description Stores the file under the canonical layout and schedules derived assets
// @Tags 		assets
// @Accept 		mpfd
// @Produce 	json
// @Param 		file formData file true "Any file"
// @Success 	200 {object} response.Upload
// @Failure 	400 {object} response.Error "No file provided"
// @Failure 	413 {object} response.Error "File too large"
// @Failure 	415 {object} response.Error "Unsupported media type"
// @Failure 	500 {object} response.Error "Storage or queue failure"
// @Router 		/upload [post]
func (r *V1) upload(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "no file provided")
	}

	headers := form.File["file"]
	if len(headers) == 0 {
		headers = form.File["files"]
	}
	if len(headers) == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "no file provided")
	}

	fh := headers[0]

	// 1. validation
	if err = r.limits.Size(fh); err != nil {
		return errorResponse(ctx, http.StatusRequestEntityTooLarge, err.Error())
	}
	if err = r.limits.MIMEType(fh); err != nil {
		return errorResponse(ctx, http.StatusUnsupportedMediaType, err.Error())
	}

	// 2. staging
	file, err := r.stage(ctx, fh)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - upload")

		return errorResponse(ctx, http.StatusInternalServerError, "failed to receive file")
	}

	// 3. ingestion
	asset, err := r.ingest.Ingest(ctx.UserContext(), file)
	if err != nil {
		r.discard(file)
		r.logger.Error(err, "restapi - v1 - upload")

		code, msg := ingestError(err)

		return errorResponse(ctx, code, msg)
	}

	return ctx.Status(http.StatusOK).JSON(response.Upload{
		Success:    true,
		StatusCode: http.StatusOK,
		Data: response.UploadData{
			Message: "file uploaded",
			File:    r.fileResponse(asset),
		},
	})
}

// @Summary  	Upload several files
// @Description Stores every file independently; a rejected file does not fail the batch
// @Tags 		assets
// @Accept 		mpfd
// @Produce 	json
// @Param 		files formData file true "Files" collectionFormat(multi)
// @Success 	200 {object} response.BatchUpload
// @Failure 	400 {object} response.Error "No files provided or too many files"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/upload/batch [post]
func (r *V1) uploadBatch(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "no file provided")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return errorResponse(ctx, http.StatusBadRequest, "no file provided")
	}
	if err = r.limits.BatchCount(len(headers)); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	}

	items := make([]response.BatchItem, len(headers))
	staged := make([]*entity.UploadedFile, 0, len(headers))
	slots := make([]int, 0, len(headers))

	// 1. per-file validation and staging
	for i, fh := range headers {
		items[i].OriginalName = fh.Filename

		if err := r.limits.Size(fh); err != nil {
			items[i].Error = err.Error()
			continue
		}
		if err := r.limits.MIMEType(fh); err != nil {
			items[i].Error = err.Error()
			continue
		}

		file, err := r.stage(ctx, fh)
		if err != nil {
			r.logger.Error(err, "restapi - v1 - uploadBatch")
			items[i].Error = "failed to receive file"
			continue
		}

		staged = append(staged, file)
		slots = append(slots, i)
	}

	// 2. ingestion
	uploaded := 0
	if len(staged) > 0 {
		results, err := r.ingest.IngestBatch(ctx.UserContext(), staged)
		if err != nil {
			for _, f := range staged {
				r.discard(f)
			}
			r.logger.Error(err, "restapi - v1 - uploadBatch")

			code, msg := ingestError(err)

			return errorResponse(ctx, code, msg)
		}

		for j, res := range results {
			i := slots[j]
			if res.Err != nil {
				r.discard(staged[j])
				_, items[i].Error = ingestError(res.Err)
				continue
			}

			f := r.fileResponse(res.Asset)
			items[i].File = &f
			uploaded++
		}
	}

	return ctx.Status(http.StatusOK).JSON(response.BatchUpload{
		Success:    true,
		StatusCode: http.StatusOK,
		Data: response.BatchUploadData{
			Message: fmt.Sprintf("%d of %d files uploaded", uploaded, len(headers)),
			Files:   items,
		},
	})
}

// stage writes the multipart part into the incoming directory under a fresh extensionless name.
func (r *V1) stage(ctx *fiber.Ctx, fh *multipart.FileHeader) (*entity.UploadedFile, error) {
	tmp := filepath.Join(r.incomingDir, uuid.NewString())

	if err := ctx.SaveFile(fh, tmp); err != nil {
		return nil, fmt.Errorf("ctx.SaveFile: %w", err)
	}

	return &entity.UploadedFile{
		OriginalName: fh.Filename,
		TempPath:     tmp,
		Size:         fh.Size,
	}, nil
}

// discard drops a staged file that never made it into storage.
func (r *V1) discard(file *entity.UploadedFile) {
	err := os.Remove(file.TempPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("restapi - v1 - discard - os.Remove %s: %v", file.TempPath, err)
	}
}

func (r *V1) fileResponse(asset *entity.StoredAsset) response.File {
	rel, err := r.layout.Rel(asset.Path)
	if err != nil {
		r.logger.Warn("restapi - v1 - fileResponse - r.layout.Rel: %v", err)
		rel = asset.StoredName
	}

	return response.File{
		OriginalName: asset.OriginalName,
		StoredName:   asset.StoredName,
		Type:         string(asset.Category),
		Extension:    asset.Extension,
		Path:         rel,
		URL:          path.Join("/", r.publicPrefix, rel),
	}
}

func ingestError(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrNoFileProvided):
		return http.StatusBadRequest, "no file provided"
	case errors.Is(err, errs.ErrEnqueueFailure):
		return http.StatusInternalServerError, "failed to schedule processing"
	case errors.Is(err, errs.ErrStorageFailure):
		return http.StatusInternalServerError, "storage problems"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
