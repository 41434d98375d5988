package v1

import (
	"github.com/andreyxaxa/Asset-Pipeline/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewAssetRoutes(
	apiV1Group fiber.Router,
	ingest usecase.IngestUseCase,
	r *layout.Resolver,
	limits validate.Limits,
	incomingDir, publicPrefix string,
	l logger.Interface,
) {
	v := &V1{
		ingest:       ingest,
		layout:       r,
		logger:       l,
		limits:       limits,
		incomingDir:  incomingDir,
		publicPrefix: publicPrefix,
	}

	{
		apiV1Group.Post("/upload", v.upload)
		apiV1Group.Post("/upload/batch", v.uploadBatch)
		apiV1Group.Get("/assets/:id", v.getAsset)
	}
}
