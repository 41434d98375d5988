package restapi

import (
	"strings"

	"github.com/andreyxaxa/Asset-Pipeline/config"
	_ "github.com/andreyxaxa/Asset-Pipeline/docs" // swagger docs
	v1 "github.com/andreyxaxa/Asset-Pipeline/internal/controller/restapi/v1"
	"github.com/andreyxaxa/Asset-Pipeline/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// @title Asset pipeline
// @version 1.0.0
// @host localhost:8080
// @BasePath /v1
func NewRouter(app *fiber.App, cfg *config.Config, ingest usecase.IngestUseCase, r *layout.Resolver, l logger.Interface) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Stored and derived files
	app.Static(cfg.Storage.PublicPrefix, r.Root(), fiber.Static{
		ByteRange: true,
		Next: func(c *fiber.Ctx) bool {
			return hiddenPath(c.Path())
		},
	})

	// Routers
	apiV1Group := app.Group("/v1")
	{
		v1.NewAssetRoutes(
			apiV1Group,
			ingest,
			r,
			validate.Limits{
				MaxUploadSize:    cfg.Storage.MaxUploadSize,
				MaxBatchFiles:    cfg.Storage.MaxBatchFiles,
				AllowedMIMETypes: cfg.Storage.AllowedMIMETypes,
			},
			cfg.Storage.IncomingDir,
			cfg.Storage.PublicPrefix,
			l,
		)
	}
}

// hiddenPath reports whether any segment of p is a dot-file, such as the
// temporary files derivations write before renaming them into place.
func hiddenPath(p string) bool {
	for _, segment := range strings.Split(p, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}

	return false
}
