package v1

import (
	"github.com/andreyxaxa/Asset-Pipeline/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
)

type V1 struct {
	ingest usecase.IngestUseCase
	layout *layout.Resolver
	logger logger.Interface

	limits       validate.Limits
	incomingDir  string
	publicPrefix string
}
