package v1

import (
	"errors"
	"net/http"

	"github.com/andreyxaxa/Asset-Pipeline/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// @Summary 	Get stored asset
// @Description Returns the catalog record of an uploaded file
// @Tags 		assets
// @Produce 	json
// @Param 		id path string true "Asset ID"
// @Success 	200 {object} entity.StoredAsset
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	404 {object} response.Error "Asset not found"
// @Failure 	500 {object} response.Error "Internal"
// @Router 		/assets/{id} [get]
func (r *V1) getAsset(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	if _, err := uuid.Parse(id); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid id")
	}

	asset, err := r.ingest.GetAsset(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, errs.ErrRecordNotFound) {
			return errorResponse(ctx, http.StatusNotFound, "asset not found")
		}
		r.logger.Error(err, "restapi - v1 - getAsset")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.Status(http.StatusOK).JSON(asset)
}
