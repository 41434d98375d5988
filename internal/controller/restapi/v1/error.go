package v1

import (
	"github.com/andreyxaxa/Asset-Pipeline/internal/controller/restapi/v1/response"
	"github.com/gofiber/fiber/v2"
)

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{
		Success:    false,
		StatusCode: code,
		Data:       response.ErrorMessage{Message: msg},
	})
}
