package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"signaware-be/internal/apperror"
)

// userIdFromCtx reads the authenticated user id placed in locals by the JWT
// middleware.
func userIdFromCtx(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, apperror.Unauthorized("missing user identity")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Unauthorized("invalid user identity")
	}
	return id, nil
}
