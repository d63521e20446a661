package controller

import (
	"signaware-be/internal/dto"
	"signaware-be/internal/pkg/serverutils"
	"signaware-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPiiController interface {
	RegisterRoutes(r fiber.Router)
	MaskText(ctx *fiber.Ctx) error
	MaskDocument(ctx *fiber.Ctx) error
	ShowMaskedContent(ctx *fiber.Ctx) error
}

type piiController struct {
	service service.IPiiService
}

func NewPiiController(service service.IPiiService) IPiiController {
	return &piiController{service: service}
}

func (c *piiController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/pii/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/mask", c.MaskText)
	h.Post("/document/:id/mask", c.MaskDocument)
	h.Get("/document/:id/masked", c.ShowMaskedContent)
}

func (c *piiController) MaskText(ctx *fiber.Ctx) error {
	var req dto.MaskTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.MaskText(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("text masked", res))
}

func (c *piiController) MaskDocument(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}
	documentId, err := documentIdFromParams(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.MaskDocument(ctx.Context(), userId, documentId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("document masked", res))
}

func (c *piiController) ShowMaskedContent(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}
	documentId, err := documentIdFromParams(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetMaskedContent(ctx.Context(), userId, documentId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("masked content retrieved", res))
}
