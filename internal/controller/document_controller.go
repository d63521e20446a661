package controller

import (
	"signaware-be/internal/apperror"
	"signaware-be/internal/dto"
	"signaware-be/internal/pkg/serverutils"
	"signaware-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Analyze(ctx *fiber.Ctx) error
	ShowAnalysis(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
}

func NewDocumentController(service service.IDocumentService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
	h.Post(":id/analyze", c.Analyze)
	h.Get(":id/analysis", c.ShowAnalysis)
}

func documentIdFromParams(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid document id")
	}
	return id, nil
}

func (c *documentController) Create(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.CreateDocument(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("document created", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}
	documentId, err := documentIdFromParams(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetDocument(ctx.Context(), userId, documentId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("document retrieved", res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}

	var query dto.ListDocumentsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&query); err != nil {
		return err
	}

	res, err := c.service.ListDocuments(ctx.Context(), userId, &query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("documents retrieved", res))
}

func (c *documentController) Update(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}
	documentId, err := documentIdFromParams(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.UpdateDocument(ctx.Context(), userId, documentId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("document updated", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}
	documentId, err := documentIdFromParams(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteDocument(ctx.Context(), userId, documentId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("document deleted", nil))
}

func (c *documentController) Analyze(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}
	documentId, err := documentIdFromParams(ctx)
	if err != nil {
		return err
	}

	// Body is optional; an empty body means default analysis settings.
	var req dto.AnalyzeDocumentRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	res, err := c.service.AnalyzeDocument(ctx.Context(), userId, documentId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("analysis queued", res))
}

func (c *documentController) ShowAnalysis(ctx *fiber.Ctx) error {
	userId, err := userIdFromCtx(ctx)
	if err != nil {
		return err
	}
	documentId, err := documentIdFromParams(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetAnalysis(ctx.Context(), userId, documentId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("analysis retrieved", res))
}
