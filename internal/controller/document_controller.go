package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/dto"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/serverutils"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/service"
)

// IDocumentController manages the legal knowledge base. Admin only.
type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Remove(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{documentService: documentService}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Use(serverutils.AdminOnly)
	h.Post("", c.Register)
	h.Get("", c.List)
	h.Get("/:id", c.Get)
	h.Delete("/:id", c.Remove)
}

func (c *documentController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.documentService.Register(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document registered, ingestion queued", res))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	var q dto.ListDocumentsQuery
	if err := ctx.QueryParser(&q); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	res, err := c.documentService.List(ctx.Context(), &q)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Get(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid document id")
	}

	res, err := c.documentService.Get(ctx.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get document", res))
}

func (c *documentController) Remove(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid document id")
	}

	if err := c.documentService.Remove(ctx.Context(), id); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Document removed", fiber.Map{"id": id}))
}
