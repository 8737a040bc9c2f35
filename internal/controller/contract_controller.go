package controller

import (
	"bufio"
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/dto"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/serverutils"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/service"
)

type IContractController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	StreamMessage(ctx *fiber.Ctx) error
}

type contractController struct {
	contractService service.IContractService
}

func NewContractController(contractService service.IContractService) IContractController {
	return &contractController{contractService: contractService}
}

func (c *contractController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/contract/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/session", c.CreateSession)
	h.Get("/sessions", c.GetSessions)
	h.Get("/session/:id", c.GetSession)
	h.Post("/session/:id/message/stream", c.StreamMessage)
}

func (c *contractController) CreateSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CreateContractSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.contractService.CreateSession(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create contract session", res))
}

func (c *contractController) GetSessions(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.contractService.GetSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get contract sessions", res))
}

func (c *contractController) GetSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	res, err := c.contractService.GetSession(ctx.Context(), userId, sessionId)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, "Session not found"))
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get contract session", res))
}

// StreamMessage runs one drafting turn over SSE against the session's
// current document snapshot.
func (c *contractController) StreamMessage(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	var req dto.ContractStreamRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	events, err := c.contractService.StreamMessage(streamCtx, userId, sessionId, &req)
	if err != nil {
		cancel()
		if errors.Is(err, service.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, "Session not found"))
		}
		return err
	}

	setStreamHeaders(ctx)
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		streamEvents(w, events)
	}))
	return nil
}
