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

type IAdviceController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	StreamChat(ctx *fiber.Ctx) error
}

type adviceController struct {
	adviceService service.IAdviceService
}

func NewAdviceController(adviceService service.IAdviceService) IAdviceController {
	return &adviceController{adviceService: adviceService}
}

func (c *adviceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/advice/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/session", c.CreateSession)
	h.Get("/sessions", c.GetSessions)
	h.Get("/session/:id/history", c.GetHistory)
	h.Delete("/session", c.DeleteSession)
	h.Post("/chat/stream", c.StreamChat)
}

func (c *adviceController) CreateSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.adviceService.CreateSession(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *adviceController) GetSessions(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.adviceService.GetSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get sessions", res))
}

func (c *adviceController) GetHistory(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	res, err := c.adviceService.GetHistory(ctx.Context(), userId, sessionId)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, "Session not found"))
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *adviceController) DeleteSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.DeleteAdviceSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.adviceService.DeleteSession(ctx.Context(), userId, req.SessionId); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, "Session not found"))
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

// StreamChat answers one advice turn over SSE. Setup failures (bad
// session, exhausted quota) return plain JSON before the response is
// hijacked; once streaming starts, errors travel inside the stream.
func (c *adviceController) StreamChat(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.AdviceStreamRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	// The stream outlives this handler, so it runs on its own context;
	// cancel fires when the writer observes the client disconnect.
	streamCtx, cancel := context.WithCancel(context.Background())
	events, err := c.adviceService.StreamChat(streamCtx, userId, &req)
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
