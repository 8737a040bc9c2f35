package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/dto"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/pkg/serverutils"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/service"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	Profile(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth/v1")
	h.Post("/register", c.Register)
	h.Post("/login", c.Login)
	h.Get("/profile", serverutils.JwtMiddleware, c.Profile)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Register(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(fiber.StatusConflict, "Email already registered"))
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User registered successfully", res))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrAccountBlocked) {
			return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, "Account is blocked"))
		}
		// Wrong email and wrong password look the same on purpose.
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid email or password"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Login successful", res))
}

func (c *authController) Profile(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.GetProfile(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get profile", res))
}
