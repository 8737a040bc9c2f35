package serverutils

import (
	"errors"
	"log"

	"github.com/berserker-glitch/9anonai-be-sub000/pkg/quota"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts errors returned by handlers into the
// standard response envelope. Quota exhaustion maps to 429 with the
// reset time so clients can show a countdown.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var limitErr *quota.LimitExceededError
		if errors.As(err, &limitErr) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"code":       fiber.StatusTooManyRequests,
				"message":    limitErr.Error(),
				"error_type": "quota_exceeded",
				"data": fiber.Map{
					"kind":     limitErr.Kind,
					"limit":    limitErr.Limit,
					"reset_at": limitErr.ResetAt,
				},
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		log.Printf("Unhandled error on %s %s: %v", ctx.Method(), ctx.Path(), err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}
