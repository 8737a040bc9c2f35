package serverutils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRequest checks a parsed request body against its validate
// tags and returns a 400 carrying every failed field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	var parts []string
	for _, fe := range validationErrs {
		parts = append(parts, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
	}
	return fiber.NewError(fiber.StatusBadRequest, "Validation failed: "+strings.Join(parts, ", "))
}
