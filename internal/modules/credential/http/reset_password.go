package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/service"
)

type resetReq struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=50"`
}

func ResetPasswordHandler(lc *service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req resetReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_FIELDS",
				"message":    "Invalid request data",
			})
		}
		req.Token = strings.TrimSpace(req.Token)
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "VALIDATION_ERROR",
				"message":    "Password must be 8 to 50 characters",
			})
		}

		if err := lc.CompletePasswordReset(req.Token, req.NewPassword); err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error_code": "INVALID_TOKEN",
					"message":    "Invalid or expired token",
				})
			}
			return serverError(c, err)
		}

		return c.JSON(fiber.Map{"message": "Password has been reset"})
	}
}
