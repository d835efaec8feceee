package http

import (
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/service"
)

type forgotReq struct {
	Email string `json:"email" validate:"required,email"`
}

func ForgotPasswordHandler(lc *service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req forgotReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_FIELDS",
				"message":    "Invalid request data",
			})
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_EMAIL",
				"message":    "Invalid email format",
			})
		}

		if err := lc.RequestPasswordReset(c.Context(), req.Email); err != nil {
			return serverError(c, err)
		}

		// same acknowledgment whether or not the address exists
		return c.JSON(fiber.Map{"message": "If the address is registered, a reset message has been sent"})
	}
}
