package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/service"
)

type verifyReq struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyConfirmReq struct {
	Token string `json:"token" validate:"required"`
}

func RequestVerificationHandler(lc *service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req verifyReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_FIELDS",
				"message":    "Invalid request data",
			})
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_EMAIL",
				"message":    "Invalid email format",
			})
		}

		if err := lc.RequestVerification(c.Context(), req.Email); err != nil {
			return serverError(c, err)
		}

		// same acknowledgment whether or not the address exists
		return c.JSON(fiber.Map{"message": "If the address is registered, a verification message has been sent"})
	}
}

func ConfirmVerificationHandler(lc *service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req verifyConfirmReq
		if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Token) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_FIELDS",
				"message":    "Invalid request data",
			})
		}

		s, err := lc.ConfirmVerification(strings.TrimSpace(req.Token))
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error_code": "INVALID_TOKEN",
					"message":    "Invalid or expired token",
				})
			}
			return serverError(c, err)
		}

		// verified address auto-signs-in
		setSessionCookie(c, s)
		return c.JSON(sessionJSON(s))
	}
}
