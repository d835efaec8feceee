package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/service"
)

type otpReq struct {
	Email string `json:"email" validate:"required,email"`
}

type otpConfirmReq struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

func RequestOTPHandler(lc *service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req otpReq
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

		if err := lc.RequestEmailOTP(c.Context(), req.Email); err != nil {
			// OTP is part of a semi-known flow; a missing account is a 404
			if errors.Is(err, domain.ErrPrincipalNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error_code": "NOT_FOUND",
					"message":    "Account not found",
				})
			}
			return serverError(c, err)
		}

		return c.JSON(fiber.Map{"message": "Code sent"})
	}
}

func ConfirmOTPHandler(lc *service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req otpConfirmReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_FIELDS",
				"message":    "Invalid request data",
			})
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		req.Code = strings.TrimSpace(req.Code)
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_CODE",
				"message":    "Invalid or expired code",
			})
		}

		s, err := lc.ConfirmEmailOTP(req.Email, req.Code)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error_code": "INVALID_CODE",
					"message":    "Invalid or expired code",
				})
			}
			return serverError(c, err)
		}

		setSessionCookie(c, s)
		return c.JSON(sessionJSON(s))
	}
}
