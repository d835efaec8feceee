package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/service"
)

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=50"`
}

func LoginHandler(lc *service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginReq
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_FIELDS",
				"message":    "Invalid request data",
			})
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := validate.Struct(req); err != nil {
			// same payload as a failed credential check: the shape of the
			// input must not reveal more than the credentials do
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error_code": "INVALID_CREDENTIALS",
				"message":    "Invalid email or password",
			})
		}

		s, err := lc.Login(req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredential) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error_code": "INVALID_CREDENTIALS",
					"message":    "Invalid email or password",
				})
			}
			return serverError(c, err)
		}

		setSessionCookie(c, s)
		return c.JSON(sessionJSON(s))
	}
}
