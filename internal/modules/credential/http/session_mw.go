package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/service"
)

// SessionAuth resolves the presented session token into a principal. Missing,
// unknown and expired tokens all get the same 401.
func SessionAuth(v *service.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := v.Authenticate(presentedToken(c))
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error_code": "UNAUTHORIZED",
					"message":    "Authentication required",
				})
			}
			return serverError(c, err)
		}
		c.Locals("principal", p)
		c.Locals("user_id", p.ID)
		return c.Next()
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, _ := c.Locals("principal").(*domain.Principal)
		if p == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error_code": "UNAUTHORIZED",
				"message":    "Authentication required",
			})
		}
		return c.JSON(fiber.Map{
			"id":             p.ID,
			"email":          p.Email,
			"display_name":   p.DisplayName,
			"role":           p.Role,
			"email_verified": p.EmailVerified,
		})
	}
}
