package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/service"
)

func LogoutHandler(lc *service.Lifecycle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := presentedToken(c)
		if tok != "" {
			if err := lc.Logout(tok); err != nil {
				return serverError(c, err)
			}
		}
		// idempotent: a missing or already-dead token still logs out
		clearSessionCookie(c)
		return c.JSON(fiber.Map{"message": "Signed out"})
	}
}
