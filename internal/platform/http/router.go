package http

import "github.com/gofiber/fiber/v2"

type Module interface {
	Register(r fiber.Router) // each module mounts its own routes on the prefix
}
