package controller

import (
	"doc-review-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	service service.IHealthService
}

func NewHealthController(service service.IHealthService) IHealthController {
	return &healthController{service: service}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

// Health answers 200 even when the vector backend is down; the body says so.
func (c *healthController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.Check(ctx.UserContext()))
}
