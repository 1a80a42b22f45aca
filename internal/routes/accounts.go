package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rheinbank/rheinbank/internal/account"
)

// RegisterAccountRoutes wires account provisioning and lookup endpoints.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler) {
	r.Post("/accounts", h.Create)
	r.Get("/accounts", h.List)
	r.Get("/accounts/:accountId", h.Get)
}
