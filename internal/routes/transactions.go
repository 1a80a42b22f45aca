package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rheinbank/rheinbank/internal/bank"
)

// RegisterTransactionRoutes wires the transaction engine endpoints.
func RegisterTransactionRoutes(r fiber.Router, h *bank.Handler) {
	r.Get("/accounts/:accountId/balance", h.Balance)
	r.Get("/accounts/:accountId/transactions", h.History)
	r.Post("/accounts/:accountId/deposits", h.Deposit)
	r.Post("/accounts/:accountId/withdrawals", h.Withdraw)
	r.Post("/transfers", h.Transfer)
}
