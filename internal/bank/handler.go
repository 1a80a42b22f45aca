package bank

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/rheinbank/rheinbank/internal/ledger"
	"github.com/rheinbank/rheinbank/internal/money"
)

// Handler exposes the transaction engine over HTTP.
type Handler struct {
	service *Service
}

// NewHandler builds a transaction HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type amountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type transferRequest struct {
	SourceAccountID string          `json:"source_account_id"`
	TargetAccountID string          `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
}

type counterResponse struct {
	AccountID     string `json:"account_id"`
	AccountNumber string `json:"account_number"`
	OwnerName     string `json:"owner_name"`
}

type entryResponse struct {
	ID             string           `json:"id"`
	AccountID      string           `json:"account_id"`
	Kind           string           `json:"kind"`
	Amount         string           `json:"amount"`
	Description    string           `json:"description,omitempty"`
	CounterAccount *counterResponse `json:"counter_account,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func toEntryResponse(e ledger.Entry) entryResponse {
	resp := entryResponse{
		ID:          e.ID,
		AccountID:   e.AccountID,
		Kind:        string(e.Kind),
		Amount:      money.String(e.Amount),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if e.Counter != nil {
		resp.CounterAccount = &counterResponse{
			AccountID:     e.Counter.ID,
			AccountNumber: e.Counter.Number,
			OwnerName:     e.Counter.OwnerName,
		}
	}
	return resp
}

// Deposit records a cash deposit on the account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.service.Deposit(c.UserContext(), c.Params("accountId"), req.Amount, req.Description)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(toEntryResponse(entry))
}

// Withdraw records a cash withdrawal on the account.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.service.Withdraw(c.UserContext(), c.Params("accountId"), req.Amount, req.Description)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(toEntryResponse(entry))
}

// Transfer moves money between two accounts.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	debit, credit, err := h.service.Transfer(c.UserContext(), req.SourceAccountID, req.TargetAccountID, req.Amount, req.Description)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"debit":  toEntryResponse(debit),
		"credit": toEntryResponse(credit),
	})
}

// Balance returns the derived balance of the account.
func (h *Handler) Balance(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	balance, err := h.service.Balance(c.UserContext(), accountID)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id": accountID,
		"balance":    money.String(balance),
		"timestamp":  time.Now().UTC(),
	})
}

// History returns the account's entries, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return httpError(err)
	}
	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func httpError(err error) error {
	var insufficient *ledger.InsufficientFundsError
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidArgument):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.As(err, &insufficient):
		return fiber.NewError(http.StatusUnprocessableEntity, insufficient.Error())
	case errors.Is(err, ledger.ErrLockTimeout):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
