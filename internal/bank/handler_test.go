package bank

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/rheinbank/rheinbank/internal/ledger"
)

func setupTestApp(t *testing.T) (*fiber.App, *ledger.MemoryStore) {
	t.Helper()
	store := ledger.NewMemoryStore(time.Second)
	handler := NewHandler(NewService(store, nil, nil))

	app := fiber.New()
	app.Post("/accounts/:accountId/deposits", handler.Deposit)
	app.Post("/accounts/:accountId/withdrawals", handler.Withdraw)
	app.Post("/transfers", handler.Transfer)
	app.Get("/accounts/:accountId/balance", handler.Balance)
	app.Get("/accounts/:accountId/transactions", handler.History)
	return app, store
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	decoded := map[string]any{}
	_ = json.Unmarshal(payload, &decoded)
	return resp.StatusCode, decoded
}

func TestDepositEndpoint(t *testing.T) {
	app, store := setupTestApp(t)
	acc := createAccount(t, store, "Ada", "DE2501018001")

	status, body := postJSON(t, app, "/accounts/"+acc.ID+"/deposits", `{"amount": "10.00", "description": "opening"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if body["amount"] != "10.0000" || body["kind"] != "DEPOSIT" {
		t.Fatalf("unexpected response: %v", body)
	}
}

func TestWithdrawEndpointInsufficientFunds(t *testing.T) {
	app, store := setupTestApp(t)
	acc := createAccount(t, store, "Ada", "DE2501018002")

	status, _ := postJSON(t, app, "/accounts/"+acc.ID+"/withdrawals", `{"amount": "5.00"}`)
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
}

func TestTransferEndpointSelfRejected(t *testing.T) {
	app, store := setupTestApp(t)
	acc := createAccount(t, store, "Ada", "DE2501018003")

	body := `{"source_account_id": "` + acc.ID + `", "target_account_id": "` + acc.ID + `", "amount": "1.00"}`
	status, _ := postJSON(t, app, "/transfers", body)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestBalanceEndpointUnknownAccount(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/accounts/"+uuid.NewString()+"/balance", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
