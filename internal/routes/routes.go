package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rheinbank/rheinbank/internal/account"
	"github.com/rheinbank/rheinbank/internal/bank"
	"github.com/rheinbank/rheinbank/internal/config"
	"github.com/rheinbank/rheinbank/internal/events"
	"github.com/rheinbank/rheinbank/internal/ledger"
	"github.com/rheinbank/rheinbank/internal/middleware"
	"github.com/rheinbank/rheinbank/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Events events.Publisher
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB, d.Cfg.LockTimeout)
	} else {
		store = ledger.NewMemoryStore(d.Cfg.LockTimeout)
	}

	publisher := d.Events
	if publisher == nil {
		publisher = events.NewLogPublisher(d.Logger)
	}
	notifier := notification.NewLoggerNotifier(d.Logger)

	numbers := account.NewNumberGenerator(store, d.Cfg.NumberMaxAttempts)
	accountSvc := account.NewService(store, numbers)
	bankSvc := bank.NewService(store, publisher, notifier)

	accountHandler := account.NewHandler(accountSvc)
	bankHandler := bank.NewHandler(bankSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, accountHandler)
	RegisterTransactionRoutes(api, bankHandler)

	return nil
}
