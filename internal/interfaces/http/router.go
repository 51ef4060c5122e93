package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/vaxtrack/internal/application/ledger"
	"github.com/tu-usuario/vaxtrack/internal/application/notify"
	"github.com/tu-usuario/vaxtrack/internal/application/transfer"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC   *ledger.UseCase
	TransferUC *transfer.UseCase
	Engines    []*notify.Engine
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Health (público)
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Stock (protegido)
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.LedgerUC)
	stock.Get("/", stockHandler.ListStock)
	stock.Post("/lots", stockHandler.CreateLot)
	stock.Delete("/lots/:id", stockHandler.DeleteLot)
	stock.Post("/consume", stockHandler.Consume)

	// Transfers (protegido)
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC)
	transfers.Post("/", transferHandler.Initiate)
	transfers.Get("/inbox", transferHandler.ListInbox)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Post("/:id/confirm", transferHandler.Confirm)
	transfers.Post("/:id/reject", transferHandler.Reject)
	transfers.Post("/:id/cancel", transferHandler.Cancel)

	// Notifications (protegido, corridas manuales)
	notifications := protected.Group("/notifications")
	notifyHandler := NewNotifyHandler(deps.Engines...)
	notifications.Post("/:engine/run", notifyHandler.RunCheck)
}
