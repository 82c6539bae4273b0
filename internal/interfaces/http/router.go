package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	appanalytics "github.com/jhoicas/inventrack/internal/application/analytics"
	"github.com/jhoicas/inventrack/internal/application/dto"
	"github.com/jhoicas/inventrack/internal/application/export"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName     string
	Ledger      *inventory.Ledger
	ProductUC   *usecase.ProductUseCase
	WarehouseUC *usecase.WarehouseUseCase
	DashboardUC *appanalytics.DashboardUseCase
	Exporter    *export.Exporter
	Location    *time.Location
	Log         zerolog.Logger
}

// NewApp crea la aplicación Fiber con log de peticiones, recover y usuario del gateway.
func NewApp(deps RouterDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      deps.AppName,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: errorHandler,
	})
	app.Use(RequestLogger(deps.Log))
	app.Use(recover.New())
	app.Use(ActorMiddleware())
	return app
}

// errorHandler respuestas JSON para errores que no pasan por writeError (404 de ruta, panics).
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "error interno"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	return c.Status(code).JSON(dto.ErrorResponse{Code: errorCode(code), Message: msg})
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	}
	return "INTERNAL"
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	api := app.Group("/api")

	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	api.Get("/dashboard", dashboardHandler.GetSummary)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Ledger, deps.Exporter)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/export", productHandler.Export)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)
	products.Get("/:id/history", productHandler.History)

	// Warehouses
	warehouses := api.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC)
	warehouses.Post("/", warehouseHandler.Create)
	warehouses.Get("/", warehouseHandler.List)
	warehouses.Get("/:id", warehouseHandler.GetByID)
	warehouses.Put("/:id", warehouseHandler.Update)
	warehouses.Delete("/:id", warehouseHandler.Delete)

	// Inventory
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Exporter, deps.Location)
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/movements/export", inventoryHandler.ExportMovements)
	invGroup.Delete("/movements/:id", inventoryHandler.DeleteMovement)
	invGroup.Get("/balance", inventoryHandler.GetBalance)
	invGroup.Get("/balances", inventoryHandler.ListBalances)
	invGroup.Get("/low-stock", inventoryHandler.LowStock)
}
