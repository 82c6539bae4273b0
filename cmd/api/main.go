package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	_ "github.com/jhoicas/inventrack/docs"
	appanalytics "github.com/jhoicas/inventrack/internal/application/analytics"
	"github.com/jhoicas/inventrack/internal/application/export"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/application/usecase"
	"github.com/jhoicas/inventrack/internal/infrastructure/cache"
	"github.com/jhoicas/inventrack/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/inventrack/internal/interfaces/http"
	"github.com/jhoicas/inventrack/pkg/config"
	"github.com/jhoicas/inventrack/pkg/logger"
)

// @title        inventrack API
// @version      1.0
// @description  Libro de inventario multi-bodega: movimientos, saldos y reportes.
// @BasePath     /
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.DB, log.Component("migrate"))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir base de datos")
	}
	defer store.Close()

	// Redis es opcional: sin REDIS_ADDR el dashboard se calcula en cada petición.
	var dashboardCache appanalytics.Cache
	if cfg.Cache.Enabled() {
		client, err := cache.NewClient(ctx, cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("Redis no disponible, dashboard sin caché")
		} else {
			rc := cache.New(client, cfg.Cache.TTL())
			defer rc.Close()
			dashboardCache = rc
		}
	}

	dashboardUC := appanalytics.NewDashboardUseCase(store.Stock, store.Movements, store.Warehouses, dashboardCache, log.Zerolog())
	ledger := inventory.NewLedger(
		store.Tx, store.Products, store.Warehouses, store.Movements, store.Stock,
		inventory.WithLogger(log.Zerolog()),
		inventory.WithRetry(cfg.Ledger.MaxRetries, cfg.Ledger.RetryBackoff()),
		inventory.WithNotifier(dashboardUC),
	)

	deps := httpRouter.RouterDeps{
		AppName:     cfg.App.Name,
		Ledger:      ledger,
		ProductUC:   usecase.NewProductUseCase(store.Products),
		WarehouseUC: usecase.NewWarehouseUseCase(store.Warehouses),
		DashboardUC: dashboardUC,
		Exporter:    export.New(cfg.App.Location()),
		Location:    cfg.App.Location(),
		Log:         log.Component("http"),
	}
	app := httpRouter.NewApp(deps)

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "inventrack API",
	}))

	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
