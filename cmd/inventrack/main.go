package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/infrastructure/storage"
	"github.com/jhoicas/inventrack/internal/interfaces/cli"
	"github.com/jhoicas/inventrack/pkg/config"
	"github.com/jhoicas/inventrack/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(open)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// open carga la configuración y conecta a la base configurada.
func open(ctx context.Context) (*cli.Deps, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cargar configuración: %w", err)
	}
	// Los logs van a stderr para no mezclarse con los reportes.
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: os.Stderr})

	store, err := storage.Open(ctx, cfg.DB, log.Component("migrate"))
	if err != nil {
		return nil, nil, err
	}
	ledger := inventory.NewLedger(
		store.Tx, store.Products, store.Warehouses, store.Movements, store.Stock,
		inventory.WithLogger(log.Zerolog()),
		inventory.WithRetry(cfg.Ledger.MaxRetries, cfg.Ledger.RetryBackoff()),
	)
	return &cli.Deps{
		Ledger:   ledger,
		Migrate:  store.Migrate,
		Location: cfg.App.Location(),
	}, store.Close, nil
}
