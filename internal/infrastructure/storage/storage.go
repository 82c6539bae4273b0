// Package storage elige el adaptador de persistencia (PostgreSQL o SQLite) según la configuración.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/domain/repository"
	"github.com/jhoicas/inventrack/internal/infrastructure/postgres"
	"github.com/jhoicas/inventrack/internal/infrastructure/sqlite"
	"github.com/jhoicas/inventrack/pkg/config"
)

// Store repositorios y transacciones de un adaptador abierto.
type Store struct {
	Driver     string
	Products   repository.ProductRepository
	Warehouses repository.WarehouseRepository
	Movements  repository.MovementRepository
	Stock      repository.StockRepository
	Tx         inventory.TxRunner

	migrate func(ctx context.Context) ([]string, error)
	close   func()
}

// Open conecta al motor configurado. Con SQLite las migraciones se aplican siempre;
// con PostgreSQL solo si cfg.AutoMigrate.
func Open(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (*Store, error) {
	var (
		s   *Store
		err error
	)
	switch cfg.Driver {
	case config.DriverPostgres, "":
		s, err = openPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		s, err = openSQLite(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("driver de base de datos no soportado: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate || s.Driver == config.DriverSQLite {
		if _, err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func openPostgres(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (*Store, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	return &Store{
		Driver:     config.DriverPostgres,
		Products:   postgres.NewProductRepository(pool),
		Warehouses: postgres.NewWarehouseRepository(pool),
		Movements:  postgres.NewMovementRepository(pool),
		Stock:      postgres.NewStockRepository(pool),
		Tx:         postgres.NewTxRunner(pool, cfg.LockTimeout()),
		migrate: func(ctx context.Context) ([]string, error) {
			return postgres.Migrate(ctx, pool, log)
		},
		close: pool.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (*Store, error) {
	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("abrir SQLite %s: %w", cfg.SQLitePath, err)
	}
	return &Store{
		Driver:     config.DriverSQLite,
		Products:   sqlite.NewProductRepository(db),
		Warehouses: sqlite.NewWarehouseRepository(db),
		Movements:  sqlite.NewMovementRepository(db),
		Stock:      sqlite.NewStockRepository(db),
		Tx:         sqlite.NewTxRunner(db),
		migrate: func(ctx context.Context) ([]string, error) {
			return sqlite.Migrate(ctx, db, log)
		},
		close: func() { _ = db.Close() },
	}, nil
}

// Migrate aplica las migraciones pendientes y devuelve las versiones aplicadas.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	return s.migrate(ctx)
}

// Close libera las conexiones.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}
