// Package sqlitetest base SQLite temporaria y migrada para pruebas.
package sqlitetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/infrastructure/sqlite"
)

// Store base de prueba con sus repositorios.
type Store struct {
	DB         *sqlx.DB
	Products   *sqlite.ProductRepo
	Warehouses *sqlite.WarehouseRepo
	Movements  *sqlite.MovementRepo
	Stock      *sqlite.StockRepo
	Tx         *sqlite.TxRunner
}

// New abre una base nueva en un directorio temporal de t y aplica las migraciones.
func New(t testing.TB) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "inventrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = sqlite.Migrate(ctx, db, zerolog.Nop())
	require.NoError(t, err)

	return &Store{
		DB:         db,
		Products:   sqlite.NewProductRepository(db),
		Warehouses: sqlite.NewWarehouseRepository(db),
		Movements:  sqlite.NewMovementRepository(db),
		Stock:      sqlite.NewStockRepository(db),
		Tx:         sqlite.NewTxRunner(db),
	}
}

// Product crea un producto activo con el SKU dado.
func (s *Store) Product(t testing.TB, sku string, minStock int64) *entity.Product {
	t.Helper()
	now := time.Now().UTC()
	p := &entity.Product{
		ID:        uuid.New().String(),
		SKU:       sku,
		Name:      "Producto " + sku,
		Unit:      entity.DefaultUnit,
		MinStock:  minStock,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Products.Create(context.Background(), p))
	return p
}

// Warehouse crea una bodega activa con el código dado.
func (s *Store) Warehouse(t testing.TB, code string) *entity.Warehouse {
	t.Helper()
	now := time.Now().UTC()
	w := &entity.Warehouse{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      "Bodega " + code,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.Warehouses.Create(context.Background(), w))
	return w
}
