package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain/entity"
)

// ProductTotal existencia total de un producto sumando todas las bodegas.
type ProductTotal struct {
	ProductID string
	SKU       string
	Name      string
	Unit      string
	MinStock  int64
	IsActive  bool
	Total     decimal.Decimal
}

// Deficit unidades que faltan para llegar al mínimo (0 si no falta nada).
func (t ProductTotal) Deficit() decimal.Decimal {
	d := decimal.NewFromInt(t.MinStock).Sub(t.Total)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// BalanceDetail saldo de un par (bodega, producto) con nombres para presentación.
type BalanceDetail struct {
	WarehouseID   string
	WarehouseCode string
	WarehouseName string
	ProductID     string
	SKU           string
	ProductName   string
	Quantity      decimal.Decimal
	UpdatedAt     time.Time
}

// StockRepository define el puerto para consultar/actualizar saldos por bodega+producto.
// Las escrituras solo se hacen dentro de transacciones del libro de inventario.
type StockRepository interface {
	// Get devuelve el saldo actual; si no hay fila devuelve un saldo en cero (sin crearlo).
	Get(ctx context.Context, warehouseID, productID string) (*entity.StockBalance, error)
	// GetForUpdate crea la fila en cero (con updated_at = now) si no existe y la bloquea hasta el fin
	// de la transacción.
	GetForUpdate(ctx context.Context, warehouseID, productID string, now time.Time) (*entity.StockBalance, error)
	// Save escribe la cantidad si la versión no cambió desde la lectura (compare-and-swap)
	// e incrementa stock.Version. Devuelve domain.ErrConcurrencyConflict si la versión no coincide.
	Save(ctx context.Context, stock *entity.StockBalance) error
	// ListAll devuelve todas las filas de saldo.
	ListAll(ctx context.Context) ([]*entity.StockBalance, error)
	// ListDetails lista saldos con nombres, ordenados por bodega y producto. Filtros vacíos = todos.
	ListDetails(ctx context.Context, warehouseID, productID string) ([]BalanceDetail, error)
	// ProductTotals devuelve todos los productos con su existencia total (0 si no hay filas), por nombre.
	ProductTotals(ctx context.Context) ([]ProductTotal, error)
	// BelowMinimum devuelve los productos con MinStock > 0 y total < MinStock,
	// ordenados por mayor déficit primero.
	BelowMinimum(ctx context.Context) ([]ProductTotal, error)
}
