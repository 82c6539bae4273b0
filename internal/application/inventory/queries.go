package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

const (
	// DefaultHistoryLimit tamaño de página por defecto del historial (los últimos 100, como el listado web).
	DefaultHistoryLimit = 100
	// MaxHistoryLimit tope de filas por consulta de historial.
	MaxHistoryLimit = 1000
)

// StockSummary totales por producto y detalle por bodega.
type StockSummary struct {
	Totals  []repository.ProductTotal
	Details []repository.BalanceDetail
}

// CurrentBalance devuelve la existencia de un producto en una bodega (0 si no hay fila).
// Lectura sin bloqueo: puede cambiar inmediatamente por escritores concurrentes.
func (l *Ledger) CurrentBalance(ctx context.Context, warehouseID, productID string) (decimal.Decimal, error) {
	if warehouseID == "" {
		return decimal.Zero, domain.NewFieldError(domain.ErrInvalidInput, "warehouse_id", "es requerido")
	}
	if productID == "" {
		return decimal.Zero, domain.NewFieldError(domain.ErrInvalidInput, "product_id", "es requerido")
	}
	bal, err := l.stockRepo.Get(ctx, warehouseID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return bal.Quantity, nil
}

// MovementHistory devuelve movimientos filtrados, del más reciente al más antiguo.
func (l *Ledger) MovementHistory(ctx context.Context, filter repository.MovementFilter) ([]repository.MovementDetail, error) {
	if err := checkRange(filter); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultHistoryLimit
	}
	if filter.Limit > MaxHistoryLimit {
		filter.Limit = MaxHistoryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return l.movementRepo.List(ctx, filter)
}

// FullHistory devuelve todos los movimientos que cumplen el filtro, del más reciente al más
// antiguo, leyendo páginas de MaxHistoryLimit hasta agotar el registro. Limit y Offset se ignoran.
func (l *Ledger) FullHistory(ctx context.Context, filter repository.MovementFilter) ([]repository.MovementDetail, error) {
	if err := checkRange(filter); err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = MaxHistoryLimit, 0
	var all []repository.MovementDetail
	for {
		page, err := l.movementRepo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < filter.Limit {
			return all, nil
		}
		filter.Offset += len(page)
	}
}

func checkRange(filter repository.MovementFilter) error {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return domain.NewFieldError(domain.ErrInvalidInput, "from", "debe ser anterior a to")
	}
	return nil
}

// LowStockReport devuelve los productos con stock mínimo configurado (> 0) cuya existencia total
// en todas las bodegas está por debajo de ese mínimo; mayor déficit primero.
func (l *Ledger) LowStockReport(ctx context.Context) ([]repository.ProductTotal, error) {
	return l.stockRepo.BelowMinimum(ctx)
}

// ProductTotals devuelve todos los productos con su existencia total.
func (l *Ledger) ProductTotals(ctx context.Context) ([]repository.ProductTotal, error) {
	return l.stockRepo.ProductTotals(ctx)
}

// BalanceDetails lista saldos por bodega y producto. Filtros vacíos = todos.
func (l *Ledger) BalanceDetails(ctx context.Context, warehouseID, productID string) ([]repository.BalanceDetail, error) {
	return l.stockRepo.ListDetails(ctx, warehouseID, productID)
}

// StockSummary totales por producto más detalle por bodega (tablero y comando summary).
func (l *Ledger) StockSummary(ctx context.Context) (*StockSummary, error) {
	totals, err := l.stockRepo.ProductTotals(ctx)
	if err != nil {
		return nil, err
	}
	details, err := l.stockRepo.ListDetails(ctx, "", "")
	if err != nil {
		return nil, err
	}
	return &StockSummary{Totals: totals, Details: details}, nil
}
