package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func zeroBalance(warehouseID, productID string) *entity.StockBalance {
	return &entity.StockBalance{WarehouseID: warehouseID, ProductID: productID, Quantity: decimal.Zero}
}

// Get obtiene el saldo de un producto en una bodega; cero si no hay fila.
func (r *StockRepo) Get(ctx context.Context, warehouseID, productID string) (*entity.StockBalance, error) {
	if !validID(warehouseID) || !validID(productID) {
		return zeroBalance(warehouseID, productID), nil
	}
	query := `
		SELECT warehouse_id, product_id, quantity, version, updated_at
		FROM stock WHERE warehouse_id = $1 AND product_id = $2`
	var s entity.StockBalance
	err := r.q.QueryRow(ctx, query, warehouseID, productID).Scan(
		&s.WarehouseID, &s.ProductID, &s.Quantity, &s.Version, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zeroBalance(warehouseID, productID), nil
		}
		return nil, translateError(err, "get stock")
	}
	return &s, nil
}

// GetForUpdate crea la fila en cero si falta y la bloquea (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *StockRepo) GetForUpdate(ctx context.Context, warehouseID, productID string, now time.Time) (*entity.StockBalance, error) {
	insert := `
		INSERT INTO stock (warehouse_id, product_id, quantity, version, updated_at)
		VALUES ($1, $2, 0, 0, $3)
		ON CONFLICT (warehouse_id, product_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, warehouseID, productID, now); err != nil {
		return nil, translateError(err, "ensure stock row")
	}
	query := `
		SELECT warehouse_id, product_id, quantity, version, updated_at
		FROM stock WHERE warehouse_id = $1 AND product_id = $2
		FOR UPDATE`
	var s entity.StockBalance
	err := r.q.QueryRow(ctx, query, warehouseID, productID).Scan(
		&s.WarehouseID, &s.ProductID, &s.Quantity, &s.Version, &s.UpdatedAt,
	)
	if err != nil {
		return nil, translateError(err, "get stock for update")
	}
	return &s, nil
}

// Save escribe la cantidad con compare-and-swap sobre version.
func (r *StockRepo) Save(ctx context.Context, stock *entity.StockBalance) error {
	query := `
		UPDATE stock SET quantity = $3, version = version + 1, updated_at = $4
		WHERE warehouse_id = $1 AND product_id = $2 AND version = $5`
	cmd, err := r.q.Exec(ctx, query,
		stock.WarehouseID, stock.ProductID, stock.Quantity, stock.UpdatedAt, stock.Version,
	)
	if err != nil {
		return translateError(err, "save stock")
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: versión de stock %d cambió", domain.ErrConcurrencyConflict, stock.Version)
	}
	stock.Version++
	return nil
}

// ListAll devuelve todas las filas de saldo.
func (r *StockRepo) ListAll(ctx context.Context) ([]*entity.StockBalance, error) {
	rows, err := r.q.Query(ctx, `
		SELECT warehouse_id, product_id, quantity, version, updated_at
		FROM stock ORDER BY warehouse_id, product_id`)
	if err != nil {
		return nil, translateError(err, "list stock")
	}
	defer rows.Close()
	var list []*entity.StockBalance
	for rows.Next() {
		var s entity.StockBalance
		if err := rows.Scan(&s.WarehouseID, &s.ProductID, &s.Quantity, &s.Version, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, translateError(rows.Err(), "list stock")
}

// ListDetails lista saldos con nombres de bodega y producto.
func (r *StockRepo) ListDetails(ctx context.Context, warehouseID, productID string) ([]repository.BalanceDetail, error) {
	query := `
		SELECT s.warehouse_id, COALESCE(w.code, ''), w.name, s.product_id, p.sku, p.name, s.quantity, s.updated_at
		FROM stock s
		JOIN warehouses w ON w.id = s.warehouse_id
		JOIN products p ON p.id = s.product_id
		WHERE 1 = 1`
	var args []any
	if warehouseID != "" {
		if !validID(warehouseID) {
			return nil, nil
		}
		args = append(args, warehouseID)
		query += fmt.Sprintf(" AND s.warehouse_id = $%d", len(args))
	}
	if productID != "" {
		if !validID(productID) {
			return nil, nil
		}
		args = append(args, productID)
		query += fmt.Sprintf(" AND s.product_id = $%d", len(args))
	}
	query += " ORDER BY w.name, p.name"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "list stock details")
	}
	defer rows.Close()
	var list []repository.BalanceDetail
	for rows.Next() {
		var d repository.BalanceDetail
		if err := rows.Scan(&d.WarehouseID, &d.WarehouseCode, &d.WarehouseName,
			&d.ProductID, &d.SKU, &d.ProductName, &d.Quantity, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock detail: %w", err)
		}
		list = append(list, d)
	}
	return list, translateError(rows.Err(), "list stock details")
}

const productTotalsSelect = `
	SELECT p.id, p.sku, p.name, p.unit, p.min_stock, p.is_active, COALESCE(SUM(s.quantity), 0) AS total
	FROM products p
	LEFT JOIN stock s ON s.product_id = p.id
	GROUP BY p.id, p.sku, p.name, p.unit, p.min_stock, p.is_active`

// ProductTotals existencia total por producto, incluidos los que no tienen filas de stock.
func (r *StockRepo) ProductTotals(ctx context.Context) ([]repository.ProductTotal, error) {
	return r.queryTotals(ctx, productTotalsSelect+` ORDER BY p.name, p.sku`, "product totals")
}

// BelowMinimum productos con stock mínimo configurado y existencia total por debajo, mayor déficit primero.
func (r *StockRepo) BelowMinimum(ctx context.Context) ([]repository.ProductTotal, error) {
	query := productTotalsSelect + `
	HAVING p.min_stock > 0 AND COALESCE(SUM(s.quantity), 0) < p.min_stock
	ORDER BY p.min_stock - COALESCE(SUM(s.quantity), 0) DESC, p.sku`
	return r.queryTotals(ctx, query, "below minimum")
}

func (r *StockRepo) queryTotals(ctx context.Context, query, op string) ([]repository.ProductTotal, error) {
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, translateError(err, op)
	}
	defer rows.Close()
	var list []repository.ProductTotal
	for rows.Next() {
		var t repository.ProductTotal
		if err := rows.Scan(&t.ProductID, &t.SKU, &t.Name, &t.Unit, &t.MinStock, &t.IsActive, &t.Total); err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		list = append(list, t)
	}
	return list, translateError(rows.Err(), op)
}
