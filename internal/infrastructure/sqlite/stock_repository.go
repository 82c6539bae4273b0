package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre SQLite.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador. Pasar db o tx.
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

type stockRow struct {
	WarehouseID string `db:"warehouse_id"`
	ProductID   string `db:"product_id"`
	Quantity    int64  `db:"quantity"`
	Version     int64  `db:"version"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r stockRow) entity() *entity.StockBalance {
	return &entity.StockBalance{
		WarehouseID: r.WarehouseID,
		ProductID:   r.ProductID,
		Quantity:    fromCents(r.Quantity),
		Version:     r.Version,
		UpdatedAt:   fromNanos(r.UpdatedAt),
	}
}

const stockSelect = `SELECT warehouse_id, product_id, quantity, version, updated_at FROM stock`

// Get obtiene el saldo de un producto en una bodega; cero si no hay fila.
func (r *StockRepo) Get(ctx context.Context, warehouseID, productID string) (*entity.StockBalance, error) {
	var row stockRow
	err := sqlx.GetContext(ctx, r.q, &row, stockSelect+` WHERE warehouse_id = ? AND product_id = ?`, warehouseID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &entity.StockBalance{WarehouseID: warehouseID, ProductID: productID, Quantity: decimal.Zero}, nil
		}
		return nil, translateError(ctx, err, "get stock")
	}
	return row.entity(), nil
}

// GetForUpdate crea la fila en cero si falta y la lee. Dentro de una transacción inmediata
// la base completa ya está reservada para este escritor.
func (r *StockRepo) GetForUpdate(ctx context.Context, warehouseID, productID string, now time.Time) (*entity.StockBalance, error) {
	_, err := r.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO stock (warehouse_id, product_id, quantity, version, updated_at)
		VALUES (?, ?, 0, 0, ?)`, warehouseID, productID, toNanos(now))
	if err != nil {
		return nil, translateError(ctx, err, "ensure stock row")
	}
	var row stockRow
	err = sqlx.GetContext(ctx, r.q, &row, stockSelect+` WHERE warehouse_id = ? AND product_id = ?`, warehouseID, productID)
	if err != nil {
		return nil, translateError(ctx, err, "get stock for update")
	}
	return row.entity(), nil
}

// Save escribe la cantidad con compare-and-swap sobre version.
func (r *StockRepo) Save(ctx context.Context, stock *entity.StockBalance) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE stock SET quantity = ?, version = version + 1, updated_at = ?
		WHERE warehouse_id = ? AND product_id = ? AND version = ?`,
		toCents(stock.Quantity), toNanos(stock.UpdatedAt), stock.WarehouseID, stock.ProductID, stock.Version,
	)
	if err != nil {
		return translateError(ctx, err, "save stock")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translateError(ctx, err, "save stock")
	}
	if n == 0 {
		return fmt.Errorf("%w: versión de stock %d cambió", domain.ErrConcurrencyConflict, stock.Version)
	}
	stock.Version++
	return nil
}

// ListAll devuelve todas las filas de saldo.
func (r *StockRepo) ListAll(ctx context.Context) ([]*entity.StockBalance, error) {
	var rows []stockRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, stockSelect+` ORDER BY warehouse_id, product_id`); err != nil {
		return nil, translateError(ctx, err, "list stock")
	}
	list := make([]*entity.StockBalance, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.entity())
	}
	return list, nil
}

type balanceDetailRow struct {
	WarehouseID   string `db:"warehouse_id"`
	WarehouseCode string `db:"warehouse_code"`
	WarehouseName string `db:"warehouse_name"`
	ProductID     string `db:"product_id"`
	SKU           string `db:"sku"`
	ProductName   string `db:"product_name"`
	Quantity      int64  `db:"quantity"`
	UpdatedAt     int64  `db:"updated_at"`
}

// ListDetails lista saldos con nombres de bodega y producto.
func (r *StockRepo) ListDetails(ctx context.Context, warehouseID, productID string) ([]repository.BalanceDetail, error) {
	query := `
		SELECT s.warehouse_id, COALESCE(w.code, '') AS warehouse_code, w.name AS warehouse_name,
		       s.product_id, p.sku, p.name AS product_name, s.quantity, s.updated_at
		FROM stock s
		JOIN warehouses w ON w.id = s.warehouse_id
		JOIN products p ON p.id = s.product_id
		WHERE 1 = 1`
	var args []any
	if warehouseID != "" {
		query += ` AND s.warehouse_id = ?`
		args = append(args, warehouseID)
	}
	if productID != "" {
		query += ` AND s.product_id = ?`
		args = append(args, productID)
	}
	query += ` ORDER BY w.name, p.name`

	var rows []balanceDetailRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, translateError(ctx, err, "list stock details")
	}
	list := make([]repository.BalanceDetail, 0, len(rows))
	for _, row := range rows {
		list = append(list, repository.BalanceDetail{
			WarehouseID:   row.WarehouseID,
			WarehouseCode: row.WarehouseCode,
			WarehouseName: row.WarehouseName,
			ProductID:     row.ProductID,
			SKU:           row.SKU,
			ProductName:   row.ProductName,
			Quantity:      fromCents(row.Quantity),
			UpdatedAt:     fromNanos(row.UpdatedAt),
		})
	}
	return list, nil
}

type productTotalRow struct {
	ProductID string `db:"id"`
	SKU       string `db:"sku"`
	Name      string `db:"name"`
	Unit      string `db:"unit"`
	MinStock  int64  `db:"min_stock"`
	IsActive  bool   `db:"is_active"`
	Total     int64  `db:"total"`
}

const productTotalsSelect = `
	SELECT p.id, p.sku, p.name, p.unit, p.min_stock, p.is_active, COALESCE(SUM(s.quantity), 0) AS total
	FROM products p
	LEFT JOIN stock s ON s.product_id = p.id
	GROUP BY p.id`

// ProductTotals existencia total por producto, incluidos los que no tienen filas de stock.
func (r *StockRepo) ProductTotals(ctx context.Context) ([]repository.ProductTotal, error) {
	return r.queryTotals(ctx, productTotalsSelect+` ORDER BY p.name, p.sku`, "product totals")
}

// BelowMinimum productos con stock mínimo configurado y existencia total por debajo, mayor déficit primero.
// min_stock está en unidades y quantity en centésimas.
func (r *StockRepo) BelowMinimum(ctx context.Context) ([]repository.ProductTotal, error) {
	query := productTotalsSelect + `
	HAVING p.min_stock > 0 AND COALESCE(SUM(s.quantity), 0) < p.min_stock * 100
	ORDER BY p.min_stock * 100 - COALESCE(SUM(s.quantity), 0) DESC, p.sku`
	return r.queryTotals(ctx, query, "below minimum")
}

func (r *StockRepo) queryTotals(ctx context.Context, query, op string) ([]repository.ProductTotal, error) {
	var rows []productTotalRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query); err != nil {
		return nil, translateError(ctx, err, op)
	}
	list := make([]repository.ProductTotal, 0, len(rows))
	for _, row := range rows {
		list = append(list, repository.ProductTotal{
			ProductID: row.ProductID,
			SKU:       row.SKU,
			Name:      row.Name,
			Unit:      row.Unit,
			MinStock:  row.MinStock,
			IsActive:  row.IsActive,
			Total:     fromCents(row.Total),
		})
	}
	return list, nil
}
