package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación sobre SQLite.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar db o tx.
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

type movementRow struct {
	ID                     string         `db:"id"`
	ProductID              string         `db:"product_id"`
	WarehouseID            string         `db:"warehouse_id"`
	DestinationWarehouseID sql.NullString `db:"destination_warehouse_id"`
	Kind                   string         `db:"kind"`
	Quantity               int64          `db:"quantity"`
	Reference              string         `db:"reference"`
	Notes                  string         `db:"notes"`
	CreatedBy              string         `db:"created_by"`
	CreatedAt              int64          `db:"created_at"`
}

func (r movementRow) entity() (*entity.Movement, error) {
	kind, err := entity.ParseMovementKind(r.Kind)
	if err != nil {
		return nil, err
	}
	return &entity.Movement{
		ID:                     r.ID,
		ProductID:              r.ProductID,
		WarehouseID:            r.WarehouseID,
		DestinationWarehouseID: r.DestinationWarehouseID.String,
		Kind:                   kind,
		Quantity:               fromCents(r.Quantity),
		Reference:              r.Reference,
		Notes:                  r.Notes,
		CreatedBy:              r.CreatedBy,
		CreatedAt:              fromNanos(r.CreatedAt),
	}, nil
}

const movementColumns = `id, product_id, warehouse_id, destination_warehouse_id, kind, quantity, reference, notes, created_by, created_at`

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO movements (`+movementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProductID, m.WarehouseID, nullable(m.DestinationWarehouseID), m.Kind.String(),
		toCents(m.Quantity), m.Reference, m.Notes, m.CreatedBy, toNanos(m.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewFieldError(domain.ErrInvalidMovement, r.missingReference(ctx, m), "no existe")
		}
		return translateError(ctx, err, "insert movement")
	}
	return nil
}

// missingReference SQLite no informa qué llave foránea falló; se busca la referencia ausente.
func (r *MovementRepo) missingReference(ctx context.Context, m *entity.Movement) string {
	checks := []struct {
		field, table, id string
	}{
		{"product_id", "products", m.ProductID},
		{"warehouse_id", "warehouses", m.WarehouseID},
		{"destination_warehouse_id", "warehouses", m.DestinationWarehouseID},
	}
	for _, c := range checks {
		if c.id == "" {
			continue
		}
		var n int
		if err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM `+c.table+` WHERE id = ?`, c.id); err == nil && n == 0 {
			return c.field
		}
	}
	return "product_id"
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	var row movementRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+movementColumns+` FROM movements WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(ctx, err, "get movement")
	}
	return row.entity()
}

// Delete elimina un movimiento.
func (r *MovementRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM movements WHERE id = ?`, id)
	if err != nil {
		return translateError(ctx, err, "delete movement")
	}
	return requireAffected(res)
}

type movementDetailRow struct {
	movementRow
	SKU             string `db:"sku"`
	ProductName     string `db:"product_name"`
	WarehouseCode   string `db:"warehouse_code"`
	WarehouseName   string `db:"warehouse_name"`
	DestinationCode string `db:"destination_code"`
	DestinationName string `db:"destination_name"`
}

// List devuelve movimientos filtrados, del más reciente al más antiguo.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]repository.MovementDetail, error) {
	query := `
		SELECT m.id, m.product_id, m.warehouse_id, m.destination_warehouse_id, m.kind, m.quantity,
		       m.reference, m.notes, m.created_by, m.created_at,
		       p.sku, p.name AS product_name,
		       COALESCE(w.code, '') AS warehouse_code, w.name AS warehouse_name,
		       COALESCE(d.code, '') AS destination_code, COALESCE(d.name, '') AS destination_name
		FROM movements m
		JOIN products p ON p.id = m.product_id
		JOIN warehouses w ON w.id = m.warehouse_id
		LEFT JOIN warehouses d ON d.id = m.destination_warehouse_id
		WHERE 1 = 1`
	var args []any
	if f.ProductID != "" {
		query += ` AND m.product_id = ?`
		args = append(args, f.ProductID)
	}
	if f.WarehouseID != "" {
		query += ` AND (m.warehouse_id = ? OR m.destination_warehouse_id = ?)`
		args = append(args, f.WarehouseID, f.WarehouseID)
	}
	if !f.Kind.IsZero() {
		query += ` AND m.kind = ?`
		args = append(args, f.Kind.String())
	}
	if f.From != nil {
		query += ` AND m.created_at >= ?`
		args = append(args, toNanos(*f.From))
	}
	if f.To != nil {
		query += ` AND m.created_at <= ?`
		args = append(args, toNanos(*f.To))
	}
	query += ` ORDER BY m.created_at DESC, m.id DESC`
	if f.Limit > 0 || f.Offset > 0 {
		limit := f.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, f.Offset)
	}

	var rows []movementDetailRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, args...); err != nil {
		return nil, translateError(ctx, err, "list movements")
	}
	list := make([]repository.MovementDetail, 0, len(rows))
	for _, row := range rows {
		m, err := row.entity()
		if err != nil {
			return nil, fmt.Errorf("movimiento %s: %w", row.ID, err)
		}
		list = append(list, repository.MovementDetail{
			Movement:        *m,
			SKU:             row.SKU,
			ProductName:     row.ProductName,
			WarehouseCode:   row.WarehouseCode,
			WarehouseName:   row.WarehouseName,
			DestinationCode: row.DestinationCode,
			DestinationName: row.DestinationName,
		})
	}
	return list, nil
}

// movementDeltas una fila por efecto de cada movimiento sobre un par (bodega, producto).
const movementDeltas = `
	SELECT warehouse_id, product_id,
	       CASE kind WHEN 'IN' THEN quantity ELSE -quantity END AS delta
	FROM movements
	UNION ALL
	SELECT destination_warehouse_id, product_id, quantity
	FROM movements WHERE kind = 'TR'`

type pairRow struct {
	WarehouseID string `db:"warehouse_id"`
	ProductID   string `db:"product_id"`
	Net         int64  `db:"net"`
}

// NetByPair reproduce el registro completo agrupado por par.
func (r *MovementRepo) NetByPair(ctx context.Context) ([]repository.PairQuantity, error) {
	var rows []pairRow
	query := `SELECT warehouse_id, product_id, SUM(delta) AS net FROM (` + movementDeltas + `)
		GROUP BY warehouse_id, product_id ORDER BY warehouse_id, product_id`
	if err := sqlx.SelectContext(ctx, r.q, &rows, query); err != nil {
		return nil, translateError(ctx, err, "net by pair")
	}
	list := make([]repository.PairQuantity, 0, len(rows))
	for _, row := range rows {
		list = append(list, repository.PairQuantity{
			Key:      entity.StockKey{WarehouseID: row.WarehouseID, ProductID: row.ProductID},
			Quantity: fromCents(row.Net),
		})
	}
	return list, nil
}

// NetForPair reproduce el registro de un solo par.
func (r *MovementRepo) NetForPair(ctx context.Context, warehouseID, productID string) (decimal.Decimal, error) {
	var net int64
	query := `SELECT COALESCE(SUM(delta), 0) FROM (` + movementDeltas + `)
		WHERE warehouse_id = ? AND product_id = ?`
	if err := sqlx.GetContext(ctx, r.q, &net, query, warehouseID, productID); err != nil {
		return decimal.Zero, translateError(ctx, err, "net for pair")
	}
	return fromCents(net), nil
}
