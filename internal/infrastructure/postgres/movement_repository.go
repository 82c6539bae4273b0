package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Nombres de las FK de movements (ver migrations/0001_init.sql) y el campo de entrada que las origina.
var movementFKFields = map[string]string{
	"fk_movements_product":     "product_id",
	"fk_movements_warehouse":   "warehouse_id",
	"fk_movements_destination": "destination_warehouse_id",
}

const movementColumns = `id, product_id, warehouse_id, destination_warehouse_id, kind, quantity, reference, notes, created_by, created_at`

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.WarehouseID, nullableString(m.DestinationWarehouseID),
		m.Kind.String(), m.Quantity, m.Reference, m.Notes, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			field := movementFKFields[pgError(err).ConstraintName]
			if field == "" {
				field = "product_id"
			}
			return domain.NewFieldError(domain.ErrInvalidMovement, field, "no existe")
		}
		return translateError(err, "insert movement")
	}
	return nil
}

func scanMovement(row pgx.Row, extra ...any) (*entity.Movement, error) {
	var m entity.Movement
	var dest *string
	var kind string
	dst := append([]any{&m.ID, &m.ProductID, &m.WarehouseID, &dest, &kind,
		&m.Quantity, &m.Reference, &m.Notes, &m.CreatedBy, &m.CreatedAt}, extra...)
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	k, err := entity.ParseMovementKind(kind)
	if err != nil {
		return nil, err
	}
	m.Kind = k
	m.DestinationWarehouseID = derefString(dest)
	return &m, nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	if !validID(id) {
		return nil, nil
	}
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(err, "get movement")
	}
	return m, nil
}

// Delete elimina un movimiento.
func (r *MovementRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM movements WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "delete movement")
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve movimientos filtrados, del más reciente al más antiguo.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]repository.MovementDetail, error) {
	query := `
		SELECT m.id, m.product_id, m.warehouse_id, m.destination_warehouse_id, m.kind, m.quantity,
		       m.reference, m.notes, m.created_by, m.created_at,
		       p.sku, p.name, COALESCE(w.code, ''), w.name, COALESCE(d.code, ''), COALESCE(d.name, '')
		FROM movements m
		JOIN products p ON p.id = m.product_id
		JOIN warehouses w ON w.id = m.warehouse_id
		LEFT JOIN warehouses d ON d.id = m.destination_warehouse_id
		WHERE 1 = 1`
	var args []any
	pos := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.ProductID != "" {
		if !validID(f.ProductID) {
			return nil, nil
		}
		query += " AND m.product_id = " + pos(f.ProductID)
	}
	if f.WarehouseID != "" {
		if !validID(f.WarehouseID) {
			return nil, nil
		}
		p := pos(f.WarehouseID)
		query += fmt.Sprintf(" AND (m.warehouse_id = %s OR m.destination_warehouse_id = %s)", p, p)
	}
	if !f.Kind.IsZero() {
		query += " AND m.kind = " + pos(f.Kind.String())
	}
	if f.From != nil {
		query += " AND m.created_at >= " + pos(*f.From)
	}
	if f.To != nil {
		query += " AND m.created_at <= " + pos(*f.To)
	}
	query += " ORDER BY m.created_at DESC, m.id DESC"
	if f.Limit > 0 {
		query += " LIMIT " + pos(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + pos(f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "list movements")
	}
	defer rows.Close()
	var list []repository.MovementDetail
	for rows.Next() {
		var d repository.MovementDetail
		m, err := scanMovement(rows, &d.SKU, &d.ProductName, &d.WarehouseCode, &d.WarehouseName,
			&d.DestinationCode, &d.DestinationName)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		d.Movement = *m
		list = append(list, d)
	}
	return list, translateError(rows.Err(), "list movements")
}

// movementDeltas una fila por efecto de cada movimiento sobre un par (bodega, producto).
const movementDeltas = `
	SELECT warehouse_id, product_id,
	       CASE kind WHEN 'IN' THEN quantity ELSE -quantity END AS delta
	FROM movements
	UNION ALL
	SELECT destination_warehouse_id, product_id, quantity
	FROM movements WHERE kind = 'TR'`

// NetByPair reproduce el registro completo agrupado por par.
func (r *MovementRepo) NetByPair(ctx context.Context) ([]repository.PairQuantity, error) {
	query := `SELECT warehouse_id, product_id, SUM(delta) FROM (` + movementDeltas + `) t
		GROUP BY warehouse_id, product_id ORDER BY warehouse_id, product_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, translateError(err, "net by pair")
	}
	defer rows.Close()
	var list []repository.PairQuantity
	for rows.Next() {
		var pq repository.PairQuantity
		if err := rows.Scan(&pq.Key.WarehouseID, &pq.Key.ProductID, &pq.Quantity); err != nil {
			return nil, fmt.Errorf("scan net by pair: %w", err)
		}
		list = append(list, pq)
	}
	return list, translateError(rows.Err(), "net by pair")
}

// NetForPair reproduce el registro de un solo par.
func (r *MovementRepo) NetForPair(ctx context.Context, warehouseID, productID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(delta), 0) FROM (` + movementDeltas + `) t
		WHERE warehouse_id = $1 AND product_id = $2`
	var net decimal.Decimal
	if err := r.q.QueryRow(ctx, query, warehouseID, productID).Scan(&net); err != nil {
		return decimal.Zero, translateError(err, "net for pair")
	}
	return net, nil
}
