package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

// WarehouseRepo implementación del puerto WarehouseRepository sobre SQLite.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador. Pasar db o tx.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

type warehouseRow struct {
	ID        string         `db:"id"`
	Code      sql.NullString `db:"code"`
	Name      string         `db:"name"`
	Location  string         `db:"location"`
	IsActive  bool           `db:"is_active"`
	CreatedAt int64          `db:"created_at"`
	UpdatedAt int64          `db:"updated_at"`
}

func (r warehouseRow) entity() *entity.Warehouse {
	return &entity.Warehouse{
		ID:        r.ID,
		Code:      r.Code.String,
		Name:      r.Name,
		Location:  r.Location,
		IsActive:  r.IsActive,
		CreatedAt: fromNanos(r.CreatedAt),
		UpdatedAt: fromNanos(r.UpdatedAt),
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const warehouseColumns = `id, code, name, location, is_active, created_at, updated_at`

// Create persiste una nueva bodega. El código vacío se guarda como NULL.
func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO warehouses (`+warehouseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, nullable(w.Code), w.Name, w.Location, boolToInt(w.IsActive), toNanos(w.CreatedAt), toNanos(w.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return translateError(ctx, err, "insert warehouse")
	}
	return nil
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	var row warehouseRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(ctx, err, "get warehouse")
	}
	return row.entity(), nil
}

// Update actualiza una bodega existente.
func (r *WarehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE warehouses SET code = ?, name = ?, location = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		nullable(w.Code), w.Name, w.Location, boolToInt(w.IsActive), toNanos(w.UpdatedAt), w.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return translateError(ctx, err, "update warehouse")
	}
	return requireAffected(res)
}

// List lista bodegas ordenadas por nombre.
func (r *WarehouseRepo) List(ctx context.Context, limit, offset int) ([]*entity.Warehouse, error) {
	var rows []warehouseRow
	err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT `+warehouseColumns+` FROM warehouses ORDER BY name, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, translateError(ctx, err, "list warehouses")
	}
	list := make([]*entity.Warehouse, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.entity())
	}
	return list, nil
}

// Delete elimina una bodega. Las FK RESTRICT de movements (origen y destino) lo impiden si tiene historial.
func (r *WarehouseRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM warehouses WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrReferentialIntegrity
		}
		return translateError(ctx, err, "delete warehouse")
	}
	return requireAffected(res)
}
