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

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre SQLite.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar db o tx.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

type productRow struct {
	ID        string `db:"id"`
	SKU       string `db:"sku"`
	Name      string `db:"name"`
	Unit      string `db:"unit"`
	MinStock  int64  `db:"min_stock"`
	IsActive  bool   `db:"is_active"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r productRow) entity() *entity.Product {
	return &entity.Product{
		ID:        r.ID,
		SKU:       r.SKU,
		Name:      r.Name,
		Unit:      r.Unit,
		MinStock:  r.MinStock,
		IsActive:  r.IsActive,
		CreatedAt: fromNanos(r.CreatedAt),
		UpdatedAt: fromNanos(r.UpdatedAt),
	}
}

const productColumns = `id, sku, name, unit, min_stock, is_active, created_at, updated_at`

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.SKU, p.Name, p.Unit, p.MinStock, boolToInt(p.IsActive), toNanos(p.CreatedAt), toNanos(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return translateError(ctx, err, "insert product")
	}
	return nil
}

func (r *ProductRepo) getOne(ctx context.Context, op, where string, arg any) (*entity.Product, error) {
	var row productRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+productColumns+` FROM products WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, translateError(ctx, err, op)
	}
	return row.entity(), nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, "get product", "id = ?", id)
}

// GetBySKU obtiene un producto por SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return r.getOne(ctx, "get product by sku", "sku = ?", sku)
}

// Update actualiza un producto existente.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE products SET sku = ?, name = ?, unit = ?, min_stock = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		p.SKU, p.Name, p.Unit, p.MinStock, boolToInt(p.IsActive), toNanos(p.UpdatedAt), p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return translateError(ctx, err, "update product")
	}
	return requireAffected(res)
}

// List lista productos ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	var rows []productRow
	err := sqlx.SelectContext(ctx, r.q, &rows,
		`SELECT `+productColumns+` FROM products ORDER BY name, sku LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, translateError(ctx, err, "list products")
	}
	list := make([]*entity.Product, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.entity())
	}
	return list, nil
}

// Delete elimina un producto. La FK RESTRICT de movements impide borrar productos con historial.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrReferentialIntegrity
		}
		return translateError(ctx, err, "delete product")
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
