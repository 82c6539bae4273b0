package repository

import (
	"context"

	"github.com/jhoicas/inventrack/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID y GetBySKU devuelven (nil, nil) cuando no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	// Delete devuelve domain.ErrReferentialIntegrity si hay movimientos que lo referencian
	// y domain.ErrNotFound si no existe.
	Delete(ctx context.Context, id string) error
}
