package repository

import (
	"context"

	"github.com/jhoicas/inventrack/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	List(ctx context.Context, limit, offset int) ([]*entity.Warehouse, error)
	// Delete devuelve domain.ErrReferentialIntegrity si hay movimientos (origen o destino) que la referencian.
	Delete(ctx context.Context, id string) error
}
