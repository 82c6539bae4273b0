package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain/entity"
)

// MovementFilter filtros del historial. Campos vacíos/nil no filtran.
// WarehouseID coincide con la bodega de origen o de destino.
type MovementFilter struct {
	ProductID   string
	WarehouseID string
	Kind        entity.MovementKind
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// MovementDetail movimiento con los datos de producto y bodegas para presentación.
type MovementDetail struct {
	entity.Movement
	SKU             string
	ProductName     string
	WarehouseCode   string
	WarehouseName   string
	DestinationCode string
	DestinationName string
}

// PairQuantity cantidad neta reconstruida para un par (bodega, producto).
type PairQuantity struct {
	Key      entity.StockKey
	Quantity decimal.Decimal
}

// MovementRepository define el puerto de persistencia para el registro de movimientos (solo anexar).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// Delete elimina un movimiento; solo la corrección de datos del libro lo usa.
	Delete(ctx context.Context, id string) error
	// List devuelve movimientos del más reciente al más antiguo.
	List(ctx context.Context, filter MovementFilter) ([]MovementDetail, error)
	// NetByPair reproduce el registro desde cero: entradas menos salidas, traslados restan en
	// origen y suman en destino, agrupado por par.
	NetByPair(ctx context.Context) ([]PairQuantity, error)
	// NetForPair igual que NetByPair pero para un solo par.
	NetForPair(ctx context.Context, warehouseID, productID string) (decimal.Decimal, error)
}
