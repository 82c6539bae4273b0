package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica un par (bodega, producto).
type StockKey struct {
	WarehouseID string
	ProductID   string
}

// Less orden total sobre los pares; define el orden de adquisición de bloqueos.
func (k StockKey) Less(o StockKey) bool {
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	return k.ProductID < o.ProductID
}

// StockBalance existencia actual de un producto en una bodega (estado derivado de los movimientos).
// Solo el libro de inventario la modifica. Version se incrementa en cada escritura.
type StockBalance struct {
	WarehouseID string
	ProductID   string
	Quantity    decimal.Decimal
	Version     int64
	UpdatedAt   time.Time
}

// Key devuelve el par (bodega, producto) del saldo.
func (s *StockBalance) Key() StockKey {
	return StockKey{WarehouseID: s.WarehouseID, ProductID: s.ProductID}
}
