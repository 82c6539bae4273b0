package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Type: IN, OUT o TR. DestinationWarehouseID solo en traslados.
type RegisterMovementRequest struct {
	ProductID              string          `json:"product_id" validate:"required"`
	WarehouseID            string          `json:"warehouse_id" validate:"required"`
	DestinationWarehouseID string          `json:"destination_warehouse_id,omitempty"`
	Type                   string          `json:"type" validate:"required"`
	Quantity               decimal.Decimal `json:"quantity"`
	Reference              string          `json:"reference,omitempty" validate:"max=50"`
	Notes                  string          `json:"notes,omitempty"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID                     string          `json:"id"`
	Type                   string          `json:"type"`
	TypeLabel              string          `json:"type_label"`
	ProductID              string          `json:"product_id"`
	SKU                    string          `json:"sku,omitempty"`
	ProductName            string          `json:"product_name,omitempty"`
	WarehouseID            string          `json:"warehouse_id"`
	WarehouseCode          string          `json:"warehouse_code,omitempty"`
	WarehouseName          string          `json:"warehouse_name,omitempty"`
	DestinationWarehouseID string          `json:"destination_warehouse_id,omitempty"`
	DestinationCode        string          `json:"destination_code,omitempty"`
	DestinationName        string          `json:"destination_name,omitempty"`
	Quantity               decimal.Decimal `json:"quantity"`
	Reference              string          `json:"reference,omitempty"`
	Notes                  string          `json:"notes,omitempty"`
	CreatedBy              string          `json:"created_by,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
}

// MovementListResponse página del historial de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// BalanceResponse saldo actual de un par (bodega, producto).
type BalanceResponse struct {
	WarehouseID string          `json:"warehouse_id"`
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// BalanceDetailDTO saldo por bodega con nombres.
type BalanceDetailDTO struct {
	WarehouseID   string          `json:"warehouse_id"`
	WarehouseCode string          `json:"warehouse_code"`
	WarehouseName string          `json:"warehouse_name"`
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	ProductName   string          `json:"product_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
