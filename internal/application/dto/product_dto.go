package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU      string `json:"sku" validate:"required,min=1,max=30"`
	Name     string `json:"name" validate:"required,min=1,max=150"`
	Unit     string `json:"unit" validate:"omitempty,max=20"`
	MinStock int64  `json:"min_stock" validate:"min=0"`
	IsActive *bool  `json:"is_active"`
}

// UpdateProductRequest entrada para actualizar un producto; solo se cambian los campos enviados.
type UpdateProductRequest struct {
	SKU      *string `json:"sku" validate:"omitempty,min=1,max=30"`
	Name     *string `json:"name" validate:"omitempty,min=1,max=150"`
	Unit     *string `json:"unit" validate:"omitempty,max=20"`
	MinStock *int64  `json:"min_stock" validate:"omitempty,min=0"`
	IsActive *bool   `json:"is_active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	MinStock  int64     `json:"min_stock"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// ProductTotalDTO existencia total de un producto en todas las bodegas.
type ProductTotalDTO struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	MinStock  int64           `json:"min_stock"`
	IsActive  bool            `json:"is_active"`
	Total     decimal.Decimal `json:"total"`
}

// LowStockItemDTO producto por debajo de su stock mínimo.
type LowStockItemDTO struct {
	ProductTotalDTO
	Deficit decimal.Decimal `json:"deficit"` // MinStock - Total
}
