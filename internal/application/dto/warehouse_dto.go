package dto

import "time"

// CreateWarehouseRequest entrada para crear una bodega.
type CreateWarehouseRequest struct {
	Code     string `json:"code" validate:"omitempty,max=10"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Location string `json:"location" validate:"omitempty,max=200"`
	IsActive *bool  `json:"is_active"`
}

// UpdateWarehouseRequest entrada para actualizar una bodega.
type UpdateWarehouseRequest struct {
	Code     *string `json:"code" validate:"omitempty,max=10"`
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Location *string `json:"location" validate:"omitempty,max=200"`
	IsActive *bool   `json:"is_active"`
}

// WarehouseResponse salida de una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarehouseListResponse lista paginada de bodegas.
type WarehouseListResponse struct {
	Items []WarehouseResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}
