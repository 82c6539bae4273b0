package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")

	// ErrInvalidMovement entrada mal formada para el libro de inventario (culpa del llamador, no reintentar).
	ErrInvalidMovement = errors.New("movimiento inválido")
	// ErrInsufficientStock la salida o traslado supera la existencia actual.
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrConcurrencyConflict fallo transitorio de bloqueo o serialización; se puede reintentar la operación completa.
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia")
	// ErrReferentialIntegrity se intentó eliminar un producto o bodega referenciado por movimientos.
	ErrReferentialIntegrity = errors.New("el recurso está referenciado por movimientos")
)

// FieldError error de validación asociado a un campo de entrada.
// Err es el sentinel al que se desenvuelve (ErrInvalidMovement o ErrInvalidInput).
type FieldError struct {
	Err    error
	Field  string
	Reason string
}

// NewFieldError construye un FieldError.
func NewFieldError(base error, field, reason string) *FieldError {
	return &FieldError{Err: base, Field: field, Reason: reason}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Err, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

// InsufficientStockError detalla el par (bodega, producto) cuya existencia no alcanza.
type InsufficientStockError struct {
	WarehouseID string
	ProductID   string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en bodega %s para producto %s: disponible %s, solicitado %s",
		e.WarehouseID, e.ProductID, e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
