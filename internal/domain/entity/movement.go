package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento de inventario. Conjunto cerrado: solo existen
// MovementInbound, MovementOutbound y MovementTransfer; el valor cero es inválido.
type MovementKind struct {
	code string
}

// Tipos de movimiento.
var (
	MovementInbound  = MovementKind{code: "IN"}  // entrada
	MovementOutbound = MovementKind{code: "OUT"} // salida
	MovementTransfer = MovementKind{code: "TR"}  // traslado entre bodegas
)

// MovementKinds lista los tipos válidos.
func MovementKinds() []MovementKind {
	return []MovementKind{MovementInbound, MovementOutbound, MovementTransfer}
}

// ParseMovementKind convierte el código persistido ("IN", "OUT", "TR") en MovementKind.
// Acepta también los alias "INBOUND", "OUTBOUND" y "TRANSFER".
func ParseMovementKind(s string) (MovementKind, error) {
	switch s {
	case "IN", "INBOUND", "in", "inbound":
		return MovementInbound, nil
	case "OUT", "OUTBOUND", "out", "outbound":
		return MovementOutbound, nil
	case "TR", "TRANSFER", "tr", "transfer":
		return MovementTransfer, nil
	}
	return MovementKind{}, fmt.Errorf("tipo de movimiento desconocido %q", s)
}

// String devuelve el código persistido.
func (k MovementKind) String() string { return k.code }

// IsZero indica si el tipo no fue asignado.
func (k MovementKind) IsZero() bool { return k.code == "" }

// Label etiqueta legible del tipo.
func (k MovementKind) Label() string {
	switch k {
	case MovementInbound:
		return "Entrada"
	case MovementOutbound:
		return "Salida"
	case MovementTransfer:
		return "Transferencia"
	}
	return ""
}

// MarshalText implementa encoding.TextMarshaler.
func (k MovementKind) MarshalText() ([]byte, error) {
	return []byte(k.code), nil
}

// UnmarshalText implementa encoding.TextUnmarshaler.
func (k *MovementKind) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*k = MovementKind{}
		return nil
	}
	parsed, err := ParseMovementKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Movement registro inmutable del libro de inventario.
// DestinationWarehouseID solo se usa en traslados (un único registro con origen y destino).
type Movement struct {
	ID                     string
	ProductID              string
	WarehouseID            string
	DestinationWarehouseID string
	Kind                   MovementKind
	Quantity               decimal.Decimal // siempre positiva
	Reference              string
	Notes                  string
	CreatedBy              string
	CreatedAt              time.Time
}
