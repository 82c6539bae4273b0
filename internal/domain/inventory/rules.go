// Package inventory contiene las reglas puras del libro de inventario: efecto de cada
// movimiento sobre los saldos, guarda de no negatividad y orden de bloqueo.
package inventory

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
)

// Scale decimales admitidos en cantidades (NUMERIC(12,2)).
const Scale = 2

// MaxQuantity límite superior exclusivo de una cantidad (12 dígitos, 2 decimales).
var MaxQuantity = decimal.New(1, 10)

// Effect cambio que un movimiento produce sobre el saldo de un par (bodega, producto).
type Effect struct {
	Key   entity.StockKey
	Delta decimal.Decimal
}

// Effects devuelve los efectos de un movimiento, uno por par afectado.
// IN suma en la bodega; OUT resta en la bodega; TR resta en origen y suma en destino.
func Effects(m *entity.Movement) []Effect {
	src := entity.StockKey{WarehouseID: m.WarehouseID, ProductID: m.ProductID}
	switch m.Kind {
	case entity.MovementInbound:
		return []Effect{{Key: src, Delta: m.Quantity}}
	case entity.MovementOutbound:
		return []Effect{{Key: src, Delta: m.Quantity.Neg()}}
	case entity.MovementTransfer:
		dst := entity.StockKey{WarehouseID: m.DestinationWarehouseID, ProductID: m.ProductID}
		return []Effect{
			{Key: src, Delta: m.Quantity.Neg()},
			{Key: dst, Delta: m.Quantity},
		}
	}
	return nil
}

// Invert devuelve los efectos opuestos (para revertir un movimiento).
func Invert(effects []Effect) []Effect {
	out := make([]Effect, len(effects))
	for i, e := range effects {
		out[i] = Effect{Key: e.Key, Delta: e.Delta.Neg()}
	}
	return out
}

// Apply aplica delta al saldo. Si el resultado queda negativo devuelve *domain.InsufficientStockError
// y el saldo original; si no cabe en NUMERIC(12,2), un FieldError sobre quantity.
func Apply(balance *entity.StockBalance, delta decimal.Decimal) (decimal.Decimal, error) {
	next := balance.Quantity.Add(delta)
	if !next.LessThan(MaxQuantity) {
		return balance.Quantity, domain.NewFieldError(domain.ErrInvalidMovement, "quantity",
			"el saldo resultante supera el máximo admitido ("+MaxQuantity.StringFixed(Scale)+")")
	}
	if next.IsNegative() {
		return balance.Quantity, &domain.InsufficientStockError{
			WarehouseID: balance.WarehouseID,
			ProductID:   balance.ProductID,
			Available:   balance.Quantity,
			Requested:   delta.Neg(),
		}
	}
	return next, nil
}

// LockOrder devuelve los pares sin duplicados en el orden total de StockKey.Less.
// Adquirir los bloqueos en este orden evita la inversión entre dos traslados opuestos.
func LockOrder(effects []Effect) []entity.StockKey {
	seen := make(map[entity.StockKey]struct{}, len(effects))
	keys := make([]entity.StockKey, 0, len(effects))
	for _, e := range effects {
		if _, ok := seen[e.Key]; ok {
			continue
		}
		seen[e.Key] = struct{}{}
		keys = append(keys, e.Key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// ValidQuantity indica si q es una cantidad de movimiento aceptable:
// estrictamente positiva, con a lo sumo Scale decimales y menor que MaxQuantity.
func ValidQuantity(q decimal.Decimal) bool {
	if !q.IsPositive() || !q.LessThan(MaxQuantity) {
		return false
	}
	return q.Equal(q.Truncate(Scale))
}
