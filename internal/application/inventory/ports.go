package inventory

import (
	"context"

	"github.com/jhoicas/inventrack/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Hace Commit si fn devuelve nil y Rollback en cualquier otro caso (incluido un panic).
// Los fallos de bloqueo/serialización y la expiración del contexto se devuelven envueltos en
// domain.ErrConcurrencyConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error) error
}

// ChangeNotifier recibe aviso después de cada commit que modificó saldos
// (por ejemplo para invalidar cachés de lectura).
type ChangeNotifier interface {
	BalancesChanged(ctx context.Context)
}
