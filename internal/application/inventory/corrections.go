package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	rules "github.com/jhoicas/inventrack/internal/domain/inventory"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

// DeleteMovement elimina un movimiento como corrección de datos: en la misma transacción
// revierte su efecto sobre los saldos. Si revertirlo dejaría un saldo negativo
// (por ejemplo, una entrada cuyo stock ya salió) falla con domain.ErrInsufficientStock.
func (l *Ledger) DeleteMovement(ctx context.Context, id, actor string) (*entity.Movement, error) {
	if id == "" {
		return nil, domain.NewFieldError(domain.ErrInvalidInput, "id", "es requerido")
	}
	var removed *entity.Movement
	err := l.withRetry(ctx, "delete_movement", func() error {
		return l.txRunner.Run(ctx, func(
			movRepo repository.MovementRepository,
			stockRepo repository.StockRepository,
		) error {
			mov, err := movRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if mov == nil {
				return domain.ErrNotFound
			}
			balances, err := lockAndApply(ctx, stockRepo, rules.Invert(rules.Effects(mov)), l.now().UTC())
			if err != nil {
				return err
			}
			if err := movRepo.Delete(ctx, id); err != nil {
				return err
			}
			if err := saveBalances(ctx, stockRepo, balances); err != nil {
				return err
			}
			removed = mov
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	l.notify(ctx)
	l.log.Warn().
		Str("movement_id", removed.ID).
		Str("kind", removed.Kind.String()).
		Str("quantity", removed.Quantity.StringFixed(rules.Scale)).
		Str("actor", actor).
		Msg("movimiento eliminado por corrección")
	return removed, nil
}

// Drift diferencia entre el saldo guardado y el reconstruido desde el registro.
type Drift struct {
	Key      entity.StockKey
	Expected decimal.Decimal // reconstruido desde los movimientos
	Actual   decimal.Decimal // guardado en stock
	Fixed    bool
}

// ReconcileReport resultado de Reconcile.
type ReconcileReport struct {
	Checked int
	Drifts  []Drift
}

// Reconcile reproduce el registro de movimientos desde cero y lo compara con los saldos.
// Con fix reescribe, bajo bloqueo, los saldos que difieren; los pares cuyo valor reconstruido
// es negativo se reportan sin tocarlos.
func (l *Ledger) Reconcile(ctx context.Context, fix bool) (*ReconcileReport, error) {
	var report *ReconcileReport
	err := l.withRetry(ctx, "reconcile", func() error {
		return l.txRunner.Run(ctx, func(
			movRepo repository.MovementRepository,
			stockRepo repository.StockRepository,
		) error {
			r, err := reconcile(ctx, movRepo, stockRepo, fix, l.now().UTC())
			if err != nil {
				return err
			}
			report = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	fixed := 0
	for _, d := range report.Drifts {
		if d.Fixed {
			fixed++
		}
	}
	if fixed > 0 {
		l.notify(ctx)
	}
	ev := l.log.Info()
	if len(report.Drifts) > 0 {
		ev = l.log.Warn()
	}
	ev.Int("checked", report.Checked).Int("drifts", len(report.Drifts)).Int("fixed", fixed).Msg("conciliación de saldos")
	return report, nil
}

func reconcile(
	ctx context.Context,
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	fix bool,
	now time.Time,
) (*ReconcileReport, error) {
	net, err := movRepo.NetByPair(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := stockRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	expected := make(map[entity.StockKey]decimal.Decimal, len(net))
	for _, pq := range net {
		expected[pq.Key] = pq.Quantity
	}
	actual := make(map[entity.StockKey]decimal.Decimal, len(balances))
	for _, b := range balances {
		actual[b.Key()] = b.Quantity
	}
	keys := make([]entity.StockKey, 0, len(expected)+len(actual))
	for k := range expected {
		keys = append(keys, k)
	}
	for k := range actual {
		if _, ok := expected[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	report := &ReconcileReport{Checked: len(keys)}
	for _, k := range keys {
		exp, act := expected[k], actual[k]
		if exp.Equal(act) {
			continue
		}
		drift := Drift{Key: k, Expected: exp, Actual: act}
		if fix && !exp.IsNegative() {
			// Con el par bloqueado se vuelve a calcular: cualquier movimiento confirmado antes del
			// bloqueo queda incluido y ninguno nuevo puede entrar hasta el commit.
			bal, err := stockRepo.GetForUpdate(ctx, k.WarehouseID, k.ProductID, now)
			if err != nil {
				return nil, err
			}
			exp, err = movRepo.NetForPair(ctx, k.WarehouseID, k.ProductID)
			if err != nil {
				return nil, err
			}
			drift.Expected, drift.Actual = exp, bal.Quantity
			if exp.Equal(bal.Quantity) {
				continue
			}
			if !exp.IsNegative() {
				bal.Quantity = exp
				bal.UpdatedAt = now
				if err := stockRepo.Save(ctx, bal); err != nil {
					return nil, err
				}
				drift.Fixed = true
			}
		}
		report.Drifts = append(report.Drifts, drift)
	}
	return report, nil
}
