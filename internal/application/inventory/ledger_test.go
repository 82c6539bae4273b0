package inventory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/domain/repository"
	"github.com/jhoicas/inventrack/internal/infrastructure/sqlite/sqlitetest"
)

var ctx = context.Background()

type fixture struct {
	store  *sqlitetest.Store
	ledger *inventory.Ledger
	p      *entity.Product
	w1, w2 *entity.Warehouse
}

func newLedger(s *sqlitetest.Store, tx inventory.TxRunner, opts ...inventory.Option) *inventory.Ledger {
	opts = append([]inventory.Option{inventory.WithRetry(3, time.Millisecond)}, opts...)
	return inventory.NewLedger(tx, s.Products, s.Warehouses, s.Movements, s.Stock, opts...)
}

func newFixture(t *testing.T, opts ...inventory.Option) *fixture {
	t.Helper()
	s := sqlitetest.New(t)
	return &fixture{
		store:  s,
		ledger: newLedger(s, s.Tx, opts...),
		p:      s.Product(t, "A-1", 0),
		w1:     s.Warehouse(t, "W1"),
		w2:     s.Warehouse(t, "W2"),
	}
}

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) in(w *entity.Warehouse, q string) inventory.MovementInput {
	return inventory.MovementInput{ProductID: f.p.ID, WarehouseID: w.ID, Kind: entity.MovementInbound, Quantity: qty(q), Actor: "ana"}
}

func (f *fixture) out(w *entity.Warehouse, q string) inventory.MovementInput {
	return inventory.MovementInput{ProductID: f.p.ID, WarehouseID: w.ID, Kind: entity.MovementOutbound, Quantity: qty(q), Actor: "ana"}
}

func (f *fixture) transfer(from, to *entity.Warehouse, q string) inventory.MovementInput {
	return inventory.MovementInput{
		ProductID: f.p.ID, WarehouseID: from.ID, DestinationWarehouseID: to.ID,
		Kind: entity.MovementTransfer, Quantity: qty(q), Actor: "ana",
	}
}

func (f *fixture) mustRecord(t *testing.T, in inventory.MovementInput) *entity.Movement {
	t.Helper()
	m, err := f.ledger.RecordMovement(ctx, in)
	require.NoError(t, err)
	return m
}

func (f *fixture) balance(t *testing.T, w *entity.Warehouse) string {
	t.Helper()
	b, err := f.ledger.CurrentBalance(ctx, w.ID, f.p.ID)
	require.NoError(t, err)
	return b.StringFixed(2)
}

func (f *fixture) history(t *testing.T) []repository.MovementDetail {
	t.Helper()
	list, err := f.ledger.MovementHistory(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	return list
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios básicos
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_EntradaSalidaYSalidaInsuficiente(t *testing.T) {
	f := newFixture(t)

	f.mustRecord(t, f.in(f.w1, "100"))
	f.mustRecord(t, f.out(f.w1, "30"))

	_, err := f.ledger.RecordMovement(ctx, f.out(f.w1, "1000"))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "70.00", ise.Available.StringFixed(2))
	assert.Equal(t, "1000.00", ise.Requested.StringFixed(2))
	assert.Equal(t, f.w1.ID, ise.WarehouseID)

	assert.Equal(t, "70.00", f.balance(t, f.w1))
	assert.Len(t, f.history(t), 2)
}

func TestRecordMovement_DevuelveMovimientoCreado(t *testing.T) {
	clock := time.Date(2026, 5, 4, 8, 30, 0, 0, time.FixedZone("COT", -5*3600))
	f := newFixture(t, inventory.WithClock(func() time.Time { return clock }))

	in := f.in(f.w1, "12.5")
	in.Reference = "  OC-77  "
	in.Notes = "compra"
	m := f.mustRecord(t, in)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, entity.MovementInbound, m.Kind)
	assert.Equal(t, "OC-77", m.Reference)
	assert.Equal(t, "ana", m.CreatedBy)
	assert.True(t, m.CreatedAt.Equal(clock))
	assert.Equal(t, time.UTC, m.CreatedAt.Location())
	assert.Empty(t, m.DestinationWarehouseID)

	h := f.history(t)
	require.Len(t, h, 1)
	assert.Equal(t, m.ID, h[0].ID)
	assert.Equal(t, "12.50", h[0].Quantity.StringFixed(2))
	assert.True(t, h[0].CreatedAt.Equal(clock))
}

func TestRecordMovement_TransferenciaUnaFila(t *testing.T) {
	f := newFixture(t)
	f.mustRecord(t, f.in(f.w1, "70"))

	m := f.mustRecord(t, f.transfer(f.w1, f.w2, "20"))

	assert.Equal(t, "50.00", f.balance(t, f.w1))
	assert.Equal(t, "20.00", f.balance(t, f.w2))
	assert.Equal(t, f.w2.ID, m.DestinationWarehouseID)

	h := f.history(t)
	require.Len(t, h, 2)
	assert.Equal(t, entity.MovementTransfer, h[0].Kind)
	assert.Equal(t, f.w1.ID, h[0].WarehouseID)
	assert.Equal(t, f.w2.ID, h[0].DestinationWarehouseID)
}

func TestRecordMovement_TransferenciaInsuficienteNoTocaNada(t *testing.T) {
	f := newFixture(t)
	f.mustRecord(t, f.in(f.w1, "10"))
	f.mustRecord(t, f.in(f.w2, "3"))
	before := f.history(t)

	_, err := f.ledger.RecordMovement(ctx, f.transfer(f.w1, f.w2, "10.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, "10.00", f.balance(t, f.w1))
	assert.Equal(t, "3.00", f.balance(t, f.w2))
	assert.Equal(t, before, f.history(t))
}

func TestRecordMovement_SalidaSinSaldoPrevio(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.RecordMovement(ctx, f.out(f.w1, "1"))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "0.00", f.balance(t, f.w1))
	assert.Empty(t, f.history(t))
}

func TestRecordMovement_SalidaExactaDejaCero(t *testing.T) {
	f := newFixture(t)
	f.mustRecord(t, f.in(f.w1, "5.25"))
	f.mustRecord(t, f.out(f.w1, "5.25"))
	assert.Equal(t, "0.00", f.balance(t, f.w1))
}

// ──────────────────────────────────────────────────────────────────────────────
// Validación
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	unknown := "0190d6f0-8a3b-7c2e-9f00-1234567890ab"

	cases := []struct {
		name  string
		mod   func(in *inventory.MovementInput)
		field string
	}{
		{"cantidad cero", func(in *inventory.MovementInput) { in.Quantity = decimal.Zero }, "quantity"},
		{"cantidad negativa", func(in *inventory.MovementInput) { in.Quantity = qty("-1") }, "quantity"},
		{"tres decimales", func(in *inventory.MovementInput) { in.Quantity = qty("1.005") }, "quantity"},
		{"cantidad enorme", func(in *inventory.MovementInput) { in.Quantity = qty("10000000000") }, "quantity"},
		{"sin tipo", func(in *inventory.MovementInput) { in.Kind = entity.MovementKind{} }, "type"},
		{"sin producto", func(in *inventory.MovementInput) { in.ProductID = "" }, "product_id"},
		{"sin bodega", func(in *inventory.MovementInput) { in.WarehouseID = "" }, "warehouse_id"},
		{"producto inexistente", func(in *inventory.MovementInput) { in.ProductID = unknown }, "product_id"},
		{"bodega inexistente", func(in *inventory.MovementInput) { in.WarehouseID = unknown }, "warehouse_id"},
		{"destino en entrada", func(in *inventory.MovementInput) { in.DestinationWarehouseID = f.w2.ID }, "destination_warehouse_id"},
		{"traslado sin destino", func(in *inventory.MovementInput) { in.Kind = entity.MovementTransfer }, "destination_warehouse_id"},
		{"traslado a la misma bodega", func(in *inventory.MovementInput) {
			in.Kind = entity.MovementTransfer
			in.DestinationWarehouseID = in.WarehouseID
		}, "destination_warehouse_id"},
		{"traslado a destino inexistente", func(in *inventory.MovementInput) {
			in.Kind = entity.MovementTransfer
			in.DestinationWarehouseID = unknown
		}, "destination_warehouse_id"},
		{"referencia larga", func(in *inventory.MovementInput) {
			in.Reference = "123456789012345678901234567890123456789012345678901"
		}, "reference"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.in(f.w1, "1")
			tc.mod(&in)
			_, err := f.ledger.RecordMovement(ctx, in)
			require.ErrorIs(t, err, domain.ErrInvalidMovement)
			var fe *domain.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.field, fe.Field)
		})
	}
	assert.Empty(t, f.history(t))
	assert.Equal(t, "0.00", f.balance(t, f.w1))
}

func TestRecordMovement_Inactivos(t *testing.T) {
	f := newFixture(t)
	f.mustRecord(t, f.in(f.w1, "10"))

	f.w1.IsActive = false
	require.NoError(t, f.store.Warehouses.Update(ctx, f.w1))

	_, err := f.ledger.RecordMovement(ctx, f.in(f.w1, "1"))
	assert.ErrorIs(t, err, domain.ErrInvalidMovement, "no se recibe en bodega inactiva")

	_, err = f.ledger.RecordMovement(ctx, f.transfer(f.w2, f.w1, "1"))
	assert.ErrorIs(t, err, domain.ErrInvalidMovement, "no se traslada hacia bodega inactiva")

	f.mustRecord(t, f.out(f.w1, "4"))
	f.mustRecord(t, f.transfer(f.w1, f.w2, "6"))
	assert.Equal(t, "0.00", f.balance(t, f.w1))

	f.p.IsActive = false
	require.NoError(t, f.store.Products.Update(ctx, f.p))
	_, err = f.ledger.RecordMovement(ctx, f.in(f.w2, "1"))
	assert.ErrorIs(t, err, domain.ErrInvalidMovement, "producto inactivo no admite entradas")
	f.mustRecord(t, f.out(f.w2, "6"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordMovement_SalidasConcurrentesNoDejanNegativo(t *testing.T) {
	f := newFixture(t, inventory.WithRetry(10, time.Millisecond))
	f.mustRecord(t, f.in(f.w1, "10"))

	const workers = 20
	var ok, insufficient atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.RecordMovement(ctx, f.out(f.w1, "1"))
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(10), insufficient.Load())
	assert.Equal(t, "0.00", f.balance(t, f.w1))
	assert.Len(t, f.history(t), 11)
}

func TestRecordMovement_EntradasConcurrentesTodasConfirman(t *testing.T) {
	f := newFixture(t, inventory.WithRetry(10, time.Millisecond))

	const workers = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.RecordMovement(ctx, f.in(f.w1, "0.5"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, "12.50", f.balance(t, f.w1))
}

func TestRecordMovement_TrasladosOpuestosConcurrentes(t *testing.T) {
	f := newFixture(t, inventory.WithRetry(10, time.Millisecond))
	f.mustRecord(t, f.in(f.w1, "100"))
	f.mustRecord(t, f.in(f.w2, "100"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.ledger.RecordMovement(ctx, f.transfer(f.w1, f.w2, "3"))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.ledger.RecordMovement(ctx, f.transfer(f.w2, f.w1, "1"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, "80.00", f.balance(t, f.w1))
	assert.Equal(t, "120.00", f.balance(t, f.w2))

	report, err := f.ledger.Reconcile(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, report.Drifts)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestCurrentBalance_RequiereIDs(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.CurrentBalance(ctx, "", f.p.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.ledger.CurrentBalance(ctx, f.w1.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMovementHistory_RangoInvertido(t *testing.T) {
	f := newFixture(t)
	from := time.Now()
	to := from.Add(-time.Hour)
	_, err := f.ledger.MovementHistory(ctx, repository.MovementFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMovementHistory_LimitePorDefecto(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < inventory.DefaultHistoryLimit+5; i++ {
		f.mustRecord(t, f.in(f.w1, "1"))
	}
	assert.Len(t, f.history(t), inventory.DefaultHistoryLimit)

	list, err := f.ledger.MovementHistory(ctx, repository.MovementFilter{Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, list, inventory.DefaultHistoryLimit+5)
}

func TestFullHistory_IgnoraPaginacion(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.mustRecord(t, f.in(f.w1, "1"))
	}
	f.mustRecord(t, f.in(f.w2, "1"))

	list, err := f.ledger.FullHistory(ctx, repository.MovementFilter{WarehouseID: f.w1.ID, Limit: 2, Offset: 3})
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt), "más reciente primero")
	}

	from := time.Now()
	to := from.Add(-time.Hour)
	_, err = f.ledger.FullHistory(ctx, repository.MovementFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRecordMovement_SaldoUsaElReloj(t *testing.T) {
	clock := time.Date(2020, 7, 1, 12, 0, 0, 0, time.UTC)
	f := newFixture(t, inventory.WithClock(func() time.Time { return clock }))
	f.mustRecord(t, f.in(f.w1, "5"))
	f.mustRecord(t, f.transfer(f.w1, f.w2, "2"))

	for _, w := range []*entity.Warehouse{f.w1, f.w2} {
		bal, err := f.store.Stock.Get(ctx, w.ID, f.p.ID)
		require.NoError(t, err)
		assert.True(t, clock.Equal(bal.UpdatedAt), bal.UpdatedAt.String())
	}
}

func TestRecordMovement_SaldoFueraDeRango(t *testing.T) {
	f := newFixture(t)
	f.mustRecord(t, f.in(f.w1, "9000000000"))

	_, err := f.ledger.RecordMovement(ctx, f.in(f.w1, "9000000000"))
	require.ErrorIs(t, err, domain.ErrInvalidMovement)
	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "quantity", fe.Field)

	assert.Equal(t, "9000000000.00", f.balance(t, f.w1))
	assert.Len(t, f.history(t), 1)
}

func TestLowStockReport(t *testing.T) {
	f := newFixture(t)
	bajo := f.store.Product(t, "B-1", 20)
	ok := f.store.Product(t, "C-1", 5)
	sinFilas := f.store.Product(t, "D-1", 3)

	for _, p := range []*entity.Product{bajo, ok} {
		_, err := f.ledger.RecordMovement(ctx, inventory.MovementInput{
			ProductID: p.ID, WarehouseID: f.w1.ID, Kind: entity.MovementInbound, Quantity: qty("4"),
		})
		require.NoError(t, err)
		_, err = f.ledger.RecordMovement(ctx, inventory.MovementInput{
			ProductID: p.ID, WarehouseID: f.w2.ID, Kind: entity.MovementInbound, Quantity: qty("1"),
		})
		require.NoError(t, err)
	}

	report, err := f.ledger.LowStockReport(ctx)
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, bajo.ID, report[0].ProductID)
	assert.Equal(t, "5.00", report[0].Total.StringFixed(2))
	assert.Equal(t, sinFilas.ID, report[1].ProductID)
	assert.True(t, report[1].Total.IsZero())
}

func TestStockSummary(t *testing.T) {
	f := newFixture(t)
	f.mustRecord(t, f.in(f.w1, "7"))
	f.mustRecord(t, f.transfer(f.w1, f.w2, "2"))

	sum, err := f.ledger.StockSummary(ctx)
	require.NoError(t, err)
	require.Len(t, sum.Totals, 1)
	assert.Equal(t, "7.00", sum.Totals[0].Total.StringFixed(2))
	require.Len(t, sum.Details, 2)
	assert.Equal(t, "Bodega W1", sum.Details[0].WarehouseName)
	assert.Equal(t, "5.00", sum.Details[0].Quantity.StringFixed(2))
}

// ──────────────────────────────────────────────────────────────────────────────
// Notificación
// ──────────────────────────────────────────────────────────────────────────────

type countingNotifier struct{ n atomic.Int32 }

func (c *countingNotifier) BalancesChanged(context.Context) { c.n.Add(1) }

func TestRecordMovement_NotificaSoloEnExito(t *testing.T) {
	n := &countingNotifier{}
	f := newFixture(t, inventory.WithNotifier(n))

	f.mustRecord(t, f.in(f.w1, "1"))
	_, err := f.ledger.RecordMovement(ctx, f.out(f.w1, "2"))
	require.Error(t, err)

	assert.Equal(t, int32(1), n.n.Load())
}
