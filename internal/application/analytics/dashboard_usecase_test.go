package analytics_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/jhoicas/inventrack/internal/application/analytics"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/infrastructure/sqlite/sqlitetest"
)

var ctx = context.Background()

// memCache caché en memoria que serializa a JSON como lo hace Redis.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	sets    int
	deletes int
	failGet bool
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return false, errors.New("redis caído")
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = b
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type env struct {
	store     *sqlitetest.Store
	cache     *memCache
	dashboard *analytics.DashboardUseCase
	ledger    *inventory.Ledger
}

func newEnv(t *testing.T) *env {
	s := sqlitetest.New(t)
	c := newMemCache()
	d := analytics.NewDashboardUseCase(s.Stock, s.Movements, s.Warehouses, c, zerolog.Nop())
	l := inventory.NewLedger(s.Tx, s.Products, s.Warehouses, s.Movements, s.Stock, inventory.WithNotifier(d))
	return &env{store: s, cache: c, dashboard: d, ledger: l}
}

func (e *env) inbound(t *testing.T, p *entity.Product, w *entity.Warehouse, q int64) {
	t.Helper()
	_, err := e.ledger.RecordMovement(ctx, inventory.MovementInput{
		ProductID: p.ID, WarehouseID: w.ID, Kind: entity.MovementInbound, Quantity: decimal.NewFromInt(q),
	})
	require.NoError(t, err)
}

func TestGetSummary_Calcula(t *testing.T) {
	e := newEnv(t)
	p := e.store.Product(t, "A", 10)
	e.store.Product(t, "B", 0)
	w1 := e.store.Warehouse(t, "W1")
	e.store.Warehouse(t, "W2")
	e.inbound(t, p, w1, 4)

	s, err := e.dashboard.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.ProductCount)
	assert.Equal(t, 2, s.WarehouseCount)
	assert.Equal(t, 1, s.LowStockCount)
	require.Len(t, s.LowStock, 1)
	assert.Equal(t, "6.00", s.LowStock[0].Deficit.StringFixed(2))
	require.Len(t, s.Stocks, 1)
	assert.Equal(t, "W1", s.Stocks[0].WarehouseCode)
	require.Len(t, s.RecentMovements, 1)
	assert.Equal(t, "IN", s.RecentMovements[0].Type)
	assert.False(t, s.GeneratedAt.IsZero())
}

func TestGetSummary_UsaCacheHastaQueCambianSaldos(t *testing.T) {
	e := newEnv(t)
	p := e.store.Product(t, "A", 0)
	w := e.store.Warehouse(t, "W1")

	first, err := e.dashboard.GetSummary(ctx)
	require.NoError(t, err)
	assert.Empty(t, first.RecentMovements)
	assert.Equal(t, 1, e.cache.sets)

	// Cambio por fuera del libro: la caché sigue sirviendo el valor anterior.
	e.store.Warehouse(t, "W2")
	cached, err := e.dashboard.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.WarehouseCount)
	assert.Equal(t, 1, e.cache.sets)

	e.inbound(t, p, w, 3)
	assert.Equal(t, 1, e.cache.deletes)

	fresh, err := e.dashboard.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.WarehouseCount)
	assert.Len(t, fresh.RecentMovements, 1)
	assert.Equal(t, 2, e.cache.sets)
}

func TestGetSummary_ErrorDeCacheConsultaLaBase(t *testing.T) {
	e := newEnv(t)
	e.store.Product(t, "A", 0)
	e.cache.failGet = true

	s, err := e.dashboard.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ProductCount)
}

func TestGetSummary_SinCache(t *testing.T) {
	s := sqlitetest.New(t)
	s.Product(t, "A", 0)
	d := analytics.NewDashboardUseCase(s.Stock, s.Movements, s.Warehouses, nil, zerolog.Nop())

	d.BalancesChanged(ctx)
	sum, err := d.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.ProductCount)
}

func TestGetSummary_Concurrente(t *testing.T) {
	e := newEnv(t)
	e.store.Product(t, "A", 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := e.dashboard.GetSummary(ctx)
			assert.NoError(t, err)
			assert.Equal(t, 1, s.ProductCount)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, e.cache.sets, 10)
	assert.GreaterOrEqual(t, e.cache.sets, 1)
}
