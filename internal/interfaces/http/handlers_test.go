package http_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/jhoicas/inventrack/internal/application/analytics"
	"github.com/jhoicas/inventrack/internal/application/dto"
	"github.com/jhoicas/inventrack/internal/application/export"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/application/usecase"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/infrastructure/sqlite/sqlitetest"
	apphttp "github.com/jhoicas/inventrack/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type server struct {
	app    *fiber.App
	store  *sqlitetest.Store
	ledger *inventory.Ledger
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := sqlitetest.New(t)
	dashboard := analytics.NewDashboardUseCase(s.Stock, s.Movements, s.Warehouses, nil, zerolog.Nop())
	ledger := inventory.NewLedger(s.Tx, s.Products, s.Warehouses, s.Movements, s.Stock,
		inventory.WithRetry(3, time.Millisecond), inventory.WithNotifier(dashboard))
	deps := apphttp.RouterDeps{
		AppName:     "inventrack-test",
		Ledger:      ledger,
		ProductUC:   usecase.NewProductUseCase(s.Products),
		WarehouseUC: usecase.NewWarehouseUseCase(s.Warehouses),
		DashboardUC: dashboard,
		Exporter:    export.New(time.UTC),
		Location:    time.UTC,
		Log:         zerolog.Nop(),
	}
	app := apphttp.NewApp(deps)
	apphttp.Router(app, deps)
	return &server{app: app, store: s, ledger: ledger}
}

// do lanza la petición y devuelve status y cuerpo.
func (s *server) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apphttp.HeaderUserID, "bodeguero@empresa.co")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

func (s *server) createProduct(t *testing.T, sku string, minStock int64) dto.ProductResponse {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/products", map[string]any{"sku": sku, "name": "Producto " + sku, "min_stock": minStock})
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[dto.ProductResponse](t, body)
}

func (s *server) createWarehouse(t *testing.T, code string) dto.WarehouseResponse {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/warehouses", map[string]any{"code": code, "name": "Bodega " + code})
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[dto.WarehouseResponse](t, body)
}

func (s *server) move(t *testing.T, body map[string]any) (int, []byte) {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/inventory/movements", body)
}

func (s *server) balance(t *testing.T, warehouseID, productID string) string {
	t.Helper()
	status, body := s.do(t, http.MethodGet, "/api/inventory/balance?warehouse_id="+warehouseID+"&product_id="+productID, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	return decode[dto.BalanceResponse](t, body).Quantity.StringFixed(2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	s := newServer(t)
	status, body := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","service":"inventrack-test"}`, string(body))
}

func TestRutaInexistente(t *testing.T) {
	s := newServer(t)
	status, body := s.do(t, http.MethodGet, "/api/nada", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, body).Code)
}

func TestProductos_CrearValidarDuplicar(t *testing.T) {
	s := newServer(t)
	p := s.createProduct(t, "ACE-1", 5)
	assert.Equal(t, "und", p.Unit)

	status, body := s.do(t, http.MethodPost, "/api/products", map[string]any{"sku": "ACE-1", "name": "Otro"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DUPLICATE", decode[dto.ErrorResponse](t, body).Code)

	status, body = s.do(t, http.MethodPost, "/api/products", map[string]any{"name": "Sin SKU"})
	assert.Equal(t, http.StatusBadRequest, status)
	e := decode[dto.ErrorResponse](t, body)
	assert.Equal(t, "VALIDATION", e.Code)
	assert.Equal(t, "sku", e.Field)

	status, _ = s.do(t, http.MethodGet, "/api/products/"+p.ID, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodPut, "/api/products/"+p.ID, map[string]any{"min_stock": 8})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(8), decode[dto.ProductResponse](t, body).MinStock)

	status, _ = s.do(t, http.MethodGet, "/api/products/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodGet, "/api/products?limit=10", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.ProductListResponse](t, body).Items, 1)
}

func TestMovimientos_FlujoCompleto(t *testing.T) {
	s := newServer(t)
	p := s.createProduct(t, "A", 0)
	w1 := s.createWarehouse(t, "W1")
	w2 := s.createWarehouse(t, "W2")

	status, body := s.move(t, map[string]any{"product_id": p.ID, "warehouse_id": w1.ID, "type": "IN", "quantity": "100", "reference": "OC-1"})
	require.Equal(t, http.StatusCreated, status, string(body))
	in := decode[dto.MovementResponse](t, body)
	assert.Equal(t, "IN", in.Type)
	assert.Equal(t, "bodeguero@empresa.co", in.CreatedBy)

	status, _ = s.move(t, map[string]any{"product_id": p.ID, "warehouse_id": w1.ID, "type": "OUT", "quantity": 30})
	require.Equal(t, http.StatusCreated, status)

	status, body = s.move(t, map[string]any{"product_id": p.ID, "warehouse_id": w1.ID, "type": "OUT", "quantity": "1000"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, body).Code)
	assert.Equal(t, "70.00", s.balance(t, w1.ID, p.ID))

	status, body = s.move(t, map[string]any{
		"product_id": p.ID, "warehouse_id": w1.ID, "destination_warehouse_id": w2.ID, "type": "TR", "quantity": "20",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, "50.00", s.balance(t, w1.ID, p.ID))
	assert.Equal(t, "20.00", s.balance(t, w2.ID, p.ID))

	status, body = s.do(t, http.MethodGet, "/api/inventory/movements?warehouse_id="+w2.ID, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[dto.MovementListResponse](t, body)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "TR", list.Items[0].Type)
	assert.Equal(t, "W2", list.Items[0].DestinationCode)

	status, body = s.do(t, http.MethodGet, "/api/products/"+p.ID+"/history?limit=2", nil)
	require.Equal(t, http.StatusOK, status)
	hist := decode[dto.MovementListResponse](t, body)
	require.Len(t, hist.Items, 2)
	assert.Equal(t, "TR", hist.Items[0].Type, "más reciente primero")

	status, body = s.do(t, http.MethodGet, "/api/inventory/balances?product_id="+p.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]dto.BalanceDetailDTO](t, body), 2)
}

func TestMovimientos_EntradaInvalida(t *testing.T) {
	s := newServer(t)
	p := s.createProduct(t, "A", 0)
	w := s.createWarehouse(t, "W1")

	tests := []struct {
		name  string
		body  map[string]any
		code  string
		field string
	}{
		{"tipo desconocido", map[string]any{"product_id": p.ID, "warehouse_id": w.ID, "type": "AJUSTE", "quantity": "1"}, "INVALID_MOVEMENT", "type"},
		{"cantidad cero", map[string]any{"product_id": p.ID, "warehouse_id": w.ID, "type": "IN", "quantity": "0"}, "INVALID_MOVEMENT", "quantity"},
		{"traslado sin destino", map[string]any{"product_id": p.ID, "warehouse_id": w.ID, "type": "TR", "quantity": "1"}, "INVALID_MOVEMENT", "destination_warehouse_id"},
		{"sin bodega", map[string]any{"product_id": p.ID, "type": "IN", "quantity": "1"}, "VALIDATION", "warehouse_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.move(t, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			e := decode[dto.ErrorResponse](t, body)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.field, e.Field)
		})
	}

	status, _ := s.do(t, http.MethodPost, "/api/inventory/movements", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMovimientos_FiltrosInvalidos(t *testing.T) {
	s := newServer(t)
	status, body := s.do(t, http.MethodGet, "/api/inventory/movements?from=ayer", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "from", decode[dto.ErrorResponse](t, body).Field)

	status, body = s.do(t, http.MethodGet, "/api/inventory/movements?from=2026-05-02&to=2026-05-01", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "from", decode[dto.ErrorResponse](t, body).Field)

	status, body = s.do(t, http.MethodGet, "/api/inventory/movements?type=X", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "type", decode[dto.ErrorResponse](t, body).Field)

	status, _ = s.do(t, http.MethodGet, "/api/inventory/balance?warehouse_id=w", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMovimientos_FiltroPorDiaIncluyeElDiaCompleto(t *testing.T) {
	s := newServer(t)
	p := s.createProduct(t, "A", 0)
	w := s.createWarehouse(t, "W1")
	status, _ := s.move(t, map[string]any{"product_id": p.ID, "warehouse_id": w.ID, "type": "IN", "quantity": "1"})
	require.Equal(t, http.StatusCreated, status)

	today := time.Now().UTC().Format("2006-01-02")
	status, body := s.do(t, http.MethodGet, "/api/inventory/movements?from="+today+"&to="+today, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.MovementListResponse](t, body).Items, 1)
}

func TestEliminar_ProtegidoYCorreccion(t *testing.T) {
	s := newServer(t)
	p := s.createProduct(t, "A", 0)
	w := s.createWarehouse(t, "W1")
	libre := s.createWarehouse(t, "W9")

	status, body := s.move(t, map[string]any{"product_id": p.ID, "warehouse_id": w.ID, "type": "IN", "quantity": "10"})
	require.Equal(t, http.StatusCreated, status)
	in := decode[dto.MovementResponse](t, body)
	status, body = s.move(t, map[string]any{"product_id": p.ID, "warehouse_id": w.ID, "type": "OUT", "quantity": "4"})
	require.Equal(t, http.StatusCreated, status)
	out := decode[dto.MovementResponse](t, body)

	status, body = s.do(t, http.MethodDelete, "/api/products/"+p.ID, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "REFERENCED", decode[dto.ErrorResponse](t, body).Code)

	status, _ = s.do(t, http.MethodDelete, "/api/warehouses/"+w.ID, nil)
	assert.Equal(t, http.StatusConflict, status)
	status, _ = s.do(t, http.MethodDelete, "/api/warehouses/"+libre.ID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = s.do(t, http.MethodDelete, "/api/inventory/movements/"+in.ID, nil)
	assert.Equal(t, http.StatusConflict, status, "la entrada ya fue consumida en parte")
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, body).Code)

	status, _ = s.do(t, http.MethodDelete, "/api/inventory/movements/"+out.ID, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "10.00", s.balance(t, w.ID, p.ID))

	status, _ = s.do(t, http.MethodDelete, "/api/inventory/movements/"+out.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStockBajoYDashboard(t *testing.T) {
	s := newServer(t)
	p := s.createProduct(t, "A", 10)
	s.createProduct(t, "B", 0)
	w := s.createWarehouse(t, "W1")
	status, _ := s.move(t, map[string]any{"product_id": p.ID, "warehouse_id": w.ID, "type": "IN", "quantity": "3"})
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(t, http.MethodGet, "/api/inventory/low-stock", nil)
	require.Equal(t, http.StatusOK, status)
	low := decode[[]dto.LowStockItemDTO](t, body)
	require.Len(t, low, 1)
	assert.Equal(t, "A", low[0].SKU)
	assert.Equal(t, "7.00", low[0].Deficit.StringFixed(2))

	status, body = s.do(t, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, status)
	sum := decode[dto.DashboardSummaryDTO](t, body)
	assert.Equal(t, 2, sum.ProductCount)
	assert.Equal(t, 1, sum.LowStockCount)
	assert.Len(t, sum.RecentMovements, 1)
}

func TestExportaciones(t *testing.T) {
	s := newServer(t)
	p := s.createProduct(t, "A", 0)
	w := s.createWarehouse(t, "W1")
	status, _ := s.move(t, map[string]any{"product_id": p.ID, "warehouse_id": w.ID, "type": "IN", "quantity": "2.5", "notes": "café"})
	require.Equal(t, http.StatusCreated, status)

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/movements/export?format=csv", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "movimientos_")
	raw, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(raw), "W1 - Bodega W1")
	assert.Contains(t, string(raw), "2.50")

	req = httptest.NewRequest(http.MethodGet, "/api/products/export?format=xlsx", nil)
	resp2, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp2.Header.Get("Content-Type"))
	raw, _ = io.ReadAll(resp2.Body)
	assert.True(t, bytes.HasPrefix(raw, []byte("PK")), "xlsx es un zip")

	req = httptest.NewRequest(http.MethodGet, "/api/inventory/movements/export?format=pdf", nil)
	resp3, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp3.Body.Close()
	require.Equal(t, http.StatusOK, resp3.StatusCode)
	assert.Equal(t, "application/pdf", resp3.Header.Get("Content-Type"))
	assert.Contains(t, resp3.Header.Get("Content-Disposition"), ".pdf")
	raw, _ = io.ReadAll(resp3.Body)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))

	status, body := s.do(t, http.MethodGet, "/api/inventory/movements/export?format=doc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "format", decode[dto.ErrorResponse](t, body).Field)
}

func TestExportacion_HistorialCompletoSinTope(t *testing.T) {
	s := newServer(t)
	p := s.store.Product(t, "A", 0)
	w := s.store.Warehouse(t, "W1")
	total := inventory.MaxHistoryLimit + 5
	for i := 0; i < total; i++ {
		_, err := s.ledger.RecordMovement(context.Background(), inventory.MovementInput{
			ProductID: p.ID, WarehouseID: w.ID, Kind: entity.MovementInbound,
			Quantity: decimal.NewFromInt(1), Actor: "ana",
		})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/inventory/movements/export?format=csv&limit=10", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, total+1, "encabezado más todos los movimientos")

	status, body := s.do(t, http.MethodGet, "/api/inventory/movements?limit=5000", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[dto.MovementListResponse](t, body).Items, inventory.MaxHistoryLimit, "el listado JSON conserva el tope")
}
