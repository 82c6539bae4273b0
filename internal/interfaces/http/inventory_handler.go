package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventrack/internal/application/dto"
	"github.com/jhoicas/inventrack/internal/application/export"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

const dateOnly = "2006-01-02"

// InventoryHandler maneja movimientos y consultas de saldos.
type InventoryHandler struct {
	ledger   *inventory.Ledger
	exporter *export.Exporter
	loc      *time.Location
}

// NewInventoryHandler construye el handler. loc es la zona en que se interpretan las fechas sin hora.
func NewInventoryHandler(ledger *inventory.Ledger, exporter *export.Exporter, loc *time.Location) *InventoryHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &InventoryHandler{ledger: ledger, exporter: exporter, loc: loc}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  IN suma en la bodega, OUT resta, TR resta en el origen y suma en destination_warehouse_id.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        X-User-ID  header  string                       false  "Usuario que registra"
// @Param        body       body    dto.RegisterMovementRequest  true   "product_id, warehouse_id, type, quantity (destination_warehouse_id en TR)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var req dto.RegisterMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(req); err != nil {
		return writeError(c, err)
	}
	in, err := inventory.InputFromRequest(req, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	mov, err := h.ledger.RecordMovement(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementResponse(mov))
}

// ListMovements godoc
// @Summary      Historial de movimientos (más reciente primero)
// @Tags         inventory
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega (origen o destino)"
// @Param        type          query  string  false  "IN, OUT o TR"
// @Param        from          query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        to            query  string  false  "Hasta, inclusive (YYYY-MM-DD o RFC3339)"
// @Param        limit         query  int     false  "Límite"  default(100)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter, err := h.filterFromQuery(c, inventory.DefaultHistoryLimit)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.ledger.MovementHistory(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: inventory.ToMovementResponses(list),
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	})
}

// ExportMovements godoc
// @Summary      Exportar movimientos
// @Tags         inventory
// @Produce      octet-stream
// @Description  Exporta el historial completo que cumple los filtros, sin límite de filas.
// @Param        format        query  string  false  "csv, xlsx o pdf"  default(csv)
// @Param        encoding      query  string  false  "utf8 o latin1"  default(utf8)
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        from          query  string  false  "Desde"
// @Param        to            query  string  false  "Hasta"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/export [get]
func (h *InventoryHandler) ExportMovements(c *fiber.Ctx) error {
	format, enc, err := exportParams(c)
	if err != nil {
		return writeError(c, err)
	}
	filter, err := h.filterFromQuery(c, 0)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.ledger.FullHistory(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	setDownload(c, format, enc, "movimientos")
	return h.exporter.Movements(c.Response().BodyWriter(), format, enc, list)
}

// DeleteMovement godoc
// @Summary      Eliminar movimiento (corrección)
// @Description  Revierte el efecto del movimiento sobre los saldos. Falla con 409 si la reversión deja un saldo negativo.
// @Tags         inventory
// @Produce      json
// @Param        id   path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [delete]
func (h *InventoryHandler) DeleteMovement(c *fiber.Ctx) error {
	mov, err := h.ledger.DeleteMovement(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToMovementResponse(mov))
}

// GetBalance godoc
// @Summary      Saldo actual de un producto en una bodega
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id  query  string  true  "Bodega"
// @Param        product_id    query  string  true  "Producto"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/balance [get]
func (h *InventoryHandler) GetBalance(c *fiber.Ctx) error {
	warehouseID, productID := c.Query("warehouse_id"), c.Query("product_id")
	qty, err := h.ledger.CurrentBalance(c.Context(), warehouseID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BalanceResponse{WarehouseID: warehouseID, ProductID: productID, Quantity: qty})
}

// ListBalances godoc
// @Summary      Saldos por bodega
// @Tags         inventory
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        product_id    query  string  false  "Producto"
// @Success      200  {array}  dto.BalanceDetailDTO
// @Router       /api/inventory/balances [get]
func (h *InventoryHandler) ListBalances(c *fiber.Ctx) error {
	list, err := h.ledger.BalanceDetails(c.Context(), c.Query("warehouse_id"), c.Query("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToBalanceDetails(list))
}

// LowStock godoc
// @Summary      Productos bajo el stock mínimo
// @Description  Existencia total de todas las bodegas menor que min_stock, mayor déficit primero.
// @Tags         inventory
// @Produce      json
// @Success      200  {array}  dto.LowStockItemDTO
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.ledger.LowStockReport(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToLowStockItems(list))
}

func (h *InventoryHandler) filterFromQuery(c *fiber.Ctx, defaultLimit int) (repository.MovementFilter, error) {
	filter := repository.MovementFilter{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		Limit:       c.QueryInt("limit", defaultLimit),
		Offset:      c.QueryInt("offset", 0),
	}
	if t := strings.TrimSpace(c.Query("type")); t != "" {
		kind, err := entity.ParseMovementKind(t)
		if err != nil {
			return filter, domain.NewFieldError(domain.ErrInvalidInput, "type", "debe ser IN, OUT o TR")
		}
		filter.Kind = kind
	}
	var err error
	if filter.From, err = h.parseTime(c.Query("from"), "from", false); err != nil {
		return filter, err
	}
	if filter.To, err = h.parseTime(c.Query("to"), "to", true); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseTime acepta RFC3339 o YYYY-MM-DD en la zona del handler. Con endOfDay una fecha
// sin hora cubre el día completo.
func (h *InventoryHandler) parseTime(s, field string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateOnly, s, h.loc)
	if err != nil {
		return nil, domain.NewFieldError(domain.ErrInvalidInput, field, "fecha inválida, use YYYY-MM-DD o RFC3339")
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
