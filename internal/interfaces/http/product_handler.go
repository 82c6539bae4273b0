package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/inventrack/internal/application/dto"
	"github.com/jhoicas/inventrack/internal/application/export"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/application/usecase"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

// ProductHandler maneja las peticiones HTTP para Product.
type ProductHandler struct {
	uc       *usecase.ProductUseCase
	ledger   *inventory.Ledger
	exporter *export.Exporter
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *usecase.ProductUseCase, ledger *inventory.Ledger, exporter *export.Exporter) *ProductHandler {
	return &ProductHandler{uc: uc, ledger: ledger, exporter: exporter}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return notFound(c, "producto no encontrado")
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Produce      json
// @Param        limit   query  int  false  "Límite"   default(20)
// @Param        offset  query  int  false  "Offset"   default(0)
// @Success      200     {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	out, err := h.uc.List(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar producto
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del producto"
// @Param        body  body  dto.UpdateProductRequest  true  "Datos a actualizar"
// @Success      200   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products/{id} [put]
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateProductRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validateStruct(in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return notFound(c, "producto no encontrado")
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar producto
// @Description  Falla con 409 REFERENCED si algún movimiento lo referencia; en ese caso desactívelo.
// @Tags         products
// @Param        id   path  string  true  "ID del producto"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// History godoc
// @Summary      Historial de movimientos de un producto
// @Tags         products
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        limit   query  int     false  "Límite"  default(100)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.MovementListResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/products/{id}/history [get]
func (h *ProductHandler) History(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.uc.GetByID(c.Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	if product == nil {
		return notFound(c, "producto no encontrado")
	}
	filter := repository.MovementFilter{
		ProductID: id,
		Limit:     c.QueryInt("limit", inventory.DefaultHistoryLimit),
		Offset:    c.QueryInt("offset", 0),
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

// Export godoc
// @Summary      Exportar productos con existencia total
// @Tags         products
// @Produce      octet-stream
// @Param        format    query  string  false  "csv, xlsx o pdf" default(csv)
// @Param        encoding  query  string  false  "utf8 o latin1"   default(utf8)
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/products/export [get]
func (h *ProductHandler) Export(c *fiber.Ctx) error {
	format, enc, err := exportParams(c)
	if err != nil {
		return writeError(c, err)
	}
	totals, err := h.ledger.ProductTotals(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	setDownload(c, format, enc, "productos")
	return h.exporter.Products(c.Response().BodyWriter(), format, enc, totals)
}

func exportParams(c *fiber.Ctx) (export.Format, export.Encoding, error) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return "", "", err
	}
	enc, err := export.ParseEncoding(c.Query("encoding"))
	if err != nil {
		return "", "", err
	}
	return format, enc, nil
}

func setDownload(c *fiber.Ctx, format export.Format, enc export.Encoding, base string) {
	c.Attachment(format.Filename(base, time.Now()))
	c.Set(fiber.HeaderContentType, format.ContentType(enc))
}

// pageFromQuery lee limit/offset con los valores por defecto de dto.PageRequest.
func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	if page.Limit > 100 {
		page.Limit = 100
	}
	page.DefaultPage()
	return page
}
