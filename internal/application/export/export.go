// Package export genera los archivos CSV, XLSX y PDF de movimientos y productos.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/inventrack/internal/domain"
	rules "github.com/jhoicas/inventrack/internal/domain/inventory"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

// Format formato del archivo exportado.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// Encoding codificación de texto para CSV. XLSX y PDF la ignoran.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf8"   // con BOM para que las hojas de cálculo lo detecten
	EncodingLatin1 Encoding = "latin1" // Windows-1252
)

const dateLayout = "2006-01-02 15:04"

// table encabezado y título (hoja XLSX o título del PDF) de un reporte.
type table struct {
	title   string
	header  []string
	columns []pdfColumn
}

var (
	movementTable = table{
		title:   "Movimientos",
		header:  []string{"id", "fecha", "tipo", "bodega", "bodega_destino", "producto", "cantidad", "referencia", "notas", "usuario"},
		columns: movementPDFColumns,
	}
	productTable = table{
		title:   "Productos",
		header:  []string{"sku", "nombre", "unidad", "activo", "stock_minimo", "stock_total"},
		columns: productPDFColumns,
	}
)

// ParseFormat interpreta el parámetro format; vacío es CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", domain.NewFieldError(domain.ErrInvalidInput, "format", "debe ser csv, xlsx o pdf")
}

// ParseEncoding interpreta el parámetro encoding; vacío es UTF-8.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf8", "utf-8":
		return EncodingUTF8, nil
	case "latin1", "windows-1252", "cp1252":
		return EncodingLatin1, nil
	}
	return "", domain.NewFieldError(domain.ErrInvalidInput, "encoding", "debe ser utf8 o latin1")
}

// ContentType tipo MIME del formato.
func (f Format) ContentType(enc Encoding) string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	if enc == EncodingLatin1 {
		return "text/csv; charset=windows-1252"
	}
	return "text/csv; charset=utf-8"
}

// Filename nombre sugerido para la descarga, con la fecha del día.
func (f Format) Filename(base string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", base, now.Format("20060102"), f)
}

// Exporter escribe los reportes; las fechas se muestran en loc.
type Exporter struct {
	loc *time.Location
}

// New construye el exportador. loc nil equivale a UTC.
func New(loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{loc: loc}
}

// Movements escribe el historial de movimientos.
func (e *Exporter) Movements(w io.Writer, format Format, enc Encoding, list []repository.MovementDetail) error {
	rows := make([][]any, 0, len(list))
	for i := range list {
		rows = append(rows, e.movementRow(&list[i]))
	}
	return e.write(w, format, enc, movementTable, rows)
}

// Products escribe los productos con su existencia total.
func (e *Exporter) Products(w io.Writer, format Format, enc Encoding, totals []repository.ProductTotal) error {
	rows := make([][]any, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []any{t.SKU, t.Name, t.Unit, yesNo(t.IsActive), t.MinStock, t.Total})
	}
	return e.write(w, format, enc, productTable, rows)
}

func (e *Exporter) movementRow(d *repository.MovementDetail) []any {
	return []any{
		d.ID,
		d.CreatedAt.In(e.loc).Format(dateLayout),
		d.Kind.Label(),
		warehouseLabel(d.WarehouseCode, d.WarehouseName),
		warehouseLabel(d.DestinationCode, d.DestinationName),
		d.SKU + " - " + d.ProductName,
		d.Quantity,
		d.Reference,
		d.Notes,
		d.CreatedBy,
	}
}

func (e *Exporter) write(w io.Writer, format Format, enc Encoding, t table, rows [][]any) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, enc, t.header, rows)
	case FormatXLSX:
		return writeXLSX(w, t.title, t.header, rows)
	case FormatPDF:
		return writePDF(w, t.title, time.Now().In(e.loc), t.header, rows, t.columns)
	}
	return fmt.Errorf("formato de exportación desconocido %q", format)
}

// warehouseLabel "código - nombre", o solo el nombre si no hay código.
func warehouseLabel(code, name string) string {
	if code == "" {
		return name
	}
	if name == "" {
		return code
	}
	return code + " - " + name
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

// cellText representación de texto de una celda para CSV.
func cellText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case decimal.Decimal:
		return x.StringFixed(rules.Scale)
	case int64:
		return fmt.Sprint(x)
	}
	return fmt.Sprint(v)
}
