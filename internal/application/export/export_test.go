package export_test

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"github.com/jhoicas/inventrack/internal/application/export"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

var bogota = time.FixedZone("COT", -5*3600)

func movements() []repository.MovementDetail {
	return []repository.MovementDetail{
		{
			Movement: entity.Movement{
				ID:                     "m-2",
				Kind:                   entity.MovementTransfer,
				WarehouseID:            "w1",
				DestinationWarehouseID: "w2",
				Quantity:               decimal.RequireFromString("20"),
				Reference:              "TR-9",
				Notes:                  "reposición, urgente",
				CreatedBy:              "ana",
				CreatedAt:              time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC),
			},
			SKU: "CAF-1", ProductName: "Café molido",
			WarehouseCode: "PRI", WarehouseName: "Principal",
			DestinationName: "Tienda Norte",
		},
		{
			Movement: entity.Movement{
				ID:        "m-1",
				Kind:      entity.MovementInbound,
				Quantity:  decimal.RequireFromString("12.5"),
				CreatedAt: time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC),
			},
			SKU: "CAF-1", ProductName: "Café molido",
			WarehouseCode: "PRI", WarehouseName: "Principal",
		},
	}
}

func TestMovements_CSVUTF8(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.New(bogota).Movements(&buf, export.FormatCSV, export.EncodingUTF8, movements()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "debe empezar con BOM")

	records, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"id", "fecha", "tipo", "bodega", "bodega_destino", "producto", "cantidad", "referencia", "notas", "usuario"}, records[0])
	assert.Equal(t, []string{
		"m-2", "2026-03-02 10:04", "Transferencia", "PRI - Principal", "Tienda Norte",
		"CAF-1 - Café molido", "20.00", "TR-9", "reposición, urgente", "ana",
	}, records[1])
	assert.Equal(t, "2026-02-28 21:00", records[2][1], "la fecha se muestra en la zona configurada")
	assert.Equal(t, "", records[2][4])
	assert.Equal(t, "12.50", records[2][6])
}

func TestMovements_CSVLatin1(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.New(time.UTC).Movements(&buf, export.FormatCSV, export.EncodingLatin1, movements()))

	raw := buf.Bytes()
	assert.False(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(raw), "Caf\xe9 molido")

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "reposición")
}

func TestMovements_CSVLatin1ReemplazaNoRepresentables(t *testing.T) {
	list := movements()[:1]
	list[0].Notes = "caja 📦"
	var buf bytes.Buffer
	require.NoError(t, export.New(time.UTC).Movements(&buf, export.FormatCSV, export.EncodingLatin1, list))
	assert.Contains(t, buf.String(), "caja ")
}

// failingWriter falla en toda escritura.
type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disco lleno") }

func TestMovements_CSVLatin1PropagaErrorDeEscritura(t *testing.T) {
	err := export.New(time.UTC).Movements(failingWriter{}, export.FormatCSV, export.EncodingLatin1, movements())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disco lleno")
}

func TestMovements_PDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.New(bogota).Movements(&buf, export.FormatPDF, export.EncodingUTF8, movements()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "debe ser un documento PDF")
}

func TestProducts_PDF(t *testing.T) {
	totals := []repository.ProductTotal{
		{SKU: "CAF-1", Name: "Café", Unit: "kg", MinStock: 10, IsActive: true, Total: decimal.RequireFromString("7.25")},
	}
	var buf bytes.Buffer
	require.NoError(t, export.New(nil).Products(&buf, export.FormatPDF, export.EncodingUTF8, totals))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	var empty bytes.Buffer
	require.NoError(t, export.New(nil).Products(&empty, export.FormatPDF, export.EncodingUTF8, nil))
	assert.True(t, bytes.HasPrefix(empty.Bytes(), []byte("%PDF-")), "sin filas igual genera el documento")

	err := export.New(nil).Products(failingWriter{}, export.FormatPDF, export.EncodingUTF8, totals)
	assert.Error(t, err)
}

func TestProducts_XLSX(t *testing.T) {
	totals := []repository.ProductTotal{
		{SKU: "CAF-1", Name: "Café", Unit: "kg", MinStock: 10, IsActive: true, Total: decimal.RequireFromString("7.25")},
		{SKU: "TE-2", Name: "Té", Unit: "und", IsActive: false, Total: decimal.Zero},
	}
	var buf bytes.Buffer
	require.NoError(t, export.New(nil).Products(&buf, export.FormatXLSX, export.EncodingUTF8, totals))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Productos"}, f.GetSheetList())
	rows, err := f.GetRows("Productos")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"sku", "nombre", "unidad", "activo", "stock_minimo", "stock_total"}, rows[0])
	assert.Equal(t, []string{"CAF-1", "Café", "kg", "Sí", "10", "7.25"}, rows[1])
	assert.Equal(t, "No", rows[2][3])
}

func TestProducts_CSV(t *testing.T) {
	var buf bytes.Buffer
	totals := []repository.ProductTotal{{SKU: "A", Name: "Arroz", Unit: "und", MinStock: 3, IsActive: true, Total: decimal.RequireFromString("1")}}
	require.NoError(t, export.New(nil).Products(&buf, export.FormatCSV, export.EncodingUTF8, totals))

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(buf.String(), "\ufeff")), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "A,Arroz,und,Sí,3,1.00", lines[1])
}

func TestParseFormatYEncoding(t *testing.T) {
	f, err := export.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, f)
	f, err = export.ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, export.FormatXLSX, f)
	f, err = export.ParseFormat(" pdf ")
	require.NoError(t, err)
	assert.Equal(t, export.FormatPDF, f)
	_, err = export.ParseFormat("doc")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	e, err := export.ParseEncoding("latin1")
	require.NoError(t, err)
	assert.Equal(t, export.EncodingLatin1, e)
	_, err = export.ParseEncoding("ebcdic")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Equal(t, "movimientos_20260302.xlsx", export.FormatXLSX.Filename("movimientos", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "text/csv; charset=windows-1252", export.FormatCSV.ContentType(export.EncodingLatin1))
	assert.Equal(t, "application/pdf", export.FormatPDF.ContentType(export.EncodingLatin1))
	assert.Equal(t, "productos_20260302.pdf", export.FormatPDF.Filename("productos", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
}
