package export

import (
	"fmt"
	"io"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// pdfColumn columna impresa: índice en la fila exportada y ancho sobre la rejilla de 12.
type pdfColumn struct {
	index int
	size  int
	right bool
}

// En A4 no caben las diez columnas de movimientos; se omiten id y notas.
var (
	movementPDFColumns = []pdfColumn{
		{index: 1, size: 2},              // fecha
		{index: 2, size: 1},              // tipo
		{index: 3, size: 2},              // bodega
		{index: 4, size: 2},              // bodega_destino
		{index: 5, size: 2},              // producto
		{index: 6, size: 1, right: true}, // cantidad
		{index: 7, size: 1},              // referencia
		{index: 9, size: 1},              // usuario
	}
	productPDFColumns = []pdfColumn{
		{index: 0, size: 2},
		{index: 1, size: 4},
		{index: 2, size: 1},
		{index: 3, size: 1},
		{index: 4, size: 2, right: true},
		{index: 5, size: 2, right: true},
	}
)

func writePDF(w io.Writer, title string, generated time.Time, header []string, rows [][]any, columns []pdfColumn) error {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(title, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(titleRow(title, generated, len(rows)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableRow(header, columns, true))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, v := range r {
			cells[i] = cellText(v)
		}
		m.AddRows(tableRow(cells, columns, false))
	}

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("pdf: generar documento: %w", err)
	}
	if _, err := w.Write(doc.GetBytes()); err != nil {
		return fmt.Errorf("pdf: escribir: %w", err)
	}
	return nil
}

func titleRow(title string, generated time.Time, count int) core.Row {
	return row.New(14).Add(
		col.New(8).Add(
			text.New(title, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		),
		col.New(4).Add(
			text.New("Generado: "+generated.Format(dateLayout), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(fmt.Sprintf("%d registros", count), props.Text{
				Size: 8, Align: align.Right, Top: 7, Color: colorGray,
			}),
		),
	)
}

func tableRow(cells []string, columns []pdfColumn, bold bool) core.Row {
	cols := make([]core.Col, 0, len(columns))
	for _, c := range columns {
		p := props.Text{Size: 7, Top: 1, Left: 0.5, Right: 0.5}
		if bold {
			p.Style = fontstyle.Bold
			p.Color = colorPrimary
		}
		if c.right {
			p.Align = align.Right
		}
		cols = append(cols, col.New(c.size).Add(text.New(cells[c.index], p)))
	}
	return row.New(6).Add(cols...)
}
