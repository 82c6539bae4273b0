package entity

import "time"

// DefaultUnit unidad de medida por defecto de un producto.
const DefaultUnit = "und"

// Product representa un producto o SKU del inventario (multi-bodega).
// La existencia se maneja por bodega en StockBalance; MinStock alimenta las alertas de stock bajo.
type Product struct {
	ID        string
	SKU       string // código único
	Name      string
	Unit      string
	MinStock  int64 // umbral de stock mínimo (0 = sin alerta)
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label devuelve "SKU - Nombre", la forma en que se muestra el producto en listados y exportes.
func (p *Product) Label() string {
	return ProductLabel(p.SKU, p.Name)
}

// ProductLabel arma la etiqueta visible de un producto.
func ProductLabel(sku, name string) string {
	if sku == "" {
		return name
	}
	return sku + " - " + name
}
