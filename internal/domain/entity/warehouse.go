package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario.
type Warehouse struct {
	ID        string
	Code      string // opcional; único cuando está presente
	Name      string
	Location  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label devuelve "Código - Nombre" (solo el nombre si la bodega no tiene código).
func (w *Warehouse) Label() string {
	return WarehouseLabel(w.Code, w.Name)
}

// WarehouseLabel arma la etiqueta visible de una bodega.
func WarehouseLabel(code, name string) string {
	if code == "" {
		return name
	}
	return code + " - " + name
}
