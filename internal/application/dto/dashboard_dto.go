package dto

import "time"

// DashboardSummaryDTO respuesta de GET /api/dashboard.
// Totales por producto, detalle por bodega, alertas de stock bajo y últimos movimientos.
type DashboardSummaryDTO struct {
	ProductCount    int                `json:"product_count"`
	WarehouseCount  int                `json:"warehouse_count"`
	LowStockCount   int                `json:"low_stock_count"`
	Totals          []ProductTotalDTO  `json:"totals"`
	Stocks          []BalanceDetailDTO `json:"stocks"`
	LowStock        []LowStockItemDTO  `json:"low_stock"`
	RecentMovements []MovementResponse `json:"recent_movements"`
	GeneratedAt     time.Time          `json:"generated_at"`
}
