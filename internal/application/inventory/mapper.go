package inventory

import (
	"github.com/jhoicas/inventrack/internal/application/dto"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

// InputFromRequest convierte el body HTTP en MovementInput. actor es la identidad del usuario.
func InputFromRequest(req dto.RegisterMovementRequest, actor string) (MovementInput, error) {
	kind, err := entity.ParseMovementKind(req.Type)
	if err != nil {
		return MovementInput{}, domain.NewFieldError(domain.ErrInvalidMovement, "type", "debe ser IN, OUT o TR")
	}
	return MovementInput{
		ProductID:              req.ProductID,
		WarehouseID:            req.WarehouseID,
		DestinationWarehouseID: req.DestinationWarehouseID,
		Kind:                   kind,
		Quantity:               req.Quantity,
		Reference:              req.Reference,
		Notes:                  req.Notes,
		Actor:                  actor,
	}, nil
}

// ToMovementResponse convierte un movimiento recién registrado.
func ToMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:                     m.ID,
		Type:                   m.Kind.String(),
		TypeLabel:              m.Kind.Label(),
		ProductID:              m.ProductID,
		WarehouseID:            m.WarehouseID,
		DestinationWarehouseID: m.DestinationWarehouseID,
		Quantity:               m.Quantity,
		Reference:              m.Reference,
		Notes:                  m.Notes,
		CreatedBy:              m.CreatedBy,
		CreatedAt:              m.CreatedAt,
	}
}

// ToMovementResponses convierte una página del historial.
func ToMovementResponses(list []repository.MovementDetail) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for i := range list {
		d := &list[i]
		r := ToMovementResponse(&d.Movement)
		r.SKU = d.SKU
		r.ProductName = d.ProductName
		r.WarehouseCode = d.WarehouseCode
		r.WarehouseName = d.WarehouseName
		r.DestinationCode = d.DestinationCode
		r.DestinationName = d.DestinationName
		out = append(out, r)
	}
	return out
}

// ToProductTotals convierte totales por producto.
func ToProductTotals(list []repository.ProductTotal) []dto.ProductTotalDTO {
	out := make([]dto.ProductTotalDTO, 0, len(list))
	for _, t := range list {
		out = append(out, toProductTotal(t))
	}
	return out
}

// ToLowStockItems convierte el reporte de stock bajo, con el déficit de cada producto.
func ToLowStockItems(list []repository.ProductTotal) []dto.LowStockItemDTO {
	out := make([]dto.LowStockItemDTO, 0, len(list))
	for _, t := range list {
		out = append(out, dto.LowStockItemDTO{
			ProductTotalDTO: toProductTotal(t),
			Deficit:         t.Deficit(),
		})
	}
	return out
}

// ToBalanceDetails convierte el detalle de saldos por bodega.
func ToBalanceDetails(list []repository.BalanceDetail) []dto.BalanceDetailDTO {
	out := make([]dto.BalanceDetailDTO, 0, len(list))
	for _, b := range list {
		out = append(out, dto.BalanceDetailDTO{
			WarehouseID:   b.WarehouseID,
			WarehouseCode: b.WarehouseCode,
			WarehouseName: b.WarehouseName,
			ProductID:     b.ProductID,
			SKU:           b.SKU,
			ProductName:   b.ProductName,
			Quantity:      b.Quantity,
			UpdatedAt:     b.UpdatedAt,
		})
	}
	return out
}

func toProductTotal(t repository.ProductTotal) dto.ProductTotalDTO {
	return dto.ProductTotalDTO{
		ProductID: t.ProductID,
		SKU:       t.SKU,
		Name:      t.Name,
		Unit:      t.Unit,
		MinStock:  t.MinStock,
		IsActive:  t.IsActive,
		Total:     t.Total,
	}
}
