package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/jhoicas/inventrack/internal/application/dto"
	"github.com/jhoicas/inventrack/internal/application/inventory"
	"github.com/jhoicas/inventrack/internal/domain"
	"github.com/jhoicas/inventrack/internal/domain/entity"
	"github.com/jhoicas/inventrack/internal/domain/repository"
)

func TestInputFromRequest(t *testing.T) {
	req := dto.RegisterMovementRequest{
		ProductID:              "p",
		WarehouseID:            "w1",
		DestinationWarehouseID: "w2",
		Type:                   "tr",
		Quantity:               qty("3.5"),
		Reference:              "R-1",
	}
	in, err := inventory.InputFromRequest(req, "luis")
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTransfer, in.Kind)
	assert.Equal(t, "w2", in.DestinationWarehouseID)
	assert.Equal(t, "luis", in.Actor)
	assert.True(t, in.Quantity.Equal(qty("3.5")))

	req.Type = "AJUSTE"
	_, err = inventory.InputFromRequest(req, "luis")
	require.ErrorIs(t, err, domain.ErrInvalidMovement)
	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "type", fe.Field)
}

func TestToLowStockItems(t *testing.T) {
	items := inventory.ToLowStockItems([]repository.ProductTotal{
		{ProductID: "p", SKU: "A", Name: "Aceite", MinStock: 10, Total: qty("2.5")},
	})
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].SKU)
	assert.Equal(t, "7.50", items[0].Deficit.StringFixed(2))
}

func TestToMovementResponses(t *testing.T) {
	list := []repository.MovementDetail{{
		Movement:        entity.Movement{ID: "m", Kind: entity.MovementTransfer, Quantity: qty("1")},
		SKU:             "A",
		WarehouseCode:   "W1",
		DestinationCode: "W2",
	}}
	out := inventory.ToMovementResponses(list)
	require.Len(t, out, 1)
	assert.Equal(t, "TR", out[0].Type)
	assert.Equal(t, entity.MovementTransfer.Label(), out[0].TypeLabel)
	assert.Equal(t, "W2", out[0].DestinationCode)
}
