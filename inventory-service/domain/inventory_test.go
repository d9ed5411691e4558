package domain

import (
	"testing"

	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventory_Reserve(t *testing.T) {
	inventory, err := NewInventory(models.GenerateUUID(), 10)
	require.NoError(t, err)
	inventory.ClearEvents()

	require.NoError(t, inventory.Reserve(5))
	assert.Equal(t, 5, inventory.AvailableQuantity)
	assert.Equal(t, 5, inventory.ReservedQuantity)

	require.Len(t, inventory.Events(), 1)
	assert.Equal(t, events.StockReservedEvent, inventory.Events()[0].EventType)
}

func TestInventory_Reserve_InsufficientStockLeavesRowUnchanged(t *testing.T) {
	inventory, err := NewInventory(models.GenerateUUID(), 3)
	require.NoError(t, err)
	inventory.ClearEvents()

	err = inventory.Reserve(4)
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
	assert.Equal(t, 3, inventory.AvailableQuantity)
	assert.Equal(t, 0, inventory.ReservedQuantity)
	assert.Empty(t, inventory.Events())
}

func TestInventory_ReleaseIsInverseOfReserve(t *testing.T) {
	inventory, err := NewInventory(models.GenerateUUID(), 10)
	require.NoError(t, err)

	require.NoError(t, inventory.Reserve(4))
	require.NoError(t, inventory.Release(4))

	assert.Equal(t, 10, inventory.AvailableQuantity)
	assert.Equal(t, 0, inventory.ReservedQuantity)
}

func TestInventory_CommitReservationReducesTotalStock(t *testing.T) {
	inventory, err := NewInventory(models.GenerateUUID(), 10)
	require.NoError(t, err)

	require.NoError(t, inventory.Reserve(4))
	require.NoError(t, inventory.CommitReservation(4))

	// commit converts the hold into a permanent deduction
	assert.Equal(t, 6, inventory.AvailableQuantity)
	assert.Equal(t, 0, inventory.ReservedQuantity)
}

func TestInventory_AddStock(t *testing.T) {
	inventory, err := NewInventory(models.GenerateUUID(), 0)
	require.NoError(t, err)

	require.NoError(t, inventory.AddStock(7))
	assert.Equal(t, 7, inventory.AvailableQuantity)

	assert.Error(t, inventory.AddStock(0))
	assert.Error(t, inventory.AddStock(-1))
}
