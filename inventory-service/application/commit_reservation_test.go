package application

import (
	"context"
	"testing"

	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitReservation_Execute_ConvertsHoldIntoDeduction(t *testing.T) {
	// available was already decremented when the hold was taken
	repo := newInMemoryInventoryRepository(mustInventory(productOne, 5, 5))
	uc := NewCommitReservation(repo, nopPublisher{}, zerolog.Nop())

	response, err := uc.Execute(context.Background(), &CommitReservationCommand{
		Items: []ItemCommand{{ProductID: productOne.String(), Quantity: 5}},
	})

	require.NoError(t, err)
	assert.Equal(t, 5, response.Inventories[0].AvailableQuantity)
	assert.Equal(t, 0, response.Inventories[0].ReservedQuantity)

	row := repo.rows[productOne]
	assert.Equal(t, 5, row.AvailableQuantity)
	assert.Equal(t, 0, row.ReservedQuantity)
}

func TestCommitReservation_Execute_MissingRowFailsBatch(t *testing.T) {
	repo := newInMemoryInventoryRepository(mustInventory(productOne, 5, 5))
	uc := NewCommitReservation(repo, nopPublisher{}, zerolog.Nop())

	_, err := uc.Execute(context.Background(), &CommitReservationCommand{
		Items: []ItemCommand{
			{ProductID: productOne.String(), Quantity: 5},
			{ProductID: productTwo.String(), Quantity: 1},
		},
	})

	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	// the present row stays untouched
	assert.Equal(t, 5, repo.rows[productOne].ReservedQuantity)
}

func TestAddStock_Execute(t *testing.T) {
	t.Run("adds to an existing row", func(t *testing.T) {
		repo := newInMemoryInventoryRepository(mustInventory(productOne, 5, 1))
		uc := NewAddStock(repo, nopPublisher{}, zerolog.Nop())

		response, err := uc.Execute(context.Background(), &AddStockCommand{
			ProductID: productOne.String(),
			Quantity:  10,
		})

		require.NoError(t, err)
		assert.Equal(t, 15, response.Inventory.AvailableQuantity)
		assert.Equal(t, 1, response.Inventory.ReservedQuantity)
	})

	t.Run("creates the row for a new product", func(t *testing.T) {
		repo := newInMemoryInventoryRepository()
		uc := NewAddStock(repo, nopPublisher{}, zerolog.Nop())

		response, err := uc.Execute(context.Background(), &AddStockCommand{
			ProductID: productTwo.String(),
			Quantity:  3,
		})

		require.NoError(t, err)
		assert.Equal(t, 3, response.Inventory.AvailableQuantity)
		assert.Equal(t, 0, response.Inventory.ReservedQuantity)
		assert.NotNil(t, repo.rows[productTwo])
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		repo := newInMemoryInventoryRepository()
		uc := NewAddStock(repo, nopPublisher{}, zerolog.Nop())

		_, err := uc.Execute(context.Background(), &AddStockCommand{
			ProductID: productOne.String(),
			Quantity:  0,
		})

		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	})
}
