package application

import (
	"context"

	"github.com/cartena/fulfillment-system/inventory-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/rs/zerolog"
)

// AddStockCommand increases a single product's available quantity
type AddStockCommand struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddStockResponse returns the updated inventory row
type AddStockResponse struct {
	Inventory InventoryResponse `json:"inventory"`
}

// AddStock adds stock to one product, creating the inventory row when the
// product has none yet.
type AddStock struct {
	inventoryRepository domain.InventoryRepository
	eventPublisher      events.Publisher
	logger              zerolog.Logger
}

// NewAddStock creates a new AddStock use case
func NewAddStock(
	inventoryRepository domain.InventoryRepository,
	eventPublisher events.Publisher,
	logger zerolog.Logger,
) *AddStock {
	return &AddStock{
		inventoryRepository: inventoryRepository,
		eventPublisher:      eventPublisher,
		logger:              logger,
	}
}

// Execute executes the add stock use case
func (uc *AddStock) Execute(ctx context.Context, cmd *AddStockCommand) (*AddStockResponse, error) {
	productID, err := models.NewID(cmd.ProductID)
	if err != nil {
		return nil, errs.Validation("invalid product ID %q", cmd.ProductID)
	}
	if cmd.Quantity <= 0 {
		return nil, errs.Validation("quantity must be positive")
	}

	var updated *domain.Inventory

	err = uc.inventoryRepository.WithinTx(ctx, func(tx domain.InventoryTx) error {
		rows, err := tx.Lock(ctx, []models.ID{productID})
		if err != nil {
			return err
		}

		row, ok := rows[productID]
		if !ok {
			row, err = domain.NewInventory(productID, cmd.Quantity)
			if err != nil {
				return err
			}
			updated = row
			return tx.Insert(ctx, row)
		}

		if err := row.AddStock(cmd.Quantity); err != nil {
			return err
		}
		updated = row
		return tx.Save(ctx, row)
	})
	if err != nil {
		return nil, err
	}

	publishStockEvents(ctx, uc.eventPublisher, uc.logger, []*domain.Inventory{updated})

	return &AddStockResponse{Inventory: toInventoryResponse(updated)}, nil
}
