package application

import (
	"context"

	"github.com/cartena/fulfillment-system/inventory-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/rs/zerolog"
)

// ReserveStockCommand requests a provisional hold for every item
type ReserveStockCommand struct {
	Items []ItemCommand `json:"items"`
}

// ReserveStockResponse returns the updated inventory rows
type ReserveStockResponse struct {
	Inventories []InventoryResponse `json:"inventories"`
}

// ReserveStock reserves stock for a whole batch of items inside one database
// transaction. The batch is all-or-nothing: if any item cannot be reserved
// (insufficient stock or missing row) no row is mutated.
type ReserveStock struct {
	inventoryRepository domain.InventoryRepository
	eventPublisher      events.Publisher
	logger              zerolog.Logger
}

// NewReserveStock creates a new ReserveStock use case
func NewReserveStock(
	inventoryRepository domain.InventoryRepository,
	eventPublisher events.Publisher,
	logger zerolog.Logger,
) *ReserveStock {
	return &ReserveStock{
		inventoryRepository: inventoryRepository,
		eventPublisher:      eventPublisher,
		logger:              logger,
	}
}

// Execute executes the reserve stock use case
func (uc *ReserveStock) Execute(ctx context.Context, cmd *ReserveStockCommand) (*ReserveStockResponse, error) {
	items, err := parseItems(cmd.Items)
	if err != nil {
		return nil, err
	}

	var updated []*domain.Inventory

	err = uc.inventoryRepository.WithinTx(ctx, func(tx domain.InventoryTx) error {
		rows, err := tx.Lock(ctx, productIDs(items))
		if err != nil {
			return err
		}

		// Validate and mutate every row before saving anything: a failing
		// item aborts the transaction with no row written.
		for _, item := range items {
			row, ok := rows[item.ProductID]
			if !ok {
				return errs.NotFound("inventory for product %s not found", item.ProductID)
			}
			if err := row.Reserve(item.Quantity); err != nil {
				return err
			}
		}

		for _, item := range items {
			if err := tx.Save(ctx, rows[item.ProductID]); err != nil {
				return err
			}
		}

		updated = make([]*domain.Inventory, len(items))
		for i, item := range items {
			updated[i] = rows[item.ProductID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishStockEvents(ctx, uc.eventPublisher, uc.logger, updated)

	response := &ReserveStockResponse{Inventories: make([]InventoryResponse, len(updated))}
	for i, inventory := range updated {
		response.Inventories[i] = toInventoryResponse(inventory)
	}
	return response, nil
}
