package application

import (
	"context"

	"github.com/cartena/fulfillment-system/inventory-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/rs/zerolog"
)

// ReleaseReservationCommand releases previously reserved holds back to
// available stock
type ReleaseReservationCommand struct {
	Items []ItemCommand `json:"items"`
}

// ReleaseReservationResponse returns the updated inventory rows
type ReleaseReservationResponse struct {
	Inventories []InventoryResponse `json:"inventories"`
}

// ReleaseReservation is the exact inverse of ReserveStock for a batch of
// items: every hold moves back to available inside one transaction.
type ReleaseReservation struct {
	inventoryRepository domain.InventoryRepository
	eventPublisher      events.Publisher
	logger              zerolog.Logger
}

// NewReleaseReservation creates a new ReleaseReservation use case
func NewReleaseReservation(
	inventoryRepository domain.InventoryRepository,
	eventPublisher events.Publisher,
	logger zerolog.Logger,
) *ReleaseReservation {
	return &ReleaseReservation{
		inventoryRepository: inventoryRepository,
		eventPublisher:      eventPublisher,
		logger:              logger,
	}
}

// Execute executes the release reservation use case
func (uc *ReleaseReservation) Execute(ctx context.Context, cmd *ReleaseReservationCommand) (*ReleaseReservationResponse, error) {
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

		for _, item := range items {
			row, ok := rows[item.ProductID]
			if !ok {
				return errs.NotFound("inventory for product %s not found", item.ProductID)
			}
			if err := row.Release(item.Quantity); err != nil {
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

	response := &ReleaseReservationResponse{Inventories: make([]InventoryResponse, len(updated))}
	for i, inventory := range updated {
		response.Inventories[i] = toInventoryResponse(inventory)
	}
	return response, nil
}
