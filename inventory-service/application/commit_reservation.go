package application

import (
	"context"

	"github.com/cartena/fulfillment-system/inventory-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/rs/zerolog"
)

// CommitReservationCommand converts previously reserved holds into permanent
// deductions
type CommitReservationCommand struct {
	Items []ItemCommand `json:"items"`
}

// CommitReservationResponse returns the updated inventory rows
type CommitReservationResponse struct {
	Inventories []InventoryResponse `json:"inventories"`
}

// CommitReservation commits reservations for a batch of items. It fails when
// any referenced row is missing; the caller guarantees a matching reserve for
// every quantity, so reserved amounts are not re-validated.
type CommitReservation struct {
	inventoryRepository domain.InventoryRepository
	eventPublisher      events.Publisher
	logger              zerolog.Logger
}

// NewCommitReservation creates a new CommitReservation use case
func NewCommitReservation(
	inventoryRepository domain.InventoryRepository,
	eventPublisher events.Publisher,
	logger zerolog.Logger,
) *CommitReservation {
	return &CommitReservation{
		inventoryRepository: inventoryRepository,
		eventPublisher:      eventPublisher,
		logger:              logger,
	}
}

// Execute executes the commit reservation use case
func (uc *CommitReservation) Execute(ctx context.Context, cmd *CommitReservationCommand) (*CommitReservationResponse, error) {
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
			if err := row.CommitReservation(item.Quantity); err != nil {
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

	response := &CommitReservationResponse{Inventories: make([]InventoryResponse, len(updated))}
	for i, inventory := range updated {
		response.Inventories[i] = toInventoryResponse(inventory)
	}
	return response, nil
}
