package application

import (
	"context"

	"github.com/cartena/fulfillment-system/inventory-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/rs/zerolog"
)

// ItemCommand is one product/quantity line of a batch command
type ItemCommand struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// InventoryResponse is the wire representation of an inventory row
type InventoryResponse struct {
	ProductID         string `json:"product_id"`
	AvailableQuantity int    `json:"available_quantity"`
	ReservedQuantity  int    `json:"reserved_quantity"`
}

func toInventoryResponse(inventory *domain.Inventory) InventoryResponse {
	return InventoryResponse{
		ProductID:         inventory.ProductID.String(),
		AvailableQuantity: inventory.AvailableQuantity,
		ReservedQuantity:  inventory.ReservedQuantity,
	}
}

// parseItems validates a batch command's items and converts them to domain
// quantities. Duplicate product IDs are rejected so a batch touches every row
// at most once.
func parseItems(items []ItemCommand) ([]domain.ItemQuantity, error) {
	if len(items) == 0 {
		return nil, errs.Validation("at least one item is required")
	}

	seen := make(map[models.ID]bool, len(items))
	result := make([]domain.ItemQuantity, 0, len(items))

	for _, item := range items {
		productID, err := models.NewID(item.ProductID)
		if err != nil {
			return nil, errs.Validation("invalid product ID %q", item.ProductID)
		}
		if item.Quantity <= 0 {
			return nil, errs.Validation("quantity for product %s must be positive", item.ProductID)
		}
		if seen[productID] {
			return nil, errs.Validation("duplicate product ID %s", item.ProductID)
		}
		seen[productID] = true

		result = append(result, domain.ItemQuantity{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	return result, nil
}

func productIDs(items []domain.ItemQuantity) []models.ID {
	ids := make([]models.ID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	return ids
}

// publishStockEvents publishes the events recorded on the rows. The local
// transaction already committed, so a publish failure is logged rather than
// surfaced to the caller.
func publishStockEvents(ctx context.Context, publisher events.Publisher, logger zerolog.Logger, inventories []*domain.Inventory) {
	var all []*events.Event
	for _, inventory := range inventories {
		all = append(all, inventory.Events()...)
		inventory.ClearEvents()
	}
	if len(all) == 0 {
		return
	}
	if err := publisher.Publish(ctx, all...); err != nil {
		logger.Error().Err(err).Msg("failed to publish stock events")
	}
}
