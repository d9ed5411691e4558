package application

import (
	"context"

	"github.com/cartena/fulfillment-system/inventory-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/models"
)

// GetInventoryQuery fetches one product's inventory row
type GetInventoryQuery struct {
	ProductID string `json:"product_id"`
}

// GetInventory use case
type GetInventory struct {
	inventoryRepository domain.InventoryRepository
}

// NewGetInventory creates a new GetInventory use case
func NewGetInventory(inventoryRepository domain.InventoryRepository) *GetInventory {
	return &GetInventory{inventoryRepository: inventoryRepository}
}

// Execute executes the get inventory query
func (uc *GetInventory) Execute(ctx context.Context, query *GetInventoryQuery) (*InventoryResponse, error) {
	productID, err := models.NewID(query.ProductID)
	if err != nil {
		return nil, errs.Validation("invalid product ID %q", query.ProductID)
	}

	inventory, err := uc.inventoryRepository.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if inventory == nil {
		return nil, errs.NotFound("inventory for product %s not found", productID)
	}

	response := toInventoryResponse(inventory)
	return &response, nil
}

// ListInventories use case returns all inventory rows
type ListInventories struct {
	inventoryRepository domain.InventoryRepository
}

// NewListInventories creates a new ListInventories use case
func NewListInventories(inventoryRepository domain.InventoryRepository) *ListInventories {
	return &ListInventories{inventoryRepository: inventoryRepository}
}

// Execute executes the list inventories query
func (uc *ListInventories) Execute(ctx context.Context) ([]InventoryResponse, error) {
	inventories, err := uc.inventoryRepository.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]InventoryResponse, len(inventories))
	for i, inventory := range inventories {
		result[i] = toInventoryResponse(inventory)
	}
	return result, nil
}
