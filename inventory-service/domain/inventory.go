package domain

import (
	"context"

	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/pkg/errors"
)

// Inventory is the per-product stock row. AvailableQuantity and
// ReservedQuantity only change through AddStock / Reserve /
// CommitReservation / Release; their sum decreases only via commit and
// increases only via AddStock.
type Inventory struct {
	ProductID         models.ID `json:"product_id"`
	AvailableQuantity int       `json:"available_quantity"`
	ReservedQuantity  int       `json:"reserved_quantity"`
	Timestamps        models.Timestamps
	Version           models.Version

	events []*events.Event
}

// NewInventory creates an inventory row for a product
func NewInventory(productID models.ID, initialQuantity int) (*Inventory, error) {
	if initialQuantity < 0 {
		return nil, errors.New("initial quantity cannot be negative")
	}

	inventory := &Inventory{
		ProductID:         productID,
		AvailableQuantity: initialQuantity,
		ReservedQuantity:  0,
		Timestamps:        models.NewTimestamps(),
		Version:           models.NewVersion(),
	}

	if initialQuantity > 0 {
		inventory.recordEvent(events.NewEvent(productID, events.StockAddedEvent, StockAddedData{
			ProductID: productID,
			Quantity:  initialQuantity,
			Available: inventory.AvailableQuantity,
		}))
	}

	return inventory, nil
}

// AddStock increases available quantity
func (i *Inventory) AddStock(quantity int) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}

	i.AvailableQuantity += quantity
	i.touch()

	i.recordEvent(events.NewEvent(i.ProductID, events.StockAddedEvent, StockAddedData{
		ProductID: i.ProductID,
		Quantity:  quantity,
		Available: i.AvailableQuantity,
	}))

	return nil
}

// Reserve moves quantity from available to reserved. It fails without
// mutating when available stock is insufficient.
func (i *Inventory) Reserve(quantity int) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}

	if i.AvailableQuantity < quantity {
		return errs.Conflict("insufficient stock for product %s: available %d, requested %d",
			i.ProductID, i.AvailableQuantity, quantity)
	}

	i.AvailableQuantity -= quantity
	i.ReservedQuantity += quantity
	i.touch()

	i.recordEvent(events.NewEvent(i.ProductID, events.StockReservedEvent, StockMovementData{
		ProductID: i.ProductID,
		Quantity:  quantity,
		Available: i.AvailableQuantity,
		Reserved:  i.ReservedQuantity,
	}))

	return nil
}

// CommitReservation converts a hold into a permanent deduction. Available was
// already decremented at reserve time. The caller guarantees a matching
// reserve for the quantity; beyond row existence no re-validation happens.
func (i *Inventory) CommitReservation(quantity int) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}

	i.ReservedQuantity -= quantity
	i.touch()

	i.recordEvent(events.NewEvent(i.ProductID, events.StockCommittedEvent, StockMovementData{
		ProductID: i.ProductID,
		Quantity:  quantity,
		Available: i.AvailableQuantity,
		Reserved:  i.ReservedQuantity,
	}))

	return nil
}

// Release is the exact inverse of Reserve: the hold moves back to available
func (i *Inventory) Release(quantity int) error {
	if quantity <= 0 {
		return errors.New("quantity must be positive")
	}

	i.ReservedQuantity -= quantity
	i.AvailableQuantity += quantity
	i.touch()

	i.recordEvent(events.NewEvent(i.ProductID, events.StockReleasedEvent, StockMovementData{
		ProductID: i.ProductID,
		Quantity:  quantity,
		Available: i.AvailableQuantity,
		Reserved:  i.ReservedQuantity,
	}))

	return nil
}

func (i *Inventory) touch() {
	i.Timestamps = i.Timestamps.Update()
	i.Version = i.Version.Update()
}

// Events returns recorded domain events
func (i *Inventory) Events() []*events.Event {
	return i.events
}

// ClearEvents clears domain events
func (i *Inventory) ClearEvents() {
	i.events = nil
}

func (i *Inventory) recordEvent(event *events.Event) {
	i.events = append(i.events, event)
}

// ItemQuantity is one line of a batch operation
type ItemQuantity struct {
	ProductID models.ID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Event payloads

type StockAddedData struct {
	ProductID models.ID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Available int       `json:"available"`
}

type StockMovementData struct {
	ProductID models.ID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Available int       `json:"available"`
	Reserved  int       `json:"reserved"`
}

// InventoryRepository is the storage port. Batch mutations run through
// WithinTx so every touched row is read and written inside one database
// transaction with the rows locked.
type InventoryRepository interface {
	FindAll(ctx context.Context) ([]*Inventory, error)
	FindByProductID(ctx context.Context, productID models.ID) (*Inventory, error)
	WithinTx(ctx context.Context, fn func(tx InventoryTx) error) error
}

// InventoryTx is the transactional view used by batch operations. Lock
// acquires row locks for all given products in a deterministic order.
type InventoryTx interface {
	Lock(ctx context.Context, productIDs []models.ID) (map[models.ID]*Inventory, error)
	Save(ctx context.Context, inventory *Inventory) error
	Insert(ctx context.Context, inventory *Inventory) error
}
