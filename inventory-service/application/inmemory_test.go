package application

import (
	"context"
	"sync"

	"github.com/cartena/fulfillment-system/inventory-service/domain"
	"github.com/cartena/fulfillment-system/shared/events"
	"github.com/cartena/fulfillment-system/shared/models"
)

// inMemoryInventoryRepository backs the use cases in tests. Mutations inside
// WithinTx are staged on copies and applied only when fn succeeds, and the
// whole transaction runs under a mutex, mirroring the transactional and
// row-locking behavior of the postgres repository.
type inMemoryInventoryRepository struct {
	mu   sync.Mutex
	rows map[models.ID]*domain.Inventory
}

func newInMemoryInventoryRepository(rows ...*domain.Inventory) *inMemoryInventoryRepository {
	repo := &inMemoryInventoryRepository{rows: make(map[models.ID]*domain.Inventory)}
	for _, row := range rows {
		repo.rows[row.ProductID] = row
	}
	return repo
}

func (r *inMemoryInventoryRepository) FindAll(ctx context.Context) ([]*domain.Inventory, error) {
	result := make([]*domain.Inventory, 0, len(r.rows))
	for _, row := range r.rows {
		result = append(result, row)
	}
	return result, nil
}

func (r *inMemoryInventoryRepository) FindByProductID(ctx context.Context, productID models.ID) (*domain.Inventory, error) {
	return r.rows[productID], nil
}

func (r *inMemoryInventoryRepository) WithinTx(ctx context.Context, fn func(tx domain.InventoryTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &inMemoryInventoryTx{repo: r, staged: make(map[models.ID]*domain.Inventory)}
	if err := fn(tx); err != nil {
		return err
	}
	for id, row := range tx.staged {
		r.rows[id] = row
	}
	return nil
}

type inMemoryInventoryTx struct {
	repo   *inMemoryInventoryRepository
	staged map[models.ID]*domain.Inventory
}

func (t *inMemoryInventoryTx) Lock(ctx context.Context, productIDs []models.ID) (map[models.ID]*domain.Inventory, error) {
	rows := make(map[models.ID]*domain.Inventory)
	for _, id := range productIDs {
		if row, ok := t.repo.rows[id]; ok {
			copied := *row
			rows[id] = &copied
		}
	}
	return rows, nil
}

func (t *inMemoryInventoryTx) Save(ctx context.Context, inventory *domain.Inventory) error {
	t.staged[inventory.ProductID] = inventory
	return nil
}

func (t *inMemoryInventoryTx) Insert(ctx context.Context, inventory *domain.Inventory) error {
	t.staged[inventory.ProductID] = inventory
	return nil
}

// nopPublisher discards published events
type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	return nil
}

func mustInventory(productID models.ID, available, reserved int) *domain.Inventory {
	inventory, err := domain.NewInventory(productID, available)
	if err != nil {
		panic(err)
	}
	inventory.ReservedQuantity = reserved
	inventory.ClearEvents()
	return inventory
}
