package infrastructure

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/cartena/fulfillment-system/inventory-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

var _ domain.InventoryRepository = (*PostgresInventoryRepository)(nil)

// PostgresInventoryRepository implements InventoryRepository using PostgreSQL
type PostgresInventoryRepository struct {
	db *sqlx.DB
}

// NewPostgresInventoryRepository creates a new PostgresInventoryRepository
func NewPostgresInventoryRepository(db *sqlx.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{db: db}
}

// postgresInventory represents an inventory row in the database
type postgresInventory struct {
	ProductID         string    `db:"product_id"`
	AvailableQuantity int       `db:"available_quantity"`
	ReservedQuantity  int       `db:"reserved_quantity"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
	Version           int       `db:"version"`
}

// FindAll returns all inventory rows
func (r *PostgresInventoryRepository) FindAll(ctx context.Context) ([]*domain.Inventory, error) {
	query := `
		SELECT product_id, available_quantity, reserved_quantity, created_at, updated_at, version
		FROM inventories
		ORDER BY product_id`

	var pgInventories []postgresInventory
	if err := r.db.SelectContext(ctx, &pgInventories, query); err != nil {
		return nil, errors.Wrap(err, "failed to list inventories")
	}

	inventories := make([]*domain.Inventory, len(pgInventories))
	for i, pgInventory := range pgInventories {
		inventory, err := toDomain(&pgInventory)
		if err != nil {
			return nil, err
		}
		inventories[i] = inventory
	}
	return inventories, nil
}

// FindByProductID finds an inventory row by product ID, returning nil when
// the product has none.
func (r *PostgresInventoryRepository) FindByProductID(ctx context.Context, productID models.ID) (*domain.Inventory, error) {
	query := `
		SELECT product_id, available_quantity, reserved_quantity, created_at, updated_at, version
		FROM inventories
		WHERE product_id = $1`

	var pgInventory postgresInventory
	err := r.db.GetContext(ctx, &pgInventory, query, productID.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find inventory")
	}

	return toDomain(&pgInventory)
}

// WithinTx runs fn inside one database transaction. Row locks taken via
// Lock are held until commit or rollback, which serializes concurrent batch
// operations touching overlapping products.
func (r *PostgresInventoryRepository) WithinTx(ctx context.Context, fn func(tx domain.InventoryTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := fn(&postgresInventoryTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

type postgresInventoryTx struct {
	tx *sqlx.Tx
}

// Lock loads and locks the rows of all given products. IDs are sorted before
// locking so concurrent overlapping batches acquire locks in the same order
// and cannot deadlock.
func (t *postgresInventoryTx) Lock(ctx context.Context, productIDs []models.ID) (map[models.ID]*domain.Inventory, error) {
	ids := make([]string, len(productIDs))
	for i, id := range productIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)

	query := `
		SELECT product_id, available_quantity, reserved_quantity, created_at, updated_at, version
		FROM inventories
		WHERE product_id = ANY($1)
		ORDER BY product_id
		FOR UPDATE`

	var pgInventories []postgresInventory
	if err := t.tx.SelectContext(ctx, &pgInventories, query, pq.Array(ids)); err != nil {
		return nil, errors.Wrap(err, "failed to lock inventory rows")
	}

	rows := make(map[models.ID]*domain.Inventory, len(pgInventories))
	for i := range pgInventories {
		inventory, err := toDomain(&pgInventories[i])
		if err != nil {
			return nil, err
		}
		rows[inventory.ProductID] = inventory
	}
	return rows, nil
}

// Save updates a locked row
func (t *postgresInventoryTx) Save(ctx context.Context, inventory *domain.Inventory) error {
	query := `
		UPDATE inventories
		SET available_quantity = :available_quantity,
		    reserved_quantity = :reserved_quantity,
		    updated_at = :updated_at,
		    version = :version
		WHERE product_id = :product_id AND version = :old_version`

	result, err := t.tx.NamedExecContext(ctx, query, map[string]interface{}{
		"product_id":         inventory.ProductID.String(),
		"available_quantity": inventory.AvailableQuantity,
		"reserved_quantity":  inventory.ReservedQuantity,
		"updated_at":         inventory.Timestamps.UpdatedAt,
		"version":            inventory.Version.Value,
		"old_version":        inventory.Version.Value - 1,
	})
	if err != nil {
		return errors.Wrap(err, "failed to update inventory")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return errs.Conflict("inventory for product %s was modified concurrently", inventory.ProductID)
	}
	return nil
}

// Insert creates a new inventory row
func (t *postgresInventoryTx) Insert(ctx context.Context, inventory *domain.Inventory) error {
	query := `
		INSERT INTO inventories (
			product_id, available_quantity, reserved_quantity, created_at, updated_at, version
		) VALUES (
			:product_id, :available_quantity, :reserved_quantity, :created_at, :updated_at, :version
		)`

	_, err := t.tx.NamedExecContext(ctx, query, &postgresInventory{
		ProductID:         inventory.ProductID.String(),
		AvailableQuantity: inventory.AvailableQuantity,
		ReservedQuantity:  inventory.ReservedQuantity,
		CreatedAt:         inventory.Timestamps.CreatedAt,
		UpdatedAt:         inventory.Timestamps.UpdatedAt,
		Version:           inventory.Version.Value,
	})
	if err != nil {
		return errors.Wrap(err, "failed to insert inventory")
	}
	return nil
}

func toDomain(pgInventory *postgresInventory) (*domain.Inventory, error) {
	productID, err := models.NewID(pgInventory.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product ID")
	}

	return &domain.Inventory{
		ProductID:         productID,
		AvailableQuantity: pgInventory.AvailableQuantity,
		ReservedQuantity:  pgInventory.ReservedQuantity,
		Timestamps: models.Timestamps{
			CreatedAt: pgInventory.CreatedAt,
			UpdatedAt: pgInventory.UpdatedAt,
		},
		Version: models.Version{Value: pgInventory.Version},
	}, nil
}
