package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/cartena/fulfillment-system/order-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.OrderRepository = (*PostgresOrderRepository)(nil)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *sqlx.DB
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// postgresOrder represents an order row in the database
type postgresOrder struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Status      string    `db:"status"`
	TotalAmount int64     `db:"total_amount"`
	Currency    string    `db:"currency"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	Version     int       `db:"version"`
}

// postgresOrderItem represents an order line in the database
type postgresOrderItem struct {
	OrderID   string `db:"order_id"`
	Position  int    `db:"position"`
	ProductID string `db:"product_id"`
	Quantity  int    `db:"quantity"`
	UnitPrice int64  `db:"unit_price"`
}

// Save upserts the order row and inserts its items on first save. Items are
// immutable once created, so repeated saves only touch the order row; the
// version column guards against concurrent status writes.
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := r.save(ctx, tx, order); err != nil {
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

func (r *PostgresOrderRepository) save(ctx context.Context, tx *sqlx.Tx, order *domain.Order) error {
	orderQuery := `
		INSERT INTO orders (id, user_id, status, total_amount, currency, created_at, updated_at, version)
		VALUES (:id, :user_id, :status, :total_amount, :currency, :created_at, :updated_at, :version)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    updated_at = EXCLUDED.updated_at,
		    version = EXCLUDED.version
		WHERE orders.version < EXCLUDED.version`

	result, err := tx.NamedExecContext(ctx, orderQuery, &postgresOrder{
		ID:          order.ID.String(),
		UserID:      order.UserID.String(),
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount.Amount,
		Currency:    order.TotalAmount.Currency,
		CreatedAt:   order.Timestamps.CreatedAt,
		UpdatedAt:   order.Timestamps.UpdatedAt,
		Version:     order.Version.Value,
	})
	if err != nil {
		return errors.Wrap(err, "failed to save order")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return errs.Conflict("order %s was modified concurrently", order.ID)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, position, product_id, quantity, unit_price)
		VALUES (:order_id, :position, :product_id, :quantity, :unit_price)
		ON CONFLICT (order_id, position) DO NOTHING`

	for i, item := range order.Items {
		_, err := tx.NamedExecContext(ctx, itemQuery, &postgresOrderItem{
			OrderID:   order.ID.String(),
			Position:  i,
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.PriceAtPurchase.Amount,
		})
		if err != nil {
			return errors.Wrap(err, "failed to save order item")
		}
	}
	return nil
}

// FindByID finds an order and its items, returning nil when absent
func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	query := `
		SELECT id, user_id, status, total_amount, currency, created_at, updated_at, version
		FROM orders
		WHERE id = $1`

	var pgOrder postgresOrder
	err := r.db.GetContext(ctx, &pgOrder, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	order, err := toDomainOrder(&pgOrder)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// FindByUserID returns the orders of a user, newest first
func (r *PostgresOrderRepository) FindByUserID(ctx context.Context, userID models.ID) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, status, total_amount, currency, created_at, updated_at, version
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var pgOrders []postgresOrder
	if err := r.db.SelectContext(ctx, &pgOrders, query, userID.String()); err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	orders := make([]*domain.Order, len(pgOrders))
	for i := range pgOrders {
		order, err := toDomainOrder(&pgOrders[i])
		if err != nil {
			return nil, err
		}
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
		orders[i] = order
	}
	return orders, nil
}

func (r *PostgresOrderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT order_id, position, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`

	var pgItems []postgresOrderItem
	if err := r.db.SelectContext(ctx, &pgItems, query, order.ID.String()); err != nil {
		return errors.Wrap(err, "failed to load order items")
	}

	order.Items = make([]domain.OrderItem, len(pgItems))
	for i, pgItem := range pgItems {
		productID, err := models.NewID(pgItem.ProductID)
		if err != nil {
			return errors.Wrap(err, "invalid product ID")
		}
		order.Items[i] = domain.OrderItem{
			ProductID:       productID,
			Quantity:        pgItem.Quantity,
			PriceAtPurchase: models.NewMoney(pgItem.UnitPrice, order.TotalAmount.Currency),
		}
	}
	return nil
}

func toDomainOrder(pgOrder *postgresOrder) (*domain.Order, error) {
	id, err := models.NewID(pgOrder.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}
	userID, err := models.NewID(pgOrder.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	return &domain.Order{
		ID:          id,
		UserID:      userID,
		Status:      domain.OrderStatus(pgOrder.Status),
		TotalAmount: models.NewMoney(pgOrder.TotalAmount, pgOrder.Currency),
		Timestamps: models.Timestamps{
			CreatedAt: pgOrder.CreatedAt,
			UpdatedAt: pgOrder.UpdatedAt,
		},
		Version: models.Version{Value: pgOrder.Version},
	}, nil
}
