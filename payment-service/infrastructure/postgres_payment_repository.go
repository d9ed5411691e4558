package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/cartena/fulfillment-system/payment-service/domain"
	"github.com/cartena/fulfillment-system/shared/errs"
	"github.com/cartena/fulfillment-system/shared/models"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var _ domain.PaymentRepository = (*PostgresPaymentRepository)(nil)

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *sqlx.DB
}

// NewPostgresPaymentRepository creates a new PostgresPaymentRepository
func NewPostgresPaymentRepository(db *sqlx.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// postgresPayment represents a payment transaction row in the database
type postgresPayment struct {
	ID                string         `db:"id"`
	OrderID           string         `db:"order_id"`
	UserID            string         `db:"user_id"`
	Amount            int64          `db:"amount"`
	Currency          string         `db:"currency"`
	Status            string         `db:"status"`
	ExternalPaymentID sql.NullString `db:"external_payment_id"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
	Version           int            `db:"version"`
}

// Save upserts a transaction. The unique constraint on order_id enforces at
// most one transaction per order; on update the version column guards
// against concurrent modification.
func (r *PostgresPaymentRepository) Save(ctx context.Context, transaction *domain.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (
			id, order_id, user_id, amount, currency, status, external_payment_id, created_at, updated_at, version
		) VALUES (
			:id, :order_id, :user_id, :amount, :currency, :status, :external_payment_id, :created_at, :updated_at, :version
		)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    external_payment_id = EXCLUDED.external_payment_id,
		    updated_at = EXCLUDED.updated_at,
		    version = EXCLUDED.version
		WHERE payment_transactions.version < EXCLUDED.version`

	result, err := r.db.NamedExecContext(ctx, query, toPostgres(transaction))
	if err != nil {
		return errors.Wrap(err, "failed to save payment transaction")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if affected == 0 {
		return errs.Conflict("payment transaction %s was modified concurrently", transaction.ID)
	}
	return nil
}

// FindByID finds a transaction by its ID, returning nil when absent
func (r *PostgresPaymentRepository) FindByID(ctx context.Context, id models.ID) (*domain.PaymentTransaction, error) {
	query := `
		SELECT id, order_id, user_id, amount, currency, status, external_payment_id, created_at, updated_at, version
		FROM payment_transactions
		WHERE id = $1`

	return r.findOne(ctx, query, id.String())
}

// FindByOrderID finds the transaction for an order, returning nil when the
// order never charged.
func (r *PostgresPaymentRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.PaymentTransaction, error) {
	query := `
		SELECT id, order_id, user_id, amount, currency, status, external_payment_id, created_at, updated_at, version
		FROM payment_transactions
		WHERE order_id = $1`

	return r.findOne(ctx, query, orderID.String())
}

func (r *PostgresPaymentRepository) findOne(ctx context.Context, query string, arg string) (*domain.PaymentTransaction, error) {
	var pgPayment postgresPayment
	err := r.db.GetContext(ctx, &pgPayment, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find payment transaction")
	}
	return toDomain(&pgPayment)
}

func toPostgres(transaction *domain.PaymentTransaction) *postgresPayment {
	pgPayment := &postgresPayment{
		ID:        transaction.ID.String(),
		OrderID:   transaction.OrderID.String(),
		UserID:    transaction.UserID.String(),
		Amount:    transaction.Amount.Amount,
		Currency:  transaction.Amount.Currency,
		Status:    string(transaction.Status),
		CreatedAt: transaction.Timestamps.CreatedAt,
		UpdatedAt: transaction.Timestamps.UpdatedAt,
		Version:   transaction.Version.Value,
	}
	if transaction.ExternalPaymentID != nil {
		pgPayment.ExternalPaymentID = sql.NullString{String: *transaction.ExternalPaymentID, Valid: true}
	}
	return pgPayment
}

func toDomain(pgPayment *postgresPayment) (*domain.PaymentTransaction, error) {
	id, err := models.NewID(pgPayment.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid transaction ID")
	}
	orderID, err := models.NewID(pgPayment.OrderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}
	userID, err := models.NewID(pgPayment.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid user ID")
	}

	transaction := &domain.PaymentTransaction{
		ID:      id,
		OrderID: orderID,
		UserID:  userID,
		Amount:  models.NewMoney(pgPayment.Amount, pgPayment.Currency),
		Status:  domain.PaymentStatus(pgPayment.Status),
		Timestamps: models.Timestamps{
			CreatedAt: pgPayment.CreatedAt,
			UpdatedAt: pgPayment.UpdatedAt,
		},
		Version: models.Version{Value: pgPayment.Version},
	}
	if pgPayment.ExternalPaymentID.Valid {
		externalPaymentID := pgPayment.ExternalPaymentID.String
		transaction.ExternalPaymentID = &externalPaymentID
	}
	return transaction, nil
}
