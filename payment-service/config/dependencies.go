package config

import (
	"fmt"

	"github.com/cartena/fulfillment-system/payment-service/application"
	"github.com/cartena/fulfillment-system/payment-service/handlers"
	"github.com/cartena/fulfillment-system/payment-service/infrastructure"
	sharedinfra "github.com/cartena/fulfillment-system/shared/infrastructure"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	PaymentRepository *infrastructure.PostgresPaymentRepository

	// Gateway
	Gateway *infrastructure.SimulatedGateway

	// Use Cases
	ChargePayment     *application.ChargePayment
	RefundPayment     *application.RefundPayment
	GetPaymentByOrder *application.GetPaymentByOrder

	// HTTP Handlers
	PaymentHandlers *handlers.PaymentHandlers

	// Infrastructure
	EventPublisher *sharedinfra.SNSPublisherAdapter
}

func BuildDependencies(config *Config, logger zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	deps.DB = db

	eventPublisher, err := sharedinfra.NewSNSPublisherAdapter(config.AWS.SNSTopicArn)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS publisher: %w", err)
	}
	deps.EventPublisher = eventPublisher

	deps.PaymentRepository = infrastructure.NewPostgresPaymentRepository(db)
	deps.Gateway = infrastructure.NewSimulatedGateway(config.Gateway.DeclineAbove, logger)

	deps.ChargePayment = application.NewChargePayment(deps.PaymentRepository, deps.Gateway, eventPublisher, logger)
	deps.RefundPayment = application.NewRefundPayment(deps.PaymentRepository, deps.Gateway, eventPublisher, logger)
	deps.GetPaymentByOrder = application.NewGetPaymentByOrder(deps.PaymentRepository)

	deps.PaymentHandlers = handlers.NewPaymentHandlers(
		deps.ChargePayment,
		deps.RefundPayment,
		deps.GetPaymentByOrder,
	)

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if d.EventPublisher != nil {
		if err := d.EventPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
