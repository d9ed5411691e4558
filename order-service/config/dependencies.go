package config

import (
	"fmt"

	"github.com/cartena/fulfillment-system/order-service/application"
	"github.com/cartena/fulfillment-system/order-service/handlers"
	"github.com/cartena/fulfillment-system/order-service/infrastructure"
	"github.com/cartena/fulfillment-system/order-service/saga"
	sharedinfra "github.com/cartena/fulfillment-system/shared/infrastructure"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	OrderRepository *infrastructure.PostgresOrderRepository
	EventStore      *sharedinfra.PostgresEventStore

	// Collaborator clients
	InventoryClient *infrastructure.InventoryHTTPAdapter
	PaymentClient   *infrastructure.PaymentHTTPAdapter

	// Saga
	Orchestrator *saga.Orchestrator

	// Use Cases
	CreateOrder       *application.CreateOrder
	CancelOrder       *application.CancelOrder
	UpdateOrderStatus *application.UpdateOrderStatus
	GetOrder          *application.GetOrder
	ListOrders        *application.ListOrders

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Event consumers
	ShippingStatusHandler *handlers.ShippingStatusHandler
	EventSubscriber       *sharedinfra.SQSSubscriberAdapter

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

	eventSubscriber, err := sharedinfra.NewSQSSubscriberAdapter(config.AWS.SQSQueueURL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQS subscriber: %w", err)
	}
	deps.EventSubscriber = eventSubscriber

	deps.OrderRepository = infrastructure.NewPostgresOrderRepository(db)
	deps.EventStore = sharedinfra.NewPostgresEventStore(db)

	// order lifecycle events go to the durable stream first, then out to SNS
	auditPublisher := infrastructure.NewAuditPublisher(deps.EventStore, eventPublisher)

	deps.InventoryClient = infrastructure.NewInventoryHTTPAdapter(config.Collaborator.InventoryBaseURL)
	deps.PaymentClient = infrastructure.NewPaymentHTTPAdapter(config.Collaborator.PaymentBaseURL)

	deps.Orchestrator = saga.NewOrchestrator(
		deps.OrderRepository,
		deps.InventoryClient,
		deps.PaymentClient,
		logger,
		config.Saga.StepTimeout,
	)

	deps.CreateOrder = application.NewCreateOrder(deps.OrderRepository, deps.Orchestrator, auditPublisher, logger)
	deps.CancelOrder = application.NewCancelOrder(deps.OrderRepository, deps.Orchestrator, auditPublisher, logger)
	deps.UpdateOrderStatus = application.NewUpdateOrderStatus(deps.OrderRepository, auditPublisher, logger)
	deps.GetOrder = application.NewGetOrder(deps.OrderRepository)
	deps.ListOrders = application.NewListOrders(deps.OrderRepository)

	deps.OrderHandlers = handlers.NewOrderHandlers(
		deps.CreateOrder,
		deps.CancelOrder,
		deps.UpdateOrderStatus,
		deps.GetOrder,
		deps.ListOrders,
	)

	deps.ShippingStatusHandler = handlers.NewShippingStatusHandler(deps.UpdateOrderStatus, logger)

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

	if d.EventSubscriber != nil {
		if err := d.EventSubscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event subscriber: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
