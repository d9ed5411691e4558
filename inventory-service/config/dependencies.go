package config

import (
	"fmt"

	"github.com/cartena/fulfillment-system/inventory-service/application"
	"github.com/cartena/fulfillment-system/inventory-service/handlers"
	"github.com/cartena/fulfillment-system/inventory-service/infrastructure"
	sharedinfra "github.com/cartena/fulfillment-system/shared/infrastructure"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	InventoryRepository *infrastructure.PostgresInventoryRepository

	// Use Cases
	AddStock           *application.AddStock
	ReserveStock       *application.ReserveStock
	CommitReservation  *application.CommitReservation
	ReleaseReservation *application.ReleaseReservation
	GetInventory       *application.GetInventory
	ListInventories    *application.ListInventories

	// HTTP Handlers
	InventoryHandlers *handlers.InventoryHandlers

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

	deps.InventoryRepository = infrastructure.NewPostgresInventoryRepository(db)

	deps.AddStock = application.NewAddStock(deps.InventoryRepository, eventPublisher, logger)
	deps.ReserveStock = application.NewReserveStock(deps.InventoryRepository, eventPublisher, logger)
	deps.CommitReservation = application.NewCommitReservation(deps.InventoryRepository, eventPublisher, logger)
	deps.ReleaseReservation = application.NewReleaseReservation(deps.InventoryRepository, eventPublisher, logger)
	deps.GetInventory = application.NewGetInventory(deps.InventoryRepository)
	deps.ListInventories = application.NewListInventories(deps.InventoryRepository)

	deps.InventoryHandlers = handlers.NewInventoryHandlers(
		deps.AddStock,
		deps.ReserveStock,
		deps.CommitReservation,
		deps.ReleaseReservation,
		deps.GetInventory,
		deps.ListInventories,
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
