package interfaces

import (
	"context"

	"reservation-service/internal/models"
)

// EventPublisher defines the contract for publishing stock events.
// Publishing is best-effort: failures are logged by callers and never fail
// the ledger operation that produced the event.
type EventPublisher interface {
	PublishStockEvent(ctx context.Context, event *models.StockEvent) error
	Close() error
}

// StatusCache defines the contract for the status snapshot cache
type StatusCache interface {
	GetStatus(ctx context.Context, productID string) (*models.StockStatus, error)
	SetStatus(ctx context.Context, status *models.StockStatus) error
	DeleteStatus(ctx context.Context, productID string) error
	Close() error
}
