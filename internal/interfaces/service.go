package interfaces

import (
	"context"

	"reservation-service/internal/models"
)

// StockLedger defines the contract for per-product counter operations.
// Reserve distinguishes a normal negative outcome (false, nil) from a
// dependency failure (false, err); neither aborts a batch loop.
type StockLedger interface {
	Reserve(ctx context.Context, productID string, qty int) (bool, error)
	Release(ctx context.Context, productID string, qty int) error
	Confirm(ctx context.Context, productID string, qty int) error
	Restock(ctx context.Context, productID string, qty int) error
	Status(ctx context.Context, productID string) (*models.StockStatus, error)
}

// ReservationEngine defines the contract exposed to order orchestration
type ReservationEngine interface {
	ReserveForOrder(ctx context.Context, productID string, qty int, orderID string) bool
	ConfirmForOrder(ctx context.Context, productID string, qty int, orderID string) error
	ReleaseForOrder(ctx context.Context, productID string, qty int, orderID string) error
	RollbackForOrder(ctx context.Context, orderID string) bool
}

// CatalogClient defines the contract for the external product catalog's
// legacy stock field
type CatalogClient interface {
	GetStock(ctx context.Context, productID string) (int, error)
	UpdateStock(ctx context.Context, productID string, stockQuantity int) error
}
