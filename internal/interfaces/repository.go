package interfaces

import (
	"context"

	"reservation-service/internal/models"
)

// LedgerRepository defines the contract for stock ledger persistence.
// Implementations return (nil, nil) when no row exists so callers can
// branch to the legacy catalog fallback.
type LedgerRepository interface {
	GetLedger(ctx context.Context, productID string) (*models.StockLedger, error)
	CreateLedger(ctx context.Context, ledger *models.StockLedger) error
	UpdateLedger(ctx context.Context, ledger *models.StockLedger) error
}

// RecordRepository defines the contract for the reservation compensation
// journal. Records are append/transition-only.
type RecordRepository interface {
	CreateRecord(ctx context.Context, record *models.ReservationRecord) error

	// GetLatestRecord returns the most recent record for (orderID, productID),
	// or (nil, nil) when none exists.
	GetLatestRecord(ctx context.Context, orderID, productID string) (*models.ReservationRecord, error)

	// ListReservedByOrder returns all records for the order still in
	// RESERVED status.
	ListReservedByOrder(ctx context.Context, orderID string) ([]models.ReservationRecord, error)

	// TransitionStatus moves a record from one status to another, guarded so
	// repeats and races are no-ops. Returns true if the row was transitioned
	// by this call.
	TransitionStatus(ctx context.Context, id int64, from, to models.ReservationStatus) (bool, error)
}
