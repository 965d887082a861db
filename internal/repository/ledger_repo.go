package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"reservation-service/internal/models"
)

// LedgerRepository handles database operations for the stock ledger
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetLedger retrieves the ledger row for a product, or (nil, nil) when no
// row exists yet (the caller branches to the catalog fallback)
func (r *LedgerRepository) GetLedger(ctx context.Context, productID string) (*models.StockLedger, error) {
	var ledger models.StockLedger
	query := `SELECT product_id, warehouse_location, quantity_on_hand, quantity_reserved, quantity_available,
			  min_stock_level, reorder_point, created_at, updated_at
			  FROM stock_ledger WHERE product_id = $1`

	err := r.db.GetContext(ctx, &ledger, query, productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.Error().Err(err).Str("product_id", productID).Msg("Failed to get stock ledger")
		return nil, fmt.Errorf("failed to get stock ledger: %w", err)
	}

	return &ledger, nil
}

// CreateLedger creates a new ledger row, used on first stocking and on
// fallback auto-materialization
func (r *LedgerRepository) CreateLedger(ctx context.Context, ledger *models.StockLedger) error {
	query := `INSERT INTO stock_ledger (product_id, warehouse_location, quantity_on_hand, quantity_reserved,
			  quantity_available, min_stock_level, reorder_point, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query, ledger.ProductID, ledger.WarehouseLocation,
		ledger.QuantityOnHand, ledger.QuantityReserved, ledger.QuantityAvailable,
		ledger.MinStockLevel, ledger.ReorderPoint)
	if err != nil {
		log.Error().Err(err).Str("product_id", ledger.ProductID).Msg("Failed to create stock ledger")
		return fmt.Errorf("failed to create stock ledger: %w", err)
	}

	now := time.Now()
	ledger.CreatedAt = now
	ledger.UpdatedAt = now

	return nil
}

// UpdateLedger persists the counters of an existing ledger row. Callers hold
// the product lock, so no optimistic version check is needed here.
func (r *LedgerRepository) UpdateLedger(ctx context.Context, ledger *models.StockLedger) error {
	query := `UPDATE stock_ledger
			  SET quantity_on_hand = $2, quantity_reserved = $3, quantity_available = $4, updated_at = NOW()
			  WHERE product_id = $1`

	result, err := r.db.ExecContext(ctx, query, ledger.ProductID,
		ledger.QuantityOnHand, ledger.QuantityReserved, ledger.QuantityAvailable)
	if err != nil {
		log.Error().Err(err).Str("product_id", ledger.ProductID).Msg("Failed to update stock ledger")
		return fmt.Errorf("failed to update stock ledger: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("stock ledger row missing for product %s: %w", ledger.ProductID, models.ErrLedgerNotFound)
	}

	ledger.UpdatedAt = time.Now()

	return nil
}
