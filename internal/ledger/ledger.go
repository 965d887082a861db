package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"reservation-service/internal/interfaces"
	"reservation-service/internal/locks"
	"reservation-service/internal/models"
)

// Ledger owns the per-product stock counters. Every mutation acquires the
// product lock before reading and holds it through the write, so
// same-product operations are strictly serialized while distinct products
// proceed in parallel. When no ledger row exists, Reserve falls back to the
// external catalog's legacy stock field and auto-materializes a row on
// success, migrating the product to the ledger-backed path.
type Ledger struct {
	repo    interfaces.LedgerRepository
	catalog interfaces.CatalogClient
	locks   locks.Manager
}

// NewLedger creates a stock ledger. The catalog client may be nil, in which
// case products without a ledger row simply cannot be reserved.
func NewLedger(repo interfaces.LedgerRepository, catalog interfaces.CatalogClient, lockManager locks.Manager) *Ledger {
	return &Ledger{
		repo:    repo,
		catalog: catalog,
		locks:   lockManager,
	}
}

// Reserve places a hold of qty units. Returns (true, nil) when the hold was
// placed, (false, nil) when stock is insufficient or the input is invalid
// (a normal business outcome), and (false, err) when a dependency failed.
func (l *Ledger) Reserve(ctx context.Context, productID string, qty int) (bool, error) {
	if productID == "" || qty <= 0 {
		log.Warn().Str("product_id", productID).Int("qty", qty).Msg("Rejecting reserve with invalid input")
		return false, nil
	}

	release := l.locks.Acquire(productID)
	defer release()

	row, err := l.repo.GetLedger(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("failed to read ledger for reserve: %w", err)
	}

	if row == nil {
		// The lock is deliberately held across the remote catalog call so a
		// concurrent reserve cannot observe the same legacy stock value.
		return l.reserveViaFallback(ctx, productID, qty)
	}

	if row.QuantityAvailable < qty {
		log.Info().
			Str("product_id", productID).
			Int("requested", qty).
			Int("available", row.QuantityAvailable).
			Msg("Insufficient stock for reservation")
		return false, nil
	}

	// Decrement rather than recompute from on-hand: after a confirm,
	// on-hand minus reserved includes stock already sold.
	row.QuantityReserved += qty
	row.QuantityAvailable -= qty

	if err := l.repo.UpdateLedger(ctx, row); err != nil {
		return false, fmt.Errorf("failed to persist reserve: %w", err)
	}

	return true, nil
}

// reserveViaFallback reserves against the catalog's legacy stockQuantity
// field and materializes a ledger row seeded from the observed on-hand
// value. Caller holds the product lock.
func (l *Ledger) reserveViaFallback(ctx context.Context, productID string, qty int) (bool, error) {
	if l.catalog == nil {
		log.Warn().Str("product_id", productID).Msg("No ledger row and no catalog fallback configured")
		return false, nil
	}

	observed, err := l.catalog.GetStock(ctx, productID)
	if err != nil {
		// Unknown outcome: treated as failure, never as success.
		return false, fmt.Errorf("fallback stock read failed: %w", err)
	}

	if observed < qty {
		log.Info().
			Str("product_id", productID).
			Int("requested", qty).
			Int("stock_quantity", observed).
			Msg("Insufficient legacy stock for reservation")
		return false, nil
	}

	// Keep legacy readers of the catalog roughly consistent before the
	// ledger takes over as the source of truth for this product.
	if err := l.catalog.UpdateStock(ctx, productID, observed-qty); err != nil {
		return false, fmt.Errorf("fallback stock write failed: %w", err)
	}

	row := &models.StockLedger{
		ProductID:         productID,
		QuantityOnHand:    observed,
		QuantityReserved:  qty,
		QuantityAvailable: observed - qty,
	}
	if err := l.repo.CreateLedger(ctx, row); err != nil {
		// The catalog was already decremented; confirm/rollback idempotency
		// at the record level heals this once the caller retries.
		log.Error().Err(err).Str("product_id", productID).Msg("Failed to materialize ledger row after fallback reserve")
		return false, fmt.Errorf("failed to materialize ledger row: %w", err)
	}

	log.Info().
		Str("product_id", productID).
		Int("seeded_on_hand", observed).
		Int("reserved", qty).
		Msg("Materialized ledger row from legacy catalog stock")

	return true, nil
}

// Release returns up to qty units from reserved to available. Only units
// actually held come back; amounts beyond the current hold are ignored so
// sold stock is never resurrected. Double-release protection is enforced by
// the reservation record, not here.
func (l *Ledger) Release(ctx context.Context, productID string, qty int) error {
	if productID == "" || qty <= 0 {
		log.Warn().Str("product_id", productID).Int("qty", qty).Msg("Ignoring release with invalid input")
		return nil
	}

	release := l.locks.Acquire(productID)
	defer release()

	row, err := l.repo.GetLedger(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to read ledger for release: %w", err)
	}
	if row == nil {
		log.Warn().Str("product_id", productID).Msg("Release against product with no ledger row")
		return nil
	}

	released := qty
	if released > row.QuantityReserved {
		released = row.QuantityReserved
	}
	row.QuantityReserved -= released
	row.QuantityAvailable += released

	if err := l.repo.UpdateLedger(ctx, row); err != nil {
		return fmt.Errorf("failed to persist release: %w", err)
	}

	return nil
}

// Confirm clears a hold of qty units. On-hand is not decremented again:
// consumption was accounted when the stock was committed, confirm only
// removes the hold.
func (l *Ledger) Confirm(ctx context.Context, productID string, qty int) error {
	if productID == "" || qty <= 0 {
		log.Warn().Str("product_id", productID).Int("qty", qty).Msg("Ignoring confirm with invalid input")
		return nil
	}

	release := l.locks.Acquire(productID)
	defer release()

	row, err := l.repo.GetLedger(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to read ledger for confirm: %w", err)
	}
	if row == nil {
		return fmt.Errorf("confirm for product %s: %w", productID, models.ErrLedgerNotFound)
	}

	row.QuantityReserved -= qty
	if row.QuantityReserved < 0 {
		row.QuantityReserved = 0
	}

	if err := l.repo.UpdateLedger(ctx, row); err != nil {
		return fmt.Errorf("failed to persist confirm: %w", err)
	}

	return nil
}

// Restock adds qty units to on-hand and available, creating the ledger row
// on first stocking
func (l *Ledger) Restock(ctx context.Context, productID string, qty int) error {
	if productID == "" || qty <= 0 {
		return models.ErrInvalidQuantity
	}

	release := l.locks.Acquire(productID)
	defer release()

	row, err := l.repo.GetLedger(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to read ledger for restock: %w", err)
	}

	if row == nil {
		row = &models.StockLedger{
			ProductID:         productID,
			QuantityOnHand:    qty,
			QuantityAvailable: qty,
		}
		if err := l.repo.CreateLedger(ctx, row); err != nil {
			return fmt.Errorf("failed to create ledger on restock: %w", err)
		}
		return nil
	}

	row.QuantityOnHand += qty
	row.QuantityAvailable += qty

	if err := l.repo.UpdateLedger(ctx, row); err != nil {
		return fmt.Errorf("failed to persist restock: %w", err)
	}

	return nil
}

// Status returns a lock-free snapshot of the product's counters. The read is
// eventually consistent, which is acceptable for display purposes. Products
// not yet migrated to the ledger are read from the legacy catalog.
func (l *Ledger) Status(ctx context.Context, productID string) (*models.StockStatus, error) {
	row, err := l.repo.GetLedger(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger for status: %w", err)
	}

	if row == nil {
		if l.catalog == nil {
			return nil, fmt.Errorf("status for product %s: %w", productID, models.ErrLedgerNotFound)
		}
		observed, err := l.catalog.GetStock(ctx, productID)
		if err != nil {
			if errors.Is(err, models.ErrCatalogUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("fallback status read failed: %w", err)
		}
		return &models.StockStatus{
			ProductID: productID,
			Total:     observed,
			Available: observed,
			UpdatedAt: time.Now(),
		}, nil
	}

	sold := row.QuantityOnHand - row.QuantityAvailable - row.QuantityReserved
	if sold < 0 {
		sold = 0
	}

	return &models.StockStatus{
		ProductID: productID,
		Total:     row.QuantityOnHand,
		Available: row.QuantityAvailable,
		Reserved:  row.QuantityReserved,
		Sold:      sold,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
