package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"reservation-service/internal/interfaces"
	"reservation-service/internal/models"
)

// BatchOrchestrator applies reserve/confirm/release across multi-line
// orders. ReserveBatch has all-or-nothing intent: the first failure
// triggers a compensating release of everything attempted so far. There is
// no distributed transaction behind this, only a brief partially-reserved
// window bounded by the loop.
type BatchOrchestrator struct {
	engine interfaces.ReservationEngine
}

// NewBatchOrchestrator creates a batch orchestrator on top of the engine
func NewBatchOrchestrator(engine interfaces.ReservationEngine) *BatchOrchestrator {
	return &BatchOrchestrator{engine: engine}
}

// ReserveBatch reserves items in order. On the first failure it releases
// every item attempted so far (including the failed one, a safe no-op) and
// returns false, so no partially-reserved order ever survives.
func (b *BatchOrchestrator) ReserveBatch(ctx context.Context, items []models.BatchItem, orderID string) bool {
	for i, item := range items {
		if b.engine.ReserveForOrder(ctx, item.ProductID, item.Quantity, orderID) {
			continue
		}

		log.Info().
			Str("order_id", orderID).
			Str("product_id", item.ProductID).
			Int("line", i).
			Msg("Batch reservation failed, compensating reserved lines")

		b.ReleaseBatch(ctx, items[:i+1], orderID)
		return false
	}

	return true
}

// ConfirmBatch confirms every line, continuing past individual errors so
// one bad line never blocks the rest
func (b *BatchOrchestrator) ConfirmBatch(ctx context.Context, items []models.BatchItem, orderID string) {
	for _, item := range items {
		if err := b.engine.ConfirmForOrder(ctx, item.ProductID, item.Quantity, orderID); err != nil {
			log.Error().Err(err).
				Str("order_id", orderID).
				Str("product_id", item.ProductID).
				Msg("Failed to confirm batch line")
		}
	}
}

// ReleaseBatch releases every line, continuing past individual errors;
// cleanup must not fail the whole batch over one item
func (b *BatchOrchestrator) ReleaseBatch(ctx context.Context, items []models.BatchItem, orderID string) {
	for _, item := range items {
		if err := b.engine.ReleaseForOrder(ctx, item.ProductID, item.Quantity, orderID); err != nil {
			log.Error().Err(err).
				Str("order_id", orderID).
				Str("product_id", item.ProductID).
				Msg("Failed to release batch line")
		}
	}
}
