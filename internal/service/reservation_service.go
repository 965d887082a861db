package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"reservation-service/internal/interfaces"
	"reservation-service/internal/models"
)

// ReservationService orchestrates the two-phase reservation protocol:
// reserve places a hold and appends a RESERVED record, confirm and release
// move that record to its terminal status and adjust the ledger. The record
// is the durable compensation journal; the ledger row is the source of
// truth for counters. Their writes commit independently; a crash between
// them self-heals because confirm and rollback are idempotent.
type ReservationService struct {
	ledger    interfaces.StockLedger
	records   interfaces.RecordRepository
	publisher interfaces.EventPublisher
	cache     interfaces.StatusCache
}

// NewReservationService creates a reservation engine. Publisher and cache
// are optional: both are best-effort side channels.
func NewReservationService(
	stockLedger interfaces.StockLedger,
	records interfaces.RecordRepository,
	publisher interfaces.EventPublisher,
	cache interfaces.StatusCache,
) *ReservationService {
	return &ReservationService{
		ledger:    stockLedger,
		records:   records,
		publisher: publisher,
		cache:     cache,
	}
}

// ReserveForOrder reserves qty units of a product against an order. A false
// result is a normal business outcome (insufficient stock or invalid
// input), not an error requiring retry. On success a RESERVED record is
// appended; on failure nothing is written.
func (s *ReservationService) ReserveForOrder(ctx context.Context, productID string, qty int, orderID string) bool {
	if productID == "" || orderID == "" || qty <= 0 {
		log.Warn().
			Str("product_id", productID).
			Str("order_id", orderID).
			Int("qty", qty).
			Msg("Rejecting reservation with invalid input")
		return false
	}

	ok, err := s.ledger.Reserve(ctx, productID, qty)
	if err != nil {
		log.Error().Err(err).
			Str("product_id", productID).
			Str("order_id", orderID).
			Msg("Ledger reserve failed")
		return false
	}
	if !ok {
		return false
	}

	record := &models.ReservationRecord{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  qty,
		Status:    models.ReservationStatusReserved,
	}
	if err := s.records.CreateRecord(ctx, record); err != nil {
		// The hold exists but the journal entry does not; release the hold
		// again so no stock is ever held without a record to roll it back.
		log.Error().Err(err).
			Str("product_id", productID).
			Str("order_id", orderID).
			Msg("Failed to journal reservation, releasing hold")
		if relErr := s.ledger.Release(ctx, productID, qty); relErr != nil {
			log.Error().Err(relErr).
				Str("product_id", productID).
				Str("order_id", orderID).
				Msg("Failed to release hold after journal failure")
		}
		return false
	}

	s.publishEvent(ctx, models.EventTypeStockReserved, productID, orderID, qty)
	s.invalidateStatus(productID)

	return true
}

// ConfirmForOrder permanently consumes a reservation: the RESERVED record
// transitions to CONFIRMED and the ledger hold is cleared. Calling twice on
// an already-confirmed order is a no-op, so upstream retries after timeouts
// never double-apply.
func (s *ReservationService) ConfirmForOrder(ctx context.Context, productID string, qty int, orderID string) error {
	record, err := s.records.GetLatestRecord(ctx, orderID, productID)
	if err != nil {
		return fmt.Errorf("failed to locate reservation: %w", err)
	}
	if record == nil {
		return fmt.Errorf("confirm for order %s product %s: %w", orderID, productID, models.ErrRecordNotFound)
	}

	switch record.Status {
	case models.ReservationStatusConfirmed:
		log.Debug().
			Str("order_id", orderID).
			Str("product_id", productID).
			Msg("Reservation already confirmed, skipping")
		return nil
	case models.ReservationStatusReleased:
		return fmt.Errorf("confirm for order %s product %s: %w", orderID, productID, models.ErrRecordReleased)
	}

	transitioned, err := s.records.TransitionStatus(ctx, record.ID, models.ReservationStatusReserved, models.ReservationStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to confirm reservation: %w", err)
	}
	if !transitioned {
		// A concurrent confirm won the transition and already adjusted the
		// ledger; nothing left to do.
		return nil
	}

	if err := s.ledger.Confirm(ctx, productID, record.Quantity); err != nil {
		return fmt.Errorf("failed to clear hold on confirm: %w", err)
	}

	s.publishEvent(ctx, models.EventTypeStockConfirmed, productID, orderID, record.Quantity)
	s.invalidateStatus(productID)

	return nil
}

// ReleaseForOrder cancels a reservation, returning units to available. When
// a record exists the RESERVED->RELEASED transition is won first and only
// the winner adjusts the ledger, so concurrent releases of the same row
// free stock exactly once. Stock reserved through the pre-ledger fallback
// path has no record and is released directly.
func (s *ReservationService) ReleaseForOrder(ctx context.Context, productID string, qty int, orderID string) error {
	record, err := s.records.GetLatestRecord(ctx, orderID, productID)
	if err != nil {
		return fmt.Errorf("failed to locate reservation for release: %w", err)
	}

	if record != nil {
		if record.Status != models.ReservationStatusReserved {
			log.Debug().
				Str("order_id", orderID).
				Str("product_id", productID).
				Str("status", string(record.Status)).
				Msg("Reservation not releasable, skipping")
			return nil
		}

		transitioned, err := s.records.TransitionStatus(ctx, record.ID, models.ReservationStatusReserved, models.ReservationStatusReleased)
		if err != nil {
			return fmt.Errorf("failed to mark reservation released: %w", err)
		}
		if !transitioned {
			// A concurrent release or confirm won the transition and the
			// ledger was already adjusted.
			return nil
		}
	}

	if err := s.ledger.Release(ctx, productID, qty); err != nil {
		return fmt.Errorf("failed to release hold: %w", err)
	}

	s.publishEvent(ctx, models.EventTypeStockReleased, productID, orderID, qty)
	s.invalidateStatus(productID)

	return nil
}

// RollbackForOrder releases every RESERVED record of an order, continuing
// past individual failures so one bad row never blocks the rest. Returns
// true if no RESERVED records remain, which makes the call safe to repeat.
func (s *ReservationService) RollbackForOrder(ctx context.Context, orderID string) bool {
	records, err := s.records.ListReservedByOrder(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("Failed to list reservations for rollback")
		return false
	}

	allReleased := true
	for i := range records {
		record := &records[i]

		transitioned, err := s.records.TransitionStatus(ctx, record.ID, models.ReservationStatusReserved, models.ReservationStatusReleased)
		if err != nil {
			log.Error().Err(err).
				Str("order_id", orderID).
				Str("product_id", record.ProductID).
				Msg("Failed to mark reservation released during rollback")
			allReleased = false
			continue
		}
		if !transitioned {
			// A concurrent release already freed this row.
			continue
		}

		if err := s.ledger.Release(ctx, record.ProductID, record.Quantity); err != nil {
			log.Error().Err(err).
				Str("order_id", orderID).
				Str("product_id", record.ProductID).
				Msg("Failed to release hold during rollback")
			allReleased = false
			continue
		}

		s.publishEvent(ctx, models.EventTypeStockReleased, record.ProductID, orderID, record.Quantity)
		s.invalidateStatus(record.ProductID)
	}

	return allReleased
}

// Restock adds stock for a product, creating its ledger row on first
// stocking
func (s *ReservationService) Restock(ctx context.Context, productID string, qty int) error {
	if err := s.ledger.Restock(ctx, productID, qty); err != nil {
		return err
	}

	s.publishEvent(ctx, models.EventTypeStockRestocked, productID, "", qty)
	s.invalidateStatus(productID)

	return nil
}

// Status returns the display snapshot for a product, served from cache when
// possible
func (s *ReservationService) Status(ctx context.Context, productID string) (*models.StockStatus, error) {
	if s.cache != nil {
		status, err := s.cache.GetStatus(ctx, productID)
		if err != nil {
			log.Error().Err(err).Str("product_id", productID).Msg("Cache error, falling back to ledger")
		}
		if status != nil {
			return status, nil
		}
	}

	status, err := s.ledger.Status(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := s.cache.SetStatus(ctx, status); err != nil {
				log.Error().Err(err).Str("product_id", productID).Msg("Failed to cache status")
			}
		}()
	}

	return status, nil
}

// publishEvent emits a stock event best-effort; a publish failure is logged
// and never fails the operation that produced it
func (s *ReservationService) publishEvent(ctx context.Context, eventType, productID, orderID string, qty int) {
	if s.publisher == nil {
		return
	}

	event := &models.StockEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		ProductID: productID,
		OrderID:   orderID,
		Quantity:  qty,
		Timestamp: time.Now(),
	}

	if err := s.publisher.PublishStockEvent(ctx, event); err != nil {
		log.Error().Err(err).
			Str("event_type", eventType).
			Str("product_id", productID).
			Msg("Failed to publish stock event")
	}
}

func (s *ReservationService) invalidateStatus(productID string) {
	if s.cache == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.cache.DeleteStatus(ctx, productID); err != nil {
			log.Error().Err(err).Str("product_id", productID).Msg("Failed to invalidate status cache")
		}
	}()
}
