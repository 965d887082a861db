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

// RecordRepository handles database operations for the reservation
// compensation journal
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository creates a new reservation record repository
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// CreateRecord appends a new reservation record. One row per reservation
// attempt; rows are never deleted.
func (r *RecordRepository) CreateRecord(ctx context.Context, record *models.ReservationRecord) error {
	query := `INSERT INTO reservation_record (order_id, product_id, qty, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())
			  RETURNING id`

	err := r.db.QueryRowContext(ctx, query, record.OrderID, record.ProductID,
		record.Quantity, record.Status).Scan(&record.ID)
	if err != nil {
		log.Error().Err(err).
			Str("order_id", record.OrderID).
			Str("product_id", record.ProductID).
			Msg("Failed to create reservation record")
		return fmt.Errorf("failed to create reservation record: %w", err)
	}

	now := time.Now()
	record.CreatedAt = now
	record.UpdatedAt = now

	return nil
}

// GetLatestRecord retrieves the most recent record for (orderID, productID),
// or (nil, nil) when none exists
func (r *RecordRepository) GetLatestRecord(ctx context.Context, orderID, productID string) (*models.ReservationRecord, error) {
	var record models.ReservationRecord
	query := `SELECT id, order_id, product_id, qty, status, created_at, updated_at
			  FROM reservation_record
			  WHERE order_id = $1 AND product_id = $2
			  ORDER BY id DESC
			  LIMIT 1`

	err := r.db.GetContext(ctx, &record, query, orderID, productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		log.Error().Err(err).
			Str("order_id", orderID).
			Str("product_id", productID).
			Msg("Failed to get reservation record")
		return nil, fmt.Errorf("failed to get reservation record: %w", err)
	}

	return &record, nil
}

// ListReservedByOrder retrieves all records for an order still in RESERVED
// status, used by rollback
func (r *RecordRepository) ListReservedByOrder(ctx context.Context, orderID string) ([]models.ReservationRecord, error) {
	var records []models.ReservationRecord
	query := `SELECT id, order_id, product_id, qty, status, created_at, updated_at
			  FROM reservation_record
			  WHERE order_id = $1 AND status = $2
			  ORDER BY id ASC`

	err := r.db.SelectContext(ctx, &records, query, orderID, models.ReservationStatusReserved)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("Failed to list reserved records")
		return nil, fmt.Errorf("failed to list reserved records: %w", err)
	}

	return records, nil
}

// TransitionStatus moves a record between statuses, guarded by the expected
// current status so repeated transitions are no-ops. Returns true when this
// call performed the transition.
func (r *RecordRepository) TransitionStatus(ctx context.Context, id int64, from, to models.ReservationStatus) (bool, error) {
	query := `UPDATE reservation_record SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`

	result, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		log.Error().Err(err).Int64("record_id", id).Msg("Failed to transition reservation record")
		return false, fmt.Errorf("failed to transition reservation record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rowsAffected > 0, nil
}
