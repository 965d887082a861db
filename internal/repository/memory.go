package repository

import (
	"context"
	"sync"
	"time"

	"reservation-service/internal/models"
)

// In-memory implementations of the repository contracts, used by tests and
// local development where Postgres is not available.

// MemoryLedgerRepository stores ledger rows in a map guarded by a mutex
type MemoryLedgerRepository struct {
	mu      sync.RWMutex
	ledgers map[string]*models.StockLedger
}

// NewMemoryLedgerRepository creates an empty in-memory ledger repository
func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{
		ledgers: make(map[string]*models.StockLedger),
	}
}

func (r *MemoryLedgerRepository) GetLedger(ctx context.Context, productID string) (*models.StockLedger, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	ledger, ok := r.ledgers[productID]
	if !ok {
		return nil, nil
	}
	return cloneLedger(ledger), nil
}

func (r *MemoryLedgerRepository) CreateLedger(ctx context.Context, ledger *models.StockLedger) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	ledger.CreatedAt = now
	ledger.UpdatedAt = now
	r.ledgers[ledger.ProductID] = cloneLedger(ledger)
	return nil
}

func (r *MemoryLedgerRepository) UpdateLedger(ctx context.Context, ledger *models.StockLedger) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ledgers[ledger.ProductID]; !ok {
		return models.ErrLedgerNotFound
	}
	ledger.UpdatedAt = time.Now()
	r.ledgers[ledger.ProductID] = cloneLedger(ledger)
	return nil
}

func cloneLedger(ledger *models.StockLedger) *models.StockLedger {
	if ledger == nil {
		return nil
	}
	clone := *ledger
	return &clone
}

// MemoryRecordRepository stores reservation records in insertion order
type MemoryRecordRepository struct {
	mu      sync.Mutex
	nextID  int64
	records []*models.ReservationRecord
}

// NewMemoryRecordRepository creates an empty in-memory record repository
func NewMemoryRecordRepository() *MemoryRecordRepository {
	return &MemoryRecordRepository{nextID: 1}
}

func (r *MemoryRecordRepository) CreateRecord(ctx context.Context, record *models.ReservationRecord) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	record.ID = r.nextID
	record.CreatedAt = now
	record.UpdatedAt = now
	r.nextID++

	clone := *record
	r.records = append(r.records, &clone)
	return nil
}

func (r *MemoryRecordRepository) GetLatestRecord(ctx context.Context, orderID, productID string) (*models.ReservationRecord, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if rec.OrderID == orderID && rec.ProductID == productID {
			clone := *rec
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryRecordRepository) ListReservedByOrder(ctx context.Context, orderID string) ([]models.ReservationRecord, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.ReservationRecord
	for _, rec := range r.records {
		if rec.OrderID == orderID && rec.Status == models.ReservationStatusReserved {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *MemoryRecordRepository) TransitionStatus(ctx context.Context, id int64, from, to models.ReservationStatus) (bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		if rec.ID == id && rec.Status == from {
			rec.Status = to
			rec.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}
