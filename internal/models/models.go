package models

import (
	"errors"
	"time"
)

// ReservationStatus represents the state of a reservation record
type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "RESERVED"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
)

// Event types for Kafka messages
const (
	EventTypeStockReserved  = "stock_reserved"
	EventTypeStockConfirmed = "stock_confirmed"
	EventTypeStockReleased  = "stock_released"
	EventTypeStockRestocked = "stock_restocked"
)

// Sentinel errors checked with errors.Is across the service
var (
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrLedgerNotFound     = errors.New("stock ledger not found")
	ErrRecordNotFound     = errors.New("reservation record not found")
	ErrRecordReleased     = errors.New("reservation already released")
)

// ErrorCode represents standardized error codes for API responses
type ErrorCode string

const (
	ErrorCodeInvalidField      ErrorCode = "INVALID_FIELD"
	ErrorCodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"
	ErrorCodeRecordNotFound    ErrorCode = "RESERVATION_NOT_FOUND"
	ErrorCodeProductNotFound   ErrorCode = "PRODUCT_NOT_FOUND"
	ErrorCodeAlreadyReleased   ErrorCode = "ALREADY_RELEASED"
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// Domain Models

// StockLedger represents the stock_ledger table structure.
// Counters obey available + reserved <= onHand (the difference is stock
// already sold); the row is mutated only under the per-product lock and is
// never hard-deleted.
type StockLedger struct {
	ProductID         string    `db:"product_id" json:"product_id"`
	WarehouseLocation string    `db:"warehouse_location" json:"warehouse_location"`
	QuantityOnHand    int       `db:"quantity_on_hand" json:"quantity_on_hand"`
	QuantityReserved  int       `db:"quantity_reserved" json:"quantity_reserved"`
	QuantityAvailable int       `db:"quantity_available" json:"quantity_available"`
	MinStockLevel     int       `db:"min_stock_level" json:"min_stock_level"`
	ReorderPoint      int       `db:"reorder_point" json:"reorder_point"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ReservationRecord is one row of the compensation journal, keyed by
// (order_id, product_id). Transitions are RESERVED->CONFIRMED or
// RESERVED->RELEASED; both are terminal.
type ReservationRecord struct {
	ID        int64             `db:"id" json:"id"`
	OrderID   string            `db:"order_id" json:"order_id"`
	ProductID string            `db:"product_id" json:"product_id"`
	Quantity  int               `db:"qty" json:"qty"`
	Status    ReservationStatus `db:"status" json:"status"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// StockStatus is the lock-free display snapshot of a product's counters.
// Sold is derived: onHand - available - reserved, clamped at zero.
type StockStatus struct {
	ProductID string    `json:"product_id"`
	Total     int       `json:"total"`
	Available int       `json:"available"`
	Reserved  int       `json:"reserved"`
	Sold      int       `json:"sold"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CatalogProduct mirrors the external catalog's product payload. Only the
// legacy embedded stock field matters to this service.
type CatalogProduct struct {
	ProductID     string `json:"id"`
	StockQuantity int    `json:"stockQuantity"`
}

// BatchItem is one order line in a batch operation
type BatchItem struct {
	ProductID string `json:"product_id" binding:"required" validate:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1" validate:"required,min=1"`
}

// StockEvent represents events published to Kafka, keyed by product id so
// per-product ordering is preserved
type StockEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ProductID string    `json:"product_id"`
	OrderID   string    `json:"order_id,omitempty"`
	Quantity  int       `json:"qty"`
	Timestamp time.Time `json:"timestamp"`
}

// API Request Models

// ReserveRequest represents a single-line reserve/confirm/release request
type ReserveRequest struct {
	Qty     int    `json:"qty" binding:"required,min=1" validate:"required,min=1"`
	OrderID string `json:"order_id" binding:"required" validate:"required"`
}

// BatchRequest represents a multi-line batch request
type BatchRequest struct {
	Items []BatchItem `json:"items" binding:"required,min=1,dive" validate:"required,min=1,dive"`
}

// RestockRequest represents a restock request
type RestockRequest struct {
	Qty int `json:"qty" binding:"required,min=1" validate:"required,min=1"`
}

// API Response Models

// ReserveResponse reports the outcome of a reserve attempt
type ReserveResponse struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id"`
	Qty       int    `json:"qty"`
	Reserved  bool   `json:"reserved"`
}

// BatchResponse reports the outcome of a batch operation
type BatchResponse struct {
	OrderID string `json:"order_id"`
	Success bool   `json:"success"`
}

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}
