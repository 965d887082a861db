package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservation-service/internal/ledger"
	"reservation-service/internal/locks"
	"reservation-service/internal/models"
	"reservation-service/internal/repository"
	"reservation-service/internal/service"
)

func newTestRouter() http.Handler {
	stockLedger := ledger.NewLedger(repository.NewMemoryLedgerRepository(), nil, locks.NewKeyedMutex())
	engine := service.NewReservationService(stockLedger, repository.NewMemoryRecordRepository(), nil, nil)
	return NewHandler(engine, service.NewBatchOrchestrator(engine)).SetupRoutes()
}

func TestStatusUnknownProductReturnsProductNotFound(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/unknown", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrorCodeProductNotFound, resp.Code)
}

func TestRestockThenStatus(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/p1/restock", strings.NewReader(`{"qty":25}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/p1", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var status models.StockStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, 25, status.Total)
	assert.Equal(t, 25, status.Available)
}

func TestReserveInsufficientStockReturnsConflict(t *testing.T) {
	router := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/p1/reserve",
		strings.NewReader(`{"qty":5,"order_id":"order-1"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrorCodeInsufficientStock, resp.Code)
}
