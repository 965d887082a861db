package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reservation-service/internal/models"
)

func TestGetStockReadsLegacyField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products/p1", r.URL.Path)
		json.NewEncoder(w).Encode(models.CatalogProduct{ProductID: "p1", StockQuantity: 50})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	stock, err := client.GetStock(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 50, stock)
}

func TestGetStockCatalogError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	_, err := client.GetStock(context.Background(), "p1")
	assert.ErrorIs(t, err, models.ErrCatalogUnavailable)
}

func TestGetStockCatalogUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second)

	_, err := client.GetStock(context.Background(), "p1")
	assert.ErrorIs(t, err, models.ErrCatalogUnavailable)
}

func TestUpdateStockWritesLegacyField(t *testing.T) {
	var got map[string]int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/products/p1/stock", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	require.NoError(t, client.UpdateStock(context.Background(), "p1", 40))
	assert.Equal(t, 40, got["stockQuantity"])
}
